package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// applyProfile fills host and credentials that were not set explicitly from
// the Databricks CLI config file. A missing file is not an error: validation
// reports what is still absent.
func (d *DatabricksConfig) applyProfile() error {
	if d.Host != "" && (d.Token != "" || d.ClientID != "") {
		return nil
	}

	path, err := expandHome(d.ConfigFile)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	section, err := file.GetSection(d.Profile)
	if err != nil {
		return fmt.Errorf("profile %q not found in %s", d.Profile, path)
	}
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(section.Key(key).String())
		}
	}
	fill(&d.Host, "host")
	fill(&d.Token, "token")
	fill(&d.ClientID, "client_id")
	fill(&d.ClientSecret, "client_secret")
	fill(&d.WarehouseID, "warehouse_id")
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
