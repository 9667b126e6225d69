package verifier

import (
	"context"
	"fmt"
	"os"
	"strings"

	"dialect-bridge/internal/utils/sql_splitter"
)

// ScriptLoader loads fixtures from SQL scripts, one statement per `;`.
type ScriptLoader struct {
	Paths []string
}

// NewScriptLoader creates a loader for the given scripts, run in order.
func NewScriptLoader(paths ...string) *ScriptLoader {
	return &ScriptLoader{Paths: paths}
}

func (l *ScriptLoader) Load(ctx context.Context, exec Executor) error {
	for _, path := range l.Paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", path, err)
		}
		for i, stmt := range SplitScript(string(raw)) {
			if _, err := exec.ExecuteQuery(ctx, stmt); err != nil {
				return fmt.Errorf("fixture %s statement %d: %w", path, i+1, err)
			}
		}
	}
	return nil
}

// SplitScript cuts a script on `;` after dropping line comments.
func SplitScript(script string) []string {
	var out []string
	for _, part := range sql_splitter.SplitOnTerminators(sql_splitter.StripLineComments(script)) {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
