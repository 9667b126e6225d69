package warehouses

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DatabricksAuth selects how requests are authenticated. A personal access
// token wins over OAuth machine-to-machine credentials.
type DatabricksAuth struct {
	Token        string
	ClientID     string
	ClientSecret string
}

// Method names the configured authentication flow
func (a DatabricksAuth) Method() string {
	switch {
	case a.Token != "":
		return "pat"
	case a.ClientID != "" && a.ClientSecret != "":
		return "oauth-m2m"
	}
	return "none"
}

// NewTokenSource builds the token source for a workspace. OAuth tokens are
// fetched from the workspace OIDC endpoint and cached until they expire.
func NewTokenSource(ctx context.Context, workspaceURL string, auth DatabricksAuth) (oauth2.TokenSource, error) {
	switch auth.Method() {
	case "pat":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.Token, TokenType: "Bearer"}), nil
	case "oauth-m2m":
		cfg := clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			TokenURL:     NormalizeWorkspaceURL(workspaceURL) + "/oidc/v1/token",
			Scopes:       []string{"all-apis"},
		}
		return cfg.TokenSource(ctx), nil
	}
	return nil, fmt.Errorf("no access token or OAuth client credentials configured")
}
