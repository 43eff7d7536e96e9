package credential

import (
	"context"
	"errors"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// OAuthConfig holds the registered application ids.
type OAuthConfig struct {
	GitHubClientID string
	GitLabClientID string
	GitLabURL      string
	RedirectURL    string
}

// OAuth builds authorization links for the providers that support a browser
// login. Jenkins only accepts API tokens.
type OAuth struct {
	configs map[models.Provider]*oauth2.Config
}

// NewOAuth registers a config for every provider with a client id.
func NewOAuth(cfg OAuthConfig) *OAuth {
	o := &OAuth{configs: make(map[models.Provider]*oauth2.Config)}

	if cfg.GitHubClientID != "" {
		o.configs[models.ProviderGitHub] = &oauth2.Config{
			ClientID:    cfg.GitHubClientID,
			Endpoint:    github.Endpoint,
			RedirectURL: cfg.RedirectURL,
			Scopes:      []string{"repo", "workflow"},
		}
	}

	if cfg.GitLabClientID != "" {
		base := strings.TrimRight(cfg.GitLabURL, "/")
		if base == "" {
			base = "https://gitlab.com"
		}
		o.configs[models.ProviderGitLab] = &oauth2.Config{
			ClientID: cfg.GitLabClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/oauth/authorize",
				TokenURL: base + "/oauth/token",
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      []string{"api"},
		}
	}

	return o
}

// AuthorizeURL returns the consent page for p, carrying state.
func (o *OAuth) AuthorizeURL(p models.Provider, state string) (string, error) {
	if strings.TrimSpace(state) == "" {
		return "", errors.New("oauth state is required")
	}

	cfg, ok := o.configs[p]
	if !ok {
		return "", &provider.UnsupportedOperationError{Provider: p, Operation: "oauth login"}
	}

	return cfg.AuthCodeURL(state), nil
}

// Exchange would trade an authorization code for a token. The code exchange
// needs a client secret, which a single-user install does not hold, so
// callers must use personal access tokens instead.
func (o *OAuth) Exchange(_ context.Context, p models.Provider, _ string) (*provider.Credential, error) {
	return nil, &provider.UnsupportedOperationError{Provider: p, Operation: "oauth code exchange"}
}
