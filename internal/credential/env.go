package credential

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/pkg/log"
)

// Lookup reads a variable from the environment.
type Lookup func(key string) string

// Environment returns credentials found in the conventional CI variables:
// GITHUB_TOKEN, GITLAB_TOKEN (with optional GITLAB_URL) and
// JENKINS_URL, JENKINS_USER and JENKINS_TOKEN.
func Environment(lookup Lookup) []*provider.Credential {
	if lookup == nil {
		lookup = os.Getenv
	}
	get := func(key string) string { return strings.TrimSpace(lookup(key)) }

	var creds []*provider.Credential
	if token := get("GITHUB_TOKEN"); token != "" {
		creds = append(creds, &provider.Credential{
			Provider:    models.ProviderGitHub,
			TokenType:   models.TokenTypePersonalAccessToken,
			AccessToken: token,
		})
	}
	if token := get("GITLAB_TOKEN"); token != "" {
		creds = append(creds, &provider.Credential{
			Provider:    models.ProviderGitLab,
			TokenType:   models.TokenTypePersonalAccessToken,
			AccessToken: token,
			ServerURL:   get("GITLAB_URL"),
		})
	}
	if token := get("JENKINS_TOKEN"); token != "" {
		creds = append(creds, &provider.Credential{
			Provider:    models.ProviderJenkins,
			TokenType:   models.TokenTypeAPIKey,
			AccessToken: token,
			ServerURL:   get("JENKINS_URL"),
			Username:    get("JENKINS_USER"),
		})
	}
	return creds
}

// FromEnvironment saves environment credentials for providers that have no
// active credential yet, and returns the providers it seeded.
func FromEnvironment(ctx context.Context, store *Store, lookup Lookup) ([]models.Provider, error) {
	var (
		seeded []models.Provider
		errs   []error
	)

	for _, cred := range Environment(lookup) {
		if _, ok := store.Get(ctx, cred.Provider); ok {
			continue
		}
		if err := store.Save(ctx, cred); err != nil {
			log.Warn("skipping environment credential", "provider", cred.Provider, "error", err)
			errs = append(errs, err)
			continue
		}
		seeded = append(seeded, cred.Provider)
	}

	return seeded, errors.Join(errs...)
}
