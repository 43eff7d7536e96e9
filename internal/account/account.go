// Package account signs providers in and out.
package account

import (
	"context"
	"fmt"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/credential"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/pkg/log"
)

// Status describes the sign-in state of one provider.
type Status struct {
	Provider      models.Provider   `json:"provider"`
	Authenticated bool              `json:"authenticated"`
	User          *models.User      `json:"user,omitempty"`
	Token         *models.AuthToken `json:"token,omitempty"`
}

// Service validates and stores credentials and the identities behind them.
type Service struct {
	credentials *credential.Store
	cache       *cache.Store
	registry    *provider.Registry
}

// New builds an account service.
func New(credentials *credential.Store, store *cache.Store, registry *provider.Registry) *Service {
	return &Service{credentials: credentials, cache: store, registry: registry}
}

// Authenticate checks cred against the provider, then stores it as the
// active credential and caches the account it belongs to. Nothing is
// stored when the provider rejects the credential.
func (s *Service) Authenticate(ctx context.Context, cred *provider.Credential) (*models.User, error) {
	if err := credential.Validate(cred); err != nil {
		return nil, err
	}

	client, err := s.registry.Get(cred.Provider)
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("verify %s credential: %w", cred.Provider.Prefix(), err)
	}

	if err := s.credentials.Save(ctx, cred); err != nil {
		return nil, err
	}

	if err := s.cache.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("cache user: %w", err)
	}

	log.Info("provider authenticated", "provider", cred.Provider, "username", user.Username)
	return user, nil
}

// Logout forgets the credential, the account and every cached pipeline of p.
func (s *Service) Logout(ctx context.Context, p models.Provider) error {
	if err := s.credentials.Delete(ctx, p); err != nil {
		return err
	}
	if err := s.cache.DeactivateUsers(ctx, p); err != nil {
		return fmt.Errorf("deactivate users: %w", err)
	}

	removed, err := s.cache.DeletePipelinesByProvider(ctx, p)
	if err != nil {
		return fmt.Errorf("drop pipelines: %w", err)
	}

	log.Info("provider logged out", "provider", p, "pipelines_removed", removed)
	return nil
}

// Statuses reports the sign-in state of every provider.
func (s *Service) Statuses(ctx context.Context) ([]Status, error) {
	tokens, err := s.credentials.Active(ctx)
	if err != nil {
		return nil, err
	}
	byProvider := make(map[models.Provider]*models.AuthToken, len(tokens))
	for i := range tokens {
		byProvider[tokens[i].Provider] = &tokens[i]
	}

	out := make([]Status, 0, len(models.Providers))
	for _, p := range models.Providers {
		st := Status{Provider: p, Token: byProvider[p]}
		if _, ok := s.credentials.Get(ctx, p); ok {
			st.Authenticated = true
			if user, err := s.cache.ActiveUser(ctx, p); err == nil {
				st.User = user
			}
		}
		out = append(out, st)
	}
	return out, nil
}
