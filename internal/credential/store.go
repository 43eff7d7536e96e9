package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sealed is the secret half of a credential as it is written to the vault.
type sealed struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Store owns provider credentials. Metadata rows live in the database and
// hold only the sealed sentinel; the secrets themselves live in the Vault.
type Store struct {
	db    *gorm.DB
	vault Vault
	bus   event.Bus
	now   func() time.Time

	mu    sync.Mutex
	locks map[models.Provider]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithBus publishes credential_saved and credential_deleted events.
func WithBus(bus event.Bus) Option {
	return func(s *Store) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithClock overrides the time source used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a credential store over db and vault.
func NewStore(db *gorm.DB, vault Vault, opts ...Option) *Store {
	s := &Store{
		db:    db,
		vault: vault,
		bus:   event.Discard,
		now:   time.Now,
		locks: make(map[models.Provider]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes writers for a single provider.
func (s *Store) lock(p models.Provider) func() {
	s.mu.Lock()
	l, ok := s.locks[p]
	if !ok {
		l = new(sync.Mutex)
		s.locks[p] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Save seals cred and makes it the single active credential for its provider.
func (s *Store) Save(ctx context.Context, cred *provider.Credential) error {
	if err := Validate(cred); err != nil {
		return err
	}

	defer s.lock(cred.Provider)()

	return s.save(ctx, cred)
}

func (s *Store) save(ctx context.Context, cred *provider.Credential) error {
	payload, err := json.Marshal(sealed{AccessToken: cred.AccessToken, RefreshToken: cred.RefreshToken})
	if err != nil {
		return err
	}

	// nil when the provider has no secret yet
	previous, _ := s.vault.Open(ctx, cred.Provider)

	now := s.now().UTC()
	row := &models.AuthToken{
		ID:          uuid.NewString(),
		Provider:    cred.Provider,
		TokenType:   cred.TokenType,
		AccessToken: models.SealedSecret,
		ExpiresAt:   cred.ExpiresAt,
		Scope:       cred.Scope,
		ServerURL:   strings.TrimRight(cred.ServerURL, "/"),
		Username:    cred.Username,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if row.TokenType == "" {
		row.TokenType = defaultTokenType(cred.Provider)
	}
	if cred.RefreshToken != "" {
		refresh := models.SealedSecret
		row.RefreshToken = &refresh
	}

	var sealedNew bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AuthToken{}).
			Where("provider = ? AND is_active = ?", cred.Provider, true).
			Updates(map[string]any{"is_active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		// the secret is replaced only once the row is in place
		if err := s.vault.Seal(ctx, cred.Provider, payload); err != nil {
			return fmt.Errorf("seal: %w", err)
		}
		sealedNew = true
		return nil
	})
	if err != nil {
		if sealedNew {
			s.restore(ctx, cred.Provider, previous)
		}
		return fmt.Errorf("persist %s credential: %w", cred.Provider.Prefix(), err)
	}

	log.Info("credential saved", "provider", cred.Provider, "token_type", row.TokenType)
	s.bus.Publish(event.NewEvent(event.TypeCredentialSaved, cred.Provider, row))

	return nil
}

// restore puts back the secret that was current before a failed save.
func (s *Store) restore(ctx context.Context, p models.Provider, previous []byte) {
	var err error
	if previous == nil {
		err = s.vault.Purge(ctx, p)
	} else {
		err = s.vault.Seal(ctx, p, previous)
	}
	if err != nil {
		log.Error("failed to restore credential secret", "provider", p, "error", err)
	}
}

// Get returns the active credential for p. A missing row, a missing secret or
// a secret that no longer decrypts all report absent.
func (s *Store) Get(ctx context.Context, p models.Provider) (*provider.Credential, bool) {
	row, err := s.active(ctx, p)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("failed to load credential", "provider", p, "error", err)
		}
		return nil, false
	}

	buf, err := s.vault.Open(ctx, p)
	if err != nil {
		log.Warn("credential secret unavailable", "provider", p, "error", err)
		return nil, false
	}

	var secret sealed
	if err := json.Unmarshal(buf, &secret); err != nil || secret.AccessToken == "" {
		log.Warn("credential secret corrupt", "provider", p, "error", err)
		return nil, false
	}

	return &provider.Credential{
		Provider:     p,
		TokenType:    row.TokenType,
		AccessToken:  secret.AccessToken,
		RefreshToken: secret.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
		Scope:        row.Scope,
		ServerURL:    row.ServerURL,
		Username:     row.Username,
	}, true
}

func (s *Store) active(ctx context.Context, p models.Provider) (*models.AuthToken, error) {
	row := new(models.AuthToken)
	err := s.db.WithContext(ctx).
		Where("provider = ? AND is_active = ?", p, true).
		Order("created_at desc").
		First(row).Error
	return row, err
}

// Delete removes every credential row for p and purges its secret.
func (s *Store) Delete(ctx context.Context, p models.Provider) error {
	if !p.Valid() {
		return fmt.Errorf("unknown provider %q", p)
	}

	defer s.lock(p)()

	if err := s.db.WithContext(ctx).Where("provider = ?", p).Delete(&models.AuthToken{}).Error; err != nil {
		return fmt.Errorf("delete %s credential: %w", p.Prefix(), err)
	}

	if err := s.vault.Purge(ctx, p); err != nil {
		return fmt.Errorf("purge %s secret: %w", p.Prefix(), err)
	}

	log.Info("credential deleted", "provider", p)
	s.bus.Publish(event.NewEvent(event.TypeCredentialDeleted, p, nil))

	return nil
}

// Rotate replaces the secret of the active credential, keeping its metadata.
func (s *Store) Rotate(ctx context.Context, p models.Provider, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is required")
	}

	defer s.lock(p)()

	current, ok := s.Get(ctx, p)
	if !ok {
		return &provider.NoCredentialError{Provider: p}
	}

	current.AccessToken = secret
	return s.save(ctx, current)
}

// Active lists the metadata of every active credential.
func (s *Store) Active(ctx context.Context) ([]models.AuthToken, error) {
	var rows []models.AuthToken
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("provider").
		Find(&rows).Error
	return rows, err
}

// Providers returns the providers that have an active credential.
func (s *Store) Providers(ctx context.Context) ([]models.Provider, error) {
	rows, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[models.Provider]bool, len(rows))
	out := make([]models.Provider, 0, len(rows))
	for _, row := range rows {
		if !seen[row.Provider] {
			seen[row.Provider] = true
			out = append(out, row.Provider)
		}
	}
	return out, nil
}

// Validate checks that cred carries what its provider needs.
func Validate(cred *provider.Credential) error {
	if cred == nil {
		return errors.New("credential is required")
	}
	if !cred.Provider.Valid() {
		return fmt.Errorf("unknown provider %q", cred.Provider)
	}
	if strings.TrimSpace(cred.AccessToken) == "" {
		return errors.New("access token is required")
	}
	if cred.Provider == models.ProviderJenkins {
		if strings.TrimSpace(cred.ServerURL) == "" {
			return errors.New("jenkins server url is required")
		}
		if strings.TrimSpace(cred.Username) == "" {
			return errors.New("jenkins username is required")
		}
	}
	return nil
}

func defaultTokenType(p models.Provider) models.TokenType {
	if p == models.ProviderJenkins {
		return models.TokenTypeAPIKey
	}
	return models.TokenTypePersonalAccessToken
}
