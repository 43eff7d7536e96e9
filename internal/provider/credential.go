package provider

import (
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
)

// Credential is the decrypted authentication material for one provider.
type Credential struct {
	Provider     models.Provider
	TokenType    models.TokenType
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
	// ServerURL and Username are only used by Jenkins and self-hosted GitLab.
	ServerURL string
	Username  string
}

// Expired reports whether the credential has a known expiry in the past.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
