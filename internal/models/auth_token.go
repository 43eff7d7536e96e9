package models

import "time"

// TokenType describes how a credential authenticates.
type TokenType string

const (
	TokenTypeOAuth2              TokenType = "OAUTH2"
	TokenTypePersonalAccessToken TokenType = "PERSONAL_ACCESS_TOKEN"
	TokenTypeAPIKey              TokenType = "API_KEY"
)

// SealedSecret is stored in place of secret material once it is in the vault.
const SealedSecret = "encrypted"

// AuthToken is the persisted metadata of a provider credential. The secret
// itself lives in the vault.
type AuthToken struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Provider     Provider   `gorm:"type:text;index;not null" json:"provider"`
	TokenType    TokenType  `gorm:"type:text;not null" json:"token_type"`
	AccessToken  string     `gorm:"not null" json:"-"`
	RefreshToken *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	ServerURL    string     `json:"server_url,omitempty"`
	Username     string     `json:"username,omitempty"`
	IsActive     bool       `gorm:"index;not null" json:"is_active"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}
