package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
)

// ErrNotSealed is returned by Open when no secret is stored for a provider.
var ErrNotSealed = errors.New("no sealed secret")

// Vault keeps credential secrets out of the relational store. Each provider
// owns exactly one slot; sealing replaces whatever was there.
type Vault interface {
	Seal(ctx context.Context, p models.Provider, secret []byte) error
	Open(ctx context.Context, p models.Provider) ([]byte, error)
	Purge(ctx context.Context, p models.Provider) error
}

const (
	BackendLocal     = "local"
	BackendHashiCorp = "hashicorp"
)

// VaultOptions selects and configures a Vault backend.
type VaultOptions struct {
	Backend   string
	Dir       string
	MasterKey string
	HashiCorp HashiCorpConfig
}

// NewVault builds the backend named by opts.Backend.
func NewVault(opts VaultOptions) (Vault, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendLocal, "":
		return NewLocalVault(opts.Dir, opts.MasterKey)
	case BackendHashiCorp:
		return NewHashiCorpVault(opts.HashiCorp)
	default:
		return nil, fmt.Errorf("unknown vault backend %q", opts.Backend)
	}
}
