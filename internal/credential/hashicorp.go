package credential

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	vault "github.com/hashicorp/vault/api"
)

const (
	defaultMount = "secret"
	secretField  = "secret"
)

type vaultLogical interface {
	ReadWithContext(ctx context.Context, path string) (*vault.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*vault.Secret, error)
	DeleteWithContext(ctx context.Context, path string) (*vault.Secret, error)
}

// HashiCorpConfig describes how to connect to a Vault cluster.
type HashiCorpConfig struct {
	Address       string
	Token         string
	Namespace     string
	Mount         string
	CACertPath    string
	TLSSkipVerify bool
}

// HashiCorpVault stores secrets in a KV v2 engine under {mount}/data/cimon.
type HashiCorpVault struct {
	logical vaultLogical
	mount   string
}

// NewHashiCorpVault builds a vault backed by the configured cluster.
func NewHashiCorpVault(cfg HashiCorpConfig) (*HashiCorpVault, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}

	clientConfig := &vault.Config{Address: address}
	if cfg.CACertPath != "" || cfg.TLSSkipVerify {
		if err := clientConfig.ConfigureTLS(&vault.TLSConfig{CACert: cfg.CACertPath, Insecure: cfg.TLSSkipVerify}); err != nil {
			return nil, fmt.Errorf("configure vault tls: %w", err)
		}
	}

	client, err := vault.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	if token := strings.TrimSpace(cfg.Token); token != "" {
		client.SetToken(token)
	}

	if ns := strings.TrimSpace(cfg.Namespace); ns != "" {
		client.SetNamespace(ns)
	}

	return NewHashiCorpVaultWithLogical(client.Logical(), cfg.Mount), nil
}

// NewHashiCorpVaultWithLogical constructs a vault over a preconfigured logical client.
func NewHashiCorpVaultWithLogical(logical vaultLogical, mount string) *HashiCorpVault {
	mount = strings.Trim(strings.TrimSpace(mount), "/")
	if mount == "" {
		mount = defaultMount
	}
	return &HashiCorpVault{logical: logical, mount: mount}
}

func (v *HashiCorpVault) dataPath(p models.Provider) string {
	return v.mount + "/data/cimon/" + p.Prefix()
}

func (v *HashiCorpVault) metadataPath(p models.Provider) string {
	return v.mount + "/metadata/cimon/" + p.Prefix()
}

// Seal writes a new version of the provider's secret.
func (v *HashiCorpVault) Seal(ctx context.Context, p models.Provider, secret []byte) error {
	if !p.Valid() {
		return fmt.Errorf("unknown provider %q", p)
	}

	data := map[string]interface{}{
		"data": map[string]interface{}{
			secretField: base64.StdEncoding.EncodeToString(secret),
		},
	}
	if _, err := v.logical.WriteWithContext(ctx, v.dataPath(p), data); err != nil {
		return fmt.Errorf("write vault secret %s: %w", v.dataPath(p), err)
	}

	return nil
}

// Open reads the latest version of the provider's secret.
func (v *HashiCorpVault) Open(ctx context.Context, p models.Provider) ([]byte, error) {
	path := v.dataPath(p)

	secret, err := v.logical.ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read vault secret %s: %w", path, err)
	}

	encoded, ok := extractVaultField(secret, secretField)
	if !ok {
		return nil, ErrNotSealed
	}

	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode vault secret %s: %w", path, err)
	}

	return buf, nil
}

// Purge deletes every version of the provider's secret.
func (v *HashiCorpVault) Purge(ctx context.Context, p models.Provider) error {
	if _, err := v.logical.DeleteWithContext(ctx, v.metadataPath(p)); err != nil {
		return fmt.Errorf("delete vault secret %s: %w", v.metadataPath(p), err)
	}
	return nil
}

func extractVaultField(secret *vault.Secret, field string) (string, bool) {
	if secret == nil || secret.Data == nil {
		return "", false
	}

	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		if val, ok := nested[field].(string); ok {
			return val, true
		}
	}
	if val, ok := secret.Data[field].(string); ok {
		return val, true
	}

	return "", false
}
