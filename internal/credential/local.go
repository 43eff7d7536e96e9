package credential

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize       = 32
	masterKeyFile = "master.key"
	sealedSuffix  = ".sealed"
)

// LocalVault seals secrets with AES-256-GCM into files under a directory.
// Each provider gets its own key, derived from the master key with HKDF-SHA256.
type LocalVault struct {
	dir    string
	master []byte
}

// NewLocalVault opens a vault rooted at dir. masterKey is hex encoded; when it
// is empty a random key is generated once and kept in dir/master.key.
func NewLocalVault(dir, masterKey string) (*LocalVault, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("vault directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	master, err := loadMasterKey(dir, strings.TrimSpace(masterKey))
	if err != nil {
		return nil, err
	}

	return &LocalVault{dir: dir, master: master}, nil
}

func loadMasterKey(dir, encoded string) ([]byte, error) {
	if encoded != "" {
		key, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode master key: %w", err)
		}
		if len(key) < keySize {
			return nil, fmt.Errorf("master key must be at least %d bytes", keySize)
		}
		return key, nil
	}

	path := filepath.Join(dir, masterKeyFile)
	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		return hex.DecodeString(strings.TrimSpace(string(buf)))
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read master key: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("write master key: %w", err)
	}

	return key, nil
}

func (v *LocalVault) aead(p models.Provider) (cipher.AEAD, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, v.master, nil, []byte("cimon/"+p.Prefix())), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

func (v *LocalVault) path(p models.Provider) string {
	return filepath.Join(v.dir, p.Prefix()+sealedSuffix)
}

// Seal encrypts secret and replaces the provider's file atomically.
func (v *LocalVault) Seal(_ context.Context, p models.Provider, secret []byte) error {
	if !p.Valid() {
		return fmt.Errorf("unknown provider %q", p)
	}

	gcm, err := v.aead(p)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, secret, []byte(p))

	tmp, err := os.CreateTemp(v.dir, p.Prefix()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create sealed file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("write sealed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close sealed file: %w", err)
	}

	return os.Rename(tmp.Name(), v.path(p))
}

// Open decrypts the provider's secret. It returns ErrNotSealed when nothing
// has been sealed yet.
func (v *LocalVault) Open(_ context.Context, p models.Provider) ([]byte, error) {
	buf, err := os.ReadFile(v.path(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotSealed
	}
	if err != nil {
		return nil, fmt.Errorf("read sealed file: %w", err)
	}

	gcm, err := v.aead(p)
	if err != nil {
		return nil, err
	}

	if len(buf) < gcm.NonceSize() {
		return nil, errors.New("sealed file is truncated")
	}

	nonce, ciphertext := buf[:gcm.NonceSize()], buf[gcm.NonceSize():]
	secret, err := gcm.Open(nil, nonce, ciphertext, []byte(p))
	if err != nil {
		return nil, fmt.Errorf("decrypt %s secret: %w", p.Prefix(), err)
	}

	return secret, nil
}

// Purge removes the provider's file. Purging an empty slot is not an error.
func (v *LocalVault) Purge(_ context.Context, p models.Provider) error {
	if err := os.Remove(v.path(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
