package credential

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caesium-cloud/cimon/internal/models"
	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/suite"
)

type fakeLogical struct {
	data     map[string]map[string]interface{}
	err      error
	lastPath string
}

func newFakeLogical() *fakeLogical {
	return &fakeLogical{data: make(map[string]map[string]interface{})}
}

func (f *fakeLogical) ReadWithContext(_ context.Context, path string) (*vault.Secret, error) {
	f.lastPath = path
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[path]
	if !ok {
		return nil, nil
	}
	return &vault.Secret{Data: data}, nil
}

func (f *fakeLogical) WriteWithContext(_ context.Context, path string, data map[string]interface{}) (*vault.Secret, error) {
	f.lastPath = path
	if f.err != nil {
		return nil, f.err
	}
	f.data[path] = data
	return &vault.Secret{}, nil
}

func (f *fakeLogical) DeleteWithContext(_ context.Context, path string) (*vault.Secret, error) {
	f.lastPath = path
	if f.err != nil {
		return nil, f.err
	}
	delete(f.data, strings.Replace(path, "/metadata/", "/data/", 1))
	return nil, nil
}

type VaultSuite struct {
	suite.Suite
	ctx context.Context
	dir string
}

func TestVaultSuite(t *testing.T) {
	suite.Run(t, new(VaultSuite))
}

func (s *VaultSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
}

func (s *VaultSuite) TestLocalRoundTrip() {
	v, err := NewLocalVault(s.dir, "")
	s.Require().NoError(err)

	s.Require().NoError(v.Seal(s.ctx, models.ProviderGitHub, []byte("ghp_secret")))

	raw, err := os.ReadFile(filepath.Join(s.dir, "github.sealed"))
	s.Require().NoError(err)
	s.NotContains(string(raw), "ghp_secret")

	out, err := v.Open(s.ctx, models.ProviderGitHub)
	s.Require().NoError(err)
	s.Equal("ghp_secret", string(out))
}

func (s *VaultSuite) TestLocalMasterKeyPersists() {
	v, err := NewLocalVault(s.dir, "")
	s.Require().NoError(err)
	s.Require().NoError(v.Seal(s.ctx, models.ProviderGitLab, []byte("glpat")))

	reopened, err := NewLocalVault(s.dir, "")
	s.Require().NoError(err)
	out, err := reopened.Open(s.ctx, models.ProviderGitLab)
	s.Require().NoError(err)
	s.Equal("glpat", string(out))
}

func (s *VaultSuite) TestLocalKeysArePerProvider() {
	v, err := NewLocalVault(s.dir, "")
	s.Require().NoError(err)
	s.Require().NoError(v.Seal(s.ctx, models.ProviderGitHub, []byte("ghp_secret")))

	raw, err := os.ReadFile(filepath.Join(s.dir, "github.sealed"))
	s.Require().NoError(err)
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "gitlab.sealed"), raw, 0o600))

	_, err = v.Open(s.ctx, models.ProviderGitLab)
	s.Require().Error(err)
	s.False(errors.Is(err, ErrNotSealed))
}

func (s *VaultSuite) TestLocalWrongMasterKeyFails() {
	first, err := NewLocalVault(s.dir, hex.EncodeToString([]byte(strings.Repeat("a", 32))))
	s.Require().NoError(err)
	s.Require().NoError(first.Seal(s.ctx, models.ProviderJenkins, []byte("token")))

	second, err := NewLocalVault(s.dir, hex.EncodeToString([]byte(strings.Repeat("b", 32))))
	s.Require().NoError(err)
	_, err = second.Open(s.ctx, models.ProviderJenkins)
	s.Require().Error(err)
}

func (s *VaultSuite) TestLocalShortMasterKey() {
	_, err := NewLocalVault(s.dir, "abcd")
	s.Require().Error(err)
}

func (s *VaultSuite) TestLocalOpenAndPurgeMissing() {
	v, err := NewLocalVault(s.dir, "")
	s.Require().NoError(err)

	_, err = v.Open(s.ctx, models.ProviderGitHub)
	s.Require().ErrorIs(err, ErrNotSealed)
	s.Require().NoError(v.Purge(s.ctx, models.ProviderGitHub))
}

func (s *VaultSuite) TestHashiCorpRoundTrip() {
	logical := newFakeLogical()
	v := NewHashiCorpVaultWithLogical(logical, "/kv/")

	s.Require().NoError(v.Seal(s.ctx, models.ProviderGitLab, []byte("glpat-123")))
	s.Equal("kv/data/cimon/gitlab", logical.lastPath)

	out, err := v.Open(s.ctx, models.ProviderGitLab)
	s.Require().NoError(err)
	s.Equal("glpat-123", string(out))

	s.Require().NoError(v.Purge(s.ctx, models.ProviderGitLab))
	s.Equal("kv/metadata/cimon/gitlab", logical.lastPath)

	_, err = v.Open(s.ctx, models.ProviderGitLab)
	s.Require().ErrorIs(err, ErrNotSealed)
}

func (s *VaultSuite) TestHashiCorpPropagatesErrors() {
	logical := newFakeLogical()
	logical.err = errors.New("boom")
	v := NewHashiCorpVaultWithLogical(logical, "")

	s.Require().Error(v.Seal(s.ctx, models.ProviderGitHub, []byte("x")))
	_, err := v.Open(s.ctx, models.ProviderGitHub)
	s.Require().Error(err)
	s.Equal("secret/data/cimon/github", logical.lastPath)
}

func (s *VaultSuite) TestNewHashiCorpVaultRequiresAddress() {
	_, err := NewHashiCorpVault(HashiCorpConfig{})
	s.Require().Error(err)
}

func (s *VaultSuite) TestNewHashiCorpVaultTLSConfigError() {
	_, err := NewHashiCorpVault(HashiCorpConfig{Address: "https://vault.example.com", CACertPath: "/does/not/exist"})
	s.Require().Error(err)
}

func (s *VaultSuite) TestNewVaultBackends() {
	v, err := NewVault(VaultOptions{Dir: s.dir})
	s.Require().NoError(err)
	s.IsType(&LocalVault{}, v)

	_, err = NewVault(VaultOptions{Backend: "consul"})
	s.Require().Error(err)
}
