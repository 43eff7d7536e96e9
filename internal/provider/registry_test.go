package provider

import (
	"context"
	"testing"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	Client
	p models.Provider
}

func (s stubClient) Provider() models.Provider { return s.p }

func TestRegistryOrdersProviders(t *testing.T) {
	r := NewRegistry(
		stubClient{p: models.ProviderJenkins},
		stubClient{p: models.ProviderGitHub},
	)

	assert.Equal(t, []models.Provider{models.ProviderGitHub, models.ProviderJenkins}, r.Providers())

	c, err := r.Get(models.ProviderJenkins)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderJenkins, c.Provider())

	_, err = r.Get(models.ProviderGitLab)
	assert.Error(t, err)
}

func TestTransportMapsStatus(t *testing.T) {
	srv := newStatusServer(t, 404)
	tr := NewTransport(models.ProviderGitHub, 0, 0)

	req, err := NewRequest(context.Background(), "GET", srv.URL, nil)
	require.NoError(t, err)

	var nf *NotFoundError
	require.ErrorAs(t, tr.JSON(req, "run 1", &struct{}{}), &nf)
	assert.Equal(t, "run 1", nf.Resource)
}

func TestTransportWrapsNetworkFailure(t *testing.T) {
	tr := NewTransport(models.ProviderGitLab, 0, 0)

	req, err := NewRequest(context.Background(), "GET", "http://127.0.0.1:1/unreachable", nil)
	require.NoError(t, err)

	var te *TransportError
	require.ErrorAs(t, tr.JSON(req, "user", nil), &te)
	assert.True(t, Retryable(te))
}

func TestDecoratorsPassThrough(t *testing.T) {
	inner := &recordingClient{stubClient: stubClient{p: models.ProviderGitLab}}
	c := NewLoggingClient(NewMetricsClient(inner))

	assert.Equal(t, models.ProviderGitLab, c.Provider())
	_, err := c.CurrentUser(context.Background(), &Credential{})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, inner.calls)
}

type recordingClient struct {
	stubClient
	calls int
}

func (r *recordingClient) CurrentUser(context.Context, *Credential) (*models.User, error) {
	r.calls++
	return nil, &NotFoundError{Provider: r.p, Resource: "user"}
}
