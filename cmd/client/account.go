package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/caesium-cloud/cimon/api/rest/controller/auth"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
)

// Login stores a credential for provider after the server validated it.
func (c *Client) Login(ctx context.Context, provider string, req *auth.LoginRequest) (*models.User, error) {
	payload := new(models.User)
	if err := c.do(ctx, http.MethodPost, c.resolve("/v1/auth/"+escape(provider)), req, payload); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return payload, nil
}

// Logout forgets the credential and cached data of provider.
func (c *Client) Logout(ctx context.Context, provider string) error {
	if err := c.do(ctx, http.MethodDelete, c.resolve("/v1/auth/"+escape(provider)), nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// AuthStatus reports the sign-in state of every provider.
func (c *Client) AuthStatus(ctx context.Context) ([]account.Status, error) {
	var payload []account.Status
	if err := c.do(ctx, http.MethodGet, c.resolve("/v1/auth"), nil, &payload); err != nil {
		return nil, fmt.Errorf("auth status: %w", err)
	}
	return payload, nil
}

// AuthorizeURL returns the OAuth consent page for provider.
func (c *Client) AuthorizeURL(ctx context.Context, provider string) (string, error) {
	var payload auth.AuthorizeResponse
	if err := c.do(ctx, http.MethodGet, c.resolve("/v1/auth/"+escape(provider)+"/authorize"), nil, &payload); err != nil {
		return "", fmt.Errorf("authorize url: %w", err)
	}
	return payload.URL, nil
}

// Sync refreshes one provider, or all of them when provider is empty.
func (c *Client) Sync(ctx context.Context, provider string) (*syncer.Result, error) {
	params := url.Values{}
	if provider != "" {
		params.Set("provider", provider)
	}

	payload := new(syncer.Result)
	if err := c.do(ctx, http.MethodPost, c.resolve("/v1/sync", params.Encode()), nil, payload); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	return payload, nil
}
