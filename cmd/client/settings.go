package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/caesium-cloud/cimon/internal/models"
)

// Targets lists monitored targets, optionally for one provider.
func (c *Client) Targets(ctx context.Context, provider string) (models.Targets, error) {
	params := url.Values{}
	if provider != "" {
		params.Set("provider", provider)
	}

	var payload models.Targets
	if err := c.do(ctx, http.MethodGet, c.resolve("/v1/targets", params.Encode()), nil, &payload); err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return payload, nil
}

// AddTarget creates or updates a target.
func (c *Client) AddTarget(ctx context.Context, t *models.Target) (*models.Target, error) {
	payload := new(models.Target)
	if err := c.do(ctx, http.MethodPost, c.resolve("/v1/targets"), t, payload); err != nil {
		return nil, fmt.Errorf("add target: %w", err)
	}
	return payload, nil
}

// RemoveTarget deletes a target by id.
func (c *Client) RemoveTarget(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.resolve("/v1/targets/"+escape(id)), nil, nil); err != nil {
		return fmt.Errorf("remove target: %w", err)
	}
	return nil
}

// Preferences fetches the current preferences.
func (c *Client) Preferences(ctx context.Context) (*models.Preferences, error) {
	payload := new(models.Preferences)
	if err := c.do(ctx, http.MethodGet, c.resolve("/v1/preferences"), nil, payload); err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return payload, nil
}

// SavePreferences replaces the preferences and returns what was stored.
func (c *Client) SavePreferences(ctx context.Context, prefs *models.Preferences) (*models.Preferences, error) {
	payload := new(models.Preferences)
	if err := c.do(ctx, http.MethodPut, c.resolve("/v1/preferences"), prefs, payload); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return payload, nil
}
