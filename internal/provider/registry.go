package provider

import (
	"fmt"
	"sync"

	"github.com/caesium-cloud/cimon/internal/models"
)

// Registry maps providers to their client implementation.
type Registry struct {
	mu      sync.RWMutex
	clients map[models.Provider]Client
}

// NewRegistry builds a registry holding the given clients.
func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[models.Provider]Client)}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

// Register adds or replaces the client for its provider.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Provider()] = c
}

// Get returns the client registered for p.
func (r *Registry) Get(p models.Provider) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("no client registered for provider %s", p)
	}
	return c, nil
}

// Providers returns the registered providers in canonical order.
func (r *Registry) Providers() []models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Provider, 0, len(r.clients))
	for _, p := range models.Providers {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
