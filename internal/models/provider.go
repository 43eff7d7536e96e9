package models

import (
	"fmt"
	"strings"
)

// Provider identifies a CI backend.
type Provider string

const (
	ProviderGitHub  Provider = "GITHUB_ACTIONS"
	ProviderGitLab  Provider = "GITLAB_CI"
	ProviderJenkins Provider = "JENKINS"
)

// Providers lists every supported provider in a stable order.
var Providers = []Provider{ProviderGitHub, ProviderGitLab, ProviderJenkins}

var prefixes = map[Provider]string{
	ProviderGitHub:  "github",
	ProviderGitLab:  "gitlab",
	ProviderJenkins: "jenkins",
}

// Prefix returns the id prefix used for records of this provider.
func (p Provider) Prefix() string {
	return prefixes[p]
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	_, ok := prefixes[p]
	return ok
}

// ParseProvider accepts either the enum value or the id prefix, case-insensitive.
func ParseProvider(s string) (Provider, error) {
	needle := strings.TrimSpace(s)
	for p, prefix := range prefixes {
		if strings.EqualFold(needle, string(p)) || strings.EqualFold(needle, prefix) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// ProviderFromID returns the provider owning a prefixed record id.
func ProviderFromID(id string) (Provider, error) {
	prefix, _, ok := strings.Cut(id, "_")
	if !ok || prefix == "" {
		return "", fmt.Errorf("id %q has no provider prefix", id)
	}
	for p, candidate := range prefixes {
		if candidate == prefix {
			return p, nil
		}
	}
	return "", fmt.Errorf("id %q has unknown provider prefix %q", id, prefix)
}

// NativeID strips the provider prefix from a record id.
func NativeID(id string) string {
	_, native, ok := strings.Cut(id, "_")
	if !ok {
		return id
	}
	return native
}
