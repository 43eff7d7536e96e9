// Package target manages the repositories, projects and jobs cimon monitors.
package target

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/caesium-cloud/cimon/internal/models"
)

// Match reports whether name satisfies a doublestar include pattern. An
// empty pattern matches everything; malformed patterns match nothing.
func Match(pattern, name string) bool {
	if strings.TrimSpace(pattern) == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// ForProvider returns the targets configured for p.
func ForProvider(targets models.Targets, p models.Provider) models.Targets {
	var out models.Targets
	for _, t := range targets {
		if t != nil && t.Provider == p {
			out = append(out, t)
		}
	}
	return out
}

// Covers reports whether t selects pipeline p.
func Covers(t *models.Target, p *models.Pipeline) bool {
	if t == nil || p == nil || t.Provider != p.Provider {
		return false
	}
	switch t.Provider {
	case models.ProviderGitHub:
		return strings.EqualFold(t.Locator, p.ExternalRef)
	case models.ProviderGitLab:
		return t.Locator == p.ExternalRef || strings.EqualFold(strings.Trim(t.Locator, "/"), p.Name)
	case models.ProviderJenkins:
		return strings.HasPrefix(p.ExternalRef, JenkinsFolder(t.Locator)) && Match(t.Include, p.ExternalRef)
	}
	return false
}

// JenkinsFolder normalizes a Jenkins locator to a job name prefix.
func JenkinsFolder(locator string) string {
	locator = strings.Trim(locator, "/")
	if locator == "" {
		return ""
	}
	return locator + "/"
}

// Validate checks that a target names a provider and a usable locator.
func Validate(t *models.Target) error {
	if t == nil {
		return fmt.Errorf("target is nil")
	}
	if !t.Provider.Valid() {
		return fmt.Errorf("target has unknown provider %q", t.Provider)
	}
	switch t.Provider {
	case models.ProviderGitHub:
		if _, _, err := SplitRepository(t.Locator); err != nil {
			return err
		}
	case models.ProviderGitLab:
		if strings.Trim(t.Locator, "/ ") == "" {
			return fmt.Errorf("gitlab target needs a project id or path")
		}
	}
	if t.Include != "" && !doublestar.ValidatePattern(t.Include) {
		return fmt.Errorf("invalid include pattern %q", t.Include)
	}
	return nil
}

// SplitRepository splits an "owner/repo" locator.
func SplitRepository(locator string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.Trim(locator, "/ "), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("expected owner/repo, got %q", locator)
	}
	return owner, repo, nil
}
