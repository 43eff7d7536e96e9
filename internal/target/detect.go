package target

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/go-git/go-git/v5"
)

// Detect builds a target from the origin remote and checked out branch of
// the git repository containing dir.
func Detect(dir string) (*models.Target, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil, fmt.Errorf("read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("origin remote has no url")
	}

	t, err := ParseRemote(urls[0])
	if err != nil {
		return nil, err
	}

	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		t.Branch = head.Name().Short()
	}
	return t, nil
}

// ParseRemote maps an https or scp-style remote url to a target. GitHub is
// recognized by host; any host containing "gitlab" is treated as GitLab.
func ParseRemote(raw string) (*models.Target, error) {
	host, path, err := splitRemote(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")

	switch {
	case strings.EqualFold(host, "github.com"):
		if _, _, err := SplitRepository(path); err != nil {
			return nil, err
		}
		return &models.Target{Provider: models.ProviderGitHub, Locator: path}, nil
	case strings.Contains(strings.ToLower(host), "gitlab"):
		if path == "" {
			return nil, fmt.Errorf("remote %q has no project path", raw)
		}
		return &models.Target{Provider: models.ProviderGitLab, Locator: path}, nil
	}
	return nil, fmt.Errorf("remote host %q is not a supported provider", host)
}

func splitRemote(raw string) (host, path string, err error) {
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("parse remote: %w", err)
		}
		return u.Hostname(), u.Path, nil
	}
	// scp-like: git@host:owner/repo.git
	at := strings.Index(raw, "@")
	colon := strings.Index(raw, ":")
	if colon <= at+1 {
		return "", "", fmt.Errorf("unsupported remote url %q", raw)
	}
	return raw[at+1 : colon], raw[colon+1:], nil
}
