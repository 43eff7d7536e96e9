package auth

import (
	"testing"

	"github.com/caesium-cloud/cimon/internal/models"
)

func TestLoginRequestPrefersFlags(t *testing.T) {
	env := map[string]string{
		"JENKINS_URL":   "https://ci.example.com",
		"JENKINS_USER":  "bot",
		"JENKINS_TOKEN": "from-env",
	}
	lookup := func(k string) string { return env[k] }

	loginToken, loginServerURL, loginUsername = "", "", ""
	req := loginRequest(models.ProviderJenkins, lookup)
	if req.AccessToken != "from-env" || req.ServerURL != "https://ci.example.com" || req.Username != "bot" {
		t.Fatalf("unexpected request from environment: %+v", req)
	}

	loginToken = "from-flag"
	t.Cleanup(func() { loginToken = "" })

	req = loginRequest(models.ProviderJenkins, lookup)
	if req.AccessToken != "from-flag" {
		t.Fatalf("expected flag token, got %q", req.AccessToken)
	}
	if req.Username != "bot" {
		t.Fatalf("expected env username, got %q", req.Username)
	}
}

func TestLoginRequestIgnoresOtherProviders(t *testing.T) {
	lookup := func(k string) string {
		if k == "GITHUB_TOKEN" {
			return "ghp"
		}
		return ""
	}

	loginToken, loginServerURL, loginUsername = "", "", ""
	if req := loginRequest(models.ProviderGitLab, lookup); req.AccessToken != "" {
		t.Fatalf("expected no gitlab token, got %q", req.AccessToken)
	}
}
