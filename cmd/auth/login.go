package auth

import (
	"fmt"
	"os"
	"strings"

	authapi "github.com/caesium-cloud/cimon/api/rest/controller/auth"
	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/internal/credential"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/spf13/cobra"
)

var (
	loginToken     string
	loginServerURL string
	loginUsername  string
	loginOAuth     bool
)

// LoginCmd stores a credential for a provider.
var LoginCmd = &cobra.Command{
	Use:   "login <provider>",
	Short: "Sign in to a CI provider",
	Long: "This command validates a token against the provider and stores it in the cimon vault. " +
		"Without --token the provider's environment variable is used (GITHUB_TOKEN, GITLAB_TOKEN, JENKINS_TOKEN).",
	Example: "cimon login github --token ghp_xxx\n" +
		"cimon login jenkins --server-url https://ci.example.com --username bot --token 11ab\n" +
		"cimon login gitlab --oauth",
	Args: cobra.ExactArgs(1),
	RunE: login,
}

func init() {
	LoginCmd.Flags().StringVar(&loginToken, "token", "", "personal access token or API key")
	LoginCmd.Flags().StringVar(&loginServerURL, "server-url", "", "provider base URL (Jenkins, self-hosted GitLab)")
	LoginCmd.Flags().StringVar(&loginUsername, "username", "", "Jenkins user the API key belongs to")
	LoginCmd.Flags().BoolVar(&loginOAuth, "oauth", false, "print the OAuth authorization URL instead of storing a token")
}

func login(cmd *cobra.Command, args []string) error {
	p, err := models.ParseProvider(args[0])
	if err != nil {
		return err
	}

	c, err := client.FromCommand(cmd)
	if err != nil {
		return err
	}

	if loginOAuth {
		url, err := c.AuthorizeURL(cmd.Context(), p.Prefix())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize cimon:\n%s\n", url)
		return err
	}

	req := loginRequest(p, os.Getenv)
	if req.AccessToken == "" {
		return fmt.Errorf("no token given for %s: pass --token or set its environment variable", p)
	}

	user, err := c.Login(cmd.Context(), p.Prefix(), req)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s as %s\n", p, user.Username)
	return err
}

// loginRequest merges the flags over the provider's environment credential.
func loginRequest(p models.Provider, lookup credential.Lookup) *authapi.LoginRequest {
	req := new(authapi.LoginRequest)
	for _, cred := range credential.Environment(lookup) {
		if cred.Provider == p {
			req.AccessToken = cred.AccessToken
			req.ServerURL = cred.ServerURL
			req.Username = cred.Username
		}
	}

	if v := strings.TrimSpace(loginToken); v != "" {
		req.AccessToken = v
	}
	if v := strings.TrimSpace(loginServerURL); v != "" {
		req.ServerURL = v
	}
	if v := strings.TrimSpace(loginUsername); v != "" {
		req.Username = v
	}
	return req
}
