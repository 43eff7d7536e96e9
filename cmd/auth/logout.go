package auth

import (
	"fmt"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/spf13/cobra"
)

// LogoutCmd forgets a provider's credential and cached pipelines.
var LogoutCmd = &cobra.Command{
	Use:   "logout <provider>",
	Short: "Sign out of a CI provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := models.ParseProvider(args[0])
		if err != nil {
			return err
		}

		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		if err := c.Logout(cmd.Context(), p.Prefix()); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed out of %s\n", p)
		return err
	},
}

// StatusCmd shows which providers are signed in.
var StatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the sign-in state of every provider",
	Aliases: []string{"whoami"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		statuses, err := c.AuthStatus(cmd.Context())
		if err != nil {
			return err
		}

		return render.Accounts(cmd.OutOrStdout(), statuses)
	},
}
