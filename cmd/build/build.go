package build

import (
	"fmt"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/spf13/cobra"
)

// RetryCmd re-runs a build.
var RetryCmd = &cobra.Command{
	Use:     "retry <build-id>",
	Short:   "Re-run a build",
	Aliases: []string{"rerun", "restart"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		build, err := c.Retry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render.Build(cmd.OutOrStdout(), build)
	},
}

// CancelCmd stops a running build.
var CancelCmd = &cobra.Command{
	Use:     "cancel <build-id>",
	Short:   "Cancel a running build",
	Aliases: []string{"stop"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		if err := c.Cancel(cmd.Context(), args[0]); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])
		return err
	},
}

// LogsCmd prints the log of a build.
var LogsCmd = &cobra.Command{
	Use:   "logs <build-id>",
	Short: "Print the log of a build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		return c.Logs(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}
