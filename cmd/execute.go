package cmd

import (
	"github.com/caesium-cloud/cimon/cmd/auth"
	"github.com/caesium-cloud/cimon/cmd/build"
	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/console"
	"github.com/caesium-cloud/cimon/cmd/pipeline"
	"github.com/caesium-cloud/cimon/cmd/prefs"
	"github.com/caesium-cloud/cimon/cmd/start"
	synccmd "github.com/caesium-cloud/cimon/cmd/sync"
	"github.com/caesium-cloud/cimon/cmd/target"
	"github.com/spf13/cobra"
)

var cmds = []*cobra.Command{
	start.Cmd,
	synccmd.Cmd,
	auth.LoginCmd,
	auth.LogoutCmd,
	auth.StatusCmd,
	pipeline.PipelinesCmd,
	pipeline.BuildsCmd,
	pipeline.TriggerCmd,
	build.RetryCmd,
	build.CancelCmd,
	build.LogsCmd,
	target.Cmd,
	prefs.Cmd,
	console.Cmd,
}

// Execute builds the command tree and executes commands.
func Execute() error {
	return Root().Execute()
}

// Root returns the cimon command tree.
func Root() *cobra.Command {
	command := &cobra.Command{
		Use:           "cimon",
		Short:         "Monitor GitHub Actions, GitLab CI and Jenkins pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	command.PersistentFlags().String(client.ServerFlag, "", "cimon server base URL (default $CIMON_SERVER or http://127.0.0.1:8080)")

	for _, c := range cmds {
		command.AddCommand(c)
	}

	return command
}
