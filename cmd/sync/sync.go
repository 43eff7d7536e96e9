package sync

import (
	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/spf13/cobra"
)

const (
	usage   = "sync [provider]"
	short   = "Refresh cached pipelines from the providers"
	long    = "This command asks the cimon server to sync one provider, or every signed-in provider"
	example = "cimon sync\ncimon sync gitlab"
)

// Cmd is the sync command.
var Cmd = &cobra.Command{
	Use:        usage,
	Short:      short,
	Long:       long,
	Example:    example,
	Args:       cobra.MaximumNArgs(1),
	SuggestFor: []string{"refresh", "fetch", "pull"},
	RunE:       run,
}

func run(cmd *cobra.Command, args []string) error {
	c, err := client.FromCommand(cmd)
	if err != nil {
		return err
	}

	var provider string
	if len(args) == 1 {
		provider = args[0]
	}

	result, err := c.Sync(cmd.Context(), provider)
	if err != nil {
		return err
	}

	if err := render.SyncResult(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	// partial failures are reported above; only a total failure fails the command
	if len(result.Providers) > 0 && len(result.Failed()) == len(result.Providers) {
		return &Error{Summary: result.Summary()}
	}
	return nil
}

// Error reports a sync in which no provider succeeded.
type Error struct {
	Summary string
}

func (e *Error) Error() string {
	return e.Summary
}
