package console

import (
	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/console/app"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const (
	usage   = "console"
	short   = "Open an interactive pipeline dashboard"
	long    = "This command starts the interactive cimon console, which follows pipeline and build changes live"
	example = "cimon console --server http://127.0.0.1:8080"
)

// Cmd is the Cobra command entrypoint.
var Cmd = &cobra.Command{
	Use:        usage,
	Short:      short,
	Long:       long,
	Aliases:    []string{"c", "dashboard"},
	SuggestFor: []string{"tui", "terminal", "ui", "watch"},
	Example:    example,
	RunE:       run,
}

func run(cmd *cobra.Command, args []string) error {
	c, err := client.FromCommand(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app.New(c), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
