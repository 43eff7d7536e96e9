package prefs

import (
	"fmt"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/spf13/cobra"
)

var (
	interval      int
	notifySuccess bool
	notifyFailure bool
	notifyStart   bool
)

// Cmd shows or changes the polling and notification preferences.
var Cmd = &cobra.Command{
	Use:     "prefs",
	Short:   "Show or change polling and notification preferences",
	Aliases: []string{"preferences", "config"},
	Example: "cimon prefs\ncimon prefs --interval 10 --notify-success=true",
	Args:    cobra.NoArgs,
	RunE:    run,
}

func init() {
	Cmd.Flags().IntVar(&interval, "interval", 0, fmt.Sprintf("polling interval in minutes (%d-%d)", models.MinPollingInterval, models.MaxPollingInterval))
	Cmd.Flags().BoolVar(&notifySuccess, "notify-success", false, "notify when a build succeeds")
	Cmd.Flags().BoolVar(&notifyFailure, "notify-failure", true, "notify when a build fails")
	Cmd.Flags().BoolVar(&notifyStart, "notify-start", false, "notify when a build starts")
}

func run(cmd *cobra.Command, args []string) error {
	c, err := client.FromCommand(cmd)
	if err != nil {
		return err
	}

	prefs, err := c.Preferences(cmd.Context())
	if err != nil {
		return err
	}

	if apply(cmd, prefs) {
		if prefs, err = c.SavePreferences(cmd.Context(), prefs); err != nil {
			return err
		}
	}

	return render.Table(cmd.OutOrStdout(), []string{"PREFERENCE", "VALUE"}, [][]string{
		{"polling interval", fmt.Sprintf("%dm", prefs.PollingInterval)},
		{"notify on success", fmt.Sprint(prefs.NotifyOnSuccess)},
		{"notify on failure", fmt.Sprint(prefs.NotifyOnFailure)},
		{"notify on start", fmt.Sprint(prefs.NotifyOnStart)},
	})
}

// apply copies the flags the user set onto prefs and reports whether any were.
func apply(cmd *cobra.Command, prefs *models.Preferences) bool {
	flags := cmd.Flags()
	changed := false

	if flags.Changed("interval") {
		prefs.PollingInterval = interval
		changed = true
	}
	if flags.Changed("notify-success") {
		prefs.NotifyOnSuccess = notifySuccess
		changed = true
	}
	if flags.Changed("notify-failure") {
		prefs.NotifyOnFailure = notifyFailure
		changed = true
	}
	if flags.Changed("notify-start") {
		prefs.NotifyOnStart = notifyStart
		changed = true
	}
	return changed
}
