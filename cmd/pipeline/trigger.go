package pipeline

import (
	"fmt"
	"strings"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/spf13/cobra"
)

var (
	triggerBranch string
	triggerInputs []string
)

// TriggerCmd starts a new run of a pipeline.
var TriggerCmd = &cobra.Command{
	Use:     "trigger <pipeline-id>",
	Short:   "Start a new run of a pipeline",
	Example: "cimon trigger github_4021 --branch release --input environment=staging",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := parseInputs(triggerInputs)
		if err != nil {
			return err
		}

		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		build, err := c.Trigger(cmd.Context(), args[0], triggerBranch, inputs)
		if err != nil {
			return err
		}
		return render.Build(cmd.OutOrStdout(), build)
	},
}

func init() {
	TriggerCmd.Flags().StringVarP(&triggerBranch, "branch", "b", "", "branch or ref to run (default: the pipeline's branch)")
	TriggerCmd.Flags().StringArrayVarP(&triggerInputs, "input", "i", nil, "run input as key=value; repeatable")
}

func parseInputs(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	inputs := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid input %q: expected key=value", kv)
		}
		inputs[strings.TrimSpace(k)] = v
	}
	return inputs, nil
}
