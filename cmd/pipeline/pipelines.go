package pipeline

import (
	"fmt"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/spf13/cobra"
)

var (
	listProvider string
	listLimit    int
	buildsLimit  int
)

// PipelinesCmd lists cached pipelines, or shows one.
var PipelinesCmd = &cobra.Command{
	Use:     "pipelines [pipeline-id]",
	Short:   "List monitored pipelines",
	Aliases: []string{"ls", "pl"},
	Example: "cimon pipelines --provider github\ncimon pipelines github_4021",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			detail, err := c.Pipeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return describe(cmd, detail)
		}

		pipelines, err := c.Pipelines(cmd.Context(), listProvider, listLimit)
		if err != nil {
			return err
		}
		return render.Pipelines(cmd.OutOrStdout(), pipelines)
	},
}

// BuildsCmd lists the recent builds of a pipeline.
var BuildsCmd = &cobra.Command{
	Use:   "builds <pipeline-id>",
	Short: "List recent builds of a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		builds, err := c.Builds(cmd.Context(), args[0], buildsLimit)
		if err != nil {
			return err
		}
		return render.Builds(cmd.OutOrStdout(), builds)
	},
}

func init() {
	PipelinesCmd.Flags().StringVarP(&listProvider, "provider", "p", "", "only list pipelines of this provider")
	PipelinesCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of pipelines")
	BuildsCmd.Flags().IntVarP(&buildsLimit, "limit", "n", 0, "maximum number of builds (default 20)")
}

func describe(cmd *cobra.Command, detail *client.PipelineDetail) error {
	out := cmd.OutOrStdout()
	p := detail.Pipeline

	rows := [][]string{
		{"id", p.ID},
		{"name", p.Name},
		{"provider", string(p.Provider)},
		{"repository", p.RepositoryURL},
		{"branch", p.Branch},
		{"status", string(p.Status)},
	}
	if detail.LatestBuild != nil {
		b := detail.LatestBuild
		rows = append(rows,
			[]string{"last build", b.ID},
			[]string{"last status", render.Status(b.Status)},
			[]string{"duration", render.Duration(b.Duration)},
			[]string{"commit", fmt.Sprintf("%.12s %s", b.CommitSHA, b.CommitAuthor)},
		)
	}

	return render.Table(out, []string{"FIELD", "VALUE"}, rows)
}
