package target

import (
	"fmt"
	"strings"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/cmd/render"
	"github.com/caesium-cloud/cimon/internal/models"
	targets "github.com/caesium-cloud/cimon/internal/target"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

// Cmd is the parent command for monitored targets.
var Cmd = &cobra.Command{
	Use:     "target",
	Short:   "Manage monitored repositories, projects and jobs",
	Aliases: []string{"targets"},
}

var (
	addProvider string
	addLocator  string
	addBranch   string
	addInclude  string
	addParams   []string
	addDetect   string
	listFilter  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Watch a repository, project or Jenkins folder",
	Example: "cimon target add --provider github --locator acme/api --include '.github/workflows/ci*.yml'\n" +
		"cimon target add --detect .",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := targetFromFlags()
		if err != nil {
			return err
		}

		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		saved, err := c.AddTarget(cmd.Context(), t)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s %s (%s)\n", saved.Provider, saved.Locator, saved.ID)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List monitored targets",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		list, err := c.Targets(cmd.Context(), listFilter)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(list))
		for _, t := range list {
			rows = append(rows, []string{t.ID, string(t.Provider), t.Locator, t.Branch, t.Include})
		}
		return render.Table(cmd.OutOrStdout(), []string{"ID", "PROVIDER", "LOCATOR", "BRANCH", "INCLUDE"}, rows)
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <target-id>",
	Short:   "Stop watching a target",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		if err := c.RemoveTarget(cmd.Context(), args[0]); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return err
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	Short:   "Add every target listed in a YAML or TOML file",
	Example: "cimon target import targets.yaml",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := targets.Load(args[0])
		if err != nil {
			return err
		}

		c, err := client.FromCommand(cmd)
		if err != nil {
			return err
		}

		for _, t := range list {
			if _, err := c.AddTarget(cmd.Context(), t); err != nil {
				return fmt.Errorf("%s %s: %w", t.Provider, t.Locator, err)
			}
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d target(s)\n", len(list))
		return err
	},
}

func init() {
	addCmd.Flags().StringVar(&addProvider, "provider", "", "github, gitlab or jenkins")
	addCmd.Flags().StringVar(&addLocator, "locator", "", "owner/repo, GitLab project id or path, or Jenkins folder")
	addCmd.Flags().StringVar(&addBranch, "branch", "", "branch to follow (default: the repository default)")
	addCmd.Flags().StringVar(&addInclude, "include", "", "doublestar pattern selecting workflows or jobs")
	addCmd.Flags().StringArrayVar(&addParams, "param", nil, "default trigger input as key=value; repeatable")
	addCmd.Flags().StringVar(&addDetect, "detect", "", "derive provider and locator from the git origin of this directory")

	listCmd.Flags().StringVar(&listFilter, "provider", "", "only list targets of this provider")

	Cmd.AddCommand(addCmd, listCmd, removeCmd, importCmd)
}

func targetFromFlags() (*models.Target, error) {
	t := new(models.Target)

	if addDetect != "" {
		detected, err := targets.Detect(addDetect)
		if err != nil {
			return nil, err
		}
		t = detected
	}

	if addProvider != "" {
		p, err := models.ParseProvider(addProvider)
		if err != nil {
			return nil, err
		}
		t.Provider = p
	}
	if addLocator != "" {
		t.Locator = addLocator
	}
	if addBranch != "" {
		t.Branch = addBranch
	}
	if addInclude != "" {
		t.Include = addInclude
	}

	if len(addParams) > 0 {
		t.Parameters = datatypes.JSONMap{}
		for _, kv := range addParams {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("invalid param %q: expected key=value", kv)
			}
			t.Parameters[strings.TrimSpace(k)] = v
		}
	}

	if err := targets.Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}
