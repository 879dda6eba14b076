package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren/pkg/config"
	"github.com/simonhull/firebird-suite/wren/pkg/input"
	"github.com/simonhull/firebird-suite/wren/pkg/output"
	"github.com/simonhull/firebird-suite/wren/pkg/project"
)

// InitCmd creates the 'init' command, which writes a wren.yaml
func InitCmd() *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a wren.yaml with the default settings",
		Long: `Write wren.yaml in the current directory.

When the directory belongs to a TypeScript project its tsconfig.json is
recorded, and you are asked for the type-check command to run after
rewriting files (skip the question with --yes).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(wd, config.FileName)
			cfg := config.Default()

			proj, err := project.DetectProject(wd, "")
			switch {
			case err == nil:
				rel, relErr := filepath.Rel(wd, proj.ConfigPath)
				if relErr == nil && rel != project.DefaultConfigName {
					cfg.Project.TSConfig = filepath.ToSlash(rel)
				}
				output.Verbose(fmt.Sprintf("Found TypeScript project at %s", proj.Root))
			case errors.Is(err, project.ErrNoProject):
				output.Warn("No tsconfig.json found here or above; wren infer will need --project")
			default:
				return err
			}

			if !yes && input.Interactive() {
				cfg.Check.Command = input.Prompt("Type-check command (empty to disable)", cfg.Check.Command)
			}

			if err := config.Save(path, cfg, force); err != nil {
				if !force {
					return fmt.Errorf("%w (use --force to replace it)", err)
				}
				return err
			}
			output.Success(fmt.Sprintf("Created %s", config.FileName))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing wren.yaml")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept defaults without asking")

	return cmd
}
