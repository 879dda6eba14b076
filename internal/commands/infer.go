package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren/pkg/changeset"
	"github.com/simonhull/firebird-suite/wren/pkg/config"
	"github.com/simonhull/firebird-suite/wren/pkg/exec"
	"github.com/simonhull/firebird-suite/wren/pkg/inference"
	"github.com/simonhull/firebird-suite/wren/pkg/input"
	"github.com/simonhull/firebird-suite/wren/pkg/logger"
	"github.com/simonhull/firebird-suite/wren/pkg/output"
	"github.com/simonhull/firebird-suite/wren/pkg/project"
	"github.com/simonhull/firebird-suite/wren/pkg/source"
)

// InferCmd creates the 'infer' command
func InferCmd() *cobra.Command {
	var (
		dryRun, yes, diff, force, check bool
	)

	cmd := &cobra.Command{
		Use:   "infer <file>...",
		Short: "Annotate parameters with the types they are called with",
		Long: `Annotate the parameters of the top-level functions declared in each file
with the union of the argument types found at their call sites.

Call sites are searched across every source file of the TypeScript
project (tsconfig.json include/exclude/files). Each rewritten file is
shown as a diff for review:

  wren infer src/format.ts              review each change
  wren infer src/*.ts --yes             apply without asking
  wren infer src/format.ts --dry-run    only show the diffs
  wren infer src/api.ts -f fetchUser    one function only`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := changeset.SelectMode(yes, dryRun, diff)
			if err != nil {
				return err
			}
			if (mode == changeset.ModeInteractive || mode == changeset.ModeDiff) && !input.Interactive() {
				return fmt.Errorf("stdin is not a terminal: pass --yes or --dry-run")
			}

			cfg, log, err := loadConfig(cmd, map[string]string{
				"project.tsconfig": "project",
				"infer.functions":  "function",
				"infer.match":      "match",
				"infer.workers":    "workers",
				"check.command":    "check-command",
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runInfer(ctx, cmd, args, cfg, log, inferRun{
				mode:  mode,
				force: force,
				check: check,
			})
		},
	}

	cmd.Flags().StringP("project", "p", "", "tsconfig.json of the project (default: nearest one above the first file)")
	cmd.Flags().StringSliceP("function", "f", nil, "Only infer these functions (repeatable)")
	cmd.Flags().String("match", "symbol", "How call sites are matched: symbol or name")
	cmd.Flags().Int("workers", 0, "Parallel workers for parsing and call-site search (0 = CPU count)")
	cmd.Flags().String("check-command", "", "Type-check command run by --check")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the changes without writing anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply every change without asking")
	cmd.Flags().BoolVar(&diff, "diff", false, "Print each diff, then ask whether to apply it")
	cmd.Flags().BoolVar(&force, "force", false, "Write files even if they changed on disk since they were read")
	cmd.Flags().BoolVar(&check, "check", false, "Run the type-check command after writing")

	return cmd
}

type inferRun struct {
	mode  changeset.Mode
	force bool
	check bool
}

func runInfer(ctx context.Context, cmd *cobra.Command, args []string, cfg *config.Config, log logger.Logger, run inferRun) error {
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("cannot read %s: %w", arg, err)
		}
		targets = append(targets, abs)
	}

	proj, err := openProject(cfg.Project.TSConfig, targets[0])
	if err != nil {
		return err
	}
	output.Verbose(fmt.Sprintf("Project %s (%s)", displayName(proj), proj.ConfigPath))

	files, err := proj.SourceFiles()
	if err != nil {
		return fmt.Errorf("listing project files: %w", err)
	}
	files = withTargets(files, targets)

	match, err := source.ParseMatchMode(cfg.Infer.Match)
	if err != nil {
		return err
	}
	output.Info(fmt.Sprintf("Parsing %d files...", len(files)))
	model, err := source.Load(ctx, proj, files, source.LoadOptions{
		Workers: cfg.Infer.Workers,
		Match:   match,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	inf := inference.New(model, inference.Options{
		Workers:   cfg.Infer.Workers,
		Functions: cfg.Infer.Functions,
	}).WithLogger(log)

	for _, target := range targets {
		result, err := inf.Infer(ctx, target)
		if err != nil {
			return err
		}
		report(result, proj.Root)
	}

	fileChanges := model.Changes()
	if len(fileChanges) == 0 {
		output.Success("Nothing to annotate")
		return nil
	}

	changes := make([]changeset.Change, len(fileChanges))
	for i, fc := range fileChanges {
		changes[i] = changeset.Change{
			Path:     fc.Path,
			Display:  relPath(proj.Root, fc.Path),
			Original: fc.Original,
			Updated:  fc.Updated,
			Hash:     fc.Hash,
		}
	}

	w := cmd.OutOrStdout()
	diffOpts := changeset.DiffOptions{
		Context: cfg.Output.DiffContext,
		Color:   useColor(cfg.Output.Color),
	}
	strategy := changeset.NewStrategy(run.mode, w, diffOpts, input.Confirm)
	accepted, err := changeset.Review(changes, strategy)
	if err != nil {
		return err
	}
	if run.mode == changeset.ModeDryRun {
		accepted = changes
	}
	if len(accepted) == 0 {
		output.Warn("No changes applied")
		return nil
	}

	differ := changeset.NewDiffer()
	ops := make([]changeset.Operation, len(accepted))
	for i, c := range accepted {
		ops[i] = c.Rewrite(differ)
	}

	err = changeset.Execute(ctx, ops, changeset.ExecuteOptions{
		DryRun: run.mode == changeset.ModeDryRun,
		Force:  run.force,
		Writer: w,
	})
	if err != nil {
		if errors.Is(err, changeset.ErrConflict) {
			return fmt.Errorf("%w (re-run, or pass --force to overwrite)", err)
		}
		return err
	}

	if run.mode == changeset.ModeDryRun {
		output.Info(fmt.Sprintf("Dry run: %d file(s) would be annotated", len(ops)))
		return nil
	}
	output.Success(fmt.Sprintf("Annotated %d file(s)", len(ops)))

	if run.check {
		return typeCheck(ctx, cmd, proj.Root, cfg.Check.Command)
	}
	return nil
}

// openProject opens the configured tsconfig, or the nearest one above
// the first target.
func openProject(tsconfig, firstTarget string) (*project.Project, error) {
	if tsconfig != "" {
		abs, err := filepath.Abs(tsconfig)
		if err != nil {
			return nil, err
		}
		return project.Open(abs)
	}
	proj, err := project.DetectProject(filepath.Dir(firstTarget), "")
	if errors.Is(err, project.ErrNoProject) {
		return nil, fmt.Errorf("%w (pass --project)", err)
	}
	return proj, err
}

// withTargets adds the targets the tsconfig does not cover, so their
// functions can still be inferred from calls inside the project.
func withTargets(files, targets []string) []string {
	have := make(map[string]bool, len(files))
	for _, f := range files {
		have[f] = true
	}
	for _, t := range targets {
		if !have[t] {
			output.Verbose(fmt.Sprintf("%s is outside the project's include list", t))
			files = append(files, t)
			have[t] = true
		}
	}
	return files
}

func typeCheck(ctx context.Context, cmd *cobra.Command, dir, command string) error {
	if strings.TrimSpace(command) == "" {
		output.Warn("No check command configured (check.command)")
		return nil
	}

	output.Info(fmt.Sprintf("Running %s", command))
	executor := exec.NewExecutor(&exec.Options{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Dir:    dir,
	})
	result, err := executor.RunCheck(ctx, command, !output.Plain())
	if err != nil {
		return err
	}
	if !result.Passed() {
		if result.Output != "" {
			fmt.Fprint(cmd.ErrOrStderr(), result.Output)
		}
		return fmt.Errorf("type-check failed: %w", result.Err)
	}
	output.Success("Type-check passed")
	return nil
}

func useColor(setting string) bool {
	switch setting {
	case "always":
		return true
	case "never":
		return false
	}
	return !output.Plain()
}

func displayName(p *project.Project) string {
	if p.Name != "" {
		return p.Name
	}
	return filepath.Base(p.Root)
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
