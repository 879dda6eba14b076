package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren"
	"github.com/simonhull/firebird-suite/wren/pkg/config"
	"github.com/simonhull/firebird-suite/wren/pkg/logger"
	"github.com/simonhull/firebird-suite/wren/pkg/output"
)

// RootCmd creates and returns the root command for the wren CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "wren",
		Short: "Infer TypeScript parameter types from their call sites",
		Long: `wren annotates the parameters of TypeScript functions with the types
of the arguments they are actually called with.

For every top-level function in the files you name, wren finds each call
across the project, types the arguments, widens literals ("x" to string,
3 to number) and writes the union onto the parameter:

  function f(x) {}      f("x")  f(5)
  function f(x: string | number) {}

Every change is shown as a diff and confirmed before anything is written.`,
		Version:       wren.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().String("config", "", "Path to wren.yaml (default: ./wren.yaml when present)")
	cmd.PersistentFlags().String("log-level", "", "Diagnostic log level: debug, info, warn, error or silent")

	return cmd
}

// loadConfig reads wren.yaml, letting the flags named in bindings
// (config key to flag name) override it, and installs the logger the
// config asks for, tagged with a fresh run id.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}

	loader := config.NewLoader(path, wd)
	bindings["log.level"] = "log-level"
	for key, name := range bindings {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logger.LevelDebug
	}

	log := logger.NewLogger(level, cmd.ErrOrStderr()).WithFields(logger.F("run", uuid.NewString()[:8]))
	logger.SetDefault(log)

	if used := loader.Used(); used != "" {
		output.Verbose(fmt.Sprintf("Using config %s", used))
	}
	return cfg, log, nil
}
