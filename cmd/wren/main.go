package main

import (
	"os"

	"github.com/simonhull/firebird-suite/wren/internal/commands"
	"github.com/simonhull/firebird-suite/wren/pkg/output"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.InferCmd())
	rootCmd.AddCommand(commands.InitCmd())
	rootCmd.AddCommand(commands.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}
