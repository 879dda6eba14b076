package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren"
)

// VersionCmd creates the 'version' command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wren version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wren %s (%s %s/%s)\n", wren.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
