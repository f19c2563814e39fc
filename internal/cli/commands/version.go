package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/gridstat/internal/cli/plugins"
)

// Version is set via ldflags at build time.
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version of gridstat and the plugins it can find.",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gridstat %s\n", Version)
			if names := plugins.Names(plugins.List()); len(names) > 0 {
				fmt.Fprintf(out, "plugins: %s\n", strings.Join(names, ", "))
			}
		},
	}
}
