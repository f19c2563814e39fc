package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/gridstat/pkg/config"
	"github.com/ccollicutt/gridstat/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a gridstat configuration file without running analysis.

Checks:
  - YAML syntax
  - Excluded transfer types (four upper-case letters)
  - Minimum throughput (finite, not negative)
  - Webhook URLs and triggers
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log sources:     %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(out, "  Strict:          %t\n", cfg.Strict)
	fmt.Fprintf(out, "  Excluded types:  %s\n", joinOrNone(cfg.ExcludedTypes))
	fmt.Fprintf(out, "  Min throughput:  %g Gbps\n", cfg.MinThroughputGbps)
	fmt.Fprintf(out, "  Webhooks:        %d\n", len(cfg.Webhooks))

	if len(cfg.LogSources) == 0 {
		fmt.Fprintf(out, "\nNo log sources configured; pass log files to analyze.\n")
		return nil
	}

	// Check if log sources exist (warnings only)
	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding log source patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(out, "\nWarning: No files match log source patterns\n")
	} else {
		fmt.Fprintf(out, "\nLog files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
