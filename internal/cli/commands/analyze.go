package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/config"
	"github.com/ccollicutt/gridstat/pkg/export"
	"github.com/ccollicutt/gridstat/pkg/metrics"
	"github.com/ccollicutt/gridstat/pkg/output"
	"github.com/ccollicutt/gridstat/pkg/parser"
	"github.com/ccollicutt/gridstat/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigPath  string
	Output      string
	Strict      bool
	Verbose     bool
	Quiet       bool
	Echo        bool
	Destination string

	// Export options
	ParquetPath string
	MetricsFile string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
	WebhookDataset bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [log-file...]",
		Short: "Extract transfer statistics from GridFTP logs",
		Long: `Analyze GridFTP server transfer logs.

Every "Transfer stats:" line is turned into a transfer record holding its
source host, destination, type, file size, parallel streams, throughput
(Gbps), TCP buffer and block size. Records are grouped by destination and
summarized. Directory listings (MLSD) and transfers at or below the minimum
throughput are dropped.

Log files may be plain, gzip (.gz) or zstd (.zst) compressed. Arguments may
be files, directories or glob patterns; without arguments the log_sources of
the configuration file are used.

Exit codes:
  0 - All transfer lines parsed
  1 - Some transfer lines were malformed and skipped
  2 - Configuration or runtime error (or any malformed line with --strict)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail on the first malformed transfer line")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show line statistics and skip details")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().BoolVar(&opts.Echo, "echo", true, "Print each record as it is parsed (text output only)")
	cmd.Flags().StringVar(&opts.Destination, "destination", "", "Only report, export and count transfers to this destination; line counts cover every line")

	// Export flags
	cmd.Flags().StringVar(&opts.ParquetPath, "parquet", "", "Write the record dataset to a Parquet file")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics in textfile-collector format")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")
	cmd.Flags().BoolVar(&opts.WebhookDataset, "webhook-dataset", false, "Include the record dataset in webhook payloads")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ExitCode = 0
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	// Load configuration
	cfg, err := config.LoadOrDefault(ctx, opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = opts.Strict
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	webhooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	// Command-line files replace the configured sources
	sources := args
	if len(sources) == 0 {
		sources = cfg.LogSources
	}
	if len(sources) == 0 {
		return fmt.Errorf("no log files given: pass files as arguments or set log_sources in a config file")
	}

	files, err := parser.ExpandGlobs(sources)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched patterns: %v", sources)
	}

	logger := newLogger(errOut, opts.Verbose, opts.Quiet)
	logger.Debug("expanded log sources", "patterns", len(sources), "files", len(files))

	extractor := parser.NewExtractor(
		parser.WithExcludedTypes(cfg.ExcludedTypes),
		parser.WithMinThroughput(cfg.MinThroughputGbps),
	)
	collectorOpts := []collector.Option{
		collector.WithStrict(cfg.Strict),
		collector.WithLogger(logger),
	}

	echo := opts.Echo && formatter.Name() == "text" && !opts.Quiet
	var printer *output.RecordPrinter
	if echo {
		printer = output.NewRecordPrinter(out)
		printer.Begin()
		collectorOpts = append(collectorOpts, collector.WithObserver(printer))
	}

	var recorder *metrics.Recorder
	if opts.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		var obs collector.Observer = recorder
		if opts.Destination != "" {
			obs = collector.FilterRecords(recorder, matchDestination(opts.Destination))
		}
		collectorOpts = append(collectorOpts, collector.WithObserver(obs))
	}

	source := parser.NewFileSource(files)
	defer source.Close()

	// Run analysis
	result, err := collector.New(extractor, collectorOpts...).Collect(ctx, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if opts.Destination != "" {
		result.Dataset = result.Dataset.Filter(matchDestination(opts.Destination))
	}

	report := output.NewReport(result, opts.ConfigPath)
	report.Metadata.DestinationFilter = opts.Destination

	if echo {
		fmt.Fprintln(out)
	}

	// Output report
	if err := formatter.Format(ctx, report, out); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.ParquetPath != "" {
		n, err := export.WriteFile(opts.ParquetPath, report.Dataset, report.Metadata.RunID)
		if err != nil {
			return fmt.Errorf("writing parquet: %w", err)
		}
		fmt.Fprintf(errOut, "Parquet: wrote %d rows to %s\n", n, opts.ParquetPath)
	}

	if recorder != nil {
		recorder.ObserveResult(result)
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	sendWebhooks(ctx, errOut, webhooks, opts.WebhookDataset, report)

	// Set exit code based on results
	if report.HasIssues() {
		ExitCode = 1
	}

	return nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// newLogger returns the stderr logger for per-line warnings.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func matchDestination(dest string) func(*parser.TransferRecord) bool {
	return func(r *parser.TransferRecord) bool {
		return r.Destination == dest
	}
}

// sendWebhooks posts the report to every endpoint whose trigger matches the run.
// Delivery failures are reported to w and never change the exit status.
func sendWebhooks(ctx context.Context, w io.Writer, webhooks []config.WebhookConfig, includeDataset bool, report *output.Report) {
	var client *webhook.Client
	for _, wh := range webhooks {
		if !wh.Fires(report.HasIssues()) {
			continue
		}
		if client == nil {
			client = webhook.NewClient()
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:            wh.URL,
			Token:          wh.Token,
			Timeout:        wh.Timeout,
			IncludeDataset: includeDataset,
		})
		if resp.Success() {
			fmt.Fprintf(w, "Webhook %s: sent (%d, %s)\n", wh.DisplayName(), resp.StatusCode, resp.Duration)
		} else {
			fmt.Fprintf(w, "Webhook %s: failed (%v)\n", wh.DisplayName(), resp.Error)
		}
	}
}

// collectWebhooks appends the --webhook-url endpoint, named "cli", to the configured ones.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) ([]config.WebhookConfig, error) {
	webhooks := append([]config.WebhookConfig(nil), cfg.Webhooks...)
	if opts.WebhookURL == "" {
		return webhooks, nil
	}

	trigger := config.WebhookTrigger(opts.WebhookTrigger)
	if trigger == "" {
		trigger = config.WebhookTriggerOnIssues
	}
	cli := config.WebhookConfig{
		Name:    "cli",
		URL:     opts.WebhookURL,
		Token:   opts.WebhookToken,
		Trigger: trigger,
		Timeout: config.DefaultWebhookTimeout,
	}
	if problems := cli.Problems(); len(problems) > 0 {
		return nil, fmt.Errorf("--webhook-url: %s", strings.Join(problems, "; "))
	}
	return append(webhooks, cli), nil
}
