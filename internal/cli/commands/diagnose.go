package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/config"
	"github.com/ccollicutt/gridstat/pkg/parser"
)

// maxExamples caps the malformed-line examples shown per file.
const maxExamples = 3

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigPath string
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [log-file...]",
		Short: "Diagnose log files and configuration",
		Long: `Diagnose why log files produce fewer transfer records than expected.

This command checks:
- Config file syntax and structure (with --config)
- Log source file existence and accessibility
- How each file's lines are classified (records, listings, below threshold, malformed)
- Which fields malformed transfer lines are missing
- Webhook configuration

Example:
  gridstat diagnose gridftp.log
  gridstat diagnose -c gridstat.yaml -v  # verbose output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, args []string, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := []DiagnosticResult{}

	// 1. Load configuration
	var cfg *config.Config
	if opts.ConfigPath != "" {
		result := checkConfigExists(opts.ConfigPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}

		cfg, result = checkConfigParseable(opts.ConfigPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
	} else {
		var err error
		cfg, err = config.LoadOrDefault(ctx, "")
		if err != nil {
			results = append(results, DiagnosticResult{
				Check:   "Config",
				Status:  "error",
				Message: fmt.Sprintf("Invalid environment overrides: %v", err),
			})
			printDiagnostics(w, results, opts)
			return nil
		}
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Config",
				Status:  "ok",
				Message: "No config file, using defaults",
			})
		}
	}

	// 2. Check log sources
	sources := args
	if len(sources) == 0 {
		sources = cfg.LogSources
	}
	logResults, files := checkLogSources(sources)
	results = append(results, logResults...)

	// 3. Classify the lines of each file
	for _, file := range files {
		results = append(results, checkTransferLines(ctx, cfg, file))
	}

	// 4. Check webhooks configuration
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"The config file is optional; log files can be passed as arguments",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Add at least log_sources, or drop --config to use the defaults",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(context.Background(), path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Log sources: %d", len(cfg.LogSources)),
		fmt.Sprintf("Excluded types: %s", joinOrNone(cfg.ExcludedTypes)),
		fmt.Sprintf("Min throughput: %g Gbps", cfg.MinThroughputGbps),
	}
	return cfg, result
}

// checkLogSources checks each source pattern and returns the files found.
func checkLogSources(sources []string) ([]DiagnosticResult, []string) {
	results := []DiagnosticResult{}

	if len(sources) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Sources",
			Status:  "error",
			Message: "No log sources given",
			Suggests: []string{
				"Pass log files as arguments",
				"Or add log_sources to your config\nExample: log_sources:\n  - /var/log/gridftp/*.log",
			},
		})
		return results, nil
	}

	var files []string
	for _, source := range sources {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		if strings.ContainsAny(source, "*?[") {
			matches, err := filepath.Glob(source)
			if err == nil && len(matches) > 0 {
				matches, err = parser.ExpandGlobs(matches)
			}
			if err != nil {
				result.Status = "error"
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			} else if len(matches) == 0 {
				result.Status = "warning"
				result.Message = "Glob pattern matches no files"
				result.Suggests = []string{
					"Check if the log files exist at this path",
					"Verify the glob pattern syntax",
				}
			} else {
				result.Status = "ok"
				result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				files = append(files, matches...)
			}
			results = append(results, result)
			continue
		}

		info, err := os.Stat(source)
		switch {
		case os.IsNotExist(err):
			result.Status = "error"
			result.Message = "File does not exist"
			result.Suggests = []string{
				"Check if the log file path is correct",
			}
		case err != nil:
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot access file: %v", err)
			result.Suggests = []string{"Check file permissions"}
		case info.IsDir():
			matches, err := parser.ExpandGlobs([]string{source})
			if err != nil || len(matches) == 0 {
				result.Status = "warning"
				result.Message = "Directory contains no files"
			} else {
				result.Status = "ok"
				result.Message = fmt.Sprintf("Directory with %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				files = append(files, matches...)
			}
		case info.Size() == 0:
			result.Status = "warning"
			result.Message = "File is empty (0 bytes)"
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
			files = append(files, source)
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  "error",
			Message: "No accessible log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return results, files
}

// checkTransferLines runs the collector over one file and reports how its lines were classified.
func checkTransferLines(ctx context.Context, cfg *config.Config, file string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Transfer Lines: %s", file),
	}

	extractor := parser.NewExtractor(
		parser.WithExcludedTypes(cfg.ExcludedTypes),
		parser.WithMinThroughput(cfg.MinThroughputGbps),
	)
	source := parser.NewFileSource([]string{file})
	defer source.Close()

	res, err := collector.New(extractor).Collect(ctx, source)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		result.Suggests = []string{
			"Check the file is readable",
			"Compressed files must end in .gz or .zst and be complete",
		}
		return result
	}

	s := res.Stats
	result.Details = []string{
		fmt.Sprintf("Lines read: %d", s.LinesRead),
		fmt.Sprintf("Records: %d", s.Records),
		fmt.Sprintf("Excluded (%s): %d", joinOrNone(cfg.ExcludedTypes), s.Excluded),
		fmt.Sprintf("At or below %g Gbps: %d", cfg.MinThroughputGbps, s.BelowThreshold),
		fmt.Sprintf("Malformed: %d", s.Malformed),
		fmt.Sprintf("Comments: %d", s.Comments),
		fmt.Sprintf("Other lines: %d", s.Ignored+s.Blank),
	}

	switch {
	case s.Candidates == 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("No transfer lines found (%d lines read)", s.LinesRead)
		result.Suggests = []string{
			"Transfer lines contain 'Transfer stats:' and a TYPE= field",
			"Check this is a GridFTP server log with transfer logging enabled",
		}
	case s.Malformed > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d of %d transfer lines malformed", s.Malformed, s.Candidates)
		result.Details = append(result.Details, skipDetails(res.Skipped)...)
		result.Suggests = skipHints(res.Skipped)
	case s.Records == 0:
		result.Status = "warning"
		result.Message = "No transfers accepted"
		result.Suggests = []string{
			fmt.Sprintf("All transfer lines were excluded or at or below min_throughput_gbps (%g)", cfg.MinThroughputGbps),
		}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d records from %d transfer lines", s.Records, s.Candidates)
	}

	return result
}

// skipDetails counts skipped lines by reason and lists the first few.
func skipDetails(skipped []*collector.LineError) []string {
	counts := make(map[string]int)
	for _, e := range skipped {
		counts[e.Reason]++
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	details := make([]string, 0, len(reasons)+maxExamples)
	for _, reason := range reasons {
		details = append(details, fmt.Sprintf("%s: %d", reason, counts[reason]))
	}
	for i, e := range skipped {
		if i == maxExamples {
			break
		}
		details = append(details, fmt.Sprintf("line %d: %s", e.LineNum, truncate(e.Message, 80)))
	}
	return details
}

// skipHints returns one hint per distinct skip reason, in order of first appearance.
func skipHints(skipped []*collector.LineError) []string {
	seen := make(map[string]bool)
	var hints []string
	for _, e := range skipped {
		if seen[e.Reason] {
			continue
		}
		seen[e.Reason] = true
		if hint := reasonHint(e.Reason); hint != "" {
			hints = append(hints, hint)
		}
	}
	return hints
}

func reasonHint(reason string) string {
	switch {
	case reason == "zero_duration":
		return "START equals DATE, so throughput is undefined; such transfers are too short to measure"
	case reason == "bad_timestamp":
		return "DATE and START must be YYYYMMDDHHMMSS.ffffff with valid calendar values"
	case strings.HasPrefix(reason, "missing_"):
		field := strings.ToUpper(strings.TrimPrefix(reason, "missing_"))
		return fmt.Sprintf("Some lines lack a valid %s= field; check the server's transfer log format", field)
	default:
		return ""
	}
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== gridstat Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nLogs are usable but have warnings.")
	} else {
		fmt.Fprintln(w, "\nEverything looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	var results []DiagnosticResult

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{Check: "Webhook: " + wh.DisplayName()}

		switch problems := wh.Problems(); {
		case len(problems) > 0:
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(problems))
			result.Details = problems
		case strings.HasPrefix(wh.Token, "$"):
			// Tokens still starting with $ were never expanded.
			result.Status = "warning"
			result.Message = "Token appears to be an unresolved env var"
			result.Details = []string{wh.Token}
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s, reports sent %s", wh.Trigger, describeTrigger(wh))
			if opts.Verbose {
				result.Details = []string{"URL: " + wh.URL, "Timeout: " + wh.Timeout.String()}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}
		results = append(results, result)

		if opts.Verbose && result.Status != "error" {
			probe := checkWebhookConnectivity(ctx, wh)
			probe.Check = "Webhook Connectivity: " + wh.DisplayName()
			results = append(results, probe)
		}
	}

	return results
}

// describeTrigger says in words when a report reaches the endpoint.
func describeTrigger(wh config.WebhookConfig) string {
	switch {
	case wh.Fires(false):
		return "after every run"
	case wh.Fires(true):
		return "when transfer lines are skipped"
	}
	return "never"
}

// checkWebhookConnectivity sends a HEAD request; the endpoint never receives a report.
func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
