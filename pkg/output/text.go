package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/summary"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "gridstat: %d records, %d destinations, %d skipped lines\n",
		report.Summary.Records,
		report.Summary.Destinations,
		report.Summary.Skipped)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== gridstat Transfer Report ===")
	fmt.Fprintln(w)

	if report.Metadata.DestinationFilter != "" {
		fmt.Fprintf(w, "Destination filter: %s\n\n", report.Metadata.DestinationFilter)
	}

	if len(report.Destinations) == 0 {
		fmt.Fprintln(w, "No transfers found")
		fmt.Fprintln(w)
	} else {
		f.formatDestinations(report.Destinations, w)
		fmt.Fprintln(w)
	}

	if len(report.Skipped) > 0 {
		f.formatSkipped(report.Skipped, w)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d records, %d destinations, %s GB transferred, %d skipped lines\n",
		report.Summary.Records,
		report.Summary.Destinations,
		formatFloat(report.Summary.TotalGB),
		report.Summary.Skipped)

	if f.opts.Verbose {
		s := report.Stats
		fmt.Fprintf(w, "Lines processed: %d (%d blank, %d comments, %d ignored)\n",
			s.LinesRead, s.Blank, s.Comments, s.Ignored)
		fmt.Fprintf(w, "Transfer lines: %d (%d records, %d excluded, %d below threshold, %d malformed)\n",
			s.Candidates, s.Records, s.Excluded, s.BelowThreshold, s.Malformed)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
	}

	return nil
}

func (f *TextFormatter) formatDestinations(destinations []summary.DestinationSummary, w io.Writer) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Destination", "Transfers", "Sources", "Total GB", "Gbps Min", "Gbps Mean", "Gbps Max", "Streams", "Fit Slope"})
	t.SetAutoWrapText(false)
	t.SetRowLine(false)

	for _, d := range destinations {
		slope := "-"
		if d.StreamFit != nil {
			slope = strconv.FormatFloat(d.StreamFit.Slope, 'f', 3, 64)
		}
		t.Append([]string{
			d.Destination,
			strconv.Itoa(d.Transfers),
			strings.Join(d.Sources, ","),
			formatFloat(d.TotalGB),
			formatFloat(d.Throughput.Min),
			strconv.FormatFloat(d.Throughput.Mean, 'f', 2, 64),
			formatFloat(d.Throughput.Max),
			fmt.Sprintf("%g-%g", d.Streams.Min, d.Streams.Max),
			slope,
		})
	}
	t.Render()
}

func (f *TextFormatter) formatSkipped(skipped []*collector.LineError, w io.Writer) {
	fmt.Fprintf(w, "Skipped: %d transfer line(s)\n", len(skipped))
	for _, e := range skipped {
		fmt.Fprintf(w, "  - %s:%d: %s\n", e.Source, e.LineNum, e.Reason)
		if f.opts.Verbose {
			fmt.Fprintf(w, "    %s\n", e.Message)
		}
	}
}

// formatFloat prints v with the fewest digits that represent it exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
