package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/gridstat/pkg/summary"
)

// JSONFormatter writes reports as indented JSON documents.
type JSONFormatter struct {
	opts FormatOptions
}

// quietReport is the --quiet document: totals plus the per-destination table.
type quietReport struct {
	Summary
	ByDestination []summary.DestinationSummary `json:"by_destination"`
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns "json".
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format encodes the report. Quiet mode leaves out the dataset, skipped lines and metadata.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if f.opts.Quiet {
		return enc.Encode(quietReport{
			Summary:       report.Summary,
			ByDestination: report.Destinations,
		})
	}
	return enc.Encode(report)
}
