// Package output provides formatting and output generation for transfer reports.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/parser"
	"github.com/ccollicutt/gridstat/pkg/summary"
)

// Report is the complete analysis output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Destinations holds per-destination statistics, in order of first appearance.
	Destinations []summary.DestinationSummary `json:"destinations"`

	// Dataset is the column-oriented record set.
	Dataset *collector.Dataset `json:"dataset"`

	// Skipped lists transfer lines that could not be turned into records.
	Skipped []*collector.LineError `json:"skipped"`

	// Stats counts lines per classification.
	Stats collector.Stats `json:"stats"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// LinesProcessed is the total number of log lines read.
	LinesProcessed int `json:"lines_processed"`

	// Records is the number of transfers in the dataset.
	Records int `json:"records"`

	// Destinations is the number of distinct destinations.
	Destinations int `json:"destinations"`

	// Skipped is the number of malformed transfer lines.
	Skipped int `json:"skipped"`

	// TotalGB is the summed file size of all records.
	TotalGB float64 `json:"total_gb"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID identifies this run in exported files and webhook payloads.
	RunID string `json:"run_id"`

	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the log files that were analyzed.
	Sources []string `json:"sources"`

	// DestinationFilter is the destination the dataset was restricted to, if any.
	DestinationFilter string `json:"destination_filter,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a collection result.
func NewReport(result *collector.Result, configFile string) *Report {
	ds := result.Dataset
	if ds == nil {
		ds = collector.NewDataset()
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []*collector.LineError{}
	}

	destinations := summary.Summarize(ds)
	if destinations == nil {
		destinations = []summary.DestinationSummary{}
	}

	totalGB := 0.0
	for _, size := range ds.FileSize {
		totalGB += size
	}

	return &Report{
		Summary: Summary{
			LinesProcessed: result.Stats.LinesRead,
			Records:        ds.Len(),
			Destinations:   len(destinations),
			Skipped:        len(skipped),
			TotalGB:        parser.Round(totalGB, 2),
		},
		Destinations: destinations,
		Dataset:      ds,
		Skipped:      skipped,
		Stats:        result.Stats,
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: configFile,
			Sources:    result.Sources,
			AnalyzedAt: result.EndTime,
			Duration:   result.EndTime.Sub(result.StartTime),
		},
	}
}

// HasIssues returns true if any transfer line was skipped.
func (r *Report) HasIssues() bool {
	return r.Summary.Skipped > 0
}
