package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ccollicutt/gridstat/pkg/parser"
)

// LineError describes a transfer-summary line that could not be turned into a record.
type LineError struct {
	// Source is the file the line came from.
	Source string `json:"source"`

	// LineNum is the 1-based line number in the source.
	LineNum int `json:"line"`

	// Reason is a short machine-friendly cause, e.g. missing_nbytes or zero_duration.
	Reason string `json:"reason"`

	// Message is the error text.
	Message string `json:"message"`

	// Err is the underlying error.
	Err error `json:"-"`
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.LineNum, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Stats counts lines by how the extractor classified them.
type Stats struct {
	LinesRead      int `json:"lines_read"`
	Blank          int `json:"blank"`
	Comments       int `json:"comments"`
	Ignored        int `json:"ignored"`
	Candidates     int `json:"candidates"`
	Records        int `json:"records"`
	Excluded       int `json:"excluded"`
	BelowThreshold int `json:"below_threshold"`
	Malformed      int `json:"malformed"`
}

// Result is the outcome of collecting one or more log sources.
type Result struct {
	// Dataset holds the accepted records.
	Dataset *Dataset

	// Skipped lists candidate lines that failed extraction (best-effort mode only).
	Skipped []*LineError

	// Stats counts lines per outcome.
	Stats Stats

	// Sources lists the sources seen, in order.
	Sources []string

	// StartTime is when collection began.
	StartTime time.Time

	// EndTime is when collection completed.
	EndTime time.Time
}

// Collector runs the extractor over log sources.
type Collector struct {
	extractor *parser.Extractor
	strict    bool
	observers []Observer
	logger    *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithStrict makes the first malformed line abort collection.
func WithStrict(strict bool) Option {
	return func(c *Collector) {
		c.strict = strict
	}
}

// WithObserver registers an observer notified for every comment, record and skipped line.
func WithObserver(o Observer) Option {
	return func(c *Collector) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithLogger sets the logger used for skipped-line warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a collector around the given extractor.
// A nil extractor uses parser.NewExtractor() defaults.
func New(extractor *parser.Extractor, opts ...Option) *Collector {
	if extractor == nil {
		extractor = parser.NewExtractor()
	}
	c := &Collector{
		extractor: extractor,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect reads every line of source and returns the accepted records.
//
// In best-effort mode a line that fails extraction is logged, reported to the
// observers and listed in Result.Skipped; collection continues. In strict mode
// the first such line aborts collection with a *LineError and no result.
// Errors reading the source always abort.
func (c *Collector) Collect(ctx context.Context, source parser.LogSource) (*Result, error) {
	result := &Result{
		Dataset:   NewDataset(),
		StartTime: time.Now(),
	}

	sourcesMap := make(map[string]bool)

	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if !sourcesMap[line.Source] {
			sourcesMap[line.Source] = true
			result.Sources = append(result.Sources, line.Source)
		}

		if err := c.processLine(line, result); err != nil {
			return nil, err
		}
	}

	result.EndTime = time.Now()
	return result, nil
}

func (c *Collector) processLine(line *parser.LogLine, result *Result) error {
	result.Stats.LinesRead++

	extraction, err := c.extractor.Extract(line.Content)
	if err != nil {
		result.Stats.Candidates++
		result.Stats.Malformed++

		lineErr := &LineError{
			Source:  line.Source,
			LineNum: line.LineNum,
			Reason:  parser.Reason(err),
			Message: err.Error(),
			Err:     err,
		}
		if c.strict {
			return lineErr
		}

		c.logger.Warn("skipping transfer stats line",
			"source", line.Source,
			"line", line.LineNum,
			"reason", lineErr.Reason,
			"error", err)
		result.Skipped = append(result.Skipped, lineErr)
		for _, o := range c.observers {
			o.OnSkip(lineErr)
		}
		return nil
	}

	switch extraction.Outcome {
	case parser.OutcomeBlank:
		result.Stats.Blank++
	case parser.OutcomeComment:
		result.Stats.Comments++
		for _, o := range c.observers {
			o.OnComment(line, extraction.Line)
		}
	case parser.OutcomeIgnored:
		result.Stats.Ignored++
	case parser.OutcomeExcluded:
		result.Stats.Candidates++
		result.Stats.Excluded++
	case parser.OutcomeBelowThreshold:
		result.Stats.Candidates++
		result.Stats.BelowThreshold++
	case parser.OutcomeRecord:
		result.Stats.Candidates++
		result.Stats.Records++
		result.Dataset.Append(extraction.Record)
		for _, o := range c.observers {
			o.OnRecord(line, extraction.Record)
		}
	}

	return nil
}

// CollectReader collects records from a single stream. The caller keeps
// ownership of r; it is not closed even when it implements io.Closer.
func CollectReader(ctx context.Context, r io.Reader, name string, opts ...Option) (*Result, error) {
	source := parser.NewReaderSource(struct{ io.Reader }{r}, name)
	defer source.Close()
	return New(nil, opts...).Collect(ctx, source)
}

// CollectFile collects records from a single log file, which may be gzip or zstd compressed.
func CollectFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	source := parser.NewFileSource([]string{path})
	defer source.Close()
	return New(nil, opts...).Collect(ctx, source)
}
