package parser

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// StatsMarker identifies GridFTP transfer-summary lines.
	StatsMarker = "Transfer stats:"

	// TypeMarker must also be present for a line to be a transfer-summary candidate.
	TypeMarker = "TYPE"

	// CommentPrefix marks annotation lines that are passed through for display.
	CommentPrefix = "#"

	// ListingType is the directory listing transfer type. It is always excluded.
	ListingType = "MLSD"
)

// Field patterns. Each has exactly one capture group.
var (
	patternDate    = regexp.MustCompile(`DATE=([0-9]{14}\.[0-9]{6})`)
	patternStart   = regexp.MustCompile(`START=([0-9]{14}\.[0-9]{6})`)
	patternNBytes  = regexp.MustCompile(`NBYTES=([0-9]+)(?:\s|$)`)
	patternStreams = regexp.MustCompile(`STREAMS=([0-9]+)(?:\s|$)`)
	patternType    = regexp.MustCompile(`TYPE=([A-Z]{4})`)
	patternDest    = regexp.MustCompile(`DEST=\[(.*)\](?:\s|$)`)
	patternHost    = regexp.MustCompile(`HOST=(\S+)`)
	patternFile    = regexp.MustCompile(`FILE=(\S+)`)
	patternBuffer  = regexp.MustCompile(`BUFFER=([0-9]+)(?:\s|$)`)
	patternBlock   = regexp.MustCompile(`BLOCK=([0-9]+)(?:\s|$)`)
)

// Extractor turns GridFTP log lines into transfer records.
// It holds no per-line state and may be reused across sources.
type Extractor struct {
	excluded      map[string]bool
	minThroughput float64
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExcludedTypes adds transfer types that never produce records.
// ListingType stays excluded whatever the list holds.
func WithExcludedTypes(types []string) ExtractorOption {
	return func(e *Extractor) {
		for _, t := range types {
			e.excluded[t] = true
		}
	}
}

// WithMinThroughput drops records whose rounded throughput is not above min (Gbps).
func WithMinThroughput(min float64) ExtractorOption {
	return func(e *Extractor) {
		e.minThroughput = min
	}
}

// NewExtractor creates an extractor that always excludes MLSD listings and,
// unless configured otherwise, drops zero-throughput transfers.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		excluded: map[string]bool{ListingType: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsCandidate reports whether a trimmed line looks like a transfer-summary line.
func IsCandidate(line string) bool {
	return strings.Contains(line, StatsMarker) && strings.Contains(line, TypeMarker)
}

// Extract classifies a single log line and, for accepted transfer-summary
// lines, builds its TransferRecord. Leading and trailing whitespace is ignored.
//
// A candidate line that lacks a required field returns an *ExtractionError,
// a malformed timestamp a *FormatError and identical START and DATE values a
// *ZeroDurationError.
func (e *Extractor) Extract(line string) (*Extraction, error) {
	line = strings.TrimSpace(line)
	result := &Extraction{Line: line}

	switch {
	case line == "":
		result.Outcome = OutcomeBlank
		return result, nil
	case strings.HasPrefix(line, CommentPrefix):
		result.Outcome = OutcomeComment
		return result, nil
	case !IsCandidate(line):
		result.Outcome = OutcomeIgnored
		return result, nil
	}

	f := fields{line: line}
	end := f.get("DATE", patternDate)
	start := f.get("START", patternStart)
	nbytes := f.get("NBYTES", patternNBytes)
	streams := f.get("STREAMS", patternStreams)
	ftpType := f.get("TYPE", patternType)
	dest := f.get("DEST", patternDest)
	host := f.get("HOST", patternHost)
	file := f.get("FILE", patternFile)
	if f.err != nil {
		return nil, f.err
	}

	result.Type = ftpType
	if e.excluded[ftpType] {
		result.Outcome = OutcomeExcluded
		return result, nil
	}

	buffer := f.get("BUFFER", patternBuffer)
	block := f.get("BLOCK", patternBlock)
	if f.err != nil {
		return nil, f.err
	}

	bytes, err := strconv.ParseFloat(nbytes, 64)
	if err != nil {
		return nil, &ExtractionError{Field: "NBYTES", Line: line}
	}
	streamCount, err := strconv.Atoi(streams)
	if err != nil {
		return nil, &ExtractionError{Field: "STREAMS", Line: line}
	}
	bufferBytes, err := strconv.ParseFloat(buffer, 64)
	if err != nil {
		return nil, &ExtractionError{Field: "BUFFER", Line: line}
	}
	blockBytes, err := strconv.ParseFloat(block, 64)
	if err != nil {
		return nil, &ExtractionError{Field: "BLOCK", Line: line}
	}

	times, err := ParseDateTimes(end, start)
	if err != nil {
		return nil, err
	}

	throughput, err := Throughput(bytes, start, end)
	if err != nil {
		return nil, err
	}
	if throughput <= e.minThroughput {
		result.Outcome = OutcomeBelowThreshold
		return result, nil
	}

	sizes := BytesToMegabytes(bufferBytes, blockBytes)

	result.Outcome = OutcomeRecord
	result.Record = &TransferRecord{
		Timestamp:      times[0],
		StartTime:      times[1],
		Source:         host,
		Destination:    dest,
		Type:           ftpType,
		FilePath:       file,
		Bytes:          bytes,
		FileSizeGB:     BytesToGigabytes(bytes),
		Streams:        streamCount,
		ThroughputGbps: throughput,
		BufferSizeMB:   sizes[0],
		BlockSizeMB:    sizes[1],
	}
	return result, nil
}

// fields pulls capture groups out of a line, remembering the first miss.
type fields struct {
	line string
	err  error
}

func (f *fields) get(name string, pattern *regexp.Regexp) string {
	if f.err != nil {
		return ""
	}
	matches := pattern.FindStringSubmatch(f.line)
	if len(matches) < 2 {
		f.err = &ExtractionError{Field: name, Line: f.line}
		return ""
	}
	return matches[1]
}
