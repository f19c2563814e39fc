// Package parser reads GridFTP transfer logs and turns transfer-summary lines
// into structured transfer records.
package parser

import "time"

// LogLine is a raw log line as read from a source.
type LogLine struct {
	// Content is the raw line text.
	Content string

	// Source is the file path (or stream name) this line came from.
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int
}

// TransferRecord holds the statistics of one completed transfer.
type TransferRecord struct {
	// Timestamp is when the transfer completed (DATE field).
	Timestamp time.Time `json:"date_time"`

	// StartTime is when the transfer started (START field).
	StartTime time.Time `json:"start_time"`

	// Source is the originating host (HOST field).
	Source string `json:"source"`

	// Destination is the contents of the bracketed DEST list.
	Destination string `json:"destination"`

	// Type is the four letter transfer code, e.g. RETR or STOR.
	Type string `json:"ftp_type"`

	// FilePath is the file-destination path (FILE field).
	FilePath string `json:"file"`

	// Bytes is the raw transferred byte count.
	Bytes float64 `json:"bytes"`

	// FileSizeGB is Bytes in gigabytes, rounded to 2 decimals.
	FileSizeGB float64 `json:"file_size"`

	// Streams is the number of parallel network streams.
	Streams int `json:"p_streams"`

	// ThroughputGbps is the transfer rate in gigabits per second, rounded to 2 decimals.
	ThroughputGbps float64 `json:"throughput"`

	// BufferSizeMB is the TCP buffer size in megabytes.
	BufferSizeMB float64 `json:"buffer_size"`

	// BlockSizeMB is the block size in megabytes.
	BlockSizeMB float64 `json:"block_size"`
}

// Outcome classifies what the extractor did with a line.
type Outcome string

const (
	// OutcomeBlank is an empty line.
	OutcomeBlank Outcome = "blank"

	// OutcomeComment is a line starting with '#'. It is kept for display.
	OutcomeComment Outcome = "comment"

	// OutcomeIgnored is any line that is not a transfer-summary line.
	OutcomeIgnored Outcome = "ignored"

	// OutcomeExcluded is a transfer-summary line of an excluded type (directory listings).
	OutcomeExcluded Outcome = "excluded"

	// OutcomeBelowThreshold is a transfer whose throughput did not exceed the minimum.
	OutcomeBelowThreshold Outcome = "below_threshold"

	// OutcomeRecord is a transfer-summary line that produced a record.
	OutcomeRecord Outcome = "record"
)

// Extraction is the result of running the extractor on one line.
type Extraction struct {
	// Outcome classifies the line.
	Outcome Outcome

	// Line is the trimmed line content.
	Line string

	// Type is the extracted transfer type, set for excluded and accepted lines.
	Type string

	// Record is set only when Outcome is OutcomeRecord.
	Record *TransferRecord
}
