package parser

import "context"

// LogSource yields the lines of one or more GridFTP logs in file order.
// Sources are read by a single goroutine.
type LogSource interface {
	// Next returns the next line, blank and comment lines included,
	// or io.EOF once every file is exhausted.
	Next(ctx context.Context) (*LogLine, error)

	// Close releases the open file, if any. It is safe to call more than once.
	Close() error
}

var (
	_ LogSource = (*ReaderSource)(nil)
	_ LogSource = (*FileSource)(nil)
)
