package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const maxLineSize = 1024 * 1024 // 1MB max line size

// ReaderSource implements LogSource over a single io.Reader.
type ReaderSource struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	lineNum int
}

// NewReaderSource creates a LogSource that reads lines from r.
// The name is reported as the Source of every line.
func NewReaderSource(r io.Reader, name string) *ReaderSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s := &ReaderSource{name: name, scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next returns the next line or io.EOF.
func (s *ReaderSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.scanner.Scan() {
		s.lineNum++
		return &LogLine{
			Content: s.scanner.Text(),
			Source:  s.name,
			LineNum: s.lineNum,
		}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.name, err)
	}
	return nil, io.EOF
}

// Close closes the underlying reader if it is an io.Closer.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// FileSource implements LogSource for reading from log files in order.
// Files ending in .gz or .zst are decompressed transparently.
type FileSource struct {
	files []string

	current   *ReaderSource
	fileIndex int
}

// NewFileSource creates a LogSource that reads from the given files.
func NewFileSource(files []string) *FileSource {
	return &FileSource{
		files:     files,
		fileIndex: -1,
	}
}

// Next returns the next line across all files.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	for {
		// Ensure we have a file open
		if s.current == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		line, err := s.current.Next(ctx)
		if err != io.EOF {
			return line, err
		}

		// Current file exhausted, try next
		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	rc, err := OpenLog(path)
	if err != nil {
		return err
	}

	s.current = NewReaderSource(rc, path)
	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.current != nil {
		err := s.current.Close()
		s.current = nil
		if err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
	}
	return nil
}

// OpenLog opens a log file for reading, decompressing .gz and .zst files.
func OpenLog(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip log %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd log %s: %w", path, err)
		}
		zr := dec.IOReadCloser()
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	default:
		return f, nil
	}
}

// stackedCloser closes a decompressor and the file underneath it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *stackedCloser) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
