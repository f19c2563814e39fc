// Package export writes collected transfer datasets to columnar files.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/ccollicutt/gridstat/pkg/collector"
)

// Row is one transfer as stored in the Parquet file.
type Row struct {
	DateTime    int64   `parquet:"name=date_time, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	Source      string  `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8"`
	Destination string  `parquet:"name=destination, type=BYTE_ARRAY, convertedtype=UTF8"`
	FTPType     string  `parquet:"name=ftp_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	FileSize    float64 `parquet:"name=file_size, type=DOUBLE"`
	Streams     int32   `parquet:"name=p_streams, type=INT32"`
	Throughput  float64 `parquet:"name=throughput, type=DOUBLE"`
	BufferSize  float64 `parquet:"name=buffer_size, type=DOUBLE"`
	BlockSize   float64 `parquet:"name=block_size, type=DOUBLE"`
	RunID       string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// parallelism is the number of goroutines the Parquet writer and reader use.
const parallelism = 4

// ParquetWriter writes transfer rows to a Parquet file.
type ParquetWriter struct {
	writer   *writer.ParquetWriter
	file     source.ParquetFile
	filePath string
	rows     int
}

// NewParquetWriter creates the file at path, including missing parent directories.
func NewParquetWriter(path string) (*ParquetWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(file, new(Row), parallelism)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	return &ParquetWriter{
		writer:   pw,
		file:     file,
		filePath: path,
	}, nil
}

// WriteDataset appends every row of ds, tagged with runID.
func (pw *ParquetWriter) WriteDataset(ds *collector.Dataset, runID string) error {
	for i := 0; i < ds.Len(); i++ {
		row := Row{
			DateTime:    ds.DateTime[i].UnixMicro(),
			Source:      ds.Source[i],
			Destination: ds.Destination[i],
			FTPType:     ds.FTPType[i],
			FileSize:    ds.FileSize[i],
			Streams:     int32(ds.Streams[i]),
			Throughput:  ds.Throughput[i],
			BufferSize:  ds.BufferSize[i],
			BlockSize:   ds.BlockSize[i],
			RunID:       runID,
		}
		if err := pw.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
		pw.rows++
	}
	return nil
}

// Rows returns the number of rows written so far.
func (pw *ParquetWriter) Rows() int {
	return pw.rows
}

// FilePath returns the path of the written file.
func (pw *ParquetWriter) FilePath() string {
	return pw.filePath
}

// Close flushes the footer and closes the file.
func (pw *ParquetWriter) Close() error {
	if err := pw.writer.WriteStop(); err != nil {
		pw.file.Close()
		return fmt.Errorf("failed to stop parquet writer: %w", err)
	}

	if err := pw.file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}

	return nil
}

// WriteFile writes ds to a new Parquet file at path and returns the row count.
func WriteFile(path string, ds *collector.Dataset, runID string) (int, error) {
	pw, err := NewParquetWriter(path)
	if err != nil {
		return 0, err
	}
	if err := pw.WriteDataset(ds, runID); err != nil {
		pw.Close()
		return 0, err
	}
	if err := pw.Close(); err != nil {
		return 0, err
	}
	return pw.Rows(), nil
}

// ReadFile reads every row of a Parquet file written by WriteFile.
func ReadFile(path string) ([]Row, error) {
	file, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	pr, err := reader.NewParquetReader(file, new(Row), parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]Row, int(pr.GetNumRows()))
	if len(rows) == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}
