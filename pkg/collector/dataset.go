// Package collector drives the transfer-record extractor over log sources and
// gathers accepted records into a column-oriented dataset.
package collector

import (
	"time"

	"github.com/ccollicutt/gridstat/pkg/parser"
)

// Column names of the dataset, in output order.
const (
	ColumnDateTime    = "date_time"
	ColumnSource      = "source"
	ColumnDestination = "destination"
	ColumnFTPType     = "ftp_type"
	ColumnFileSize    = "file_size"
	ColumnStreams     = "p_streams"
	ColumnThroughput  = "throughput"
	ColumnBufferSize  = "buffer_size"
	ColumnBlockSize   = "block_size"
)

// ColumnNames lists the dataset columns in output order.
var ColumnNames = []string{
	ColumnDateTime,
	ColumnSource,
	ColumnDestination,
	ColumnFTPType,
	ColumnFileSize,
	ColumnStreams,
	ColumnThroughput,
	ColumnBufferSize,
	ColumnBlockSize,
}

// Dataset stores accepted transfer records as parallel columns.
// Index i of every column describes the same record.
type Dataset struct {
	DateTime    []time.Time `json:"date_time"`
	Source      []string    `json:"source"`
	Destination []string    `json:"destination"`
	FTPType     []string    `json:"ftp_type"`
	FileSize    []float64   `json:"file_size"`
	Streams     []int       `json:"p_streams"`
	Throughput  []float64   `json:"throughput"`
	BufferSize  []float64   `json:"buffer_size"`
	BlockSize   []float64   `json:"block_size"`
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		DateTime:    []time.Time{},
		Source:      []string{},
		Destination: []string{},
		FTPType:     []string{},
		FileSize:    []float64{},
		Streams:     []int{},
		Throughput:  []float64{},
		BufferSize:  []float64{},
		BlockSize:   []float64{},
	}
}

// Append adds one record to the end of every column.
func (d *Dataset) Append(r *parser.TransferRecord) {
	d.DateTime = append(d.DateTime, r.Timestamp)
	d.Source = append(d.Source, r.Source)
	d.Destination = append(d.Destination, r.Destination)
	d.FTPType = append(d.FTPType, r.Type)
	d.FileSize = append(d.FileSize, r.FileSizeGB)
	d.Streams = append(d.Streams, r.Streams)
	d.Throughput = append(d.Throughput, r.ThroughputGbps)
	d.BufferSize = append(d.BufferSize, r.BufferSizeMB)
	d.BlockSize = append(d.BlockSize, r.BlockSizeMB)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.DateTime)
}

// Row returns the record at index i rebuilt from the columns.
// Fields that are not stored as columns are left zero.
func (d *Dataset) Row(i int) parser.TransferRecord {
	return parser.TransferRecord{
		Timestamp:      d.DateTime[i],
		Source:         d.Source[i],
		Destination:    d.Destination[i],
		Type:           d.FTPType[i],
		FileSizeGB:     d.FileSize[i],
		Streams:        d.Streams[i],
		ThroughputGbps: d.Throughput[i],
		BufferSizeMB:   d.BufferSize[i],
		BlockSizeMB:    d.BlockSize[i],
	}
}

// Columns returns the dataset as a mapping from column name to values.
func (d *Dataset) Columns() map[string]any {
	return map[string]any{
		ColumnDateTime:    d.DateTime,
		ColumnSource:      d.Source,
		ColumnDestination: d.Destination,
		ColumnFTPType:     d.FTPType,
		ColumnFileSize:    d.FileSize,
		ColumnStreams:     d.Streams,
		ColumnThroughput:  d.Throughput,
		ColumnBufferSize:  d.BufferSize,
		ColumnBlockSize:   d.BlockSize,
	}
}

// Filter returns a new dataset holding the rows for which keep returns true.
func (d *Dataset) Filter(keep func(*parser.TransferRecord) bool) *Dataset {
	out := NewDataset()
	for i := 0; i < d.Len(); i++ {
		row := d.Row(i)
		if keep(&row) {
			out.Append(&row)
		}
	}
	return out
}

// Destinations returns the distinct destinations in order of first appearance.
func (d *Dataset) Destinations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, dest := range d.Destination {
		if !seen[dest] {
			seen[dest] = true
			out = append(out, dest)
		}
	}
	return out
}
