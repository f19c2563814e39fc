package output

import (
	"time"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/parser"
)

var testStart = time.Date(2017, 8, 17, 6, 0, 0, 0, time.UTC)

func testRecord(dest string, streams int, throughput float64) *parser.TransferRecord {
	return &parser.TransferRecord{
		Timestamp:      testStart.Add(time.Duration(streams) * time.Minute),
		Source:         "gridftp01.example.org",
		Destination:    dest,
		Type:           "RETR",
		FilePath:       "/data/file.root",
		Bytes:          2.5e9,
		FileSizeGB:     2.5,
		Streams:        streams,
		ThroughputGbps: throughput,
		BufferSizeMB:   0.08738,
		BlockSizeMB:    0.262144,
	}
}

func createTestResult() *collector.Result {
	ds := collector.NewDataset()
	ds.Append(testRecord("192.0.2.10", 2, 1.5))
	ds.Append(testRecord("192.0.2.10", 4, 2.5))
	ds.Append(testRecord("198.51.100.7", 8, 4))

	return &collector.Result{
		Dataset: ds,
		Skipped: []*collector.LineError{
			{
				Source:  "gridftp.log",
				LineNum: 7,
				Reason:  "missing_nbytes",
				Message: "transfer stats line missing NBYTES field",
			},
		},
		Stats: collector.Stats{
			LinesRead:  12,
			Comments:   2,
			Ignored:    5,
			Candidates: 5,
			Records:    3,
			Excluded:   1,
			Malformed:  1,
		},
		Sources:   []string{"gridftp.log"},
		StartTime: testStart,
		EndTime:   testStart.Add(1500 * time.Millisecond),
	}
}

func createTestReport() *Report {
	return NewReport(createTestResult(), "gridstat.yaml")
}
