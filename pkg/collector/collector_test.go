package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/gridstat/pkg/parser"
)

// transferLine builds a GridFTP transfer-summary line.
func transferLine(date, start, dest, ftpType string, nbytes int64, streams int) string {
	return fmt.Sprintf("[1] Thu Aug 17 06:29:49 2017 :: Transfer stats: DATE=%s HOST=src.example.org PROG=globus-gridftp-server NL.EVNT=FTP_INFO START=%s USER=atlas FILE=/data/f.root BUFFER=87380 BLOCK=262144 NBYTES=%d VOLUME=/ STREAMS=%d STRIPES=1 DEST=[%s] TYPE=%s CODE=226",
		date, start, nbytes, streams, dest, ftpType)
}

var testLog = strings.Join([]string{
	"# Section A",
	"",
	transferLine("20170817062949.000000", "20170817062939.000000", "192.0.2.10", "RETR", 10_000_000_000, 4),
	"[1] Thu Aug 17 06:29:50 2017 :: New connection from 192.0.2.10",
	transferLine("20170817063000.000000", "20170817062950.000000", "192.0.2.10", "MLSD", 1_000, 1),
	"# Section B",
	transferLine("20170817063100.000000", "20170817063000.000000", "192.0.2.20", "STOR", 1_000, 2),
	transferLine("20170817063200.000000", "20170817063100.000000", "192.0.2.20", "STOR", 15_000_000_000, 8),
}, "\n") + "\n"

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) OnComment(_ *parser.LogLine, text string) {
	o.events = append(o.events, "comment:"+text)
}

func (o *recordingObserver) OnRecord(line *parser.LogLine, r *parser.TransferRecord) {
	o.events = append(o.events, fmt.Sprintf("record:%d:%s", line.LineNum, r.Destination))
}

func (o *recordingObserver) OnSkip(e *LineError) {
	o.events = append(o.events, fmt.Sprintf("skip:%d:%s", e.LineNum, e.Reason))
}

func TestCollect(t *testing.T) {
	obs := &recordingObserver{}
	result, err := CollectReader(context.Background(), strings.NewReader(testLog), "test.log", WithObserver(obs))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	ds := result.Dataset
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	if ds.Destination[0] != "192.0.2.10" || ds.Destination[1] != "192.0.2.20" {
		t.Errorf("Destination = %v", ds.Destination)
	}
	if ds.Throughput[0] != 8 || ds.Throughput[1] != 2 {
		t.Errorf("Throughput = %v, want [8 2]", ds.Throughput)
	}
	if ds.Streams[0] != 4 || ds.Streams[1] != 8 {
		t.Errorf("Streams = %v, want [4 8]", ds.Streams)
	}
	if ds.FTPType[1] != "STOR" || ds.FileSize[1] != 15 {
		t.Errorf("row 1 = %+v", ds.Row(1))
	}

	want := Stats{
		LinesRead:      8,
		Blank:          1,
		Comments:       2,
		Ignored:        1,
		Candidates:     4,
		Records:        2,
		Excluded:       1,
		BelowThreshold: 1,
	}
	if result.Stats != want {
		t.Errorf("Stats = %+v\nwant %+v", result.Stats, want)
	}

	wantEvents := []string{
		"comment:# Section A",
		"record:3:192.0.2.10",
		"comment:# Section B",
		"record:8:192.0.2.20",
	}
	if strings.Join(obs.events, "|") != strings.Join(wantEvents, "|") {
		t.Errorf("events = %v\nwant %v", obs.events, wantEvents)
	}

	if len(result.Sources) != 1 || result.Sources[0] != "test.log" {
		t.Errorf("Sources = %v", result.Sources)
	}
	if result.EndTime.Before(result.StartTime) {
		t.Error("EndTime before StartTime")
	}
}

func TestCollect_CommentsOnly(t *testing.T) {
	obs := &recordingObserver{}
	result, err := CollectReader(context.Background(), strings.NewReader("# Section A\n"), "c.log", WithObserver(obs))
	if err != nil {
		t.Fatal(err)
	}
	if result.Dataset.Len() != 0 {
		t.Errorf("Len() = %d, want 0", result.Dataset.Len())
	}
	if len(obs.events) != 1 || obs.events[0] != "comment:# Section A" {
		t.Errorf("events = %v", obs.events)
	}
}

func TestCollect_ColumnsEqualLength(t *testing.T) {
	var lines []string
	n, k := 0, 0
	for i := 0; i < 30; i++ {
		switch i % 5 {
		case 0:
			lines = append(lines, fmt.Sprintf("# comment %d", i))
			k++
		case 1:
			lines = append(lines, transferLine("20200101120010.000000", "20200101120000.000000", "a", "MLSD", 1, 1))
			n++
		case 2:
			lines = append(lines, transferLine("20200101120010.000000", "20200101120000.000000", "a", "RETR", 1, 1))
			n++
		default:
			lines = append(lines, transferLine("20200101120010.000000", "20200101120000.000000", "b", "RETR", int64(i)*1_000_000_000, i))
			n++
		}
	}

	result, err := CollectReader(context.Background(), strings.NewReader(strings.Join(lines, "\n")), "mix.log")
	if err != nil {
		t.Fatal(err)
	}

	ds := result.Dataset
	if ds.Len() > n {
		t.Errorf("Len() = %d, want <= %d", ds.Len(), n)
	}
	if result.Stats.Comments != k {
		t.Errorf("Comments = %d, want %d", result.Stats.Comments, k)
	}
	for name, col := range ds.Columns() {
		if got := columnLen(col); got != ds.Len() {
			t.Errorf("column %s has %d values, want %d", name, got, ds.Len())
		}
	}
}

func columnLen(col any) int {
	switch c := col.(type) {
	case []time.Time:
		return len(c)
	case []string:
		return len(c)
	case []float64:
		return len(c)
	case []int:
		return len(c)
	default:
		return -1
	}
}

func TestCollect_BestEffortSkipsMalformed(t *testing.T) {
	content := strings.Join([]string{
		transferLine("20200101120010.000000", "20200101120000.000000", "a", "RETR", 10_000_000_000, 4),
		strings.Replace(transferLine("20200101120010.000000", "20200101120000.000000", "a", "RETR", 1, 1), "NBYTES=1 ", "", 1),
		transferLine("20200101120000.000000", "20200101120000.000000", "a", "RETR", 500_000_000, 4),
		transferLine("20200101120020.000000", "20200101120010.000000", "b", "STOR", 20_000_000_000, 4),
	}, "\n")

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	obs := &recordingObserver{}

	result, err := CollectReader(context.Background(), strings.NewReader(content), "bad.log",
		WithLogger(logger), WithObserver(obs))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if result.Dataset.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", result.Dataset.Len())
	}
	if result.Dataset.Throughput[0] != 8 || result.Dataset.Throughput[1] != 16 {
		t.Errorf("Throughput = %v, want [8 16]", result.Dataset.Throughput)
	}
	if result.Stats.Malformed != 2 {
		t.Errorf("Malformed = %d, want 2", result.Stats.Malformed)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("Skipped = %d, want 2", len(result.Skipped))
	}
	if result.Skipped[0].LineNum != 2 || result.Skipped[0].Reason != "missing_nbytes" {
		t.Errorf("Skipped[0] = %+v", result.Skipped[0])
	}
	if result.Skipped[1].LineNum != 3 || result.Skipped[1].Reason != "zero_duration" {
		t.Errorf("Skipped[1] = %+v", result.Skipped[1])
	}
	if !errors.Is(result.Skipped[1], parser.ErrZeroDuration) {
		t.Error("Skipped[1] should unwrap to ErrZeroDuration")
	}
	if !strings.Contains(logBuf.String(), "reason=zero_duration") {
		t.Errorf("log output missing warning: %s", logBuf.String())
	}
	if len(obs.events) != 4 || obs.events[1] != "skip:2:missing_nbytes" {
		t.Errorf("events = %v", obs.events)
	}
}

func TestCollect_StrictAborts(t *testing.T) {
	content := strings.Join([]string{
		transferLine("20200101120010.000000", "20200101120000.000000", "a", "RETR", 10_000_000_000, 4),
		transferLine("20200101120000.000000", "20200101120000.000000", "a", "RETR", 500_000_000, 4),
		transferLine("20200101120020.000000", "20200101120010.000000", "b", "STOR", 20_000_000_000, 4),
	}, "\n")

	result, err := CollectReader(context.Background(), strings.NewReader(content), "strict.log", WithStrict(true))
	if err == nil {
		t.Fatal("Collect() expected error in strict mode")
	}
	if result != nil {
		t.Errorf("Collect() result = %+v, want nil on abort", result)
	}

	var lineErr *LineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("error = %T, want *LineError", err)
	}
	if lineErr.LineNum != 2 || lineErr.Source != "strict.log" {
		t.Errorf("LineError = %+v", lineErr)
	}
	if !errors.Is(err, parser.ErrZeroDuration) {
		t.Errorf("error %v should match ErrZeroDuration", err)
	}
}

func TestCollect_ExtractorOptions(t *testing.T) {
	content := strings.Join([]string{
		transferLine("20200101120010.000000", "20200101120000.000000", "a", "MLSD", 10_000_000_000, 4),
		transferLine("20200101120010.000000", "20200101120000.000000", "a", "STOR", 10_000_000_000, 4),
		transferLine("20200101120010.000000", "20200101120000.000000", "a", "RETR", 10_000_000_000, 4),
		transferLine("20200101120010.000000", "20200101120000.000000", "a", "RETR", 1_000_000_000, 4),
	}, "\n")

	ext := parser.NewExtractor(parser.WithExcludedTypes([]string{"STOR"}), parser.WithMinThroughput(1.5))
	source := parser.NewReaderSource(strings.NewReader(content), "opts.log")
	result, err := New(ext).Collect(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}

	if result.Dataset.Len() != 1 || result.Dataset.FTPType[0] != "RETR" {
		t.Errorf("dataset = %+v", result.Dataset)
	}
	if result.Stats.Excluded != 2 || result.Stats.BelowThreshold != 1 {
		t.Errorf("stats = %+v, want MLSD and STOR excluded and 1 below threshold", result.Stats)
	}
}

type failingSource struct{ calls int }

func (s *failingSource) Next(context.Context) (*parser.LogLine, error) {
	s.calls++
	if s.calls == 1 {
		return &parser.LogLine{Content: "# ok", Source: "f", LineNum: 1}, nil
	}
	return nil, errors.New("disk on fire")
}

func (s *failingSource) Close() error { return nil }

func TestCollect_SourceError(t *testing.T) {
	_, err := New(nil).Collect(context.Background(), &failingSource{})
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("Collect() error = %v, want source error", err)
	}
}

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CollectReader(ctx, strings.NewReader(testLog), "test.log")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
}

func TestCollectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridftp.log")
	if err := os.WriteFile(path, []byte(testLog), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := CollectFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CollectFile() error = %v", err)
	}
	if result.Dataset.Len() != 2 {
		t.Errorf("Len() = %d, want 2", result.Dataset.Len())
	}

	if _, err := CollectFile(context.Background(), filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("CollectFile() expected error for missing file")
	}
}

// closeCounter is a reader that records Close calls.
type closeCounter struct {
	*strings.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestCollectReader_LeavesReaderOpen(t *testing.T) {
	r := &closeCounter{Reader: strings.NewReader(testLog)}

	result, err := CollectReader(context.Background(), r, "stdin")
	if err != nil {
		t.Fatalf("CollectReader() error = %v", err)
	}
	if result.Dataset.Len() == 0 {
		t.Error("no records collected")
	}
	if r.closed != 0 {
		t.Errorf("reader closed %d time(s), want caller to keep ownership", r.closed)
	}
}
