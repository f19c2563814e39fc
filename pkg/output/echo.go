package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ccollicutt/gridstat/pkg/collector"
	"github.com/ccollicutt/gridstat/pkg/parser"
)

// EchoHeader is printed once before the first echoed line.
const EchoHeader = "DateTime Host Type FileSize FileDestination Streams Throughput_Gbps BufferSize_MB BlockSize_MB"

// EchoTimeLayout formats the DateTime column when the time has a fractional second.
const EchoTimeLayout = "2006-01-02 15:04:05.000000"

// EchoWholeSecondLayout formats the DateTime column for whole seconds.
const EchoWholeSecondLayout = "2006-01-02 15:04:05"

// RecordPrinter echoes comments and accepted records as the collector sees them.
// It implements collector.Observer.
type RecordPrinter struct {
	w          io.Writer
	headerDone bool
}

var _ collector.Observer = (*RecordPrinter)(nil)

// NewRecordPrinter creates a printer writing to w.
func NewRecordPrinter(w io.Writer) *RecordPrinter {
	return &RecordPrinter{w: w}
}

// Begin prints the header if it has not been printed yet.
func (p *RecordPrinter) Begin() {
	if p.headerDone {
		return
	}
	p.headerDone = true
	fmt.Fprintln(p.w, EchoHeader)
}

// OnComment prints the comment preceded by an empty line.
func (p *RecordPrinter) OnComment(line *parser.LogLine, text string) {
	p.Begin()
	fmt.Fprintf(p.w, "\n%s\n", text)
}

// OnRecord prints one space-separated row. The column under the Host
// heading holds the destination.
func (p *RecordPrinter) OnRecord(line *parser.LogLine, r *parser.TransferRecord) {
	p.Begin()
	fmt.Fprintln(p.w,
		formatEchoTime(r.Timestamp),
		r.Destination,
		r.Type,
		formatFloat(r.FileSizeGB),
		r.FilePath,
		strconv.Itoa(r.Streams),
		formatFloat(r.ThroughputGbps),
		formatFloat(r.BufferSizeMB),
		formatFloat(r.BlockSizeMB))
}

// OnSkip does nothing; skipped lines are reported through the logger.
func (p *RecordPrinter) OnSkip(*collector.LineError) {}

func formatEchoTime(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format(EchoWholeSecondLayout)
	}
	return t.Format(EchoTimeLayout)
}
