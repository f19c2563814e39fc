package collector

import "github.com/ccollicutt/gridstat/pkg/parser"

// Observer is notified as the collector walks a source.
// Calls happen synchronously, in line order.
type Observer interface {
	// OnComment is called for each comment line; text is the trimmed line.
	OnComment(line *parser.LogLine, text string)

	// OnRecord is called for each accepted record, after it was appended to the dataset.
	OnRecord(line *parser.LogLine, record *parser.TransferRecord)

	// OnSkip is called for each line skipped in best-effort mode.
	OnSkip(lineErr *LineError)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are no-ops.
type ObserverFuncs struct {
	Comment func(line *parser.LogLine, text string)
	Record  func(line *parser.LogLine, record *parser.TransferRecord)
	Skip    func(lineErr *LineError)
}

func (f ObserverFuncs) OnComment(line *parser.LogLine, text string) {
	if f.Comment != nil {
		f.Comment(line, text)
	}
}

func (f ObserverFuncs) OnRecord(line *parser.LogLine, record *parser.TransferRecord) {
	if f.Record != nil {
		f.Record(line, record)
	}
}

func (f ObserverFuncs) OnSkip(lineErr *LineError) {
	if f.Skip != nil {
		f.Skip(lineErr)
	}
}

// FilterRecords wraps o so that OnRecord only sees records keep accepts.
// Comments and skipped lines always pass through.
func FilterRecords(o Observer, keep func(*parser.TransferRecord) bool) Observer {
	return recordFilter{Observer: o, keep: keep}
}

type recordFilter struct {
	Observer
	keep func(*parser.TransferRecord) bool
}

func (f recordFilter) OnRecord(line *parser.LogLine, record *parser.TransferRecord) {
	if f.keep(record) {
		f.Observer.OnRecord(line, record)
	}
}
