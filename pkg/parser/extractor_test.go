package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleLine = `[24512] Thu Aug 17 06:29:49 2017 :: Transfer stats: DATE=20170817062949.888844 HOST=gridftp01.example.org PROG=globus-gridftp-server NL.EVNT=FTP_INFO START=20170817062939.888844 USER=atlas FILE=/data/run42/file001.root BUFFER=87380 BLOCK=262144 NBYTES=10000000000 VOLUME=/ STREAMS=4 STRIPES=1 DEST=[192.0.2.10] TYPE=RETR CODE=226`

// statsLine builds a transfer-summary line, replacing or removing tokens of sampleLine.
// A value of "" removes the token.
func statsLine(overrides map[string]string) string {
	parts := strings.Fields(sampleLine)
	var out []string
	for _, p := range parts {
		key, _, found := strings.Cut(p, "=")
		if found {
			if v, ok := overrides[key]; ok {
				if v == "" {
					continue
				}
				p = key + "=" + v
			}
		}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

func TestExtractor_Record(t *testing.T) {
	e := NewExtractor()
	buffer, block := 87380.0, 262144.0

	got, err := e.Extract(sampleLine)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Outcome != OutcomeRecord {
		t.Fatalf("Outcome = %q, want %q", got.Outcome, OutcomeRecord)
	}

	want := &TransferRecord{
		Timestamp:      time.Date(2017, 8, 17, 6, 29, 49, 888844000, time.UTC),
		StartTime:      time.Date(2017, 8, 17, 6, 29, 39, 888844000, time.UTC),
		Source:         "gridftp01.example.org",
		Destination:    "192.0.2.10",
		Type:           "RETR",
		FilePath:       "/data/run42/file001.root",
		Bytes:          10_000_000_000,
		FileSizeGB:     10,
		Streams:        4,
		ThroughputGbps: 8,
		BufferSizeMB:   buffer * 1e-6,
		BlockSizeMB:    block * 1e-6,
	}
	rec := got.Record
	if !rec.Timestamp.Equal(want.Timestamp) || !rec.StartTime.Equal(want.StartTime) {
		t.Errorf("times = %v/%v, want %v/%v", rec.Timestamp, rec.StartTime, want.Timestamp, want.StartTime)
	}
	rec.Timestamp, rec.StartTime = want.Timestamp, want.StartTime
	if *rec != *want {
		t.Errorf("Record = %+v\nwant %+v", *rec, *want)
	}
}

func TestExtractor_Deterministic(t *testing.T) {
	e := NewExtractor()
	first, err := e.Extract(sampleLine)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Extract("   " + sampleLine + "\t")
	if err != nil {
		t.Fatal(err)
	}
	if *first.Record != *second.Record {
		t.Errorf("Extract() not deterministic: %+v vs %+v", *first.Record, *second.Record)
	}
}

func TestExtractor_NonRecordLines(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Outcome
	}{
		{"blank", "", OutcomeBlank},
		{"whitespace", "   \t ", OutcomeBlank},
		{"comment", "# Section A", OutcomeComment},
		{"indented comment", "   # Section B", OutcomeComment},
		{"unrelated", "[24512] Thu Aug 17 06:29:39 2017 :: New connection from 192.0.2.10", OutcomeIgnored},
		{"stats without TYPE", strings.Replace(statsLine(map[string]string{"TYPE": ""}), "TYPE", "", -1), OutcomeIgnored},
		{"TYPE without stats marker", strings.Replace(sampleLine, StatsMarker, "Transfer:", 1), OutcomeIgnored},
		{"listing", statsLine(map[string]string{"TYPE": "MLSD"}), OutcomeExcluded},
		{"listing without buffer and block", statsLine(map[string]string{"TYPE": "MLSD", "BUFFER": "", "BLOCK": ""}), OutcomeExcluded},
		{"zero throughput", statsLine(map[string]string{"NBYTES": "1000", "START": "20170817052949.888844"}), OutcomeBelowThreshold},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(tt.line)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got.Outcome != tt.want {
				t.Errorf("Outcome = %q, want %q", got.Outcome, tt.want)
			}
			if got.Record != nil {
				t.Errorf("Record = %+v, want nil", got.Record)
			}
		})
	}
}

func TestExtractor_CommentKeepsLine(t *testing.T) {
	got, err := NewExtractor().Extract("  # Section A  ")
	if err != nil {
		t.Fatal(err)
	}
	if got.Line != "# Section A" {
		t.Errorf("Line = %q, want %q", got.Line, "# Section A")
	}
}

func TestExtractor_MissingFields(t *testing.T) {
	fields := []string{"DATE", "START", "NBYTES", "STREAMS", "DEST", "HOST", "FILE", "BUFFER", "BLOCK"}

	e := NewExtractor()
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			_, err := e.Extract(statsLine(map[string]string{field: ""}))
			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("Extract() error = %v, want *ExtractionError", err)
			}
			if extractErr.Field != field {
				t.Errorf("Field = %q, want %q", extractErr.Field, field)
			}
		})
	}
}

func TestExtractor_MalformedTokens(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"short DATE", statsLine(map[string]string{"DATE": "2017081706294.888844"}), "DATE"},
		{"DATE with three fractional digits", statsLine(map[string]string{"DATE": "20170817062949.888"}), "DATE"},
		{"NBYTES not numeric", statsLine(map[string]string{"NBYTES": "lots"}), "NBYTES"},
		{"lowercase TYPE", statsLine(map[string]string{"TYPE": "retr"}), "TYPE"},
		{"DEST without brackets", statsLine(map[string]string{"DEST": "192.0.2.10"}), "DEST"},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(tt.line)
			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("Extract() error = %v, want *ExtractionError", err)
			}
			if extractErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", extractErr.Field, tt.field)
			}
		})
	}
}

func TestExtractor_BadTimestampValue(t *testing.T) {
	line := statsLine(map[string]string{"DATE": "20171317062949.888844"})
	_, err := NewExtractor().Extract(line)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Extract() error = %v, want *FormatError", err)
	}
}

func TestExtractor_ZeroDuration(t *testing.T) {
	line := statsLine(map[string]string{
		"TYPE":    "RETR",
		"NBYTES":  "500000000",
		"STREAMS": "4",
		"DATE":    "20200101120000.000000",
		"START":   "20200101120000.000000",
	})

	_, err := NewExtractor().Extract(line)
	if !errors.Is(err, ErrZeroDuration) {
		t.Fatalf("Extract() error = %v, want ErrZeroDuration", err)
	}
	if Reason(err) != "zero_duration" {
		t.Errorf("Reason() = %q, want zero_duration", Reason(err))
	}
}

func TestExtractor_Options(t *testing.T) {
	t.Run("custom excluded types", func(t *testing.T) {
		e := NewExtractor(WithExcludedTypes([]string{"STOR"}))

		got, err := e.Extract(statsLine(map[string]string{"TYPE": "MLSD"}))
		if err != nil {
			t.Fatal(err)
		}
		if got.Outcome != OutcomeExcluded {
			t.Errorf("MLSD Outcome = %q, want listings excluded even when not listed", got.Outcome)
		}

		got, err = e.Extract(statsLine(map[string]string{"TYPE": "STOR"}))
		if err != nil {
			t.Fatal(err)
		}
		if got.Outcome != OutcomeExcluded || got.Type != "STOR" {
			t.Errorf("STOR Outcome = %q type %q, want excluded STOR", got.Outcome, got.Type)
		}
	})

	t.Run("empty excluded types", func(t *testing.T) {
		e := NewExtractor(WithExcludedTypes(nil), WithExcludedTypes([]string{}))
		got, err := e.Extract(statsLine(map[string]string{"TYPE": "MLSD"}))
		if err != nil {
			t.Fatal(err)
		}
		if got.Outcome != OutcomeExcluded {
			t.Errorf("MLSD Outcome = %q, want excluded", got.Outcome)
		}
	})

	t.Run("min throughput", func(t *testing.T) {
		e := NewExtractor(WithMinThroughput(8))
		got, err := e.Extract(sampleLine)
		if err != nil {
			t.Fatal(err)
		}
		if got.Outcome != OutcomeBelowThreshold {
			t.Errorf("Outcome = %q, want below_threshold at exactly the minimum", got.Outcome)
		}
	})
}

func TestExtractor_DestinationList(t *testing.T) {
	line := statsLine(map[string]string{"DEST": "[192.0.2.10,192.0.2.11]"})
	got, err := NewExtractor().Extract(line)
	if err != nil {
		t.Fatal(err)
	}
	if got.Record.Destination != "192.0.2.10,192.0.2.11" {
		t.Errorf("Destination = %q", got.Record.Destination)
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ExtractionError{Field: "NBYTES"}, "missing_nbytes"},
		{&FormatError{Value: "x"}, "bad_timestamp"},
		{&ZeroDurationError{}, "zero_duration"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestExtractor_DestinationBrackets(t *testing.T) {
	tests := []struct {
		name string
		dest string
		want string
	}{
		{"last field", "DEST=[192.0.2.10]", "192.0.2.10"},
		{"bracket without space later", "DEST=[192.0.2.10] VOLUME=/data/run[1]/x", "192.0.2.10"},
		{"bracket and space later", "DEST=[192.0.2.10] NOTE=[a] CODE=226", "192.0.2.10] NOTE=[a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// DEST ends the line, after everything else.
			line := statsLine(map[string]string{"DEST": "", "CODE": ""}) + " " + tt.dest
			got, err := NewExtractor().Extract(line)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got.Record.Destination != tt.want {
				t.Errorf("Destination = %q, want %q", got.Record.Destination, tt.want)
			}
		})
	}
}
