// Package summary groups collected transfers by destination and computes
// per-destination throughput statistics.
package summary

import (
	"math"
	"sort"

	"github.com/ccollicutt/gridstat/pkg/collector"
)

// Range holds the minimum, mean and maximum of a column.
type Range struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// LinearFit is a least-squares line y = Slope*x + Intercept.
type LinearFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`

	// R2 is the coefficient of determination, 1 for a perfect fit.
	R2 float64 `json:"r2"`
}

// DestinationSummary describes all accepted transfers to one destination.
type DestinationSummary struct {
	Destination string   `json:"destination"`
	Transfers   int      `json:"transfers"`
	Sources     []string `json:"sources"`
	Types       []string `json:"types"`
	TotalGB     float64  `json:"total_gb"`
	Throughput  Range    `json:"throughput_gbps"`
	Streams     Range    `json:"streams"`
	FileSize    Range    `json:"file_size_gb"`
	BufferSize  Range    `json:"buffer_size_mb"`

	// StreamFit fits throughput against stream count. It is nil when fewer
	// than two distinct stream counts were seen.
	StreamFit *LinearFit `json:"stream_fit,omitempty"`
}

// Summarize groups the dataset by destination, in order of first appearance.
func Summarize(ds *collector.Dataset) []DestinationSummary {
	var out []DestinationSummary
	for _, dest := range ds.Destinations() {
		out = append(out, summarizeDestination(ds, dest))
	}
	return out
}

func summarizeDestination(ds *collector.Dataset, dest string) DestinationSummary {
	s := DestinationSummary{Destination: dest}

	var throughput, streams, fileSize, buffer []float64
	sources := make(map[string]bool)
	types := make(map[string]bool)

	for i := 0; i < ds.Len(); i++ {
		if ds.Destination[i] != dest {
			continue
		}
		s.Transfers++
		s.TotalGB += ds.FileSize[i]
		sources[ds.Source[i]] = true
		types[ds.FTPType[i]] = true

		throughput = append(throughput, ds.Throughput[i])
		streams = append(streams, float64(ds.Streams[i]))
		fileSize = append(fileSize, ds.FileSize[i])
		buffer = append(buffer, ds.BufferSize[i])
	}

	s.Sources = sortedKeys(sources)
	s.Types = sortedKeys(types)
	s.Throughput = rangeOf(throughput)
	s.Streams = rangeOf(streams)
	s.FileSize = rangeOf(fileSize)
	s.BufferSize = rangeOf(buffer)
	s.StreamFit = Fit(streams, throughput)

	return s
}

func rangeOf(values []float64) Range {
	if len(values) == 0 {
		return Range{}
	}
	r := Range{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
		sum += v
	}
	r.Mean = sum / float64(len(values))
	return r
}

// Fit returns the least-squares line through (x[i], y[i]).
// It returns nil if the slices differ in length or x has fewer than two distinct values.
func Fit(x, y []float64) *LinearFit {
	n := len(x)
	if n != len(y) || n < 2 {
		return nil
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxx, sxy, syy float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return nil
	}

	fit := &LinearFit{Slope: sxy / sxx}
	fit.Intercept = meanY - fit.Slope*meanX
	if syy == 0 {
		fit.R2 = 1
	} else {
		fit.R2 = (sxy * sxy) / (sxx * syy)
	}
	return fit
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
