package parser

import "strconv"

const (
	bytesPerMegabyteInv = 1e-6
	bytesPerGigabyteInv = 1e-9
	bitsPerByte         = 8
)

// Throughput returns the transfer rate in gigabits per second for a transfer of
// bytes between the two GridFTP timestamps, rounded to 2 decimals.
// The order of start and end does not matter.
func Throughput(bytes float64, start, end string) (float64, error) {
	times, err := ParseDateTimes(start, end)
	if err != nil {
		return 0, err
	}

	seconds := Duration(times[0], times[1])
	if seconds == 0 {
		return 0, &ZeroDurationError{Start: start, End: end}
	}

	return Round(bitsPerByte*(bytes/seconds)*bytesPerGigabyteInv, 2), nil
}

// BytesToMegabytes scales each value from bytes to megabytes.
func BytesToMegabytes(values ...float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * bytesPerMegabyteInv
	}
	return out
}

// BytesToGigabytes converts bytes to gigabytes rounded to 2 decimals.
func BytesToGigabytes(v float64) float64 {
	return Round(v*bytesPerGigabyteInv, 2)
}

// Round rounds the exact binary value of v to the given number of decimal
// places, so 2.675 (stored as 2.67499...) rounds to 2.67.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
