package pipeline

import (
	"fmt"
	"strings"
)

// SchemaError indicates the input file is missing required columns. Fatal.
type SchemaError struct {
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input schema missing required columns [%s] (header: %v)",
		strings.Join(e.Missing, ", "), e.Header)
}

// DataQualityError indicates the row rejection rate exceeded the configured
// threshold. Fatal; carries the counts so the operator sees what was dropped.
type DataQualityError struct {
	Rejected  int
	Total     int
	Threshold float64
}

func (e *DataQualityError) Error() string {
	rate := 0.0
	if e.Total > 0 {
		rate = float64(e.Rejected) / float64(e.Total)
	}
	return fmt.Sprintf("rejected %d of %d rows (%.1f%%), over the %.1f%% threshold",
		e.Rejected, e.Total, rate*100, e.Threshold*100)
}

// SourceUnavailableError indicates the weather source could not be reached
// after retries and no usable cache covered the request.
type SourceUnavailableError struct {
	Source string
	Cause  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Cause)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Cause }

// InsufficientDataError indicates a sampling request against an empty table.
// Undersized (but non-empty) tables degrade to the full table instead.
type InsufficientDataError struct {
	Requested int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("requested sample of %d rows but only %d available", e.Requested, e.Available)
}
