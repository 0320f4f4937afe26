package extractor

import "errors"

var (
	// ErrMalformedResponse means the model's output did not decode as the
	// record schema.
	ErrMalformedResponse = errors.New("model response does not match the record schema")

	// ErrNoReportDate means a record was extracted but carries no report date.
	ErrNoReportDate = errors.New("no report date found in document")
)
