package extractor

import (
	"context"

	"github.com/w-h-a/medichat/bloodtest"
)

// Extractor turns raw document text into a typed blood-test record. A record
// without a report date is unusable downstream, so implementations reject it
// with ErrNoReportDate instead of guessing a date.
type Extractor interface {
	Extract(ctx context.Context, text string) (*bloodtest.Record, error)
}
