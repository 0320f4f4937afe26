package ingest

import "errors"

var (
	ErrMailboxRequired   = errors.New("mailbox is required")
	ErrExtractorRequired = errors.New("extractor is required")
	ErrEmptyPayload      = errors.New("payload is empty")
)
