package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/extractor"
)

// parseRecord decodes the model's reply as a blood-test record. The decode is
// strict: unknown fields or non-schema output fail with ErrMalformedResponse
// rather than being coerced.
func parseRecord(raw string) (*bloodtest.Record, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var rec bloodtest.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", extractor.ErrMalformedResponse, err)
	}

	if !rec.HasDate() {
		return nil, extractor.ErrNoReportDate
	}

	return &rec, nil
}
