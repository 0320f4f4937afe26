package store

import "time"

const (
	ScopePrivate = "private"
	ScopeGlobal  = "global"
)

type Record struct {
	Id        string
	OwnerId   string
	Content   string
	Metadata  map[string]any
	Embedding []float32
	Score     float32
	Scope     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Source reads the metadata source tag, e.g. "conversation" or "blood_test".
func (r Record) Source() string {
	if v, ok := r.Metadata["source"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
