package bloodtest

import (
	"fmt"
	"strings"
	"time"
)

// Date is a report date that accepts the formats models actually emit:
// plain YYYY-MM-DD or a full RFC 3339 timestamp. It marshals as YYYY-MM-DD.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

func NewDate(t time.Time) *Date {
	return &Date{t: t.UTC()}
}

func ParseDate(s string) (*Date, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return NewDate(t), nil
		}
	}
	return nil, fmt.Errorf("unrecognized date: %q", s)
}

func (d Date) Time() time.Time {
	return d.t
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(bs []byte) error {
	raw := strings.Trim(string(bs), `"`)
	if len(raw) == 0 || raw == "null" {
		return nil
	}

	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}

	*d = *parsed

	return nil
}
