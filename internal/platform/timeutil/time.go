// Package timeutil fixes the precision of timestamps the service emits.
package timeutil

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	// RFC3339Millis is used for createdAt and updatedAt in API bodies.
	RFC3339Millis = "2006-01-02T15:04:05.000Z"
	// RFC3339Micros is used for log timestamps.
	RFC3339Micros = "2006-01-02T15:04:05.000000Z"
)

// Time is a UTC timestamp that always marshals with millisecond precision,
// e.g. "2024-01-15T10:30:00.000Z". Stores keep microseconds; clients see
// milliseconds.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(RFC3339Millis) + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 form. null leaves t unchanged.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Schema documents Time as a date-time string rather than an object.
func (Time) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:     huma.TypeString,
		Format:   "date-time",
		Examples: []any{"2024-01-15T10:30:00.000Z"},
	}
}
