package adapter

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Timestamp decodes the backend's mixed date formats. A null, empty or
// unparseable value decodes to the zero Timestamp without error.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// At wraps t.
func At(t time.Time) Timestamp { return Timestamp{Time: t} }

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.Time = time.Time{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Numbers (epoch millis) are the only other shape the backend emits.
		var millis int64
		if json.Unmarshal(data, &millis) == nil && millis > 0 {
			ts.Time = time.UnixMilli(millis).UTC()
		}
		return nil
	}

	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			return nil
		}
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

// Ptr returns nil for the zero Timestamp.
func (ts Timestamp) Ptr() *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
