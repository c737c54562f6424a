package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayouts are tried in order when decoding backend timestamps.
// The backend emits naive ISO-8601 values, sometimes with fractions or a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a time decoded from the CashPilot API.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses a backend timestamp string.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp %q", s)
}

// UnmarshalJSON accepts null, empty strings and the layouts above.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON encodes the timestamp without a zone, matching the backend.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}

// Clock returns the wall-clock time as HH:MM, or N/A when unset.
func (t Timestamp) Clock() string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("15:04")
}

// Date returns the calendar date as DD/MM, or N/A when unset.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("02/01")
}
