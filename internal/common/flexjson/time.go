package flexjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// MillisThreshold separates epoch seconds from epoch milliseconds. Magnitudes
// below it are seconds, at or above it milliseconds.
const MillisThreshold int64 = 10_000_000_000

// Time decodes ISO-8601 strings, Unix seconds and Unix milliseconds, and always
// encodes as an ISO-8601 extended string in UTC.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || string(raw) == "null" {
		t.Time = time.Time{}
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("flexjson: invalid timestamp string %s: %w", raw, err)
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("flexjson: cannot decode %s as timestamp: %w", raw, err)
	}
	t.Time = FromEpoch(n)
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Time.UTC().Format(time.RFC3339Nano))), nil
}

// FromEpoch converts a Unix timestamp of unknown unit to an instant using
// MillisThreshold.
func FromEpoch(n int64) time.Time {
	if n > -MillisThreshold && n < MillisThreshold {
		return time.Unix(n, 0).UTC()
	}
	return time.UnixMilli(n).UTC()
}

// ParseTimestamp parses an ISO-8601 string. RFC 3339 is tried first; other
// calendar layouts fall back to cast, with zoneless values read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := cast.StringToDateInDefaultLocation(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("flexjson: unable to parse timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
