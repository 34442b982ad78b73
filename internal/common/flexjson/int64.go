// Package flexjson holds JSON primitives that accept the several encodings the
// canteen backend has used over time while always writing a single canonical form.
package flexjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Int64 is a 64-bit identifier that may arrive as a JSON number or as a decimal
// string. The backend serializes BigInt columns as strings so that JavaScript
// consumers keep full precision; both forms decode to the same exact value.
type Int64 int64

// UnmarshalJSON accepts 123, "123" and null. The value is never routed through
// float64, so ids above 2^53 survive intact.
func (n *Int64) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || string(raw) == "null" {
		*n = 0
		return nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("flexjson: invalid int64 string %s: %w", raw, err)
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return fmt.Errorf("flexjson: empty string is not an int64")
		}
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("flexjson: cannot decode %s as int64: %w", raw, err)
	}
	*n = Int64(v)
	return nil
}

// MarshalJSON writes the value as a plain JSON number.
func (n Int64) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(n), 10), nil
}

// String returns the base-10 representation, the form the backend expects for
// ids embedded in request bodies.
func (n Int64) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// Int64 returns the plain integer value.
func (n Int64) Int64() int64 {
	return int64(n)
}
