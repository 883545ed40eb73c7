package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Amount is a currency, price or percent value.
//
// Decoding never fails: JSON numbers and numeric strings are accepted, while
// null, missing, non-finite and malformed values all decode to 0.
type Amount float64

// Float returns the value as a float64, mapping NaN and ±Inf to 0.
func (a Amount) Float() float64 {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	*a = Amount(f).normalize()
	return nil
}

func (a Amount) normalize() Amount {
	return Amount(a.Float())
}

// Count is a counter decoded as totally as Amount. Aggregates the backend
// serializes as floats ("2.0") are truncated toward zero; magnitudes beyond
// 2^53 decode to 0.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	var a Amount
	a.UnmarshalJSON(data)
	f := math.Trunc(a.Float())
	if math.Abs(f) > 1<<53 {
		*c = 0
		return nil
	}
	*c = Count(f)
	return nil
}

// Flag is a boolean that also accepts the 0/1 integers and strings database
// drivers emit. Anything unrecognized decodes to false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*f = true
		return nil
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")), len(data) == 0:
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		*f = Flag(b)
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) {
		*f = n != 0
	}
	return nil
}

// Time is a timestamp tolerant of the layouts the backend emits.
//
// An unparsable or null value decodes to the zero time and marshals back
// to null.
type Time struct {
	time.Time
}

// timeLayouts are tried in order when decoding.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	"2006-01-02",
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
