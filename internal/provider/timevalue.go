package provider

import (
	"encoding/json"
	"fmt"
)

// TimeValue holds a timestamp the source reports either as epoch seconds or
// as ISO-8601 text. The two upstream tiers disagree on the representation,
// so the raw form is preserved here and normalized once at record build time.
type TimeValue struct {
	raw any
}

// EpochSeconds builds a TimeValue from a numeric timestamp.
func EpochSeconds(sec int64) TimeValue {
	return TimeValue{raw: sec}
}

// ISOText builds a TimeValue from ISO-8601 text.
func ISOText(value string) TimeValue {
	return TimeValue{raw: value}
}

// UnmarshalJSON accepts a number, a string, or null.
func (v *TimeValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		v.raw = nil
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		v.raw = int64(num)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		v.raw = text
		return nil
	}
	return fmt.Errorf("timestamp is neither number nor string: %s", data)
}

// MarshalJSON writes back the raw representation.
func (v TimeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

// Value returns the raw representation for normalization.
func (v TimeValue) Value() any {
	return v.raw
}

// IsZero reports whether no usable timestamp was provided.
func (v TimeValue) IsZero() bool {
	switch raw := v.raw.(type) {
	case nil:
		return true
	case string:
		return raw == ""
	default:
		return false
	}
}

// Epoch returns the timestamp as epoch seconds when the source reported it
// numerically.
func (v TimeValue) Epoch() (int64, bool) {
	sec, ok := v.raw.(int64)
	return sec, ok
}
