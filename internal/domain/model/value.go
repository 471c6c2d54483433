package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is an objective stat value as providers publish it: either a number
// or a preformatted string such as "85%" or "1.8m".
type Value struct {
	num   float64
	str   string
	isNum bool
}

// Number wraps a numeric value.
func Number(f float64) Value { return Value{num: f, isNum: true} }

// Text wraps a string value.
func Text(s string) Value { return Value{str: s} }

// IsNumber reports whether the provider published a number.
func (v Value) IsNumber() bool { return v.isNum }

// Float returns the numeric value; ok is false for text values.
func (v Value) Float() (f float64, ok bool) { return v.num, v.isNum }

// String formats the value for display.
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// MarshalJSON keeps the original kind.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: null stat value", ErrInvalidSnapshot)
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: stat value %s", ErrInvalidSnapshot, data)
	}
	*v = Number(f)
	return nil
}
