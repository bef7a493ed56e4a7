package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Flag is a boolean that crosses every boundary (JSON, database) as the
// single-character strings "0" and "1".
type Flag bool

// String returns "1" or "0".
func (f Flag) String() string {
	if f {
		return "1"
	}
	return "0"
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"1"`), nil
	}
	return []byte(`"0"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Besides "0"/"1" it accepts
// native booleans and the numbers 0 and 1, since hand-written seed files
// use all three.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case `"1"`, `1`, `true`:
		*f = true
		return nil
	case `"0"`, `0`, `false`, `""`, `null`:
		*f = false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return fmt.Errorf("%w: flag must be \"0\" or \"1\", got %q", ErrInvalidInput, s)
	}
	return fmt.Errorf("%w: flag must be \"0\" or \"1\", got %s", ErrInvalidInput, data)
}

// Value implements driver.Valuer.
func (f Flag) Value() (driver.Value, error) {
	return f.String(), nil
}

// Scan implements sql.Scanner.
func (f *Flag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = false
	case string:
		*f = v == "1"
	case []byte:
		*f = string(v) == "1"
	case int64:
		*f = v == 1
	case bool:
		*f = Flag(v)
	default:
		return fmt.Errorf("cannot scan %T into Flag", src)
	}
	return nil
}
