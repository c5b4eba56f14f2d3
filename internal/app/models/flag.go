package models

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// Flag is a boolean that also accepts 1/0 and their string forms on input.
// null decodes to false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "false", "0", `"0"`, `"false"`:
		*f = false
		return nil
	case "true", "1", `"1"`, `"true"`:
		*f = true
		return nil
	}
	return fmt.Errorf("invalid boolean value %s", strconv.Quote(string(data)))
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(f))), nil
}

// ScanBool implements pgtype.BoolScanner.
func (f *Flag) ScanBool(v pgtype.Bool) error {
	*f = Flag(v.Valid && v.Bool)
	return nil
}

// BoolValue implements pgtype.BoolValuer.
func (f Flag) BoolValue() (pgtype.Bool, error) {
	return pgtype.Bool{Bool: bool(f), Valid: true}, nil
}
