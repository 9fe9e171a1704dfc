package alphavantage

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// fields is a decoded JSON object whose values are read key by key.
// Alpha Vantage sends every number as a string, so each numeric read is a
// string decode followed by strconv.
type fields map[string]json.RawMessage

func decodeFields(b []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("expected JSON object, got null")
	}
	return f, nil
}

// str reads a required string field.
func (f fields) str(key string, dst *string) error {
	raw, ok := f[key]
	if !ok {
		return &FieldError{Field: key, Err: ErrMissingField}
	}
	if string(raw) == "null" {
		return &FieldError{Field: key, Value: "null", Err: fmt.Errorf("expected string")}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &FieldError{Field: key, Value: string(raw), Err: err}
	}
	return nil
}

// float reads a required string-encoded float.
func (f fields) float(key string, dst *float64) error {
	var s string
	if err := f.str(key, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &FieldError{Field: key, Value: s, Err: err}
	}
	*dst = v
	return nil
}

// optFloat is float but leaves dst at its zero value when key is absent.
func (f fields) optFloat(key string, dst *float64) error {
	if _, ok := f[key]; !ok {
		*dst = 0
		return nil
	}
	return f.float(key, dst)
}

// int reads a required string-encoded base-10 integer.
func (f fields) int(key string, dst *int64) error {
	var s string
	if err := f.str(key, &s); err != nil {
		return err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return &FieldError{Field: key, Value: s, Err: err}
	}
	*dst = v
	return nil
}
