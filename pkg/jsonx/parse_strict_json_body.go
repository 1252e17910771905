package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
)

// ParseStrictJSONBody reads and strictly decodes a JSON HTTP request body into dst.
//
// Failures map to 400 Bad Request:
//   - malformed JSON or a truncated body
//   - empty body (ErrEmptyBody)
//   - more than one JSON value (ErrTrailingJSON)
//   - unknown fields
//   - field-type mismatches
//
// Only the shape is checked. Required fields and business rules are the caller's job.
func ParseStrictJSONBody[T any](r *http.Request, dst *T) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB cap
	if err != nil {
		return err
	}
	return ParseStrictJSON(body, dst)
}

// ParseStrictJSON applies the ParseStrictJSONBody rules to an in-memory payload.
func ParseStrictJSON[T any](body []byte, dst *T) error {
	if len(bytesTrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}
