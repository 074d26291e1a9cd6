package schema

import "fmt"

// ParseError reports a malformed schema signature. Pos is the byte offset of
// the offending token within the signature string.
type ParseError struct {
	Pos    int
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse schema: %s: %q at offset %d", e.Reason, e.Token, e.Pos)
}

// DecodeError reports a payload that does not match the layout its schema
// describes.
type DecodeError struct {
	Schema string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode against schema %q: %v", e.Schema, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
