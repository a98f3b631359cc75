package loader

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel wrapped by every SchemaError.
var ErrSchema = errors.New("schema mismatch")

// SchemaError describes an input file that cannot be read as expected.
// Fatal for the load stage.
type SchemaError struct {
	File   string
	Line   int    // 1-based CSV line, 0 when not line specific
	Column string // offending column, may be empty
	Msg    string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("%s:%d: column %q: %s", e.File, e.Line, e.Column, e.Msg)
	case e.Column != "":
		return fmt.Sprintf("%s: column %q: %s", e.File, e.Column, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
