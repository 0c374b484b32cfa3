package table

import "fmt"

// ParseError indicates that a reference CSV could not be loaded. It is fatal:
// a run cannot proceed without its reference tables.
type ParseError struct {
	Line   int // 1-based line in the source, 0 if not tied to one
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("table: parse line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("table: parse: %s", e.Reason)
}

// KeyNotFoundError indicates a lookup with an unknown row or column key.
type KeyNotFoundError struct {
	Axis string // "row" or "column"
	Key  string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("table: %s key %q not found", e.Axis, e.Key)
}
