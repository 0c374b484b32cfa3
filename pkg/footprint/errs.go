package footprint

import "fmt"

// MissingValueError means a task lacks a field the formula cannot default.
// It is fatal for that task's footprint only; the run keeps going.
type MissingValueError struct {
	TaskID string
	Field  string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("footprint: task %s: no value for %s and no usable fallback", e.TaskID, e.Field)
}
