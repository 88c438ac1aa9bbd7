package features

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingColumn   = errors.New("missing column")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidParams   = errors.New("invalid feature parameters")
	ErrShape           = errors.New("column length mismatch")
)

// ColumnError names a column the pipeline needed but the input lacked.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string { return fmt.Sprintf("missing column: %s", e.Column) }

// Is matches ErrMissingColumn.
func (e *ColumnError) Is(target error) bool { return target == ErrMissingColumn }

// CategoryError reports a categorical value outside the frozen vocabulary.
// It is only produced in strict mode.
type CategoryError struct {
	Field string
	Value string
	Row   int
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for %s at row %d", e.Value, e.Field, e.Row)
}

// Is matches ErrUnknownCategory.
func (e *CategoryError) Is(target error) bool { return target == ErrUnknownCategory }
