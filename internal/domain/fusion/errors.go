package fusion

import (
	"errors"
	"fmt"

	"github.com/okian/turnover/internal/domain/features"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyInput    = errors.New("empty input")
	ErrMissingColumn = features.ErrMissingColumn
	ErrInvalidValue  = errors.New("invalid value")
)

// EmptyError reports a source table without data rows.
type EmptyError struct {
	Source string
}

func (e *EmptyError) Error() string { return fmt.Sprintf("empty input: %s has no rows", e.Source) }

// Is matches ErrEmptyInput.
func (e *EmptyError) Is(target error) bool { return target == ErrEmptyInput }

// ColumnError names a column missing from a source table.
type ColumnError struct {
	Source string
	Column string
}

func (e *ColumnError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("missing column: %s", e.Column)
	}
	return fmt.Sprintf("missing column: %s in %s", e.Column, e.Source)
}

// Is matches ErrMissingColumn.
func (e *ColumnError) Is(target error) bool { return target == ErrMissingColumn }

// ValueError reports a cell that could not be parsed.
type ValueError struct {
	Source string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s in %s row %d: %v", e.Value, e.Column, e.Source, e.Row, e.Err)
}

// Is matches ErrInvalidValue.
func (e *ValueError) Is(target error) bool { return target == ErrInvalidValue }

func (e *ValueError) Unwrap() error { return e.Err }
