package features

import (
	"fmt"

	"github.com/okian/turnover/internal/domain/employee"
)

// Frame is a columnar table with a fixed row count. Numeric and nominal
// columns are kept apart so the pipeline can work one column at a time.
type Frame struct {
	rows    int
	numeric map[string][]float64
	nominal map[string][]string
}

// NewFrame returns an empty frame of rows rows.
func NewFrame(rows int) *Frame {
	return &Frame{
		rows:    rows,
		numeric: make(map[string][]float64),
		nominal: make(map[string][]string),
	}
}

// FrameFromRecords materialises records as a frame, one row per record.
func FrameFromRecords(records []employee.Record) *Frame {
	f := NewFrame(len(records))
	for _, c := range employee.NumericColumns {
		f.numeric[c] = make([]float64, len(records))
	}
	for i := range records {
		for c, v := range records[i].Numeric() {
			f.numeric[c][i] = v
		}
		for c, v := range records[i].Nominal() {
			col, ok := f.nominal[c]
			if !ok {
				col = make([]string, len(records))
				f.nominal[c] = col
			}
			col[i] = v
		}
	}
	return f
}

// Rows returns the row count.
func (f *Frame) Rows() int { return f.rows }

// SetNumeric adds or replaces a numeric column.
func (f *Frame) SetNumeric(name string, values []float64) error {
	if len(values) != f.rows {
		return fmt.Errorf("%w: %s has %d values, frame has %d rows", ErrShape, name, len(values), f.rows)
	}
	delete(f.nominal, name)
	f.numeric[name] = values
	return nil
}

// SetNominal adds or replaces a nominal column.
func (f *Frame) SetNominal(name string, values []string) error {
	if len(values) != f.rows {
		return fmt.Errorf("%w: %s has %d values, frame has %d rows", ErrShape, name, len(values), f.rows)
	}
	delete(f.numeric, name)
	f.nominal[name] = values
	return nil
}

// Numeric returns a numeric column.
func (f *Frame) Numeric(name string) ([]float64, bool) {
	v, ok := f.numeric[name]
	return v, ok
}

// Nominal returns a nominal column.
func (f *Frame) Nominal(name string) ([]string, bool) {
	v, ok := f.nominal[name]
	return v, ok
}

// Has reports whether name exists as either kind of column.
func (f *Frame) Has(name string) bool {
	if _, ok := f.numeric[name]; ok {
		return true
	}
	_, ok := f.nominal[name]
	return ok
}

// Drop removes columns; absent names are ignored.
func (f *Frame) Drop(names ...string) {
	for _, n := range names {
		delete(f.numeric, n)
		delete(f.nominal, n)
	}
}

// view returns a frame sharing column storage but owning its maps, so the
// pipeline can add and drop columns without touching the caller's frame.
// Column slices are never written through.
func (f *Frame) view() *Frame {
	v := NewFrame(f.rows)
	for k, c := range f.numeric {
		v.numeric[k] = c
	}
	for k, c := range f.nominal {
		v.nominal[k] = c
	}
	return v
}

func (f *Frame) requireNumeric(name string) ([]float64, error) {
	c, ok := f.numeric[name]
	if !ok {
		return nil, &ColumnError{Column: name}
	}
	return c, nil
}

func (f *Frame) requireNominal(name string) ([]string, error) {
	c, ok := f.nominal[name]
	if !ok {
		return nil, &ColumnError{Column: name}
	}
	return c, nil
}
