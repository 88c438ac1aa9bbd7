// Package csvtable reads and writes the raw extracts as CSV.
package csvtable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/turnover/internal/domain/fusion"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMalformed wraps CSV syntax errors.
var ErrMalformed = errors.New("malformed csv")

type settings struct {
	comma rune
}

// Option configures Read.
type Option func(*settings)

// WithComma sets the field delimiter. Exports from spreadsheet tools in
// French locales often use ';'.
func WithComma(r rune) Option {
	return func(s *settings) {
		if r != 0 {
			s.comma = r
		}
	}
}

// Read parses a CSV document with a header line into a table. An empty
// document yields a table without rows; fusion reports it as empty input.
func Read(r io.Reader, source string, opts ...Option) (*fusion.Table, error) {
	s := settings{comma: ','}
	for _, opt := range opts {
		opt(&s)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = s.comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	t := &fusion.Table{Source: source}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, source, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	t.Header = header

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, source, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path, source string, opts ...Option) (*fusion.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()
	return Read(f, source, opts...)
}

// Write renders a table as CSV with a header line.
func Write(w io.Writer, t *fusion.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
