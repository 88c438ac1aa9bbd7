// Package fusion joins the survey, evaluation and HR extracts into one row
// per employee and feeds the result to the feature pipeline.
package fusion

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/features"
)

// Source names used in errors and logs.
const (
	SourceSurvey     = "survey"
	SourceEvaluation = "evaluation"
	SourceHR         = "hr"
)

// Table is one raw extract: a header and string cells.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) cell(row, col int) string {
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

func (t *Table) require(name string) (int, error) {
	i, ok := t.Column(name)
	if !ok {
		return 0, &ColumnError{Source: t.Source, Column: name}
	}
	return i, nil
}

// FusedBatch holds joined rows. Join keys and the training label are gone;
// IDs[i] is the employee number of Rows[i].
type FusedBatch struct {
	Header  []string
	Rows    [][]string
	IDs     []int
	Dropped int
}

type columnRef struct {
	table *Table
	index int
}

// Fuse inner-joins survey and evaluation on the employee number, then the HR
// extract on id_employee. Output follows survey order; rows without a match
// in both other extracts are dropped and counted.
func Fuse(survey, eval, hr *Table) (*FusedBatch, error) {
	for _, t := range []*Table{survey, eval, hr} {
		if len(t.Rows) == 0 {
			return nil, &EmptyError{Source: t.Source}
		}
	}

	surveyKey, err := survey.require(employee.ColSurveyCode)
	if err != nil {
		return nil, err
	}
	evalKey, err := eval.require(employee.ColEvaluationNumber)
	if err != nil {
		return nil, err
	}
	raise, err := eval.require(employee.ColLastRaisePercent)
	if err != nil {
		return nil, err
	}
	hrKey, err := hr.require(employee.ColEmployeeID)
	if err != nil {
		return nil, err
	}

	surveyIDs, err := parseIDs(survey, surveyKey, "")
	if err != nil {
		return nil, err
	}
	evalIDs, err := parseIDs(eval, evalKey, employee.EvaluationPrefix)
	if err != nil {
		return nil, err
	}
	hrIDs, err := parseIDs(hr, hrKey, "")
	if err != nil {
		return nil, err
	}
	raises, err := cleanPercent(eval, raise)
	if err != nil {
		return nil, err
	}

	evalByID := groupRows(evalIDs)
	hrByID := groupRows(hrIDs)

	skip := map[string]bool{
		employee.ColSurveyCode:       true,
		employee.ColEvaluationNumber: true,
		employee.ColEmployeeID:       true,
		employee.ColAttrition:        true,
		"employee_id":                true,
	}
	var header []string
	var refs []columnRef
	seen := map[string]bool{}
	for _, t := range []*Table{survey, eval, hr} {
		for i, h := range t.Header {
			if skip[h] || seen[h] {
				continue
			}
			seen[h] = true
			header = append(header, h)
			refs = append(refs, columnRef{table: t, index: i})
		}
	}

	out := &FusedBatch{Header: header}
	for s, id := range surveyIDs {
		matched := false
		for _, e := range evalByID[id] {
			for _, h := range hrByID[id] {
				row := make([]string, len(refs))
				for c, ref := range refs {
					switch ref.table {
					case survey:
						row[c] = survey.cell(s, ref.index)
					case eval:
						if ref.index == raise {
							row[c] = raises[e]
						} else {
							row[c] = eval.cell(e, ref.index)
						}
					default:
						row[c] = hr.cell(h, ref.index)
					}
				}
				out.Rows = append(out.Rows, row)
				out.IDs = append(out.IDs, id)
				matched = true
			}
		}
		if !matched {
			out.Dropped++
		}
	}
	return out, nil
}

// Frame converts the joined rows into a feature frame, parsing numeric
// columns. Columns the pipeline does not use are ignored.
func (b *FusedBatch) Frame(p *features.Params) (*features.Frame, error) {
	pos := make(map[string]int, len(b.Header))
	for i, h := range b.Header {
		pos[h] = i
	}
	numeric := make(map[string]bool, len(employee.NumericColumns))
	for _, c := range employee.NumericColumns {
		numeric[c] = true
	}

	f := features.NewFrame(len(b.Rows))
	for _, name := range p.RequiredColumns() {
		c, ok := pos[name]
		if !ok {
			return nil, &ColumnError{Column: name}
		}
		if numeric[name] {
			values := make([]float64, len(b.Rows))
			for r, row := range b.Rows {
				v, err := parseNumber(row[c])
				if err != nil {
					return nil, &ValueError{Source: "batch", Column: name, Row: r, Value: row[c], Err: err}
				}
				values[r] = v
			}
			if err := f.SetNumeric(name, values); err != nil {
				return nil, err
			}
			continue
		}
		values := make([]string, len(b.Rows))
		for r, row := range b.Rows {
			values[r] = row[c]
		}
		if err := f.SetNominal(name, values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Build runs the feature pipeline over the joined rows.
func (b *FusedBatch) Build(p *features.Params) (*features.Matrix, error) {
	f, err := b.Frame(p)
	if err != nil {
		return nil, err
	}
	return features.BuildMatrix(p, f)
}

// FuseAndBuild joins the three extracts and returns the model matrix with
// the employee number of each row.
func FuseAndBuild(p *features.Params, survey, eval, hr *Table) (*features.Matrix, []int, error) {
	b, err := Fuse(survey, eval, hr)
	if err != nil {
		return nil, nil, err
	}
	m, err := b.Build(p)
	if err != nil {
		return nil, nil, err
	}
	return m, b.IDs, nil
}

func groupRows(ids []int) map[int][]int {
	out := make(map[int][]int, len(ids))
	for row, id := range ids {
		out[id] = append(out[id], row)
	}
	return out
}

func parseIDs(t *Table, col int, prefix string) ([]int, error) {
	ids := make([]int, len(t.Rows))
	for r := range t.Rows {
		raw := t.cell(r, col)
		id, err := parseID(strings.TrimPrefix(strings.TrimSpace(raw), prefix))
		if err != nil {
			return nil, &ValueError{Source: t.Source, Column: t.Header[col], Row: r, Value: raw, Err: err}
		}
		ids[r] = id
	}
	return ids, nil
}

// parseID accepts integers and integral floats such as "12.0".
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err == nil {
		return id, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, err
	}
	return int(f), nil
}

// cleanPercent strips a trailing percent sign, with or without a space,
// and returns canonical decimal strings.
func cleanPercent(t *Table, col int) ([]string, error) {
	out := make([]string, len(t.Rows))
	for r := range t.Rows {
		raw := t.cell(r, col)
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &ValueError{Source: t.Source, Column: t.Header[col], Row: r, Value: raw, Err: err}
		}
		out[r] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}
