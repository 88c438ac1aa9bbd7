package features

import (
	"github.com/okian/turnover/internal/domain/employee"
)

// Diagnostics collects non-fatal anomalies seen while encoding.
type Diagnostics struct {
	// UnknownCategories counts values outside the vocabulary, keyed by field.
	UnknownCategories map[string]int
}

// Unknown returns the total count of unknown categorical values.
func (d Diagnostics) Unknown() int {
	n := 0
	for _, c := range d.UnknownCategories {
		n += c
	}
	return n
}

func (d *Diagnostics) unknown(field string) {
	if d.UnknownCategories == nil {
		d.UnknownCategories = make(map[string]int)
	}
	d.UnknownCategories[field]++
}

// Vector is one model-ready row.
type Vector struct {
	Columns     []string
	Values      []float64
	Diagnostics Diagnostics
}

// Get returns the value of a named column.
func (v Vector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Matrix is a batch of model-ready rows sharing one column order.
type Matrix struct {
	Columns     []string
	Rows        [][]float64
	Diagnostics Diagnostics
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return len(m.Rows) }

// Row returns row i as a Vector. Diagnostics stay on the matrix.
func (m *Matrix) Row(i int) Vector {
	return Vector{Columns: m.Columns, Values: m.Rows[i]}
}

// BuildFeatures turns one validated record into the model vector.
func BuildFeatures(p *Params, rec employee.Record) (Vector, error) {
	m, err := BuildMatrix(p, FrameFromRecords([]employee.Record{rec}))
	if err != nil {
		return Vector{}, err
	}
	v := m.Row(0)
	v.Diagnostics = m.Diagnostics
	return v, nil
}

// BuildMatrix runs the pipeline column-wise over every row of in:
// engineer ratios, drop unused flags, one-hot and ordinal encode, reorder,
// standardise. The input frame is left untouched.
func BuildMatrix(p *Params, in *Frame) (*Matrix, error) {
	f := in.view()
	if err := engineer(f); err != nil {
		return nil, err
	}
	f.Drop(p.dropped...)

	var diag Diagnostics
	if err := encodeNominals(p, f, &diag); err != nil {
		return nil, err
	}
	if err := encodeOrdinal(p, f, &diag); err != nil {
		return nil, err
	}

	cols := make([][]float64, len(p.columns))
	for i, name := range p.columns {
		c, err := f.requireNumeric(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	standardize(p, cols)

	rows := make([][]float64, f.rows)
	backing := make([]float64, f.rows*len(cols))
	for r := range rows {
		row := backing[r*len(cols) : (r+1)*len(cols) : (r+1)*len(cols)]
		for c := range cols {
			row[c] = cols[c][r]
		}
		rows[r] = row
	}
	return &Matrix{Columns: p.Columns(), Rows: rows, Diagnostics: diag}, nil
}

// engineer adds the tenure ratios and the mean satisfaction. Tenure gets +1
// so a first-year employee never divides by zero.
func engineer(f *Frame) error {
	income, err := f.requireNumeric(employee.ColMonthlyIncome)
	if err != nil {
		return err
	}
	tenure, err := f.requireNumeric(employee.ColYearsAtCompany)
	if err != nil {
		return err
	}
	experience, err := f.requireNumeric(employee.ColTotalWorkingYears)
	if err != nil {
		return err
	}
	promotion, err := f.requireNumeric(employee.ColYearsSincePromotion)
	if err != nil {
		return err
	}
	satisfaction := make([][]float64, 0, 4)
	for _, c := range []string{
		employee.ColEnvironmentSatisfaction,
		employee.ColJobSatisfaction,
		employee.ColTeamSatisfaction,
		employee.ColWorkLifeBalance,
	} {
		col, err := f.requireNumeric(c)
		if err != nil {
			return err
		}
		satisfaction = append(satisfaction, col)
	}

	n := f.rows
	incomeRatio := make([]float64, n)
	experienceRatio := make([]float64, n)
	promotionRatio := make([]float64, n)
	meanSatisfaction := make([]float64, n)
	for i := 0; i < n; i++ {
		d := tenure[i] + 1
		incomeRatio[i] = income[i] / d
		experienceRatio[i] = experience[i] / d
		promotionRatio[i] = promotion[i] / d
		var sum float64
		for _, s := range satisfaction {
			sum += s[i]
		}
		meanSatisfaction[i] = sum / float64(len(satisfaction))
	}
	f.numeric[ColIncomePerTenure] = incomeRatio
	f.numeric[ColExperiencePerTenure] = experienceRatio
	f.numeric[ColPromotionPerTenure] = promotionRatio
	f.numeric[ColMeanSatisfaction] = meanSatisfaction
	return nil
}

// encodeNominals replaces each nominal field with one indicator column per
// vocabulary entry. A value outside the vocabulary leaves every indicator at 0.
func encodeNominals(p *Params, f *Frame, diag *Diagnostics) error {
	for _, field := range p.nominals {
		values, err := f.requireNominal(field.Name)
		if err != nil {
			return err
		}
		indicators := make([][]float64, len(field.Vocabulary))
		pos := make(map[string]int, len(field.Vocabulary))
		for j, v := range field.Vocabulary {
			indicators[j] = make([]float64, f.rows)
			pos[v] = j
		}
		for i, v := range values {
			j, ok := pos[v]
			if !ok {
				if p.strict {
					return &CategoryError{Field: field.Name, Value: v, Row: i}
				}
				diag.unknown(field.Name)
				continue
			}
			indicators[j][i] = 1
		}
		for j, v := range field.Vocabulary {
			f.numeric[IndicatorName(field.Name, v)] = indicators[j]
		}
		delete(f.nominal, field.Name)
	}
	return nil
}

// encodeOrdinal maps the travel level to its rank. An unknown level takes the
// training mean so it standardises to 0.
func encodeOrdinal(p *Params, f *Frame, diag *Diagnostics) error {
	values, err := f.requireNominal(p.ordinal.Name)
	if err != nil {
		return err
	}
	rank := make(map[string]int, len(p.ordinal.Levels))
	for i, l := range p.ordinal.Levels {
		rank[l] = i
	}
	fallback := p.scaler[p.ordinal.Name].Mean
	codes := make([]float64, f.rows)
	for i, v := range values {
		r, ok := rank[v]
		if !ok {
			if p.strict {
				return &CategoryError{Field: p.ordinal.Name, Value: v, Row: i}
			}
			diag.unknown(p.ordinal.Name)
			codes[i] = fallback
			continue
		}
		codes[i] = float64(r)
	}
	delete(f.nominal, p.ordinal.Name)
	f.numeric[p.ordinal.Name] = codes
	return nil
}

// standardize rescales the configured columns into new slices. Raw input
// columns are shared with the caller's frame and must not be written.
func standardize(p *Params, cols [][]float64) {
	for _, name := range p.scaled {
		i := p.index[name]
		s := p.scaler[name]
		out := make([]float64, len(cols[i]))
		for r, x := range cols[i] {
			out[r] = (x - s.Mean) / s.Scale
		}
		cols[i] = out
	}
}
