// Package features turns raw employee records into the fixed 50-column,
// standardised vectors the attrition model was trained on.
//
// All frozen training artefacts (vocabularies, scaler statistics, column order)
// live in an immutable Params value that callers pass explicitly; builders
// keep no state of their own and are safe for concurrent use.
package features

import (
	"fmt"
	"math"

	"github.com/okian/turnover/internal/domain/employee"
)

// Width is the number of columns the model consumes.
const Width = 50

// Engineered column names.
const (
	ColIncomePerTenure     = "revenu_par_anciennete"
	ColExperiencePerTenure = "experience_par_anciennete"
	ColMeanSatisfaction    = "satisfaction_moyenne"
	ColPromotionPerTenure  = "promo_par_anciennete"
)

// EngineeredColumns lists the derived features in output order.
var EngineeredColumns = [...]string{
	ColIncomePerTenure,
	ColExperiencePerTenure,
	ColMeanSatisfaction,
	ColPromotionPerTenure,
}

// Standardization holds the training mean and scale of one column.
type Standardization struct {
	Mean  float64
	Scale float64
}

// NominalField is a one-hot encoded field and its vocabulary in training order.
type NominalField struct {
	Name       string
	Vocabulary []string
}

// OrdinalField is an ordinal encoded field; the index of a level is its code.
type OrdinalField struct {
	Name   string
	Levels []string
}

// Params carries the frozen preprocessing artefacts. It is never mutated
// after construction.
type Params struct {
	columns  []string
	index    map[string]int
	scaled   []string
	scaler   map[string]Standardization
	nominals []NominalField
	ordinal  OrdinalField
	dropped  []string
	strict   bool
}

// Option applies a configuration option to Params under construction.
type Option func(*Params)

// WithStrictCategories makes unknown categorical values fail the build with
// ErrUnknownCategory instead of encoding to an all-zero block.
func WithStrictCategories(strict bool) Option {
	return func(p *Params) {
		p.strict = strict
	}
}

// WithScaler replaces the standardisation statistics. Columns must match the
// training set exactly; New rejects anything else.
func WithScaler(columns []string, stats map[string]Standardization) Option {
	return func(p *Params) {
		if len(columns) == 0 {
			return
		}
		p.scaled = append([]string(nil), columns...)
		p.scaler = make(map[string]Standardization, len(stats))
		for k, v := range stats {
			p.scaler[k] = v
		}
	}
}

var trainingScaled = [...]string{
	employee.ColSavingsPlanParticipations,
	employee.ColTrainingsAttended,
	employee.ColDirectReports,
	employee.ColCommuteDistance,
	employee.ColEducationLevel,
	employee.ColYearsSincePromotion,
	employee.ColYearsWithManager,
	employee.ColEnvironmentSatisfaction,
	employee.ColPreviousEvaluation,
	employee.ColJobLevel,
	employee.ColJobSatisfaction,
	employee.ColTeamSatisfaction,
	employee.ColWorkLifeBalance,
	employee.ColCurrentEvaluation,
	employee.ColLastRaisePercent,
	employee.ColAge,
	employee.ColMonthlyIncome,
	employee.ColPriorCompanies,
	employee.ColWeeklyHours,
	employee.ColTotalWorkingYears,
	employee.ColYearsAtCompany,
	employee.ColYearsInCurrentRole,
	ColIncomePerTenure,
	ColExperiencePerTenure,
	ColMeanSatisfaction,
	ColPromotionPerTenure,
	employee.ColTravelFrequency,
}

var trainingMeans = [...]float64{
	0.7938775510204081,
	2.7993197278911564,
	1.0,
	9.19251700680272,
	2.912925170068027,
	2.1789115646258503,
	4.102721088435374,
	2.721768707482993,
	2.7299319727891156,
	2.0639455782312925,
	2.7285714285714286,
	2.7122448979591836,
	2.7612244897959184,
	3.1537414965986397,
	15.209523809523809,
	36.923809523809524,
	6502.931292517007,
	2.6931972789115646,
	80.0,
	11.268707482993197,
	6.980272108843537,
	4.214965986394557,
	1170.0019803036198,
	1.9285635921785853,
	2.730952380952381,
	0.23624418065415922,
	1.0863945578231293,
}

var trainingScales = [...]float64{
	0.8517867966287158,
	1.2888320187689346,
	1.0,
	8.104106529671768,
	1.0238165299102608,
	3.1873417003246085,
	3.502524756587405,
	1.0927103547111134,
	0.7113190741884202,
	1.1065633247112856,
	1.1024709415085499,
	1.0808410657505316,
	0.7062354909319911,
	0.3607007746349458,
	3.658692627979528,
	9.132265690615387,
	4706.355164823003,
	2.497159198593844,
	1.0,
	7.7078836108215345,
	6.0028580432875085,
	3.575242796407657,
	1353.331540788815,
	2.2050718706188372,
	0.5056427624070211,
	0.2687717006578023,
	0.5319888822661019,
}

var defaultParams = mustNew()

// Default returns the training-time parameters. The value is shared and
// must be treated as read-only.
func Default() *Params { return defaultParams }

func mustNew() *Params {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

func trainingNominals() []NominalField {
	out := make([]NominalField, len(employee.NominalColumns))
	for i, c := range employee.NominalColumns {
		out[i] = NominalField{Name: c, Vocabulary: employee.NominalVocabulary(c)}
	}
	return out
}

// New builds Params from the training artefacts, applies opts and validates
// the result.
func New(opts ...Option) (*Params, error) {
	stats := make(map[string]Standardization, len(trainingScaled))
	for i, c := range trainingScaled {
		stats[c] = Standardization{Mean: trainingMeans[i], Scale: trainingScales[i]}
	}
	p := &Params{
		scaled:   append([]string(nil), trainingScaled[:]...),
		scaler:   stats,
		nominals: trainingNominals(),
		ordinal: OrdinalField{
			Name:   employee.ColTravelFrequency,
			Levels: employee.Vocabulary(employee.TravelFrequencyValues[:]),
		},
		dropped: []string{employee.ColHasChildren, employee.ColOvertime},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.columns = make([]string, 0, Width)
	p.columns = append(p.columns, employee.NumericColumns[:]...)
	p.columns = append(p.columns, EngineeredColumns[:]...)
	for _, n := range p.nominals {
		for _, v := range n.Vocabulary {
			p.columns = append(p.columns, IndicatorName(n.Name, v))
		}
	}
	p.columns = append(p.columns, p.ordinal.Name)

	p.index = make(map[string]int, len(p.columns))
	for i, c := range p.columns {
		p.index[c] = i
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Params) validate() error {
	if len(p.columns) != Width || len(p.index) != Width {
		return fmt.Errorf("%w: %d columns, want %d", ErrInvalidParams, len(p.columns), Width)
	}
	if len(p.scaled) != len(trainingScaled) || len(p.scaler) != len(trainingScaled) {
		return fmt.Errorf("%w: %d scaled columns, want %d", ErrInvalidParams, len(p.scaled), len(trainingScaled))
	}
	for i, c := range p.scaled {
		if c != trainingScaled[i] {
			return fmt.Errorf("%w: scaled column %d is %q, want %q", ErrInvalidParams, i, c, trainingScaled[i])
		}
		s, ok := p.scaler[c]
		if !ok {
			return fmt.Errorf("%w: no statistics for %q", ErrInvalidParams, c)
		}
		if math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) || s.Scale == 0 || math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) {
			return fmt.Errorf("%w: bad statistics for %q", ErrInvalidParams, c)
		}
	}
	return nil
}

// IndicatorName is the one-hot column name for value of field.
func IndicatorName(field, value string) string { return field + "_" + value }

// Columns returns a copy of the output column order.
func (p *Params) Columns() []string { return append([]string(nil), p.columns...) }

// Index returns the position of column in the output vector.
func (p *Params) Index(column string) (int, bool) {
	i, ok := p.index[column]
	return i, ok
}

// Scaled returns a copy of the standardised columns in scaler order.
func (p *Params) Scaled() []string { return append([]string(nil), p.scaled...) }

// Standardization returns the statistics of a scaled column.
func (p *Params) Standardization(column string) (Standardization, bool) {
	s, ok := p.scaler[column]
	return s, ok
}

// Nominals returns the one-hot fields in output order.
func (p *Params) Nominals() []NominalField {
	out := make([]NominalField, len(p.nominals))
	for i, n := range p.nominals {
		out[i] = NominalField{Name: n.Name, Vocabulary: append([]string(nil), n.Vocabulary...)}
	}
	return out
}

// Strict reports whether unknown categories are rejected.
func (p *Params) Strict() bool { return p.strict }

// RequiredColumns lists the raw columns a Frame must provide.
func (p *Params) RequiredColumns() []string {
	out := make([]string, 0, len(employee.NumericColumns)+len(p.nominals)+1)
	out = append(out, employee.NumericColumns[:]...)
	for _, n := range p.nominals {
		out = append(out, n.Name)
	}
	return append(out, p.ordinal.Name)
}
