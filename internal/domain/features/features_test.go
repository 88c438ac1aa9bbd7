package features_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/employee/employeetest"
	"github.com/okian/turnover/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func standardized(p *features.Params, column string, raw float64) float64 {
	s, ok := p.Standardization(column)
	if !ok {
		panic("no statistics for " + column)
	}
	return (raw - s.Mean) / s.Scale
}

func value(v features.Vector, column string) float64 {
	x, ok := v.Get(column)
	if !ok {
		panic("no column " + column)
	}
	return x
}

func TestParams(t *testing.T) {
	Convey("Given the training parameters", t, func() {
		p := features.Default()

		Convey("Then the output has the fixed 50 columns", func() {
			cols := p.Columns()
			So(len(cols), ShouldEqual, features.Width)
			So(cols[0], ShouldEqual, employee.ColSavingsPlanParticipations)
			So(cols[21], ShouldEqual, employee.ColYearsInCurrentRole)
			So(cols[22], ShouldEqual, features.ColIncomePerTenure)
			So(cols[25], ShouldEqual, features.ColPromotionPerTenure)
			So(cols[26], ShouldEqual, "genre_F")
			So(cols[49], ShouldEqual, employee.ColTravelFrequency)
		})

		Convey("And 27 columns are standardised", func() {
			So(len(p.Scaled()), ShouldEqual, 27)
			s, ok := p.Standardization(employee.ColMonthlyIncome)
			So(ok, ShouldBeTrue)
			So(s.Mean, ShouldEqual, 6502.931292517007)
			So(s.Scale, ShouldEqual, 4706.355164823003)
		})

		Convey("And indicator widths follow the vocabularies", func() {
			widths := map[string]int{}
			for _, n := range p.Nominals() {
				widths[n.Name] = len(n.Vocabulary)
			}
			So(widths[employee.ColSex], ShouldEqual, len(employee.SexValues))
			So(widths[employee.ColJobTitle], ShouldEqual, 9)
			So(widths[employee.ColFieldOfStudy], ShouldEqual, 6)
			names := make([]string, 0, len(employee.NominalColumns))
			for _, n := range p.Nominals() {
				names = append(names, n.Name)
			}
			So(names, ShouldResemble, employee.NominalColumns[:])
			So(employee.NominalVocabulary(employee.ColAge), ShouldBeNil)
		})

		Convey("And mutating a returned slice does not leak back", func() {
			cols := p.Columns()
			cols[0] = "tampered"
			So(p.Columns()[0], ShouldEqual, employee.ColSavingsPlanParticipations)
		})
	})
}

func TestBuildFeatures(t *testing.T) {
	Convey("Given the training parameters", t, func() {
		p := features.Default()

		Convey("When building the example employee", func() {
			v, err := features.BuildFeatures(p, employeetest.Example())
			So(err, ShouldBeNil)

			Convey("Then every value is finite", func() {
				So(len(v.Values), ShouldEqual, features.Width)
				for _, x := range v.Values {
					So(math.IsNaN(x) || math.IsInf(x, 0), ShouldBeFalse)
				}
			})

			Convey("And ratios use tenure plus one", func() {
				So(value(v, features.ColIncomePerTenure), ShouldAlmostEqual,
					standardized(p, features.ColIncomePerTenure, 5993.0/7), 1e-12)
				So(value(v, features.ColExperiencePerTenure), ShouldAlmostEqual,
					standardized(p, features.ColExperiencePerTenure, 8.0/7), 1e-12)
				So(value(v, features.ColPromotionPerTenure), ShouldAlmostEqual,
					standardized(p, features.ColPromotionPerTenure, 0), 1e-12)
				So(value(v, features.ColMeanSatisfaction), ShouldAlmostEqual,
					standardized(p, features.ColMeanSatisfaction, 2), 1e-12)
			})

			Convey("And indicators are raw zeros and ones", func() {
				So(value(v, "genre_F"), ShouldEqual, 1)
				So(value(v, "genre_M"), ShouldEqual, 0)
				So(value(v, "poste_Cadre Commercial"), ShouldEqual, 1)
				So(value(v, "poste_Consultant"), ShouldEqual, 0)
				So(value(v, "domaine_etude_Infra & Cloud"), ShouldEqual, 1)
				So(value(v, "statut_marital_Célibataire"), ShouldEqual, 1)
				So(value(v, "departement_Commercial"), ShouldEqual, 1)
			})

			Convey("And travel is ranked then standardised", func() {
				So(value(v, employee.ColTravelFrequency), ShouldAlmostEqual,
					standardized(p, employee.ColTravelFrequency, 1), 1e-12)
			})

			Convey("And a constant training column standardises to zero", func() {
				So(value(v, employee.ColWeeklyHours), ShouldEqual, 0)
			})

			Convey("And no unknown category was seen", func() {
				So(v.Diagnostics.Unknown(), ShouldEqual, 0)
			})
		})

		Convey("When income is 6000 after five years", func() {
			r := employeetest.Example()
			r.MonthlyIncome = 6000
			r.YearsAtCompany = 5
			v, err := features.BuildFeatures(p, r)
			So(err, ShouldBeNil)

			Convey("Then income per tenure is 1000 before scaling", func() {
				So(value(v, features.ColIncomePerTenure), ShouldAlmostEqual,
					(1000-1170.0019803036198)/1353.331540788815, 1e-12)
			})
		})

		Convey("When tenure is zero", func() {
			r := employeetest.Example()
			r.YearsAtCompany = 0
			v, err := features.BuildFeatures(p, r)
			So(err, ShouldBeNil)

			Convey("Then the ratios equal their numerators", func() {
				So(value(v, features.ColIncomePerTenure), ShouldAlmostEqual,
					standardized(p, features.ColIncomePerTenure, r.MonthlyIncome), 1e-12)
				So(value(v, features.ColExperiencePerTenure), ShouldAlmostEqual,
					standardized(p, features.ColExperiencePerTenure, float64(r.TotalWorkingYears)), 1e-12)
			})
		})

		Convey("When the record sits at either end of every range", func() {
			for _, r := range []employee.Record{employeetest.Minimal(), employeetest.Maximal()} {
				v, err := features.BuildFeatures(p, r)
				So(err, ShouldBeNil)
				So(len(v.Values), ShouldEqual, features.Width)
				for _, x := range v.Values {
					So(math.IsNaN(x) || math.IsInf(x, 0), ShouldBeFalse)
				}
			}
		})

		Convey("When the same record is built twice", func() {
			a, errA := features.BuildFeatures(p, employeetest.Example())
			b, errB := features.BuildFeatures(p, employeetest.Example())

			Convey("Then the vectors are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Values, ShouldResemble, b.Values)
			})
		})

		Convey("When the job title is outside the vocabulary", func() {
			r := employeetest.Example()
			r.JobTitle = "Data Scientist"
			v, err := features.BuildFeatures(p, r)
			So(err, ShouldBeNil)

			Convey("Then the whole title block is zero", func() {
				for _, title := range employee.JobTitleValues {
					So(value(v, features.IndicatorName(employee.ColJobTitle, string(title))), ShouldEqual, 0)
				}
				So(v.Diagnostics.UnknownCategories[employee.ColJobTitle], ShouldEqual, 1)
			})

			Convey("And strict parameters reject it", func() {
				strict, err := features.New(features.WithStrictCategories(true))
				So(err, ShouldBeNil)
				_, err = features.BuildFeatures(strict, r)
				So(errors.Is(err, features.ErrUnknownCategory), ShouldBeTrue)
				var ce *features.CategoryError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Field, ShouldEqual, employee.ColJobTitle)
				So(ce.Value, ShouldEqual, "Data Scientist")
			})
		})

		Convey("When the travel level is unknown", func() {
			r := employeetest.Example()
			r.TravelFrequency = "Parfois"
			v, err := features.BuildFeatures(p, r)
			So(err, ShouldBeNil)

			Convey("Then it standardises to zero", func() {
				So(value(v, employee.ColTravelFrequency), ShouldEqual, 0)
				So(v.Diagnostics.UnknownCategories[employee.ColTravelFrequency], ShouldEqual, 1)
			})
		})
	})
}

func TestBuildMatrix(t *testing.T) {
	Convey("Given a frame of several employees", t, func() {
		p := features.Default()
		records := []employee.Record{employeetest.Example(), employeetest.Minimal(), employeetest.Maximal()}
		frame := features.FrameFromRecords(records)

		Convey("When building the matrix", func() {
			m, err := features.BuildMatrix(p, frame)
			So(err, ShouldBeNil)

			Convey("Then each row matches the single-record builder", func() {
				So(m.Len(), ShouldEqual, len(records))
				for i, r := range records {
					v, err := features.BuildFeatures(p, r)
					So(err, ShouldBeNil)
					So(m.Rows[i], ShouldResemble, v.Values)
				}
			})

			Convey("And the input frame is left untouched", func() {
				income, ok := frame.Numeric(employee.ColMonthlyIncome)
				So(ok, ShouldBeTrue)
				So(income[0], ShouldEqual, 5993)
				So(frame.Has(employee.ColHasChildren), ShouldBeTrue)
				So(frame.Has(features.ColIncomePerTenure), ShouldBeFalse)
			})
		})

		Convey("When a required column is missing", func() {
			frame.Drop(employee.ColAge)
			_, err := features.BuildMatrix(p, frame)

			Convey("Then the error names it", func() {
				So(errors.Is(err, features.ErrMissingColumn), ShouldBeTrue)
				var ce *features.ColumnError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Column, ShouldEqual, employee.ColAge)
			})
		})

		Convey("When a column has the wrong length", func() {
			err := frame.SetNumeric(employee.ColAge, []float64{1})
			So(errors.Is(err, features.ErrShape), ShouldBeTrue)
		})
	})
}

func TestLoadParams(t *testing.T) {
	Convey("Given a scaler artifact on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "scaler.yaml")

		Convey("When it carries the training statistics", func() {
			So(os.WriteFile(path, []byte(trainingArtifact()), 0o600), ShouldBeNil)
			p, err := features.LoadParams(path)
			So(err, ShouldBeNil)

			Convey("Then it builds the same vectors as the defaults", func() {
				a, _ := features.BuildFeatures(p, employeetest.Example())
				b, _ := features.BuildFeatures(features.Default(), employeetest.Example())
				So(a.Values, ShouldResemble, b.Values)
			})
		})

		Convey("When a column is missing", func() {
			So(os.WriteFile(path, []byte("scaler:\n  columns: [age]\n  mean: [36.9]\n  scale: [9.1]\n"), 0o600), ShouldBeNil)
			_, err := features.LoadParams(path)
			So(errors.Is(err, features.ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := features.LoadParams(filepath.Join(dir, "absent.yaml"))
			So(errors.Is(err, features.ErrInvalidParams), ShouldBeTrue)
		})
	})
}

func trainingArtifact() string {
	p := features.Default()
	out := "scaler:\n  columns:\n"
	for _, c := range p.Scaled() {
		out += "    - \"" + c + "\"\n"
	}
	out += "  mean:\n"
	for _, c := range p.Scaled() {
		s, _ := p.Standardization(c)
		out += "    - " + strconv.FormatFloat(s.Mean, 'g', -1, 64) + "\n"
	}
	out += "  scale:\n"
	for _, c := range p.Scaled() {
		s, _ := p.Standardization(c)
		out += "    - " + strconv.FormatFloat(s.Scale, 'g', -1, 64) + "\n"
	}
	return out
}
