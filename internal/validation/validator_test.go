package validation

import (
	"errors"
	"testing"

	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/employee/employeetest"
	. "github.com/smartystreets/goconvey/convey"
)

func fieldErrors(err error) map[string]FieldError {
	var ve *Error
	So(errors.As(err, &ve), ShouldBeTrue)
	out := map[string]FieldError{}
	for _, f := range ve.Fields {
		out[f.Field] = f
	}
	return out
}

func TestStruct(t *testing.T) {
	Convey("Given the example employee", t, func() {
		in := employee.InputFrom(employeetest.Example())

		Convey("Then it validates", func() {
			So(Struct(&in), ShouldBeNil)
		})

		Convey("And the range extremes validate", func() {
			lo := employee.InputFrom(employeetest.Minimal())
			hi := employee.InputFrom(employeetest.Maximal())
			So(Struct(&lo), ShouldBeNil)
			So(Struct(&hi), ShouldBeNil)
		})

		Convey("When the age is below the minimum", func() {
			age := 17
			in.Age = &age
			errs := fieldErrors(Struct(&in))

			Convey("Then the error names the JSON field and the bound", func() {
				So(errs, ShouldContainKey, employee.ColAge)
				So(errs[employee.ColAge].Tag, ShouldEqual, "gte")
				So(errs[employee.ColAge].Value, ShouldEqual, 17)
				So(errs[employee.ColAge].Message, ShouldEqual, "age must be greater than or equal to 18")
			})
		})

		Convey("When a field is missing", func() {
			in.MonthlyIncome = nil
			errs := fieldErrors(Struct(&in))

			Convey("Then it is reported as required without a value", func() {
				So(errs[employee.ColMonthlyIncome].Tag, ShouldEqual, "required")
				So(errs[employee.ColMonthlyIncome].Value, ShouldBeNil)
			})
		})

		Convey("When a category is outside its vocabulary", func() {
			dept := employee.Department("Finance")
			travel := employee.TravelFrequency("Parfois")
			in.Department = &dept
			in.TravelFrequency = &travel
			errs := fieldErrors(Struct(&in))

			Convey("Then both fields fail the known rule", func() {
				So(errs[employee.ColDepartment].Tag, ShouldEqual, "known")
				So(errs[employee.ColTravelFrequency].Tag, ShouldEqual, "known")
				So(len(errs), ShouldEqual, 2)
			})
		})

		Convey("When the job title is not in the vocabulary but well formed", func() {
			title := employee.JobTitle("Data Scientist")
			in.JobTitle = &title

			Convey("Then it is accepted", func() {
				So(Struct(&in), ShouldBeNil)
			})
		})

		Convey("When the job title is too short", func() {
			title := employee.JobTitle("AB")
			in.JobTitle = &title
			errs := fieldErrors(Struct(&in))

			Convey("Then the message counts characters", func() {
				So(errs[employee.ColJobTitle].Message, ShouldEqual, "poste must be at least 3 characters")
			})
		})

		Convey("When every training vocabulary value is used", func() {
			Convey("Then departments and fields of study are all accepted", func() {
				for _, d := range employee.DepartmentValues {
					in.Department = &d
					So(Struct(&in), ShouldBeNil)
				}
				for _, f := range employee.FieldOfStudyValues {
					in.FieldOfStudy = &f
					So(Struct(&in), ShouldBeNil)
				}
			})
		})
	})
}
