package csvtable

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/employee/employeetest"
	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/fusion"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRead(t *testing.T) {
	Convey("Given a CSV document with a BOM and padded header", t, func() {
		doc := "\xEF\xBB\xBF code_sondage , age\n1,41\n\n2,35\n"
		tbl, err := Read(strings.NewReader(doc), fusion.SourceSurvey)

		Convey("Then the header is clean and blank lines are skipped", func() {
			So(err, ShouldBeNil)
			So(tbl.Source, ShouldEqual, fusion.SourceSurvey)
			So(tbl.Header, ShouldResemble, []string{"code_sondage", "age"})
			So(tbl.Rows, ShouldResemble, [][]string{{"1", "41"}, {"2", "35"}})
		})
	})

	Convey("Given a semicolon separated export", t, func() {
		tbl, err := Read(strings.NewReader("a;b\n1;2\n"), "x", WithComma(';'))

		Convey("Then fields are split on the semicolon", func() {
			So(err, ShouldBeNil)
			So(tbl.Rows[0], ShouldResemble, []string{"1", "2"})
		})
	})

	Convey("Given an empty document", t, func() {
		tbl, err := Read(strings.NewReader(""), fusion.SourceHR)

		Convey("Then the table has no rows and fusion reports it", func() {
			So(err, ShouldBeNil)
			So(tbl.Rows, ShouldBeEmpty)
			_, ferr := fusion.Fuse(tbl, tbl, tbl)
			So(errors.Is(ferr, fusion.ErrEmptyInput), ShouldBeTrue)
		})
	})

	Convey("Given a broken quote", t, func() {
		_, err := Read(strings.NewReader("a,b\n\"1,2\n"), "x")

		Convey("Then the error is ErrMalformed", func() {
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestWriteThenFuse(t *testing.T) {
	Convey("Given extracts split from known records", t, func() {
		records := []employee.Record{employeetest.Example(), employeetest.Minimal(), employeetest.Maximal()}
		survey, eval, hr := fusion.Split(records, []int{1, 2, 3})

		Convey("When they are written to CSV and read back", func() {
			var tables []*fusion.Table
			for _, src := range []*fusion.Table{survey, eval, hr} {
				var buf bytes.Buffer
				So(Write(&buf, src), ShouldBeNil)
				got, err := Read(&buf, src.Source)
				So(err, ShouldBeNil)
				tables = append(tables, got)
			}
			m, ids, err := fusion.FuseAndBuild(features.Default(), tables[0], tables[1], tables[2])

			Convey("Then the batch equals the single-record vectors", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []int{1, 2, 3})
				for i, r := range records {
					v, err := features.BuildFeatures(features.Default(), r)
					So(err, ShouldBeNil)
					So(m.Rows[i], ShouldResemble, v.Values)
				}
			})
		})
	})
}
