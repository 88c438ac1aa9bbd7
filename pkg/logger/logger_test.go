package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInit(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat(FormatJSON), WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "prediction served", String("risk", "High"), Int("rows", 3), Error(errors.New("boom")))

			Convey("Then the record carries the fields and the caller", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "prediction served")
				So(rec["risk"], ShouldEqual, "High")
				So(rec["rows"], ShouldEqual, 3.0)
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the logger is named", func() {
			Named("api").Warn(ctx, "slow")

			Convey("Then the name is attached", func() {
				So(buf.String(), ShouldContainSubstring, `"logger":"api"`)
			})
		})

		Convey("When the level is raised", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Error(ctx, "shown")

			Convey("Then lower levels are filtered", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Reset(func() { _ = SetLevelString("info") })
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(Init(WithOutput(&strings.Builder{})), ShouldBeNil)

		Convey("Then known names are accepted in any case", func() {
			for _, l := range []string{"DEBUG", "info", "", "Warning", "warn", "error"} {
				So(SetLevelString(l), ShouldBeNil)
			}
		})

		Convey("Then unknown names are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})

		So(Sync(), ShouldBeNil)
	})
}
