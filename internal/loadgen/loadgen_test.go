package loadgen

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/turnover/internal/adapters/http/api"
	"github.com/okian/turnover/internal/adapters/inference"
	service "github.com/okian/turnover/internal/app"
	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/internal/validation"
	"github.com/okian/turnover/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithOutput(io.Discard))
	m.Run()
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a, b := NewGenerator(7), NewGenerator(7)

		Convey("Then they produce the same employees", func() {
			ra, ida := a.Employees(20, 100)
			rb, idb := b.Employees(20, 100)
			So(ra, ShouldResemble, rb)
			So(ida, ShouldResemble, idb)
			So(ida[0], ShouldEqual, 100)
			So(ida[19], ShouldEqual, 119)
		})

		Convey("Then every employee passes API validation", func() {
			for i := 0; i < 500; i++ {
				rec := a.Employee()
				in := employee.InputFrom(rec)
				So(validation.Struct(&in), ShouldBeNil)
				So(rec.YearsInCurrentRole, ShouldBeLessThanOrEqualTo, rec.YearsAtCompany)
				So(rec.YearsAtCompany, ShouldBeLessThanOrEqualTo, rec.TotalWorkingYears)
			}
		})
	})
}

func TestVerifyRanking(t *testing.T) {
	batch := []types.EmployeePrediction{
		{EmployeeID: 1, ProbabilityLeave: 0.2},
		{EmployeeID: 2, ProbabilityLeave: 0.9},
		{EmployeeID: 3, ProbabilityLeave: 0.9},
	}

	Convey("Given a ranking that matches the batch", t, func() {
		top := []RiskEntry{
			{Rank: 1, EmployeeID: 2, ProbabilityLeave: 0.9},
			{Rank: 2, EmployeeID: 3, ProbabilityLeave: 0.9},
			{Rank: 3, EmployeeID: 99, ProbabilityLeave: 0.5},
			{Rank: 4, EmployeeID: 1, ProbabilityLeave: 0.2},
		}
		So(VerifyRanking(batch, top), ShouldBeEmpty)
	})

	Convey("Given a ranking with ties out of id order", t, func() {
		top := []RiskEntry{
			{Rank: 1, EmployeeID: 3, ProbabilityLeave: 0.9},
			{Rank: 2, EmployeeID: 2, ProbabilityLeave: 0.9},
		}
		So(VerifyRanking(batch, top), ShouldNotBeEmpty)
	})

	Convey("Given a ranking with a stale probability", t, func() {
		top := []RiskEntry{{Rank: 1, EmployeeID: 2, ProbabilityLeave: 0.7}}
		issues := VerifyRanking(batch, top)
		So(len(issues), ShouldBeGreaterThan, 0)
		So(issues[0], ShouldContainSubstring, "employee 2")
	})
}

func TestRun(t *testing.T) {
	Convey("Given a service with a model weighted on income per tenure", t, func() {
		p := features.Default()
		cols := p.Columns()
		a := inference.Artifact{
			Kind:         inference.KindLogistic,
			Version:      "loadgen",
			Columns:      cols,
			Coefficients: make([]float64, len(cols)),
		}
		idx, ok := p.Index(features.ColIncomePerTenure)
		So(ok, ShouldBeTrue)
		a.Coefficients[idx] = -1.5
		m, err := inference.NewLogistic(a, p)
		So(err, ShouldBeNil)

		svc := service.New(service.WithParams(p), service.WithPredictor(m))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		cfg := api.DefaultConfig()
		cfg.APIKey = "load-key"
		r := chi.NewRouter()
		api.NewServer(svc, svc, cfg).Register(r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		Convey("When a run sends singles and one batch", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL:     srv.URL,
				APIKey:      "load-key",
				Predictions: 15,
				BatchSize:   40,
				FirstID:     1000,
				Workers:     4,
				TopN:        50,
				Timeout:     5 * time.Second,
				Seed:        42,
			})

			Convey("Then every request succeeds and the ranking agrees", func() {
				So(err, ShouldBeNil)
				So(stats.Sent, ShouldEqual, 15)
				So(stats.Succeeded, ShouldEqual, 15)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.BatchRows, ShouldEqual, 40)
				So(len(stats.RankingTop), ShouldEqual, 40)
				So(stats.RankingIssues, ShouldBeEmpty)
			})
		})

		Convey("When the API key is wrong", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL:     srv.URL,
				APIKey:      "nope",
				Predictions: 3,
				Workers:     2,
				Timeout:     5 * time.Second,
			})

			Convey("Then the predictions are counted as rejected", func() {
				So(err, ShouldBeNil)
				So(stats.Rejected, ShouldEqual, 3)
				So(stats.Succeeded, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service without a model", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()
		r := chi.NewRouter()
		api.NewServer(svc, svc, api.DefaultConfig()).Register(r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		Convey("Then the run stops at the health check", func() {
			_, err := Run(context.Background(), Config{BaseURL: srv.URL, Timeout: time.Second})
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}
