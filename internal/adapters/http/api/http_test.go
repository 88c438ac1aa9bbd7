package api_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/adapters/csvtable"
	"github.com/okian/turnover/internal/adapters/http/api"
	"github.com/okian/turnover/internal/adapters/inference"
	"github.com/okian/turnover/internal/adapters/repository"
	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/employee/employeetest"
	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const testKey = "s3cret"

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type mockDeps struct {
	mu sync.Mutex

	info       model.ModelInfo
	predictErr error
	batchErr   error
	riskErr    error

	gotRecord    employee.Record
	gotRequestID string
	gotTables    [3]*fusion.Table
	gotLimit     int
}

func (m *mockDeps) ModelInfo() model.ModelInfo { return m.info }

func (m *mockDeps) Predict(_ context.Context, requestID string, rec employee.Record) (types.Prediction, error) { //nolint:gocritic // test double
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotRecord, m.gotRequestID = rec, requestID
	if m.predictErr != nil {
		return types.Prediction{}, m.predictErr
	}
	return types.Prediction{Prediction: 1, Probability0: 0.2, Probability1: 0.8, RiskLevel: "High"}, nil
}

func (m *mockDeps) Features(_ context.Context, _ employee.Record) (types.FeatureVector, error) { //nolint:gocritic // test double
	if m.predictErr != nil {
		return types.FeatureVector{}, m.predictErr
	}
	return types.FeatureVector{Features: []types.Feature{{Name: "age", Value: 0.4}}}, nil
}

func (m *mockDeps) PredictBatch(_ context.Context, requestID string, survey, eval, hr *fusion.Table) (types.BatchPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotRequestID = requestID
	m.gotTables = [3]*fusion.Table{survey, eval, hr}
	if m.batchErr != nil {
		return types.BatchPrediction{}, m.batchErr
	}
	out := types.BatchPrediction{TotalEmployees: len(survey.Rows)}
	for range survey.Rows {
		out.Predictions = append(out.Predictions, types.EmployeePrediction{RiskLevel: "Low"})
		out.Summary.LowRisk++
		out.Summary.TotalStay++
	}
	return out, nil
}

func (m *mockDeps) AtRisk(_ context.Context, n int) ([]api.RiskEntry, error) {
	m.gotLimit = n
	if m.riskErr != nil {
		return nil, m.riskErr
	}
	return []api.RiskEntry{{Rank: 1, EmployeeID: 7, ProbabilityLeave: 0.9, RiskLevel: "High"}}, nil
}

func (m *mockDeps) EmployeeRisk(_ context.Context, id int) (api.RiskEntry, error) {
	if m.riskErr != nil {
		return api.RiskEntry{}, m.riskErr
	}
	return api.RiskEntry{Rank: 3, EmployeeID: id, ProbabilityLeave: 0.4, RiskLevel: "Medium"}, nil
}

func (m *mockDeps) RecentLogs(_ context.Context, n int) ([]model.PredictionLog, error) {
	m.gotLimit = n
	id := 7
	return []model.PredictionLog{{Source: model.SourceBatch, EmployeeID: &id, Input: []byte(`{"age":"41"}`), Verdict: "Non"}}, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any { return map[string]any{"started": true} }

func newHandler(deps *mockDeps, mutate ...func(*api.Config)) http.Handler {
	cfg := api.DefaultConfig()
	cfg.APIKey = testKey
	for _, f := range mutate {
		f(&cfg)
	}
	return api.NewServer(deps, mockStats{}, cfg).Handler()
}

func do(h http.Handler, method, path string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func authed(extra ...string) map[string]string {
	h := map[string]string{"X-API-Key": testKey, "Content-Type": "application/json"}
	for i := 0; i+1 < len(extra); i += 2 {
		h[extra[i]] = extra[i+1]
	}
	return h
}

func exampleBody(mutate func(map[string]any)) io.Reader {
	raw, err := json.Marshal(employee.InputFrom(employeetest.Example()))
	So(err, ShouldBeNil)
	var obj map[string]any
	So(json.Unmarshal(raw, &obj), ShouldBeNil)
	if mutate != nil {
		mutate(obj)
	}
	raw, err = json.Marshal(obj)
	So(err, ShouldBeNil)
	return bytes.NewReader(raw)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Field string `json:"field"`
		Tag   string `json:"tag"`
	} `json:"details"`
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var e errorBody
	So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
	return e
}

func TestHealthAndOps(t *testing.T) {
	Convey("Given a server with a loaded model", t, func() {
		deps := &mockDeps{info: model.ModelInfo{Loaded: true, Kind: "logistic", Version: "v1"}}
		h := newHandler(deps)

		Convey("When calling GET /health", func() {
			w := do(h, http.MethodGet, "/health", nil, nil)

			Convey("Then it reports healthy with the API version", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Health
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Status, ShouldEqual, "healthy")
				So(got.ModelLoaded, ShouldBeTrue)
				So(got.ModelType, ShouldEqual, "logistic")
				So(got.Version, ShouldEqual, "3.3.0")
				So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
			})
		})

		Convey("When the model is not loaded", func() {
			deps.info = model.ModelInfo{Kind: "remote"}
			w := do(h, http.MethodGet, "/health", nil, nil)

			Convey("Then health answers 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, `"model_loaded":false`)
			})
		})

		Convey("When scraping /metrics after a request", func() {
			do(h, http.MethodGet, "/stats", nil, nil)
			w := do(h, http.MethodGet, "/metrics", nil, nil)

			Convey("Then service metrics are exposed with route patterns", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "turnover_")
				So(w.Body.String(), ShouldContainSubstring, `endpoint="/stats"`)
			})
		})

		Convey("When calling GET /stats", func() {
			w := do(h, http.MethodGet, "/stats", nil, nil)

			Convey("Then the provider's stats are returned with version and uptime", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"started":true`)
				So(w.Body.String(), ShouldContainSubstring, `"api_version"`)
				So(w.Body.String(), ShouldContainSubstring, `"uptime_seconds"`)
			})
		})

		Convey("When calling an unknown route", func() {
			w := do(h, http.MethodGet, "/nope", nil, nil)

			Convey("Then a JSON 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w).Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the caller sends a request id", func() {
			w := do(h, http.MethodGet, "/stats", nil, map[string]string{"X-Request-ID": "abc-123"})

			Convey("Then it is echoed", func() {
				So(w.Header().Get("X-Request-ID"), ShouldEqual, "abc-123")
			})
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given a server requiring an API key", t, func() {
		deps := &mockDeps{info: model.ModelInfo{Loaded: true}}
		h := newHandler(deps)

		Convey("When the key is missing", func() {
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), map[string]string{"Content-Type": "application/json"})

			Convey("Then 401 is returned with a challenge", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(w.Header().Get("WWW-Authenticate"), ShouldEqual, "ApiKey")
				So(decodeError(w).Message, ShouldContainSubstring, "X-API-Key")
			})
		})

		Convey("When the key is wrong", func() {
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), map[string]string{"X-API-Key": "nope"})

			Convey("Then 401 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decodeError(w).Message, ShouldEqual, "invalid API key")
			})
		})

		Convey("When a valid employee is posted", func() {
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), authed("X-Request-ID", "req-9"))

			Convey("Then the prediction is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Prediction
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Probability1, ShouldEqual, 0.8)
				So(got.RiskLevel, ShouldEqual, "High")
			})

			Convey("And the service receives the decoded record and request id", func() {
				So(deps.gotRecord, ShouldResemble, employeetest.Example())
				So(deps.gotRequestID, ShouldEqual, "req-9")
			})
		})

		Convey("When a field is out of range and another is missing", func() {
			body := exampleBody(func(m map[string]any) {
				m[employee.ColAge] = 17
				delete(m, employee.ColDepartment)
			})
			w := do(h, http.MethodPost, "/predict", body, authed())

			Convey("Then 422 lists both fields", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				e := decodeError(w)
				So(e.Code, ShouldEqual, "validation_error")
				fields := map[string]string{}
				for _, d := range e.Details {
					fields[d.Field] = d.Tag
				}
				So(fields[employee.ColAge], ShouldEqual, "gte")
				So(fields[employee.ColDepartment], ShouldEqual, "required")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/predict", strings.NewReader("{"), authed())

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the model is unavailable", func() {
			deps.predictErr = inference.ErrModelUnavailable
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), authed())

			Convey("Then 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w).Code, ShouldEqual, "service_unavailable")
			})
		})

		Convey("When strict encoding rejects a category", func() {
			deps.predictErr = &features.CategoryError{Field: employee.ColJobTitle, Value: "Data Scientist"}
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), authed())

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.predictErr = errors.New("db password is hunter2")
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), authed())

			Convey("Then 500 is returned without the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldNotContainSubstring, "hunter2")
			})
		})

		Convey("When requesting the feature vector", func() {
			w := do(h, http.MethodPost, "/predict/features", exampleBody(nil), authed())

			Convey("Then the named features are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"age"`)
			})
		})
	})

	Convey("Given a server in debug mode", t, func() {
		h := newHandler(&mockDeps{}, func(c *api.Config) { c.Debug = true })

		Convey("Then predictions need no API key", func() {
			w := do(h, http.MethodPost, "/predict", exampleBody(nil), map[string]string{"Content-Type": "application/json"})
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a prediction limit of two per window", t, func() {
		h := newHandler(&mockDeps{}, func(c *api.Config) { c.RateLimitPredict = 2 })

		Convey("When a client sends three predictions", func() {
			var codes []int
			for i := 0; i < 3; i++ {
				codes = append(codes, do(h, http.MethodPost, "/predict", exampleBody(nil), authed()).Code)
			}

			Convey("Then the third is rejected", func() {
				So(codes[0], ShouldEqual, http.StatusOK)
				So(codes[1], ShouldEqual, http.StatusOK)
				So(codes[2], ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})

	Convey("Given the same limit in debug mode", t, func() {
		h := newHandler(&mockDeps{}, func(c *api.Config) {
			c.RateLimitPredict = 1
			c.Debug = true
		})

		Convey("Then nothing is limited", func() {
			for i := 0; i < 3; i++ {
				So(do(h, http.MethodPost, "/predict", exampleBody(nil), nil).Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

// upload builds a multipart body. A nil table omits the field.
func upload(files map[string]*fusion.Table, raw map[string]string, values map[string]string) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, t := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		So(err, ShouldBeNil)
		So(csvtable.Write(fw, t), ShouldBeNil)
	}
	for field, content := range raw {
		fw, err := mw.CreateFormFile(field, field+".csv")
		So(err, ShouldBeNil)
		_, err = fw.Write([]byte(content))
		So(err, ShouldBeNil)
	}
	for k, v := range values {
		So(mw.WriteField(k, v), ShouldBeNil)
	}
	So(mw.Close(), ShouldBeNil)
	return &buf, mw.FormDataContentType()
}

func TestPredictBatch(t *testing.T) {
	Convey("Given three extracts for two employees", t, func() {
		deps := &mockDeps{}
		h := newHandler(deps)
		survey, eval, hr := fusion.Split([]employee.Record{employeetest.Example(), employeetest.Minimal()}, []int{1, 2})
		files := map[string]*fusion.Table{
			api.FieldSurveyFile:     survey,
			api.FieldEvaluationFile: eval,
			api.FieldHRFile:         hr,
		}

		Convey("When they are uploaded", func() {
			body, ct := upload(files, nil, nil)
			w := do(h, http.MethodPost, "/predict/batch", body, authed("Content-Type", ct))

			Convey("Then every table reaches the service with its source", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotTables[0].Source, ShouldEqual, fusion.SourceSurvey)
				So(deps.gotTables[1].Source, ShouldEqual, fusion.SourceEvaluation)
				So(deps.gotTables[2].Source, ShouldEqual, fusion.SourceHR)
				So(deps.gotTables[0].Rows, ShouldResemble, survey.Rows)
				So(deps.gotTables[2].Header, ShouldResemble, hr.Header)
			})

			Convey("And the summary is returned", func() {
				var got types.BatchPrediction
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.TotalEmployees, ShouldEqual, 2)
				So(got.Summary.LowRisk, ShouldEqual, 2)
			})
		})

		Convey("When one file is missing", func() {
			delete(files, api.FieldHRFile)
			body, ct := upload(files, nil, nil)
			w := do(h, http.MethodPost, "/predict/batch", body, authed("Content-Type", ct))

			Convey("Then 400 names it", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Message, ShouldContainSubstring, api.FieldHRFile)
			})
		})

		Convey("When a file is not valid CSV", func() {
			delete(files, api.FieldHRFile)
			body, ct := upload(files, map[string]string{api.FieldHRFile: "id_employee,age\n\"1,41\n"}, nil)
			w := do(h, http.MethodPost, "/predict/batch", body, authed("Content-Type", ct))

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service reports an empty extract", func() {
			deps.batchErr = &fusion.EmptyError{Source: fusion.SourceEvaluation}
			body, ct := upload(files, nil, nil)
			w := do(h, http.MethodPost, "/predict/batch", body, authed("Content-Type", ct))

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Message, ShouldContainSubstring, "empty input")
			})
		})

		Convey("When a semicolon delimiter is declared", func() {
			body, ct := upload(nil, map[string]string{
				api.FieldSurveyFile:     "code_sondage;age\n1;41\n",
				api.FieldEvaluationFile: "eval_number\nE_1\n",
				api.FieldHRFile:         "id_employee\n1\n",
			}, map[string]string{"delimiter": ";"})
			w := do(h, http.MethodPost, "/predict/batch", body, authed("Content-Type", ct))

			Convey("Then the files are split on it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotTables[0].Header, ShouldResemble, []string{"code_sondage", "age"})
			})
		})

		Convey("When the delimiter is invalid", func() {
			body, ct := upload(files, nil, map[string]string{"delimiter": ";;"})
			w := do(h, http.MethodPost, "/predict/batch", body, authed("Content-Type", ct))

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not multipart", func() {
			w := do(h, http.MethodPost, "/predict/batch", strings.NewReader("x"), authed())

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRiskRoutes(t *testing.T) {
	Convey("Given a server with a risk board", t, func() {
		deps := &mockDeps{}
		h := newHandler(deps)

		Convey("When listing without a limit", func() {
			w := do(h, http.MethodGet, "/employees/at-risk", nil, authed())

			Convey("Then the default limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 10)
				So(w.Body.String(), ShouldContainSubstring, `"employee_id":7`)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			So(do(h, http.MethodGet, "/employees/at-risk?limit=abc", nil, authed()).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/employees/at-risk?limit=0", nil, authed()).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/employees/at-risk?limit=1001", nil, authed()).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When asking for one employee", func() {
			w := do(h, http.MethodGet, "/employees/42/risk", nil, authed())

			Convey("Then the rank is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"employee_id":42`)
				So(w.Body.String(), ShouldContainSubstring, `"rank":3`)
			})
		})

		Convey("When the id is not a number", func() {
			So(do(h, http.MethodGet, "/employees/abc/risk", nil, authed()).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the employee was never scored", func() {
			deps.riskErr = repository.ErrNotFound
			w := do(h, http.MethodGet, "/employees/5/risk", nil, authed())

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing recent predictions", func() {
			w := do(h, http.MethodGet, "/predictions/recent?limit=5", nil, authed())

			Convey("Then logs are rendered with their input", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 5)
				So(w.Body.String(), ShouldContainSubstring, `"input":{"age":"41"}`)
				So(w.Body.String(), ShouldContainSubstring, `"source":"batch"`)
			})
		})

		Convey("When the key is missing", func() {
			So(do(h, http.MethodGet, "/employees/at-risk", nil, nil).Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}
