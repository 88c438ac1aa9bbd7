package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/adapters/csvtable"
	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/types"
)

// Multipart field names accepted by POST /predict/batch.
const (
	fieldSurvey     = "sondage_file"
	fieldEvaluation = "eval_file"
	fieldHR         = "sirh_file"
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Path, e.Status, e.Body)
}

// Client talks to the prediction API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health returns the health payload; a 503 is an error.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	var h types.Health
	err := c.do(ctx, http.MethodGet, "/health", "", nil, &h)
	return h, err
}

// Predict scores one employee.
func (c *Client) Predict(ctx context.Context, rec employee.Record) (types.Prediction, error) {
	body, err := json.Marshal(employee.InputFrom(rec))
	if err != nil {
		return types.Prediction{}, err
	}
	var p types.Prediction
	err = c.do(ctx, http.MethodPost, "/predict", "application/json", bytes.NewReader(body), &p)
	return p, err
}

// PredictBatch uploads the three extracts as CSV files.
func (c *Client) PredictBatch(ctx context.Context, survey, eval, hr *fusion.Table) (types.BatchPrediction, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, part := range []struct {
		field string
		table *fusion.Table
	}{
		{fieldSurvey, survey},
		{fieldEvaluation, eval},
		{fieldHR, hr},
	} {
		fw, err := mw.CreateFormFile(part.field, part.field+".csv")
		if err != nil {
			return types.BatchPrediction{}, err
		}
		if err := csvtable.Write(fw, part.table); err != nil {
			return types.BatchPrediction{}, fmt.Errorf("encode %s: %w", part.field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return types.BatchPrediction{}, err
	}

	var out types.BatchPrediction
	err := c.do(ctx, http.MethodPost, "/predict/batch", mw.FormDataContentType(), &buf, &out)
	return out, err
}

// AtRisk fetches the top n of the risk ranking.
func (c *Client) AtRisk(ctx context.Context, n int) ([]RiskEntry, error) {
	var out []RiskEntry
	err := c.do(ctx, http.MethodGet, "/employees/at-risk?limit="+strconv.Itoa(n), "", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
