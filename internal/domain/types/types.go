// Package types contains the response shapes shared by the API and clients.
package types

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/domain/risk"
)

// Prediction is the response of POST /predict.
type Prediction struct {
	Prediction   int     `json:"prediction"`
	Probability0 float64 `json:"probability_0"`
	Probability1 float64 `json:"probability_1"`
	RiskLevel    string  `json:"risk_level"`
}

// EmployeePrediction is one row of a batch response.
type EmployeePrediction struct {
	EmployeeID       int     `json:"employee_id"`
	Prediction       int     `json:"prediction"`
	ProbabilityStay  float64 `json:"probability_stay"`
	ProbabilityLeave float64 `json:"probability_leave"`
	RiskLevel        string  `json:"risk_level"`
}

// BatchPrediction is the response of POST /predict/batch.
type BatchPrediction struct {
	TotalEmployees int                  `json:"total_employees"`
	Predictions    []EmployeePrediction `json:"predictions"`
	Summary        risk.Summary         `json:"summary"`
}

// Health is the response of GET /health.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelType   string `json:"model_type"`
	Version     string `json:"version"`
}

// Feature is one named model input.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureVector is the response of POST /predict/features.
type FeatureVector struct {
	Features          []Feature      `json:"features"`
	UnknownCategories map[string]int `json:"unknown_categories,omitempty"`
}

// LogEntry is one stored prediction as returned by GET /predictions/recent.
type LogEntry struct {
	ID               string          `json:"id"`
	RequestID        string          `json:"request_id"`
	EmployeeID       *int            `json:"employee_id,omitempty"`
	Source           string          `json:"source"`
	Prediction       int             `json:"prediction"`
	ProbabilityLeave float64         `json:"probability_leave"`
	RiskLevel        string          `json:"risk_level"`
	Verdict          string          `json:"verdict"`
	Input            json.RawMessage `json:"input,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
