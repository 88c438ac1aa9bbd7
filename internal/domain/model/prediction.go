// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Class labels produced by the attrition model.
const (
	Stays  = 0
	Leaves = 1
)

// Outcome is the model verdict for one row.
type Outcome struct {
	Label         int
	Probabilities [2]float64 // [P(stay), P(leave)]
}

// Stay returns P(stay).
func (o Outcome) Stay() float64 { return o.Probabilities[Stays] }

// Leave returns P(leave).
func (o Outcome) Leave() float64 { return o.Probabilities[Leaves] }

// Verdict is the business wording of the label.
func (o Outcome) Verdict() string {
	if o.Label == Leaves {
		return "Oui"
	}
	return "Non"
}

// Source tells how a prediction was requested.
type Source string

const (
	SourceSingle Source = "single"
	SourceBatch  Source = "batch"
)

// PredictionLog is the audit record written for every prediction.
type PredictionLog struct {
	ID               uuid.UUID
	RequestID        string
	EmployeeID       *int
	Source           Source
	Input            []byte // JSON
	Label            int
	ProbabilityLeave float64
	RiskLevel        string
	Verdict          string
	CreatedAt        time.Time
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	Loaded  bool
	Kind    string
	Version string
}
