// Package risk maps a leave probability to a risk band and summarises batches.
package risk

// Level is a coarse risk band.
type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

// Band thresholds on the probability of leaving. Lower bounds are inclusive.
const (
	MediumThreshold = 0.3
	HighThreshold   = 0.7
)

// Of returns the band for pLeave.
func Of(pLeave float64) Level {
	switch {
	case pLeave < MediumThreshold:
		return Low
	case pLeave < HighThreshold:
		return Medium
	default:
		return High
	}
}

// Summary aggregates a batch of predictions.
type Summary struct {
	TotalStay  int `json:"total_stay"`
	TotalLeave int `json:"total_leave"`
	HighRisk   int `json:"high_risk_count"`
	MediumRisk int `json:"medium_risk_count"`
	LowRisk    int `json:"low_risk_count"`
}

// Add counts one prediction.
func (s *Summary) Add(leaves bool, level Level) {
	if leaves {
		s.TotalLeave++
	} else {
		s.TotalStay++
	}
	switch level {
	case High:
		s.HighRisk++
	case Medium:
		s.MediumRisk++
	default:
		s.LowRisk++
	}
}
