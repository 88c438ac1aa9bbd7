package loadgen

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/turnover/internal/domain/types"
)

const probabilityTolerance = 1e-9

// VerifyRanking compares the head of the risk ranking with the batch
// predictions it should reflect. Order is probability descending, then
// employee id ascending. Employees ranked by earlier runs can legitimately
// interleave, so only batch employees are compared, in relative order.
func VerifyRanking(batch []types.EmployeePrediction, top []RiskEntry) []string {
	if len(batch) == 0 {
		return nil
	}
	byID := make(map[int]types.EmployeePrediction, len(batch))
	for _, p := range batch {
		byID[p.EmployeeID] = p
	}

	var issues []string
	var ranked []RiskEntry
	for i, e := range top {
		if e.Rank != i+1 {
			issues = append(issues, fmt.Sprintf("entry %d has rank %d", i, e.Rank))
		}
		if i > 0 && !before(top[i-1], e) {
			issues = append(issues, fmt.Sprintf("employees %d and %d are out of order", top[i-1].EmployeeID, e.EmployeeID))
		}
		p, ok := byID[e.EmployeeID]
		if !ok {
			continue
		}
		if math.Abs(p.ProbabilityLeave-e.ProbabilityLeave) > probabilityTolerance {
			issues = append(issues, fmt.Sprintf("employee %d ranked at %.4f but predicted %.4f",
				e.EmployeeID, e.ProbabilityLeave, p.ProbabilityLeave))
		}
		ranked = append(ranked, e)
	}

	expected := append([]types.EmployeePrediction(nil), batch...)
	sort.Slice(expected, func(i, j int) bool {
		if expected[i].ProbabilityLeave != expected[j].ProbabilityLeave {
			return expected[i].ProbabilityLeave > expected[j].ProbabilityLeave
		}
		return expected[i].EmployeeID < expected[j].EmployeeID
	})
	for i, e := range ranked {
		if i >= len(expected) {
			break
		}
		if expected[i].EmployeeID != e.EmployeeID {
			issues = append(issues, fmt.Sprintf("batch position %d is employee %d, expected %d",
				i+1, e.EmployeeID, expected[i].EmployeeID))
			break
		}
	}
	return issues
}

func before(a, b RiskEntry) bool {
	if a.ProbabilityLeave != b.ProbabilityLeave {
		return a.ProbabilityLeave > b.ProbabilityLeave
	}
	return a.EmployeeID < b.EmployeeID
}
