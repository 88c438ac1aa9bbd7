// Package loadgen drives a running prediction service with synthetic
// employees and checks that its ranking agrees with what it returned.
package loadgen

import (
	"math/rand"

	"github.com/jaswdr/faker"

	"github.com/okian/turnover/internal/domain/employee"
)

// Generator produces plausible employees. The fields stay inside the API
// validation ranges and respect tenure ordering.
type Generator struct {
	f faker.Faker
}

// NewGenerator returns a generator; the same seed yields the same employees.
func NewGenerator(seed int64) *Generator {
	return &Generator{f: faker.NewWithSeed(rand.NewSource(seed))}
}

func pick[T ~string](g *Generator, values []T) T {
	return values[g.f.IntBetween(0, len(values)-1)]
}

// Employee returns one synthetic record.
func (g *Generator) Employee() employee.Record {
	f := g.f
	age := f.IntBetween(18, 65)
	total := f.IntBetween(0, min(age-18, 40))
	atCompany := f.IntBetween(0, total)
	inRole := f.IntBetween(0, atCompany)

	sexes := []employee.Sex{employee.SexFemale, employee.SexMale}
	children := []employee.ChildrenFlag{employee.ChildrenYes, employee.ChildrenNo}
	overtime := []employee.OvertimeFlag{employee.OvertimeYes, employee.OvertimeNo}

	return employee.Record{
		SavingsPlanParticipations: f.IntBetween(0, 3),
		TrainingsAttended:         f.IntBetween(0, 6),
		DirectReports:             f.IntBetween(0, 12),
		CommuteDistance:           f.IntBetween(1, 29),
		EducationLevel:            f.IntBetween(1, 5),
		FieldOfStudy:              pick(g, employee.FieldOfStudyValues[:]),
		HasChildren:               pick(g, children),
		TravelFrequency:           pick(g, employee.TravelFrequencyValues[:]),
		YearsSincePromotion:       f.IntBetween(0, atCompany),
		YearsWithManager:          f.IntBetween(0, atCompany),

		EnvironmentSatisfaction: f.IntBetween(1, 4),
		PreviousEvaluation:      f.IntBetween(1, 4),
		JobLevel:                f.IntBetween(1, 5),
		JobSatisfaction:         f.IntBetween(1, 4),
		TeamSatisfaction:        f.IntBetween(1, 4),
		WorkLifeBalance:         f.IntBetween(1, 4),
		CurrentEvaluation:       f.IntBetween(1, 4),
		Overtime:                pick(g, overtime),
		LastRaisePercent:        float64(f.IntBetween(11, 25)),

		Age:                age,
		Sex:                pick(g, sexes),
		MonthlyIncome:      float64(f.IntBetween(1000, 20000)),
		MaritalStatus:      pick(g, employee.MaritalStatusValues[:]),
		Department:         pick(g, employee.DepartmentValues[:]),
		JobTitle:           pick(g, employee.JobTitleValues[:]),
		PriorCompanies:     f.IntBetween(0, 9),
		WeeklyHours:        f.IntBetween(35, 80),
		TotalWorkingYears:  total,
		YearsAtCompany:     atCompany,
		YearsInCurrentRole: inRole,
	}
}

// Employees returns n records numbered firstID, firstID+1, ...
func (g *Generator) Employees(n, firstID int) ([]employee.Record, []int) {
	records := make([]employee.Record, n)
	ids := make([]int, n)
	for i := range records {
		records[i] = g.Employee()
		ids[i] = firstID + i
	}
	return records, ids
}
