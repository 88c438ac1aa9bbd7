// Package employee declares the raw employee record assembled from the survey,
// evaluation and HR extracts, together with the frozen categorical vocabularies.
package employee

// Record is one validated employee as seen by the feature pipeline.
type Record struct {
	// Survey.
	SavingsPlanParticipations int
	TrainingsAttended         int
	DirectReports             int
	CommuteDistance           int
	EducationLevel            int
	FieldOfStudy              FieldOfStudy
	HasChildren               ChildrenFlag
	TravelFrequency           TravelFrequency
	YearsSincePromotion       int
	YearsWithManager          int

	// Evaluation.
	EnvironmentSatisfaction int
	PreviousEvaluation      int
	JobLevel                int
	JobSatisfaction         int
	TeamSatisfaction        int
	WorkLifeBalance         int
	CurrentEvaluation       int
	Overtime                OvertimeFlag
	LastRaisePercent        float64

	// HR.
	Age                int
	Sex                Sex
	MonthlyIncome      float64
	MaritalStatus      MaritalStatus
	Department         Department
	JobTitle           JobTitle
	PriorCompanies     int
	WeeklyHours        int
	TotalWorkingYears  int
	YearsAtCompany     int
	YearsInCurrentRole int
}

// Numeric returns the numeric fields keyed by column name.
func (r *Record) Numeric() map[string]float64 {
	return map[string]float64{
		ColSavingsPlanParticipations: float64(r.SavingsPlanParticipations),
		ColTrainingsAttended:         float64(r.TrainingsAttended),
		ColDirectReports:             float64(r.DirectReports),
		ColCommuteDistance:           float64(r.CommuteDistance),
		ColEducationLevel:            float64(r.EducationLevel),
		ColYearsSincePromotion:       float64(r.YearsSincePromotion),
		ColYearsWithManager:          float64(r.YearsWithManager),
		ColEnvironmentSatisfaction:   float64(r.EnvironmentSatisfaction),
		ColPreviousEvaluation:        float64(r.PreviousEvaluation),
		ColJobLevel:                  float64(r.JobLevel),
		ColJobSatisfaction:           float64(r.JobSatisfaction),
		ColTeamSatisfaction:          float64(r.TeamSatisfaction),
		ColWorkLifeBalance:           float64(r.WorkLifeBalance),
		ColCurrentEvaluation:         float64(r.CurrentEvaluation),
		ColLastRaisePercent:          r.LastRaisePercent,
		ColAge:                       float64(r.Age),
		ColMonthlyIncome:             r.MonthlyIncome,
		ColPriorCompanies:            float64(r.PriorCompanies),
		ColWeeklyHours:               float64(r.WeeklyHours),
		ColTotalWorkingYears:         float64(r.TotalWorkingYears),
		ColYearsAtCompany:            float64(r.YearsAtCompany),
		ColYearsInCurrentRole:        float64(r.YearsInCurrentRole),
	}
}

// Nominal returns the categorical fields keyed by column name, including the
// two flags and the travel frequency.
func (r *Record) Nominal() map[string]string {
	return map[string]string{
		ColSex:             string(r.Sex),
		ColMaritalStatus:   string(r.MaritalStatus),
		ColDepartment:      string(r.Department),
		ColJobTitle:        string(r.JobTitle),
		ColFieldOfStudy:    string(r.FieldOfStudy),
		ColTravelFrequency: string(r.TravelFrequency),
		ColHasChildren:     string(r.HasChildren),
		ColOvertime:        string(r.Overtime),
	}
}
