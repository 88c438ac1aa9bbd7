package fusion

import (
	"strconv"

	"github.com/okian/turnover/internal/domain/employee"
)

// Split is the inverse of Fuse: it lays records out as the three raw
// extracts, formatted the way the source systems export them. ids[i] is the
// employee number of records[i].
func Split(records []employee.Record, ids []int) (survey, eval, hr *Table) {
	survey = &Table{Source: SourceSurvey, Header: []string{
		employee.ColSurveyCode,
		employee.ColSavingsPlanParticipations,
		employee.ColTrainingsAttended,
		employee.ColDirectReports,
		employee.ColCommuteDistance,
		employee.ColEducationLevel,
		employee.ColFieldOfStudy,
		employee.ColHasChildren,
		employee.ColTravelFrequency,
		employee.ColYearsSincePromotion,
		employee.ColYearsWithManager,
	}}
	eval = &Table{Source: SourceEvaluation, Header: []string{
		employee.ColEvaluationNumber,
		employee.ColEnvironmentSatisfaction,
		employee.ColPreviousEvaluation,
		employee.ColJobLevel,
		employee.ColJobSatisfaction,
		employee.ColTeamSatisfaction,
		employee.ColWorkLifeBalance,
		employee.ColCurrentEvaluation,
		employee.ColOvertime,
		employee.ColLastRaisePercent,
	}}
	hr = &Table{Source: SourceHR, Header: []string{
		employee.ColEmployeeID,
		employee.ColAge,
		employee.ColSex,
		employee.ColMonthlyIncome,
		employee.ColMaritalStatus,
		employee.ColDepartment,
		employee.ColJobTitle,
		employee.ColPriorCompanies,
		employee.ColWeeklyHours,
		employee.ColTotalWorkingYears,
		employee.ColYearsAtCompany,
		employee.ColYearsInCurrentRole,
	}}

	itoa := strconv.Itoa
	ftoa := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	for i := range records {
		r := &records[i]
		id := itoa(ids[i])
		survey.Rows = append(survey.Rows, []string{
			id,
			itoa(r.SavingsPlanParticipations),
			itoa(r.TrainingsAttended),
			itoa(r.DirectReports),
			itoa(r.CommuteDistance),
			itoa(r.EducationLevel),
			string(r.FieldOfStudy),
			string(r.HasChildren),
			string(r.TravelFrequency),
			itoa(r.YearsSincePromotion),
			itoa(r.YearsWithManager),
		})
		eval.Rows = append(eval.Rows, []string{
			employee.EvaluationPrefix + id,
			itoa(r.EnvironmentSatisfaction),
			itoa(r.PreviousEvaluation),
			itoa(r.JobLevel),
			itoa(r.JobSatisfaction),
			itoa(r.TeamSatisfaction),
			itoa(r.WorkLifeBalance),
			itoa(r.CurrentEvaluation),
			string(r.Overtime),
			ftoa(r.LastRaisePercent) + " %",
		})
		hr.Rows = append(hr.Rows, []string{
			id,
			itoa(r.Age),
			string(r.Sex),
			ftoa(r.MonthlyIncome),
			string(r.MaritalStatus),
			string(r.Department),
			string(r.JobTitle),
			itoa(r.PriorCompanies),
			itoa(r.WeeklyHours),
			itoa(r.TotalWorkingYears),
			itoa(r.YearsAtCompany),
			itoa(r.YearsInCurrentRole),
		})
	}
	return survey, eval, hr
}
