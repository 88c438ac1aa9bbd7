// Package employeetest provides employee records for tests.
package employeetest

import "github.com/okian/turnover/internal/domain/employee"

// Example is a typical sales executive with six years of tenure.
func Example() employee.Record {
	return employee.Record{
		SavingsPlanParticipations: 0,
		TrainingsAttended:         0,
		DirectReports:             1,
		CommuteDistance:           1,
		EducationLevel:            2,
		FieldOfStudy:              employee.StudyInfraCloud,
		HasChildren:               employee.ChildrenYes,
		TravelFrequency:           employee.TravelOccasional,
		YearsSincePromotion:       0,
		YearsWithManager:          5,
		EnvironmentSatisfaction:   2,
		PreviousEvaluation:        3,
		JobLevel:                  2,
		JobSatisfaction:           4,
		TeamSatisfaction:          1,
		WorkLifeBalance:           1,
		CurrentEvaluation:         3,
		Overtime:                  employee.OvertimeYes,
		LastRaisePercent:          11,
		Age:                       41,
		Sex:                       employee.SexFemale,
		MonthlyIncome:             5993,
		MaritalStatus:             employee.MaritalSingle,
		Department:                employee.DepartmentSales,
		JobTitle:                  employee.JobSalesExecutive,
		PriorCompanies:            8,
		WeeklyHours:               80,
		TotalWorkingYears:         8,
		YearsAtCompany:            6,
		YearsInCurrentRole:        4,
	}
}

// Minimal has every numeric field at its lowest accepted value.
func Minimal() employee.Record {
	r := Example()
	r.SavingsPlanParticipations = 0
	r.TrainingsAttended = 0
	r.DirectReports = 0
	r.CommuteDistance = 0
	r.EducationLevel = 1
	r.YearsSincePromotion = 0
	r.YearsWithManager = 0
	r.EnvironmentSatisfaction = 1
	r.PreviousEvaluation = 1
	r.JobLevel = 1
	r.JobSatisfaction = 1
	r.TeamSatisfaction = 1
	r.WorkLifeBalance = 1
	r.CurrentEvaluation = 1
	r.LastRaisePercent = 0
	r.Age = 18
	r.MonthlyIncome = 1000
	r.PriorCompanies = 0
	r.WeeklyHours = 35
	r.TotalWorkingYears = 0
	r.YearsAtCompany = 0
	r.YearsInCurrentRole = 0
	r.TravelFrequency = employee.TravelNone
	return r
}

// Maximal has every numeric field at its highest accepted value.
func Maximal() employee.Record {
	r := Example()
	r.SavingsPlanParticipations = 50
	r.TrainingsAttended = 10
	r.DirectReports = 1000
	r.CommuteDistance = 50
	r.EducationLevel = 5
	r.YearsSincePromotion = 50
	r.YearsWithManager = 50
	r.EnvironmentSatisfaction = 4
	r.PreviousEvaluation = 5
	r.JobLevel = 5
	r.JobSatisfaction = 4
	r.TeamSatisfaction = 4
	r.WorkLifeBalance = 4
	r.CurrentEvaluation = 5
	r.LastRaisePercent = 100
	r.Age = 70
	r.MonthlyIncome = 100000
	r.PriorCompanies = 50
	r.WeeklyHours = 80
	r.TotalWorkingYears = 60
	r.YearsAtCompany = 60
	r.YearsInCurrentRole = 60
	r.TravelFrequency = employee.TravelFrequent
	return r
}
