package employee

// Input is the wire form of a single employee. Every field is required;
// pointers let validation tell a missing field from a zero value. The
// "known" tag checks membership in the field's frozen vocabulary.
type Input struct {
	SavingsPlanParticipations *int             `json:"nombre_participation_pee" validate:"required,gte=0,lte=50"`
	TrainingsAttended         *int             `json:"nb_formations_suivies" validate:"required,gte=0,lte=10"`
	DirectReports             *int             `json:"nombre_employee_sous_responsabilite" validate:"required,gte=0,lte=1000"`
	CommuteDistance           *int             `json:"distance_domicile_travail" validate:"required,gte=0,lte=50"`
	EducationLevel            *int             `json:"niveau_education" validate:"required,gte=1,lte=5"`
	FieldOfStudy              *FieldOfStudy    `json:"domaine_etude" validate:"required,known"`
	HasChildren               *ChildrenFlag    `json:"ayant_enfants" validate:"required,known"`
	TravelFrequency           *TravelFrequency `json:"frequence_deplacement" validate:"required,known"`
	YearsSincePromotion       *int             `json:"annees_depuis_la_derniere_promotion" validate:"required,gte=0,lte=50"`
	YearsWithManager          *int             `json:"annes_sous_responsable_actuel" validate:"required,gte=0,lte=50"`

	EnvironmentSatisfaction *int          `json:"satisfaction_employee_environnement" validate:"required,gte=1,lte=4"`
	PreviousEvaluation      *int          `json:"note_evaluation_precedente" validate:"required,gte=1,lte=5"`
	JobLevel                *int          `json:"niveau_hierarchique_poste" validate:"required,gte=1,lte=5"`
	JobSatisfaction         *int          `json:"satisfaction_employee_nature_travail" validate:"required,gte=1,lte=4"`
	TeamSatisfaction        *int          `json:"satisfaction_employee_equipe" validate:"required,gte=1,lte=4"`
	WorkLifeBalance         *int          `json:"satisfaction_employee_equilibre_pro_perso" validate:"required,gte=1,lte=4"`
	CurrentEvaluation       *int          `json:"note_evaluation_actuelle" validate:"required,gte=1,lte=5"`
	Overtime                *OvertimeFlag `json:"heure_supplementaires" validate:"required,known"`
	LastRaisePercent        *float64      `json:"augementation_salaire_precedente" validate:"required,gte=0,lte=100"`

	Age                *int           `json:"age" validate:"required,gte=18,lte=70"`
	Sex                *Sex           `json:"genre" validate:"required,known"`
	MonthlyIncome      *float64       `json:"revenu_mensuel" validate:"required,gte=1000,lte=100000"`
	MaritalStatus      *MaritalStatus `json:"statut_marital" validate:"required,known"`
	Department         *Department    `json:"departement" validate:"required,known"`
	JobTitle           *JobTitle      `json:"poste" validate:"required,min=3,max=100"`
	PriorCompanies     *int           `json:"nombre_experiences_precedentes" validate:"required,gte=0,lte=50"`
	WeeklyHours        *int           `json:"nombre_heures_travailless" validate:"required,gte=35,lte=80"`
	TotalWorkingYears  *int           `json:"annee_experience_totale" validate:"required,gte=0,lte=60"`
	YearsAtCompany     *int           `json:"annees_dans_l_entreprise" validate:"required,gte=0,lte=60"`
	YearsInCurrentRole *int           `json:"annees_dans_le_poste_actuel" validate:"required,gte=0,lte=60"`
}

// Record converts a validated Input. It must not be called before validation
// succeeded: nil fields dereference.
func (in *Input) Record() Record {
	return Record{
		SavingsPlanParticipations: *in.SavingsPlanParticipations,
		TrainingsAttended:         *in.TrainingsAttended,
		DirectReports:             *in.DirectReports,
		CommuteDistance:           *in.CommuteDistance,
		EducationLevel:            *in.EducationLevel,
		FieldOfStudy:              *in.FieldOfStudy,
		HasChildren:               *in.HasChildren,
		TravelFrequency:           *in.TravelFrequency,
		YearsSincePromotion:       *in.YearsSincePromotion,
		YearsWithManager:          *in.YearsWithManager,
		EnvironmentSatisfaction:   *in.EnvironmentSatisfaction,
		PreviousEvaluation:        *in.PreviousEvaluation,
		JobLevel:                  *in.JobLevel,
		JobSatisfaction:           *in.JobSatisfaction,
		TeamSatisfaction:          *in.TeamSatisfaction,
		WorkLifeBalance:           *in.WorkLifeBalance,
		CurrentEvaluation:         *in.CurrentEvaluation,
		Overtime:                  *in.Overtime,
		LastRaisePercent:          *in.LastRaisePercent,
		Age:                       *in.Age,
		Sex:                       *in.Sex,
		MonthlyIncome:             *in.MonthlyIncome,
		MaritalStatus:             *in.MaritalStatus,
		Department:                *in.Department,
		JobTitle:                  *in.JobTitle,
		PriorCompanies:            *in.PriorCompanies,
		WeeklyHours:               *in.WeeklyHours,
		TotalWorkingYears:         *in.TotalWorkingYears,
		YearsAtCompany:            *in.YearsAtCompany,
		YearsInCurrentRole:        *in.YearsInCurrentRole,
	}
}

// InputFrom builds the wire form of r, e.g. for clients and load generators.
func InputFrom(r Record) Input {
	return Input{
		SavingsPlanParticipations: &r.SavingsPlanParticipations,
		TrainingsAttended:         &r.TrainingsAttended,
		DirectReports:             &r.DirectReports,
		CommuteDistance:           &r.CommuteDistance,
		EducationLevel:            &r.EducationLevel,
		FieldOfStudy:              &r.FieldOfStudy,
		HasChildren:               &r.HasChildren,
		TravelFrequency:           &r.TravelFrequency,
		YearsSincePromotion:       &r.YearsSincePromotion,
		YearsWithManager:          &r.YearsWithManager,
		EnvironmentSatisfaction:   &r.EnvironmentSatisfaction,
		PreviousEvaluation:        &r.PreviousEvaluation,
		JobLevel:                  &r.JobLevel,
		JobSatisfaction:           &r.JobSatisfaction,
		TeamSatisfaction:          &r.TeamSatisfaction,
		WorkLifeBalance:           &r.WorkLifeBalance,
		CurrentEvaluation:         &r.CurrentEvaluation,
		Overtime:                  &r.Overtime,
		LastRaisePercent:          &r.LastRaisePercent,
		Age:                       &r.Age,
		Sex:                       &r.Sex,
		MonthlyIncome:             &r.MonthlyIncome,
		MaritalStatus:             &r.MaritalStatus,
		Department:                &r.Department,
		JobTitle:                  &r.JobTitle,
		PriorCompanies:            &r.PriorCompanies,
		WeeklyHours:               &r.WeeklyHours,
		TotalWorkingYears:         &r.TotalWorkingYears,
		YearsAtCompany:            &r.YearsAtCompany,
		YearsInCurrentRole:        &r.YearsInCurrentRole,
	}
}
