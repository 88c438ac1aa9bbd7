package employee

// Raw column names as they appear in the survey, evaluation and HR extracts
// and in the JSON body of single predictions.
const (
	// Survey extract.
	ColSurveyCode                = "code_sondage"
	ColSavingsPlanParticipations = "nombre_participation_pee"
	ColTrainingsAttended         = "nb_formations_suivies"
	ColDirectReports             = "nombre_employee_sous_responsabilite"
	ColCommuteDistance           = "distance_domicile_travail"
	ColEducationLevel            = "niveau_education"
	ColFieldOfStudy              = "domaine_etude"
	ColHasChildren               = "ayant_enfants"
	ColTravelFrequency           = "frequence_deplacement"
	ColYearsSincePromotion       = "annees_depuis_la_derniere_promotion"
	ColYearsWithManager          = "annes_sous_responsable_actuel"

	// Evaluation extract.
	ColEvaluationNumber        = "eval_number"
	ColEnvironmentSatisfaction = "satisfaction_employee_environnement"
	ColPreviousEvaluation      = "note_evaluation_precedente"
	ColJobLevel                = "niveau_hierarchique_poste"
	ColJobSatisfaction         = "satisfaction_employee_nature_travail"
	ColTeamSatisfaction        = "satisfaction_employee_equipe"
	ColWorkLifeBalance         = "satisfaction_employee_equilibre_pro_perso"
	ColCurrentEvaluation       = "note_evaluation_actuelle"
	ColOvertime                = "heure_supplementaires"
	ColLastRaisePercent        = "augementation_salaire_precedente"

	// HR extract.
	ColEmployeeID         = "id_employee"
	ColAge                = "age"
	ColSex                = "genre"
	ColMonthlyIncome      = "revenu_mensuel"
	ColMaritalStatus      = "statut_marital"
	ColDepartment         = "departement"
	ColJobTitle           = "poste"
	ColPriorCompanies     = "nombre_experiences_precedentes"
	ColWeeklyHours        = "nombre_heures_travailless"
	ColTotalWorkingYears  = "annee_experience_totale"
	ColYearsAtCompany     = "annees_dans_l_entreprise"
	ColYearsInCurrentRole = "annees_dans_le_poste_actuel"

	// ColAttrition is the training label carried by HR extracts.
	ColAttrition = "a_quitte_l_entreprise"
)

// EvaluationPrefix precedes the employee number in ColEvaluationNumber values.
const EvaluationPrefix = "E_"

// NumericColumns lists the numeric raw fields in output order.
var NumericColumns = [...]string{
	ColSavingsPlanParticipations,
	ColTrainingsAttended,
	ColDirectReports,
	ColCommuteDistance,
	ColEducationLevel,
	ColYearsSincePromotion,
	ColYearsWithManager,
	ColEnvironmentSatisfaction,
	ColPreviousEvaluation,
	ColJobLevel,
	ColJobSatisfaction,
	ColTeamSatisfaction,
	ColWorkLifeBalance,
	ColCurrentEvaluation,
	ColLastRaisePercent,
	ColAge,
	ColMonthlyIncome,
	ColPriorCompanies,
	ColWeeklyHours,
	ColTotalWorkingYears,
	ColYearsAtCompany,
	ColYearsInCurrentRole,
}

// NominalColumns lists the one-hot encoded raw fields in output order.
var NominalColumns = [...]string{
	ColSex,
	ColMaritalStatus,
	ColDepartment,
	ColJobTitle,
	ColFieldOfStudy,
}
