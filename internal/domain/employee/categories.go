package employee

// Sex is the declared sex recorded by HR.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

// SexValues is the frozen vocabulary in training order.
var SexValues = [...]Sex{SexFemale, SexMale}

// Valid reports whether s belongs to the vocabulary.
func (s Sex) Valid() bool { return contains(SexValues[:], s) }

// MaritalStatus is the civil status recorded by HR.
type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "Célibataire"
	MaritalDivorced MaritalStatus = "Divorcé(e)"
	MaritalMarried  MaritalStatus = "Marié(e)"
)

// MaritalStatusValues is the frozen vocabulary in training order.
var MaritalStatusValues = [...]MaritalStatus{MaritalSingle, MaritalDivorced, MaritalMarried}

// Valid reports whether m belongs to the vocabulary.
func (m MaritalStatus) Valid() bool { return contains(MaritalStatusValues[:], m) }

// Department is the organisational unit of the employee.
type Department string

const (
	DepartmentSales          Department = "Commercial"
	DepartmentConsulting     Department = "Consulting"
	DepartmentHumanResources Department = "Ressources Humaines"
)

// DepartmentValues is the frozen vocabulary in training order.
var DepartmentValues = [...]Department{DepartmentSales, DepartmentConsulting, DepartmentHumanResources}

// Valid reports whether d belongs to the vocabulary.
func (d Department) Valid() bool { return contains(DepartmentValues[:], d) }

// JobTitle is the position held. Titles outside JobTitleValues are accepted
// and encode to an all-zero indicator block.
type JobTitle string

const (
	JobExecutiveAssistant  JobTitle = "Assistant de Direction"
	JobSalesExecutive      JobTitle = "Cadre Commercial"
	JobConsultant          JobTitle = "Consultant"
	JobTechnicalDirector   JobTitle = "Directeur Technique"
	JobManager             JobTitle = "Manager"
	JobSalesRepresentative JobTitle = "Représentant Commercial"
	JobHumanResources      JobTitle = "Ressources Humaines"
	JobSeniorManager       JobTitle = "Senior Manager"
	JobTechLead            JobTitle = "Tech Lead"
)

// JobTitleValues is the frozen vocabulary in training order.
var JobTitleValues = [...]JobTitle{
	JobExecutiveAssistant,
	JobSalesExecutive,
	JobConsultant,
	JobTechnicalDirector,
	JobManager,
	JobSalesRepresentative,
	JobHumanResources,
	JobSeniorManager,
	JobTechLead,
}

// Known reports whether t belongs to the vocabulary.
func (t JobTitle) Known() bool { return contains(JobTitleValues[:], t) }

// FieldOfStudy is the education domain declared in the survey.
type FieldOfStudy string

const (
	StudyOther                 FieldOfStudy = "Autre"
	StudyEntrepreneurship      FieldOfStudy = "Entrepreunariat"
	StudyInfraCloud            FieldOfStudy = "Infra & Cloud"
	StudyMarketing             FieldOfStudy = "Marketing"
	StudyHumanResources        FieldOfStudy = "Ressources Humaines"
	StudyDigitalTransformation FieldOfStudy = "Transformation Digitale"
)

// FieldOfStudyValues is the frozen vocabulary in training order.
var FieldOfStudyValues = [...]FieldOfStudy{
	StudyOther,
	StudyEntrepreneurship,
	StudyInfraCloud,
	StudyMarketing,
	StudyHumanResources,
	StudyDigitalTransformation,
}

// Valid reports whether f belongs to the vocabulary.
func (f FieldOfStudy) Valid() bool { return contains(FieldOfStudyValues[:], f) }

// TravelFrequency is the ordinal business-travel level.
type TravelFrequency string

const (
	TravelNone       TravelFrequency = "Aucun"
	TravelOccasional TravelFrequency = "Occasionnel"
	TravelFrequent   TravelFrequency = "Frequent"
)

// TravelFrequencyValues lists levels in rank order; the index is the ordinal code.
var TravelFrequencyValues = [...]TravelFrequency{TravelNone, TravelOccasional, TravelFrequent}

// Valid reports whether t belongs to the vocabulary.
func (t TravelFrequency) Valid() bool { return contains(TravelFrequencyValues[:], t) }

// ChildrenFlag records whether the employee has children (Y/N).
type ChildrenFlag string

const (
	ChildrenYes ChildrenFlag = "Y"
	ChildrenNo  ChildrenFlag = "N"
)

// Valid reports whether c is Y or N.
func (c ChildrenFlag) Valid() bool { return c == ChildrenYes || c == ChildrenNo }

// OvertimeFlag records whether the employee works overtime (Oui/Non).
type OvertimeFlag string

const (
	OvertimeYes OvertimeFlag = "Oui"
	OvertimeNo  OvertimeFlag = "Non"
)

// Valid reports whether o is Oui or Non.
func (o OvertimeFlag) Valid() bool { return o == OvertimeYes || o == OvertimeNo }

// Vocabulary converts a typed vocabulary into its string form, preserving order.
func Vocabulary[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// NominalVocabulary returns the vocabulary of a one-hot column listed in
// NominalColumns, or nil for any other column.
func NominalVocabulary(column string) []string {
	switch column {
	case ColSex:
		return Vocabulary(SexValues[:])
	case ColMaritalStatus:
		return Vocabulary(MaritalStatusValues[:])
	case ColDepartment:
		return Vocabulary(DepartmentValues[:])
	case ColJobTitle:
		return Vocabulary(JobTitleValues[:])
	case ColFieldOfStudy:
		return Vocabulary(FieldOfStudyValues[:])
	}
	return nil
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
