package entities

import (
	"regexp"
	"strings"
	"time"
)

// BirthDateLayout is the wire format of EnrollmentData.BirthDate.
const BirthDateLayout = "2006-01-02"

// AdultAge is the age at which guardian data is no longer required.
const AdultAge = 18

// EnrollmentData is the draft filled in across the wizard steps.
type EnrollmentData struct {
	// Identity
	FullName      string `json:"fullName"`
	Nickname      string `json:"nickname"`
	BirthDate     string `json:"birthDate"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"maritalStatus"`
	SpouseName    string `json:"spouseName"`
	CPF           string `json:"cpf"`
	RG            string `json:"rg"`
	ShirtSize     string `json:"shirtSize"`

	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`

	// Contact
	Phone        string `json:"phone"`
	Instagram    string `json:"instagram"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	CEP          string `json:"cep"`

	// Spiritual profile
	ChurchName              string   `json:"churchName"`
	PastorName              string   `json:"pastorName"`
	PastorPhone             string   `json:"pastorPhone"`
	ConversionTime          string   `json:"conversionTime"`
	Baptized                bool     `json:"baptized"`
	BaptizedInHolySpirit    bool     `json:"baptizedInHolySpirit"`
	SpiritualGifts          string   `json:"spiritualGifts"`
	Languages               string   `json:"languages"`
	CurrentMinistry         string   `json:"currentMinistry"`
	PastoralRecommendation  bool     `json:"pastoralRecommendation"`
	InnerHealingProcess     string   `json:"innerHealingProcess"`
	MissionaryInterestAreas []string `json:"missionaryInterestAreas"`
	MissionaryExperience    string   `json:"missionaryExperience"`
	Motivation              string   `json:"motivation"`
	Skills                  []string `json:"skills"`
	SocialProjects          string   `json:"socialProjects"`
	FinancialPlan           string   `json:"financialPlan"`

	// Health
	EmergencyContact      string   `json:"emergencyContact"`
	EmergencyPhone        string   `json:"emergencyPhone"`
	BloodType             string   `json:"bloodType"`
	SpecificConditions    []string `json:"specificConditions"`
	HealthConditions      string   `json:"healthConditions"`
	Allergies             string   `json:"allergies"`
	Medications           string   `json:"medications"`
	FoodRestrictions      string   `json:"foodRestrictions"`
	HasPhysicalConstraint bool     `json:"hasPhysicalConstraint"`

	AgreedToTerms bool `json:"agreedToTerms"`
}

// NewEnrollmentData returns the initial draft for a participant.
func NewEnrollmentData(fullName string) EnrollmentData {
	return EnrollmentData{
		FullName:                fullName,
		MissionaryInterestAreas: []string{},
		Skills:                  []string{},
		SpecificConditions:      []string{},
	}
}

// AgeAt returns the age in whole years on the given day. The age is
// incremented only once the birthday anniversary has been reached. An empty
// or unparsable birth date yields 0.
func (d *EnrollmentData) AgeAt(now time.Time) int {
	if d.BirthDate == "" {
		return 0
	}
	birth, err := time.Parse(BirthDateLayout, d.BirthDate)
	if err != nil {
		return 0
	}
	age := now.Year() - birth.Year()
	monthDiff := int(now.Month()) - int(birth.Month())
	if monthDiff < 0 || (monthDiff == 0 && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsMinorAt reports whether the participant is under 18. Without a birth
// date the participant is not treated as a minor.
func (d *EnrollmentData) IsMinorAt(now time.Time) bool {
	if d.BirthDate == "" {
		return false
	}
	if _, err := time.Parse(BirthDateLayout, d.BirthDate); err != nil {
		return false
	}
	return d.AgeAt(now) < AdultAge
}

// HasGuardian reports whether both guardian fields are filled.
func (d *EnrollmentData) HasGuardian() bool {
	return strings.TrimSpace(d.GuardianName) != "" && strings.TrimSpace(d.GuardianPhone) != ""
}

// ConsentTitle is the heading of the exported consent document.
const ConsentTitle = "TERMO DE RESPONSABILIDADE - UOU MOVEMENT"

var (
	markdownMarks = regexp.MustCompile(`[#*]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ConsentDocument is the exportable form of the generated consent term.
type ConsentDocument struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	FileName string `json:"fileName"`
}

// NewConsentDocument builds the export for a participant.
func NewConsentDocument(fullName, consentText string) ConsentDocument {
	return ConsentDocument{
		Title:    ConsentTitle,
		Body:     CleanConsentText(consentText),
		FileName: ConsentFileName(fullName),
	}
}

// CleanConsentText strips markdown heading and emphasis markers.
func CleanConsentText(text string) string {
	return markdownMarks.ReplaceAllString(text, "")
}

// ConsentFileName returns Inscricao_UOU_<name>.pdf with whitespace runs
// replaced by underscores.
func ConsentFileName(fullName string) string {
	return "Inscricao_UOU_" + whitespaceRun.ReplaceAllString(fullName, "_") + ".pdf"
}
