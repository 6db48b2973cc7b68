package patient

import (
	"strings"
	"time"

	"github.com/medcare/medcare/internal/platform/apperr"
)

// TriageLevel is the urgency classification of a patient's condition.
// The empty string means unset.
type TriageLevel string

const (
	TriageCritical  TriageLevel = "CRITICAL"
	TriageUrgent    TriageLevel = "URGENT"
	TriageNonUrgent TriageLevel = "NON_URGENT"
)

// Rank orders triage levels by urgency: CRITICAL > URGENT > NON_URGENT.
// Unset ranks lowest.
func (t TriageLevel) Rank() int {
	switch t {
	case TriageCritical:
		return 3
	case TriageUrgent:
		return 2
	case TriageNonUrgent:
		return 1
	default:
		return 0
	}
}

func (t TriageLevel) Valid() bool {
	switch t {
	case TriageCritical, TriageUrgent, TriageNonUrgent:
		return true
	}
	return false
}

// ParseTriageLevel accepts the enum name case-insensitively. The empty
// string parses to unset.
func ParseTriageLevel(s string) (TriageLevel, error) {
	if s == "" {
		return "", nil
	}
	t := TriageLevel(strings.ToUpper(s))
	if !t.Valid() {
		return "", apperr.Validationf("invalid triage level %q", s)
	}
	return t, nil
}

// Patient maps to the patients table. HospitalID is the facility the patient
// is currently at; only a completed transfer moves it.
type Patient struct {
	ID            int64       `db:"id" json:"id"`
	MRN           string      `db:"mrn" json:"mrn"`
	FirstName     string      `db:"first_name" json:"first_name"`
	LastName      string      `db:"last_name" json:"last_name"`
	DateOfBirth   time.Time   `db:"date_of_birth" json:"date_of_birth"`
	Gender        string      `db:"gender" json:"gender,omitempty"`
	Phone         string      `db:"phone" json:"phone,omitempty"`
	BloodType     string      `db:"blood_type" json:"blood_type,omitempty"`
	Allergies     string      `db:"allergies" json:"allergies,omitempty"`
	TriageLevel   TriageLevel `db:"triage_level" json:"triage_level,omitempty"`
	HospitalID    int64       `db:"hospital_id" json:"hospital_id"`
	AdmissionDate time.Time   `db:"admission_date" json:"admission_date"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Age returns the patient's age in whole years as of the given date,
// using the calendar rule: the year difference, minus one if the birthday
// has not yet occurred that year.
func (p *Patient) Age(asOf time.Time) int {
	years := asOf.Year() - p.DateOfBirth.Year()
	birthdayThisYear := time.Date(asOf.Year(), p.DateOfBirth.Month(), p.DateOfBirth.Day(), 0, 0, 0, 0, asOf.Location())
	if asOf.Before(birthdayThisYear) {
		years--
	}
	return years
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	HospitalID  int64
	TriageLevel TriageLevel
}
