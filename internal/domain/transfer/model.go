package transfer

import (
	"strings"
	"time"

	"github.com/medcare/medcare/internal/domain/patient"
	"github.com/medcare/medcare/internal/platform/apperr"
)

// Status is the transfer lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the full state machine: PENDING -> IN_PROGRESS -> COMPLETED,
// with cancellation allowed from either non-terminal state. COMPLETED and
// CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources returns every state from which `to` is reachable.
func TransitionSources(to Status) []Status {
	var sources []Status
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active reports whether s holds a bed reservation at the destination.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusInProgress
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts the enum name case-insensitively. The empty string
// parses to unset.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", nil
	}
	st := Status(strings.ToUpper(s))
	if !st.Valid() {
		return "", apperr.Validationf("invalid transfer status %q", s)
	}
	return st, nil
}

// Transfer maps to the transfers table. While Status is PENDING or
// IN_PROGRESS, one bed at the destination hospital is held against this
// transfer; the hold is released exactly once, on cancellation, or becomes
// permanent occupancy on completion.
type Transfer struct {
	ID             int64               `db:"id" json:"id"`
	PatientID      int64               `db:"patient_id" json:"patient_id"`
	FromHospitalID int64               `db:"from_hospital_id" json:"from_hospital_id"`
	ToHospitalID   int64               `db:"to_hospital_id" json:"to_hospital_id"`
	Reason         string              `db:"transfer_reason" json:"transfer_reason,omitempty"`
	Priority       patient.TriageLevel `db:"priority" json:"priority"`
	Status         Status              `db:"transfer_status" json:"transfer_status"`
	RequestedBy    string              `db:"requested_by" json:"requested_by,omitempty"`
	ApprovedBy     string              `db:"approved_by" json:"approved_by,omitempty"`
	RequestedAt    time.Time           `db:"requested_at" json:"requested_at"`
	ApprovedAt     *time.Time          `db:"approved_at" json:"approved_at,omitempty"`
	CompletedAt    *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
	Notes          string              `db:"notes" json:"notes,omitempty"`
}

// ListFilter narrows List results. Zero values match everything. HospitalID
// matches either endpoint of the transfer.
type ListFilter struct {
	Status     Status
	HospitalID int64
}
