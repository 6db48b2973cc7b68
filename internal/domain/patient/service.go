package patient

import (
	"context"
	"time"

	"github.com/medcare/medcare/internal/domain/hospital"
	"github.com/medcare/medcare/internal/platform/apperr"
)

// HospitalDirectory is the slice of the hospital registry the patient
// registry needs: existence checks for admission and relocation targets.
type HospitalDirectory interface {
	Get(ctx context.Context, id int64) (*hospital.Hospital, error)
}

// Service is the patient registry. It owns patient records and is the only
// writer of a patient's current-hospital field.
type Service struct {
	repo      Repository
	hospitals HospitalDirectory
}

func NewService(repo Repository, hospitals HospitalDirectory) *Service {
	return &Service{repo: repo, hospitals: hospitals}
}

// Admit creates a patient record at a hospital. The MRN must be unique and
// the hospital must exist.
func (s *Service) Admit(ctx context.Context, p *Patient) error {
	if p.MRN == "" {
		return apperr.Validationf("mrn is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Validationf("first_name and last_name are required")
	}
	if p.DateOfBirth.IsZero() {
		return apperr.Validationf("date_of_birth is required")
	}
	if p.TriageLevel != "" && !p.TriageLevel.Valid() {
		return apperr.Validationf("invalid triage level %q", p.TriageLevel)
	}
	if _, err := s.hospitals.Get(ctx, p.HospitalID); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Relocate moves a patient's current hospital. It is called by the transfer
// coordinator when a transfer completes.
func (s *Service) Relocate(ctx context.Context, id, newHospitalID int64) (*Patient, error) {
	if _, err := s.hospitals.Get(ctx, newHospitalID); err != nil {
		return nil, err
	}
	return s.repo.UpdateHospital(ctx, id, newHospitalID)
}

// UpdateTriage reclassifies a patient's urgency.
func (s *Service) UpdateTriage(ctx context.Context, id int64, level TriageLevel) (*Patient, error) {
	if level != "" && !level.Valid() {
		return nil, apperr.Validationf("invalid triage level %q", level)
	}
	return s.repo.UpdateTriage(ctx, id, level)
}

// Age computes the patient's calendar age. A zero asOf means now.
func (s *Service) Age(ctx context.Context, id int64, asOf time.Time) (int, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return p.Age(asOf), nil
}

// TriageDistribution reports the patient count per triage level.
func (s *Service) TriageDistribution(ctx context.Context) (map[TriageLevel]int, error) {
	return s.repo.CountByTriage(ctx)
}
