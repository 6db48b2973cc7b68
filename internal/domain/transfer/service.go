package transfer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medcare/medcare/internal/domain/hospital"
	"github.com/medcare/medcare/internal/domain/patient"
	"github.com/medcare/medcare/internal/platform/apperr"
	"github.com/medcare/medcare/internal/platform/db"
)

// TxRunner executes fn atomically. The postgres store supplies a
// transaction-backed runner so the bed reservation and the transfer record
// commit together; the default runner executes fn directly, which is all the
// memory store needs.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// HospitalRegistry is the slice of the hospital registry the coordinator
// needs: existence checks and the bed counter operations.
type HospitalRegistry interface {
	Get(ctx context.Context, id int64) (*hospital.Hospital, error)
	ReserveBed(ctx context.Context, id int64) (*hospital.Hospital, error)
	ReleaseBed(ctx context.Context, id int64) (*hospital.Hospital, error)
}

// PatientRegistry is the slice of the patient registry the coordinator
// needs: location checks on request and relocation on completion.
type PatientRegistry interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
	Relocate(ctx context.Context, id, newHospitalID int64) (*patient.Patient, error)
}

// Service coordinates inter-facility transfers. It is the only writer of
// transfer records and the only caller of the hospital registry's bed
// counters.
type Service struct {
	repo      Repository
	hospitals HospitalRegistry
	patients  PatientRegistry
	logger    zerolog.Logger
	tx        TxRunner
}

func NewService(repo Repository, hospitals HospitalRegistry, patients PatientRegistry, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		hospitals: hospitals,
		patients:  patients,
		logger:    logger,
		tx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
}

// WithTxRunner replaces the atomic-execution strategy used by Request.
func (s *Service) WithTxRunner(tx TxRunner) *Service {
	s.tx = tx
	return s
}

// Request admits a new transfer. The destination bed is reserved before the
// transfer record is created, so no reader ever observes a PENDING transfer
// whose reservation has not been applied. The reservation is held until the
// transfer completes (it becomes occupancy) or is cancelled (it is
// released).
func (s *Service) Request(ctx context.Context, t *Transfer) error {
	if t.PatientID == 0 || t.FromHospitalID == 0 || t.ToHospitalID == 0 {
		return apperr.Validationf("patient_id, from_hospital_id and to_hospital_id are required")
	}
	if t.FromHospitalID == t.ToHospitalID {
		return apperr.Validationf("source and destination hospital must differ")
	}
	if t.Priority == "" {
		t.Priority = patient.TriageNonUrgent
	}
	if !t.Priority.Valid() {
		return apperr.Validationf("invalid priority %q", t.Priority)
	}

	p, err := s.patients.Get(ctx, t.PatientID)
	if err != nil {
		return err
	}
	if p.HospitalID != t.FromHospitalID {
		return apperr.Conflictf("patient %d is at hospital %d, not %d", p.ID, p.HospitalID, t.FromHospitalID)
	}
	if _, err := s.hospitals.Get(ctx, t.FromHospitalID); err != nil {
		return err
	}

	// Capacity admission check: the reservation must precede record
	// creation. On the transactional store both commit together.
	return s.tx(ctx, func(ctx context.Context) error {
		if _, err := s.hospitals.ReserveBed(ctx, t.ToHospitalID); err != nil {
			return err
		}

		t.Status = StatusPending
		if err := s.repo.Create(ctx, t); err != nil {
			// Inside a transaction the rollback takes the reservation
			// back; otherwise return the reserved bed explicitly so a
			// storage failure cannot leak capacity.
			if db.ConnFromContext(ctx) == nil {
				if _, relErr := s.hospitals.ReleaseBed(ctx, t.ToHospitalID); relErr != nil {
					s.logger.Error().Err(relErr).
						Int64("hospital_id", t.ToHospitalID).
						Msg("failed to release bed after create failure")
				}
			}
			return err
		}
		return nil
	})
}

// Start moves a PENDING transfer to IN_PROGRESS. The reservation is already
// held, so there is no capacity side effect.
func (s *Service) Start(ctx context.Context, id int64, approvedBy string) (*Transfer, error) {
	return s.repo.Transition(ctx, id, StatusInProgress, approvedBy)
}

// Complete finishes an IN_PROGRESS transfer and moves the patient to the
// destination. The bed reservation is not released: the patient now occupies
// it.
func (s *Service) Complete(ctx context.Context, id int64) (*Transfer, error) {
	t, err := s.repo.Transition(ctx, id, StatusCompleted, "")
	if err != nil {
		return nil, err
	}

	if _, err := s.patients.Relocate(ctx, t.PatientID, t.ToHospitalID); err != nil {
		// The transfer is already terminal; a missing patient here is a
		// consistency defect, not a user error.
		s.logger.Error().Err(err).
			Int64("transfer_id", t.ID).
			Int64("patient_id", t.PatientID).
			Msg("completed transfer but failed to relocate patient")
		return nil, apperr.Wrap(apperr.KindInvariant, err, "transfer %d completed but patient %d not relocated", t.ID, t.PatientID)
	}
	return t, nil
}

// Cancel aborts a PENDING or IN_PROGRESS transfer and returns the reserved
// bed. The transition is the serialization point, so the release runs
// exactly once no matter how many cancellations race.
func (s *Service) Cancel(ctx context.Context, id int64) (*Transfer, error) {
	t, err := s.repo.Transition(ctx, id, StatusCancelled, "")
	if err != nil {
		return nil, err
	}

	if _, err := s.hospitals.ReleaseBed(ctx, t.ToHospitalID); err != nil {
		if apperr.IsKind(err, apperr.KindInvariant) {
			// A release beyond capacity means reserve/release pairing
			// broke somewhere upstream; log it as a defect signal.
			s.logger.Error().Err(err).
				Int64("transfer_id", t.ID).
				Int64("hospital_id", t.ToHospitalID).
				Msg("bed release exceeded capacity, reserve/release pairing defect")
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Transfer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Transfer, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64) ([]*Transfer, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
