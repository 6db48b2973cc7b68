package analytics

import (
	"context"
	"math"

	"github.com/medcare/medcare/internal/domain/hospital"
	"github.com/medcare/medcare/internal/domain/patient"
	"github.com/medcare/medcare/internal/platform/apperr"
)

// HospitalSource supplies the capacity counters the aggregator reads.
type HospitalSource interface {
	ListAll(ctx context.Context) ([]*hospital.Hospital, error)
}

// PatientSource supplies patient head counts.
type PatientSource interface {
	CountAll(ctx context.Context) (int, error)
	CountByTriage(ctx context.Context) (map[patient.TriageLevel]int, error)
}

// TransferSource supplies the active transfer count.
type TransferSource interface {
	CountActive(ctx context.Context) (int, error)
}

// Summary is a point-in-time snapshot of the network. Figures from
// different sources may be read at slightly different instants; the
// snapshot is advisory, not transactional.
type Summary struct {
	TotalHospitals          int `json:"total_hospitals"`
	TotalCapacity           int `json:"total_capacity"`
	TotalAvailableBeds      int `json:"total_available_beds"`
	TotalPatients           int `json:"total_patients"`
	ActiveTransfers         int `json:"active_transfers"`
	CriticalPatients        int `json:"critical_patients"`
	NetworkOccupancyPercent int `json:"network_occupancy_percent"`
}

// Service computes read-only aggregates over the registries. It never
// writes.
type Service struct {
	hospitals HospitalSource
	patients  PatientSource
	transfers TransferSource
}

func NewService(hospitals HospitalSource, patients PatientSource, transfers TransferSource) *Service {
	return &Service{hospitals: hospitals, patients: patients, transfers: transfers}
}

func (s *Service) TotalPatients(ctx context.Context) (int, error) {
	return s.patients.CountAll(ctx)
}

func (s *Service) ActiveTransferCount(ctx context.Context) (int, error) {
	return s.transfers.CountActive(ctx)
}

func (s *Service) CriticalPatientCount(ctx context.Context) (int, error) {
	dist, err := s.patients.CountByTriage(ctx)
	if err != nil {
		return 0, err
	}
	return dist[patient.TriageCritical], nil
}

func (s *Service) TriageDistribution(ctx context.Context) (map[patient.TriageLevel]int, error) {
	return s.patients.CountByTriage(ctx)
}

// NetworkOccupancyPercent is the capacity-weighted occupancy of the whole
// network: occupied beds over total capacity, rounded half away from zero.
// A network with zero total capacity has no meaningful occupancy.
func (s *Service) NetworkOccupancyPercent(ctx context.Context) (int, error) {
	hs, err := s.hospitals.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	var capacity, available int
	for _, h := range hs {
		capacity += h.Capacity
		available += h.AvailableBeds
	}
	if capacity == 0 {
		return 0, apperr.Validationf("network has zero total capacity")
	}
	return int(math.Round(float64(capacity-available) / float64(capacity) * 100)), nil
}

// NetworkSummary gathers all aggregate figures in one pass. Zero total
// capacity reports as 0% rather than an error here, matching per-hospital
// stats.
func (s *Service) NetworkSummary(ctx context.Context) (*Summary, error) {
	hs, err := s.hospitals.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sum := &Summary{TotalHospitals: len(hs)}
	for _, h := range hs {
		sum.TotalCapacity += h.Capacity
		sum.TotalAvailableBeds += h.AvailableBeds
	}
	if sum.TotalCapacity > 0 {
		occupied := sum.TotalCapacity - sum.TotalAvailableBeds
		sum.NetworkOccupancyPercent = int(math.Round(float64(occupied) / float64(sum.TotalCapacity) * 100))
	}

	if sum.TotalPatients, err = s.patients.CountAll(ctx); err != nil {
		return nil, err
	}
	if sum.ActiveTransfers, err = s.transfers.CountActive(ctx); err != nil {
		return nil, err
	}
	dist, err := s.patients.CountByTriage(ctx)
	if err != nil {
		return nil, err
	}
	sum.CriticalPatients = dist[patient.TriageCritical]
	return sum, nil
}
