package hospital

import (
	"context"

	"github.com/medcare/medcare/internal/platform/apperr"
)

// Service is the hospital registry. It owns facility records and the
// bed-capacity counters the transfer coordinator draws on.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a facility. A new hospital starts with every bed
// available.
func (s *Service) Register(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return apperr.Validationf("name is required")
	}
	if h.Capacity < 0 {
		return apperr.Validationf("capacity must be >= 0, got %d", h.Capacity)
	}
	h.AvailableBeds = h.Capacity
	return s.repo.Create(ctx, h)
}

func (s *Service) Get(ctx context.Context, id int64) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ReserveBed(ctx context.Context, id int64) (*Hospital, error) {
	return s.repo.ReserveBed(ctx, id)
}

func (s *Service) ReleaseBed(ctx context.Context, id int64) (*Hospital, error) {
	return s.repo.ReleaseBed(ctx, id)
}

// OccupancyPercent reports how full a hospital currently is.
func (s *Service) OccupancyPercent(ctx context.Context, id int64) (int, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return h.OccupancyPercent()
}

// Stats returns the dashboard rollup for one hospital. Zero-capacity
// facilities report 0% occupancy rather than failing the whole card.
func (s *Service) Stats(ctx context.Context, id int64) (*Stats, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pct, err := h.OccupancyPercent()
	if err != nil && !apperr.IsKind(err, apperr.KindValidation) {
		return nil, err
	}

	return &Stats{
		HospitalID:       h.ID,
		Name:             h.Name,
		Capacity:         h.Capacity,
		AvailableBeds:    h.AvailableBeds,
		OccupancyPercent: pct,
	}, nil
}
