package hospital

import (
	"math"
	"time"

	"github.com/medcare/medcare/internal/platform/apperr"
)

// Hospital maps to the hospitals table. AvailableBeds is the capacity
// counter: 0 <= AvailableBeds <= Capacity at all times. Only the transfer
// coordinator mutates it, through ReserveBed/ReleaseBed.
type Hospital struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Address       string    `db:"address" json:"address,omitempty"`
	City          string    `db:"city" json:"city"`
	State         string    `db:"state" json:"state"`
	ZipCode       string    `db:"zip_code" json:"zip_code,omitempty"`
	Phone         string    `db:"phone" json:"phone,omitempty"`
	Capacity      int       `db:"capacity" json:"capacity"`
	AvailableBeds int       `db:"available_beds" json:"available_beds"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// OccupancyPercent returns the occupied share of capacity rounded to the
// nearest whole percent. A zero-capacity hospital has no defined occupancy;
// callers must treat the validation failure as 0% or "unknown".
func (h *Hospital) OccupancyPercent() (int, error) {
	if h.Capacity == 0 {
		return 0, apperr.Validationf("hospital %d has zero capacity: occupancy undefined", h.ID)
	}
	occupied := h.Capacity - h.AvailableBeds
	return int(math.Round(float64(occupied) / float64(h.Capacity) * 100)), nil
}

// Stats is the per-hospital rollup shown on the dashboard capacity cards.
type Stats struct {
	HospitalID       int64  `json:"hospital_id"`
	Name             string `json:"hospital_name"`
	Capacity         int    `json:"total_capacity"`
	AvailableBeds    int    `json:"available_beds"`
	OccupancyPercent int    `json:"occupancy_percent"`
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	State string
	City  string
}
