package hospital

import "context"

// Repository is the hospital store. ReserveBed and ReleaseBed must be atomic
// with respect to concurrent callers on the same hospital: a hospital with one
// remaining bed grants exactly one of two racing reservations.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id int64) (*Hospital, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Hospital, int, error)
	ListAll(ctx context.Context) ([]*Hospital, error)
	// ReserveBed decrements available_beds by one and returns the updated
	// hospital. Fails with a capacity error when no beds remain.
	ReserveBed(ctx context.Context, id int64) (*Hospital, error)
	// ReleaseBed increments available_beds by one and returns the updated
	// hospital. Fails with an invariant error when the increment would
	// exceed capacity (a double release upstream).
	ReleaseBed(ctx context.Context, id int64) (*Hospital, error)
}
