package transfer

import "context"

// Repository is the transfer store. Transition applies the state machine
// atomically per transfer: concurrent transitions on the same transfer
// serialize, exactly one wins, and the losers fail with a state error.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	GetByID(ctx context.Context, id int64) (*Transfer, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Transfer, int, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Transfer, error)
	// Transition moves the transfer to the target status when the state
	// machine allows it from the current status, stamping the transition
	// timestamps (approved_at on IN_PROGRESS, completed_at on COMPLETED)
	// and recording actor on IN_PROGRESS. Returns the updated transfer.
	Transition(ctx context.Context, id int64, to Status, actor string) (*Transfer, error)
	CountActive(ctx context.Context) (int, error)
}
