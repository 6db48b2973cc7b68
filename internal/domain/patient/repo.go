package patient

import "context"

// Repository is the patient store. Create must reject duplicate MRNs with a
// conflict error. List orders by admission date ascending, then id.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error)
	UpdateHospital(ctx context.Context, id, hospitalID int64) (*Patient, error)
	UpdateTriage(ctx context.Context, id int64, level TriageLevel) (*Patient, error)
	CountAll(ctx context.Context) (int, error)
	CountByTriage(ctx context.Context) (map[TriageLevel]int, error)
}
