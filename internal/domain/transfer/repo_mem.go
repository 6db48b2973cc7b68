package transfer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medcare/medcare/internal/platform/apperr"
	"github.com/medcare/medcare/pkg/pagination"
)

// entry guards one transfer with its own lock so transitions on different
// transfers never contend.
type entry struct {
	mu sync.Mutex
	t  Transfer
}

func (e *entry) snapshot() *Transfer {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.t
	return &t
}

// MemRepo is the in-memory Repository used by the memory store mode and by
// tests.
type MemRepo struct {
	mu   sync.RWMutex
	seq  int64
	byID map[int64]*entry
}

func NewMemRepo() *MemRepo {
	return &MemRepo{byID: make(map[int64]*entry)}
}

func (r *MemRepo) Create(_ context.Context, t *Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	t.ID = r.seq
	now := time.Now()
	if t.RequestedAt.IsZero() {
		t.RequestedAt = now
	}
	t.UpdatedAt = now
	r.byID[t.ID] = &entry{t: *t}
	return nil
}

func (r *MemRepo) lookup(id int64) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("transfer %d not found", id)
	}
	return e, nil
}

func (r *MemRepo) GetByID(_ context.Context, id int64) (*Transfer, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}

func (r *MemRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Transfer, int, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var matched []*Transfer
	for _, e := range entries {
		t := e.snapshot()
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.HospitalID != 0 && t.FromHospitalID != filter.HospitalID && t.ToHospitalID != filter.HospitalID {
			continue
		}
		matched = append(matched, t)
	}

	// Most recent first, id as tiebreak.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].RequestedAt.Equal(matched[j].RequestedAt) {
			return matched[i].RequestedAt.After(matched[j].RequestedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	low, high := pagination.Params{Limit: limit, Offset: offset}.Slice(total)
	return matched[low:high], total, nil
}

func (r *MemRepo) ListByPatient(ctx context.Context, patientID int64) ([]*Transfer, error) {
	all, _, err := r.List(ctx, ListFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}
	var out []*Transfer
	for _, t := range all {
		if t.PatientID == patientID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemRepo) Transition(_ context.Context, id int64, to Status, actor string) (*Transfer, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.t.Status.CanTransitionTo(to) {
		return nil, apperr.Statef("transfer %d cannot move from %s to %s", id, e.t.Status, to)
	}

	now := time.Now()
	e.t.Status = to
	e.t.UpdatedAt = now
	switch to {
	case StatusInProgress:
		e.t.ApprovedAt = &now
		if actor != "" {
			e.t.ApprovedBy = actor
		}
	case StatusCompleted:
		e.t.CompletedAt = &now
	}

	t := e.t
	return &t, nil
}

func (r *MemRepo) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	n := 0
	for _, e := range entries {
		if e.snapshot().Status.Active() {
			n++
		}
	}
	return n, nil
}
