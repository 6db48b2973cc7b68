package hospital

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medcare/medcare/internal/platform/apperr"
	"github.com/medcare/medcare/pkg/pagination"
)

// entry guards one hospital with its own lock so that bed traffic at one
// facility never blocks reservations at another.
type entry struct {
	mu sync.Mutex
	h  Hospital
}

func (e *entry) snapshot() *Hospital {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.h
	return &h
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

func (r *MemRepo) Create(_ context.Context, h *Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	h.ID = r.seq
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	r.byID[h.ID] = &entry{h: *h}
	return nil
}

func (r *MemRepo) lookup(id int64) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("hospital %d not found", id)
	}
	return e, nil
}

func (r *MemRepo) GetByID(_ context.Context, id int64) (*Hospital, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}

func (r *MemRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Hospital, int, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var matched []*Hospital
	for _, e := range entries {
		h := e.snapshot()
		if filter.State != "" && h.State != filter.State {
			continue
		}
		if filter.City != "" && h.City != filter.City {
			continue
		}
		matched = append(matched, h)
	}

	// Stable order by identifier.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	low, high := pagination.Params{Limit: limit, Offset: offset}.Slice(total)
	return matched[low:high], total, nil
}

func (r *MemRepo) ListAll(ctx context.Context) ([]*Hospital, error) {
	all, _, err := r.List(ctx, ListFilter{}, 0, 0)
	return all, err
}

func (r *MemRepo) ReserveBed(_ context.Context, id int64) (*Hospital, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.h.AvailableBeds <= 0 {
		return nil, apperr.Capacityf("hospital %d has no available beds", id)
	}
	e.h.AvailableBeds--
	h := e.h
	return &h, nil
}

func (r *MemRepo) ReleaseBed(_ context.Context, id int64) (*Hospital, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.h.AvailableBeds >= e.h.Capacity {
		return nil, apperr.Invariantf("hospital %d release would exceed capacity %d", id, e.h.Capacity)
	}
	e.h.AvailableBeds++
	h := e.h
	return &h, nil
}
