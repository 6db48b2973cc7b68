package patient

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medcare/medcare/internal/platform/apperr"
	"github.com/medcare/medcare/pkg/pagination"
)

// MemRepo is the in-memory Repository used by the memory store mode and by
// tests.
type MemRepo struct {
	mu    sync.RWMutex
	seq   int64
	byID  map[int64]*Patient
	byMRN map[string]int64
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		byID:  make(map[int64]*Patient),
		byMRN: make(map[string]int64),
	}
}

func (r *MemRepo) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byMRN[p.MRN]; exists {
		return apperr.Conflictf("patient with MRN %q already exists", p.MRN)
	}

	r.seq++
	p.ID = r.seq
	now := time.Now()
	if p.AdmissionDate.IsZero() {
		p.AdmissionDate = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	stored := *p
	r.byID[p.ID] = &stored
	r.byMRN[p.MRN] = p.ID
	return nil
}

func (r *MemRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("patient %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r *MemRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byMRN[mrn]
	if !ok {
		return nil, apperr.NotFoundf("patient with MRN %q not found", mrn)
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	var matched []*Patient
	for _, p := range r.byID {
		if filter.HospitalID != 0 && p.HospitalID != filter.HospitalID {
			continue
		}
		if filter.TriageLevel != "" && p.TriageLevel != filter.TriageLevel {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AdmissionDate.Equal(matched[j].AdmissionDate) {
			return matched[i].AdmissionDate.Before(matched[j].AdmissionDate)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	low, high := pagination.Params{Limit: limit, Offset: offset}.Slice(total)
	return matched[low:high], total, nil
}

func (r *MemRepo) UpdateHospital(_ context.Context, id, hospitalID int64) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("patient %d not found", id)
	}
	p.HospitalID = hospitalID
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *MemRepo) UpdateTriage(_ context.Context, id int64, level TriageLevel) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("patient %d not found", id)
	}
	p.TriageLevel = level
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *MemRepo) CountAll(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *MemRepo) CountByTriage(_ context.Context) (map[TriageLevel]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[TriageLevel]int)
	for _, p := range r.byID {
		if p.TriageLevel != "" {
			counts[p.TriageLevel]++
		}
	}
	return counts, nil
}
