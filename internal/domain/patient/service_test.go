package patient

import (
	"context"
	"testing"
	"time"

	"github.com/medcare/medcare/internal/domain/hospital"
	"github.com/medcare/medcare/internal/platform/apperr"
)

func newTestService(t *testing.T) (*Service, *hospital.Hospital) {
	t.Helper()
	hospRepo := hospital.NewMemRepo()
	hospSvc := hospital.NewService(hospRepo)

	h := &hospital.Hospital{Name: "General", City: "Springfield", State: "IL", Capacity: 10}
	if err := hospSvc.Register(context.Background(), h); err != nil {
		t.Fatalf("register hospital: %v", err)
	}

	return NewService(NewMemRepo(), hospSvc), h
}

func TestService_Admit(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	p := &Patient{
		MRN:         "A100",
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: date(1985, time.May, 15),
		TriageLevel: TriageUrgent,
		HospitalID:  h.ID,
	}
	if err := svc.Admit(ctx, p); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected an assigned id")
	}
	if p.AdmissionDate.IsZero() {
		t.Error("expected admission date to be set")
	}
}

func TestService_Admit_DuplicateMRN(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	p := &Patient{MRN: "A100", FirstName: "Jane", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: h.ID}
	if err := svc.Admit(ctx, p); err != nil {
		t.Fatalf("admit: %v", err)
	}

	dup := &Patient{MRN: "A100", FirstName: "John", LastName: "Doe", DateOfBirth: date(1990, time.March, 2), HospitalID: h.ID}
	err := svc.Admit(ctx, dup)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error for duplicate MRN, got %v", err)
	}
}

func TestService_Admit_UnknownHospital(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p := &Patient{MRN: "B200", FirstName: "Jane", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: 999}
	err := svc.Admit(ctx, p)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_Admit_MissingFields(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	cases := []*Patient{
		{FirstName: "Jane", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: h.ID},
		{MRN: "C1", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: h.ID},
		{MRN: "C2", FirstName: "Jane", LastName: "Doe", HospitalID: h.ID},
	}
	for i, p := range cases {
		if err := svc.Admit(ctx, p); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestService_List_OrderedByAdmission(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	base := time.Now().Add(-72 * time.Hour)
	for i, mrn := range []string{"M3", "M1", "M2"} {
		p := &Patient{
			MRN:           mrn,
			FirstName:     "P",
			LastName:      mrn,
			DateOfBirth:   date(1980, time.January, 1),
			HospitalID:    h.ID,
			AdmissionDate: base.Add(time.Duration(2-i) * time.Hour),
		}
		if err := svc.Admit(ctx, p); err != nil {
			t.Fatalf("admit %s: %v", mrn, err)
		}
	}

	items, total, err := svc.List(ctx, ListFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 patients, got %d", total)
	}
	for i := 1; i < len(items); i++ {
		if items[i].AdmissionDate.Before(items[i-1].AdmissionDate) {
			t.Error("expected admission date ascending order")
		}
	}
}

func TestService_List_TriageFilter(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	levels := []TriageLevel{TriageCritical, TriageUrgent, TriageCritical, TriageNonUrgent}
	for i, level := range levels {
		p := &Patient{
			MRN:         "T" + string(rune('0'+i)),
			FirstName:   "P",
			LastName:    "T",
			DateOfBirth: date(1980, time.January, 1),
			TriageLevel: level,
			HospitalID:  h.ID,
		}
		if err := svc.Admit(ctx, p); err != nil {
			t.Fatalf("admit: %v", err)
		}
	}

	critical, total, err := svc.List(ctx, ListFilter{TriageLevel: TriageCritical}, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(critical) != 2 {
		t.Errorf("expected 2 critical patients, got total=%d len=%d", total, len(critical))
	}
}

func TestService_Relocate(t *testing.T) {
	ctx := context.Background()
	hospRepo := hospital.NewMemRepo()
	hospSvc := hospital.NewService(hospRepo)

	h1 := &hospital.Hospital{Name: "H1", Capacity: 10}
	h2 := &hospital.Hospital{Name: "H2", Capacity: 10}
	for _, h := range []*hospital.Hospital{h1, h2} {
		if err := hospSvc.Register(ctx, h); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	svc := NewService(NewMemRepo(), hospSvc)
	p := &Patient{MRN: "R1", FirstName: "Jane", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: h1.ID}
	if err := svc.Admit(ctx, p); err != nil {
		t.Fatalf("admit: %v", err)
	}

	moved, err := svc.Relocate(ctx, p.ID, h2.ID)
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if moved.HospitalID != h2.ID {
		t.Errorf("expected patient at hospital %d, got %d", h2.ID, moved.HospitalID)
	}

	if _, err := svc.Relocate(ctx, p.ID, 999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown hospital, got %v", err)
	}
	if _, err := svc.Relocate(ctx, 999, h2.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown patient, got %v", err)
	}
}

func TestService_UpdateTriage(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	p := &Patient{MRN: "U1", FirstName: "Jane", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: h.ID}
	if err := svc.Admit(ctx, p); err != nil {
		t.Fatalf("admit: %v", err)
	}

	updated, err := svc.UpdateTriage(ctx, p.ID, TriageCritical)
	if err != nil {
		t.Fatalf("update triage: %v", err)
	}
	if updated.TriageLevel != TriageCritical {
		t.Errorf("expected CRITICAL, got %q", updated.TriageLevel)
	}

	if _, err := svc.UpdateTriage(ctx, p.ID, TriageLevel("BOGUS")); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_GetByMRN(t *testing.T) {
	ctx := context.Background()
	svc, h := newTestService(t)

	p := &Patient{MRN: "MRN-77", FirstName: "Jane", LastName: "Doe", DateOfBirth: date(1985, time.May, 15), HospitalID: h.ID}
	if err := svc.Admit(ctx, p); err != nil {
		t.Fatalf("admit: %v", err)
	}

	got, err := svc.GetByMRN(ctx, "MRN-77")
	if err != nil {
		t.Fatalf("get by mrn: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected patient %d, got %d", p.ID, got.ID)
	}

	if _, err := svc.GetByMRN(ctx, "NOPE"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
