package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcare/medcare/internal/domain/hospital"
	"github.com/medcare/medcare/internal/domain/patient"
	"github.com/medcare/medcare/internal/platform/apperr"
)

type fixture struct {
	hospitals *hospital.Service
	patients  *patient.Service
	transfers *Service
}

// newFixture wires memory-backed registries with two hospitals and one
// admitted patient at the first of them.
func newFixture(t *testing.T) (*fixture, *hospital.Hospital, *hospital.Hospital, *patient.Patient) {
	t.Helper()
	ctx := context.Background()

	hs := hospital.NewService(hospital.NewMemRepo())
	ps := patient.NewService(patient.NewMemRepo(), hs)
	ts := NewService(NewMemRepo(), hs, ps, zerolog.Nop())

	h1 := &hospital.Hospital{Name: "General", City: "Springfield", State: "IL", Capacity: 10}
	if err := hs.Register(ctx, h1); err != nil {
		t.Fatalf("register h1: %v", err)
	}
	h2 := &hospital.Hospital{Name: "Mercy", City: "Shelbyville", State: "IL", Capacity: 5}
	if err := hs.Register(ctx, h2); err != nil {
		t.Fatalf("register h2: %v", err)
	}

	p := &patient.Patient{
		MRN:         "A100",
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		TriageLevel: patient.TriageUrgent,
		HospitalID:  h1.ID,
	}
	if err := ps.Admit(ctx, p); err != nil {
		t.Fatalf("admit patient: %v", err)
	}

	return &fixture{hospitals: hs, patients: ps, transfers: ts}, h1, h2, p
}

func availableBeds(t *testing.T, hs *hospital.Service, id int64) int {
	t.Helper()
	h, err := hs.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get hospital %d: %v", id, err)
	}
	return h.AvailableBeds
}

func TestRequest_ReservesDestinationBed(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	tr := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID, Reason: "cardiac"}
	if err := f.transfers.Request(ctx, tr); err != nil {
		t.Fatalf("request: %v", err)
	}
	if tr.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", tr.Status)
	}
	if tr.Priority != patient.TriageNonUrgent {
		t.Errorf("priority = %s, want default NON_URGENT", tr.Priority)
	}
	if got := availableBeds(t, f.hospitals, h2.ID); got != 4 {
		t.Errorf("destination available beds = %d, want 4", got)
	}
	if got := availableBeds(t, f.hospitals, h1.ID); got != 10 {
		t.Errorf("source available beds = %d, want 10", got)
	}
}

func TestRequest_Validation(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	cases := []struct {
		name string
		tr   *Transfer
		kind apperr.Kind
	}{
		{"missing ids", &Transfer{PatientID: p.ID}, apperr.KindValidation},
		{"same hospital", &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h1.ID}, apperr.KindValidation},
		{"bad priority", &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID, Priority: "WHENEVER"}, apperr.KindValidation},
		{"unknown patient", &Transfer{PatientID: 999, FromHospitalID: h1.ID, ToHospitalID: h2.ID}, apperr.KindNotFound},
		{"patient elsewhere", &Transfer{PatientID: p.ID, FromHospitalID: h2.ID, ToHospitalID: h1.ID}, apperr.KindConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.transfers.Request(ctx, tc.tr)
			if !apperr.IsKind(err, tc.kind) {
				t.Errorf("got %v, want kind %s", err, tc.kind)
			}
		})
	}

	// No failed request may leak a reservation.
	if got := availableBeds(t, f.hospitals, h1.ID); got != 10 {
		t.Errorf("h1 available beds = %d, want 10", got)
	}
	if got := availableBeds(t, f.hospitals, h2.ID); got != 5 {
		t.Errorf("h2 available beds = %d, want 5", got)
	}
}

func TestRequest_FullDestination(t *testing.T) {
	ctx := context.Background()
	f, h1, _, p := newFixture(t)

	full := &hospital.Hospital{Name: "Tiny Clinic", City: "Ogdenville", State: "IL", Capacity: 1}
	if err := f.hospitals.Register(ctx, full); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.hospitals.ReserveBed(ctx, full.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	err := f.transfers.Request(ctx, &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: full.ID})
	if !apperr.IsKind(err, apperr.KindCapacity) {
		t.Fatalf("got %v, want capacity error", err)
	}
}

// Requesting then cancelling a transfer must return the destination's
// available beds to the pre-request value.
func TestRequestCancel_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	before := availableBeds(t, f.hospitals, h2.ID)

	tr := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}
	if err := f.transfers.Request(ctx, tr); err != nil {
		t.Fatalf("request: %v", err)
	}
	got, err := f.transfers.Cancel(ctx, tr.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if after := availableBeds(t, f.hospitals, h2.ID); after != before {
		t.Errorf("available beds = %d, want %d", after, before)
	}
}

func TestComplete_RelocatesPatientAndKeepsReservation(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	tr := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}
	if err := f.transfers.Request(ctx, tr); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.transfers.Start(ctx, tr.ID, "dr-jones"); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, err := f.transfers.Complete(ctx, tr.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.ApprovedBy != "dr-jones" {
		t.Errorf("approved_by = %q, want dr-jones", got.ApprovedBy)
	}
	if got.ApprovedAt == nil || got.CompletedAt == nil {
		t.Error("approved_at and completed_at must be stamped")
	}

	moved, err := f.patients.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if moved.HospitalID != h2.ID {
		t.Errorf("patient hospital = %d, want %d", moved.HospitalID, h2.ID)
	}

	// The reservation became occupancy; nothing is released.
	if got := availableBeds(t, f.hospitals, h2.ID); got != 4 {
		t.Errorf("destination available beds = %d, want 4", got)
	}
}

func TestTransitions_Illegal(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	tr := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}
	if err := f.transfers.Request(ctx, tr); err != nil {
		t.Fatalf("request: %v", err)
	}

	// Completing a PENDING transfer skips IN_PROGRESS.
	if _, err := f.transfers.Complete(ctx, tr.ID); !apperr.IsKind(err, apperr.KindState) {
		t.Errorf("complete from PENDING: got %v, want state error", err)
	}

	if _, err := f.transfers.Cancel(ctx, tr.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Terminal transfers admit no further transitions.
	if _, err := f.transfers.Start(ctx, tr.ID, ""); !apperr.IsKind(err, apperr.KindState) {
		t.Errorf("start after cancel: got %v, want state error", err)
	}
	if _, err := f.transfers.Cancel(ctx, tr.ID); !apperr.IsKind(err, apperr.KindState) {
		t.Errorf("second cancel: got %v, want state error", err)
	}
	if _, err := f.transfers.Complete(ctx, tr.ID); !apperr.IsKind(err, apperr.KindState) {
		t.Errorf("complete after cancel: got %v, want state error", err)
	}

	// Exactly one release happened.
	if got := availableBeds(t, f.hospitals, h2.ID); got != 5 {
		t.Errorf("available beds = %d, want 5", got)
	}
}

// Request must execute its reserve-then-create sequence through the
// configured atomic runner, and a runner that fails before running it must
// leave no reservation behind.
func TestRequest_UsesTxRunner(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	var calls int
	f.transfers.WithTxRunner(func(ctx context.Context, fn func(ctx context.Context) error) error {
		calls++
		return fn(ctx)
	})

	tr := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}
	if err := f.transfers.Request(ctx, tr); err != nil {
		t.Fatalf("request: %v", err)
	}
	if calls != 1 {
		t.Errorf("runner calls = %d, want 1", calls)
	}
	if got := availableBeds(t, f.hospitals, h2.ID); got != 4 {
		t.Errorf("available beds = %d, want 4", got)
	}

	boom := errors.New("begin failed")
	f.transfers.WithTxRunner(func(context.Context, func(ctx context.Context) error) error {
		return boom
	})
	if err := f.transfers.Request(ctx, &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}); !errors.Is(err, boom) {
		t.Fatalf("got %v, want runner error", err)
	}
	if got := availableBeds(t, f.hospitals, h2.ID); got != 4 {
		t.Errorf("available beds after failed runner = %d, want 4", got)
	}
}

// Racing cancellations of the same transfer must produce exactly one winner
// and exactly one bed release.
func TestCancel_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	tr := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}
	if err := f.transfers.Request(ctx, tr); err != nil {
		t.Fatalf("request: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.transfers.Cancel(ctx, tr.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, stateErrs int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperr.IsKind(err, apperr.KindState):
			stateErrs++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want 1", wins)
	}
	if stateErrs != workers-1 {
		t.Errorf("state errors = %d, want %d", stateErrs, workers-1)
	}
	if got := availableBeds(t, f.hospitals, h2.ID); got != 5 {
		t.Errorf("available beds = %d, want 5", got)
	}
}

func TestList_FiltersAndListByPatient(t *testing.T) {
	ctx := context.Background()
	f, h1, h2, p := newFixture(t)

	first := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID}
	if err := f.transfers.Request(ctx, first); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.transfers.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	second := &Transfer{PatientID: p.ID, FromHospitalID: h1.ID, ToHospitalID: h2.ID, Priority: patient.TriageCritical}
	if err := f.transfers.Request(ctx, second); err != nil {
		t.Fatalf("request: %v", err)
	}

	pending, total, err := f.transfers.List(ctx, ListFilter{Status: StatusPending}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending filter: total=%d len=%d", total, len(pending))
	}

	byHospital, total, err := f.transfers.List(ctx, ListFilter{HospitalID: h2.ID}, 20, 0)
	if err != nil {
		t.Fatalf("list by hospital: %v", err)
	}
	if total != 2 || len(byHospital) != 2 {
		t.Errorf("hospital filter: total=%d len=%d", total, len(byHospital))
	}

	history, err := f.transfers.ListByPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("list by patient: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("patient history length = %d, want 2", len(history))
	}
}
