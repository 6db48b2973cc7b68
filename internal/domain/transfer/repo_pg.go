package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcare/medcare/internal/platform/apperr"
	"github.com/medcare/medcare/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Conn {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const transferCols = `id, patient_id, from_hospital_id, to_hospital_id, transfer_reason,
	priority, transfer_status, requested_by, COALESCE(approved_by, ''), requested_at,
	approved_at, completed_at, updated_at, notes`

func scanTransfer(row pgx.Row) (*Transfer, error) {
	var t Transfer
	err := row.Scan(&t.ID, &t.PatientID, &t.FromHospitalID, &t.ToHospitalID, &t.Reason,
		&t.Priority, &t.Status, &t.RequestedBy, &t.ApprovedBy, &t.RequestedAt,
		&t.ApprovedAt, &t.CompletedAt, &t.UpdatedAt, &t.Notes)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Transfer) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO transfers (patient_id, from_hospital_id, to_hospital_id, transfer_reason,
			priority, transfer_status, requested_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, requested_at, updated_at`,
		t.PatientID, t.FromHospitalID, t.ToHospitalID, t.Reason,
		string(t.Priority), string(t.Status), t.RequestedBy, t.Notes)
	if err := row.Scan(&t.ID, &t.RequestedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Transfer, error) {
	t, err := scanTransfer(r.conn(ctx).QueryRow(ctx,
		`SELECT `+transferCols+` FROM transfers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("transfer %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer %d: %w", id, err)
	}
	return t, nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Transfer, int, error) {
	where := ` WHERE ($1 = '' OR transfer_status = $1)
		AND ($2 = 0 OR from_hospital_id = $2 OR to_hospital_id = $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transfers`+where, string(filter.Status), filter.HospitalID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	q := `SELECT ` + transferCols + ` FROM transfers` + where + ` ORDER BY requested_at DESC, id DESC`
	args := []interface{}{string(filter.Status), filter.HospitalID}
	if limit > 0 {
		q += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var items []*Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transfer: %w", err)
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Transfer, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+transferCols+` FROM transfers WHERE patient_id = $1 ORDER BY requested_at DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, fmt.Errorf("list transfers for patient %d: %w", patientID, err)
	}
	defer rows.Close()

	var items []*Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Transition uses a conditional update restricted to the states the machine
// allows as sources for the target, so concurrent transitions on the same
// transfer serialize inside the database with exactly one winner.
func (r *repoPG) Transition(ctx context.Context, id int64, to Status, actor string) (*Transfer, error) {
	sources := TransitionSources(to)
	if len(sources) == 0 {
		return nil, apperr.Statef("no transition leads to %s", to)
	}
	from := make([]string, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	t, err := scanTransfer(r.conn(ctx).QueryRow(ctx, `
		UPDATE transfers SET
			transfer_status = $2,
			approved_by = CASE WHEN $2 = 'IN_PROGRESS' AND $3 <> '' THEN $3 ELSE approved_by END,
			approved_at = CASE WHEN $2 = 'IN_PROGRESS' THEN NOW() ELSE approved_at END,
			completed_at = CASE WHEN $2 = 'COMPLETED' THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1 AND transfer_status = ANY($4)
		RETURNING `+transferCols, id, string(to), actor, from))
	if errors.Is(err, pgx.ErrNoRows) {
		cur, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperr.Statef("transfer %d cannot move from %s to %s", id, cur.Status, to)
	}
	if err != nil {
		return nil, fmt.Errorf("transition transfer %d to %s: %w", id, to, err)
	}
	return t, nil
}

func (r *repoPG) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transfers WHERE transfer_status IN ('PENDING', 'IN_PROGRESS')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active transfers: %w", err)
	}
	return n, nil
}
