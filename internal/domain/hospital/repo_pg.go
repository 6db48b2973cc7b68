package hospital

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

const hospitalCols = `id, name, address, city, state, zip_code, phone, capacity, available_beds, created_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.State, &h.ZipCode, &h.Phone,
		&h.Capacity, &h.AvailableBeds, &h.CreatedAt)
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hospitals (name, address, city, state, zip_code, phone, capacity, available_beds)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`,
		h.Name, h.Address, h.City, h.State, h.ZipCode, h.Phone, h.Capacity, h.AvailableBeds)
	if err := row.Scan(&h.ID, &h.CreatedAt); err != nil {
		return fmt.Errorf("insert hospital: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Hospital, error) {
	h, err := scanHospital(r.conn(ctx).QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("hospital %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get hospital %d: %w", id, err)
	}
	return h, nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Hospital, int, error) {
	where := ` WHERE ($1 = '' OR state = $1) AND ($2 = '' OR city = $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hospitals`+where, filter.State, filter.City).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hospitals: %w", err)
	}

	q := `SELECT ` + hospitalCols + ` FROM hospitals` + where + ` ORDER BY id`
	args := []interface{}{filter.State, filter.City}
	if limit > 0 {
		q += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()

	var items []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan hospital: %w", err)
		}
		items = append(items, h)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Hospital, error) {
	all, _, err := r.List(ctx, ListFilter{}, 0, 0)
	return all, err
}

// ReserveBed uses a conditional decrement so two connections racing for the
// last bed serialize inside the database: exactly one row update wins.
func (r *repoPG) ReserveBed(ctx context.Context, id int64) (*Hospital, error) {
	h, err := scanHospital(r.conn(ctx).QueryRow(ctx, `
		UPDATE hospitals SET available_beds = available_beds - 1
		WHERE id = $1 AND available_beds > 0
		RETURNING `+hospitalCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.Capacityf("hospital %d has no available beds", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reserve bed at hospital %d: %w", id, err)
	}
	return h, nil
}

func (r *repoPG) ReleaseBed(ctx context.Context, id int64) (*Hospital, error) {
	h, err := scanHospital(r.conn(ctx).QueryRow(ctx, `
		UPDATE hospitals SET available_beds = available_beds + 1
		WHERE id = $1 AND available_beds < capacity
		RETURNING `+hospitalCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.Invariantf("hospital %d release would exceed capacity", id)
	}
	if err != nil {
		return nil, fmt.Errorf("release bed at hospital %d: %w", id, err)
	}
	return h, nil
}
