package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const patientCols = `id, mrn, first_name, last_name, date_of_birth, gender, phone,
	blood_type, allergies, COALESCE(triage_level, ''), hospital_id, admission_date, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Phone,
		&p.BloodType, &p.Allergies, &p.TriageLevel, &p.HospitalID, &p.AdmissionDate, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (mrn, first_name, last_name, date_of_birth, gender, phone,
			blood_type, allergies, triage_level, hospital_id, admission_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,COALESCE($11, NOW()))
		RETURNING id, admission_date, created_at, updated_at`,
		p.MRN, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone,
		p.BloodType, p.Allergies, string(p.TriageLevel), p.HospitalID, nullableTime(p))
	if err := row.Scan(&p.ID, &p.AdmissionDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflictf("patient with MRN %q already exists", p.MRN)
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func nullableTime(p *Patient) interface{} {
	if p.AdmissionDate.IsZero() {
		return nil
	}
	return p.AdmissionDate
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("patient %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return p, nil
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE mrn = $1`, mrn))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("patient with MRN %q not found", mrn)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient by mrn %q: %w", mrn, err)
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE ($1 = 0 OR hospital_id = $1) AND ($2 = '' OR triage_level = $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients`+where, filter.HospitalID, string(filter.TriageLevel)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	q := `SELECT ` + patientCols + ` FROM patients` + where + ` ORDER BY admission_date, id`
	args := []interface{}{filter.HospitalID, string(filter.TriageLevel)}
	if limit > 0 {
		q += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) UpdateHospital(ctx context.Context, id, hospitalID int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET hospital_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+patientCols, id, hospitalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("patient %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update patient %d hospital: %w", id, err)
	}
	return p, nil
}

func (r *repoPG) UpdateTriage(ctx context.Context, id int64, level TriageLevel) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET triage_level = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+patientCols, id, string(level)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("patient %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update patient %d triage: %w", id, err)
	}
	return p, nil
}

func (r *repoPG) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (r *repoPG) CountByTriage(ctx context.Context) (map[TriageLevel]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT triage_level, COUNT(*) FROM patients
		WHERE triage_level IS NOT NULL
		GROUP BY triage_level`)
	if err != nil {
		return nil, fmt.Errorf("count patients by triage: %w", err)
	}
	defer rows.Close()

	counts := make(map[TriageLevel]int)
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("scan triage count: %w", err)
		}
		counts[TriageLevel(level)] = n
	}
	return counts, rows.Err()
}
