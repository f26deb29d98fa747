package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

type WorkerRepository struct {
	DB *sql.DB
}

func NewWorkerRepository(db *sql.DB) *WorkerRepository {
	return &WorkerRepository{DB: db}
}

const workerColumns = `id, name, skills, phone, email, lat, lon, active, created_at, updated_at`

// Upsert inserts a worker or fully replaces the stored record (re-import is
// replace, not merge). Identity is the id; a phone collision re-targets the
// existing row owning that phone.
func (r *WorkerRepository) Upsert(ctx context.Context, w *entity.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO workers (id, name, skills, phone, email, lat, lon, active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			skills = EXCLUDED.skills,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	_, err := r.DB.ExecContext(ctx, query,
		w.ID,
		w.Name,
		pq.Array(w.Skills),
		w.Phone,
		w.Email,
		w.Lat,
		w.Lon,
		w.Active,
		w.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		// Same phone, different id: the phone owns the identity.
		return r.replaceByPhone(ctx, w)
	}

	return err
}

func (r *WorkerRepository) replaceByPhone(ctx context.Context, w *entity.Worker) error {
	query := `
		UPDATE workers SET
			name = $2,
			skills = $3,
			email = $4,
			lat = $5,
			lon = $6,
			active = $7,
			updated_at = NOW()
		WHERE phone = $1
		RETURNING id
	`

	return r.DB.QueryRowContext(ctx, query,
		w.Phone,
		w.Name,
		pq.Array(w.Skills),
		w.Email,
		w.Lat,
		w.Lon,
		w.Active,
	).Scan(&w.ID)
}

func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*entity.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = $1`

	w, err := scanWorker(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

func (r *WorkerRepository) FindCandidates(ctx context.Context, service string) ([]entity.Worker, error) {
	query := `
		SELECT ` + workerColumns + `
		FROM workers
		WHERE active = TRUE AND $1 = ANY(skills)
	`

	rows, err := r.DB.QueryContext(ctx, query, service)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWorkers(rows)
}

func (r *WorkerRepository) CountBySkill(ctx context.Context, service string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workers WHERE $1 = ANY(skills)`, service,
	).Scan(&count)
	return count, err
}

func (r *WorkerRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workers WHERE active = TRUE`,
	).Scan(&count)
	return count, err
}

func (r *WorkerRepository) List(ctx context.Context, limit int) ([]entity.Worker, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + workerColumns + ` FROM workers ORDER BY created_at DESC LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWorkers(rows)
}

// SetActive deactivates or reactivates a worker. Workers are never deleted.
func (r *WorkerRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE workers SET active = $2, updated_at = NOW() WHERE id = $1`, id, active,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorker(row rowScanner) (*entity.Worker, error) {
	var w entity.Worker
	var phone sql.NullString

	err := row.Scan(
		&w.ID,
		&w.Name,
		pq.Array(&w.Skills),
		&phone,
		&w.Email,
		&w.Lat,
		&w.Lon,
		&w.Active,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Phone = phone.String
	return &w, nil
}

func collectWorkers(rows *sql.Rows) ([]entity.Worker, error) {
	var workers []entity.Worker

	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, *w)
	}

	return workers, rows.Err()
}
