package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, name, service, city, lat, lon, phone, email, external_id, source, status, created_at, updated_at`

// Insert stores a NEW lead. The (source, external_id) unique index carries
// the dedup guarantee: the same external record never produces two leads.
func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) (bool, error) {
	query := `
		INSERT INTO leads (id, name, service, city, lat, lon, phone, email, external_id, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (source, external_id) DO NOTHING
	`

	res, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Service,
		lead.City,
		lead.Lat,
		lead.Lon,
		lead.Phone,
		lead.Email,
		lead.ExternalID,
		lead.Source,
		lead.Status,
		lead.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return lead, err
}

// TransitionStatus is the serialization point for dispatch: the row update
// applies only when the current status matches one of the expected
// pre-states, so concurrent claims cannot both win.
func (r *LeadRepository) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	query := `
		UPDATE leads
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	res, err := r.DB.ExecContext(ctx, query, to, id, pq.Array(from))
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *LeadRepository) FindDispatchable(ctx context.Context, service string, limit int) ([]entity.Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE service = $1 AND status = ANY($2)
		ORDER BY created_at
		LIMIT $3
	`

	statuses := []string{entity.LeadStatusNew, entity.LeadStatusDispatchFailed}

	rows, err := r.DB.QueryContext(ctx, query, service, pq.Array(statuses), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *LeadRepository) List(ctx context.Context, limit int) ([]entity.Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *LeadRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// ReleaseStale returns leads abandoned mid-claim to NEW. MATCHING is always
// safely retryable, so this only ever widens the dispatchable set.
func (r *LeadRepository) ReleaseStale(ctx context.Context, window time.Duration) (int, error) {
	query := `
		UPDATE leads
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < NOW() - ($3 * INTERVAL '1 second')
	`

	res, err := r.DB.ExecContext(ctx, query,
		entity.LeadStatusNew,
		entity.LeadStatusMatching,
		int64(window.Seconds()),
	)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var l entity.Lead

	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Service,
		&l.City,
		&l.Lat,
		&l.Lon,
		&l.Phone,
		&l.Email,
		&l.ExternalID,
		&l.Source,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func collectLeads(rows *sql.Rows) ([]entity.Lead, error) {
	var leads []entity.Lead

	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}

	return leads, rows.Err()
}
