package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

type AssignmentRepository struct {
	DB *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

const assignmentColumns = `id, lead_id, worker_id, distance_km, outreach_status, assigned_at, updated_at`

// CreateAndAssign writes the assignment row and moves the lead from MATCHING
// to ASSIGNED in one transaction. If the lead is no longer in MATCHING the
// whole write rolls back: never an ASSIGNED lead without an assignment row,
// never an assignment row without the ASSIGNED transition.
func (r *AssignmentRepository) CreateAndAssign(ctx context.Context, a *entity.Assignment) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO assignments (id, lead_id, worker_id, distance_km, outreach_status, assigned_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err = tx.ExecContext(ctx, insert,
		a.ID,
		a.LeadID,
		a.WorkerID,
		a.DistanceKM,
		a.OutreachStatus,
		a.AssignedAt,
	)
	if err != nil {
		return err
	}

	update := `
		UPDATE leads
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	res, err := tx.ExecContext(ctx, update,
		entity.LeadStatusAssigned,
		a.LeadID,
		entity.LeadStatusMatching,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("lead %s is not in MATCHING, assignment rolled back", a.LeadID)
	}

	return tx.Commit()
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*entity.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	a, err := scanAssignment(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AssignmentRepository) FindCurrentByLeadID(ctx context.Context, leadID string) (*entity.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE lead_id = $1
		ORDER BY assigned_at DESC
		LIMIT 1
	`

	a, err := scanAssignment(r.DB.QueryRowContext(ctx, query, leadID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AssignmentRepository) UpdateOutreachStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE assignments SET outreach_status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
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

func (r *AssignmentRepository) CountByOutreachStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT outreach_status, COUNT(*) FROM assignments GROUP BY outreach_status`)
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

func scanAssignment(row rowScanner) (*entity.Assignment, error) {
	var a entity.Assignment

	err := row.Scan(
		&a.ID,
		&a.LeadID,
		&a.WorkerID,
		&a.DistanceKM,
		&a.OutreachStatus,
		&a.AssignedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
