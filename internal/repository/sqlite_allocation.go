package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
)

type SQLiteAllocationRepo struct {
	db db.DBTX
}

func NewSQLiteAllocationRepo(conn db.DBTX) *SQLiteAllocationRepo {
	return &SQLiteAllocationRepo{db: conn}
}

const allocationColumns = `a.id, a.task_id, a.resource_id, a.start_date, a.end_date, a.allocated_min, a.created_at`

func (r *SQLiteAllocationRepo) Create(ctx context.Context, a *domain.Allocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO allocations (id, task_id, resource_id, start_date, end_date, allocated_min, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TaskID, a.ResourceID,
		calendar.FormatDate(a.StartDate), calendar.FormatDate(a.EndDate),
		a.AllocatedMin, formatTimestamp(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting allocation: %w", err)
	}
	return nil
}

func (r *SQLiteAllocationRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Allocation, error) {
	return r.list(ctx, `SELECT `+allocationColumns+` FROM allocations a
		JOIN tasks t ON t.id = a.task_id
		WHERE t.project_id = ?
		ORDER BY a.start_date, a.id`, projectID)
}

func (r *SQLiteAllocationRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Allocation, error) {
	return r.list(ctx, `SELECT `+allocationColumns+` FROM allocations a WHERE a.task_id = ? ORDER BY a.start_date, a.id`, taskID)
}

func (r *SQLiteAllocationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting allocation: %w", err)
	}
	return checkAffected(res, "allocation", id)
}

func (r *SQLiteAllocationRepo) list(ctx context.Context, query string, args ...any) ([]domain.Allocation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	defer rows.Close()

	var out []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		var start, end, createdAt string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.ResourceID, &start, &end, &a.AllocatedMin, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning allocation: %w", err)
		}
		if a.StartDate, err = calendar.ParseDate(start); err != nil {
			return nil, fmt.Errorf("parsing allocation start: %w", err)
		}
		if a.EndDate, err = calendar.ParseDate(end); err != nil {
			return nil, fmt.Errorf("parsing allocation end: %w", err)
		}
		if a.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocations: %w", err)
	}
	return out, nil
}
