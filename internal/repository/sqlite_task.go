package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
)

type SQLiteTaskRepo struct {
	db db.DBTX
}

func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

const taskColumns = `id, project_id, parent_id, seq, name, duration_min, start_date, end_date,
	progress, sort_order, margin_start_days, margin_end_days, created_at, updated_at`

// Listing order matches the tree: sort_order, then seq.
const taskOrder = ` ORDER BY sort_order, seq, name`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		nullableString(t.ParentID),
		t.Seq,
		t.Name,
		t.DurationMin,
		nullableDate(t.StartDate),
		nullableDate(t.EndDate),
		t.Progress,
		t.SortOrder,
		t.MarginStartDays,
		t.MarginEndDays,
		formatTimestamp(t.CreatedAt),
		formatTimestamp(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound("task", id, err)
	}
	return t, nil
}

func (r *SQLiteTaskRepo) GetBySeq(ctx context.Context, projectID string, seq int) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? AND seq = ?`, projectID, seq)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound("task", "#"+strconv.Itoa(seq), err)
	}
	return t, nil
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ?`+taskOrder, projectID)
}

func (r *SQLiteTaskRepo) ListChildren(ctx context.Context, parentID string) ([]domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE parent_id = ?`+taskOrder, parentID)
}

func (r *SQLiteTaskRepo) list(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET parent_id = ?, name = ?, duration_min = ?, start_date = ?, end_date = ?,
		progress = ?, sort_order = ?, margin_start_days = ?, margin_end_days = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(t.ParentID),
		t.Name,
		t.DurationMin,
		nullableDate(t.StartDate),
		nullableDate(t.EndDate),
		t.Progress,
		t.SortOrder,
		t.MarginStartDays,
		t.MarginEndDays,
		formatTimestamp(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return checkAffected(res, "task", t.ID)
}

func (r *SQLiteTaskRepo) UpdateDates(ctx context.Context, id string, start, end *time.Time, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		nullableDate(start), nullableDate(end), formatTimestamp(updatedAt), id)
	if err != nil {
		return fmt.Errorf("updating task dates: %w", err)
	}
	return checkAffected(res, "task", id)
}

// Delete removes the task together with its subtasks, links and allocations.
func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return checkAffected(res, "task", id)
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var parentID, start, end sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&t.ID, &t.ProjectID, &parentID, &t.Seq, &t.Name, &t.DurationMin,
		&start, &end, &t.Progress, &t.SortOrder, &t.MarginStartDays, &t.MarginEndDays,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ParentID = stringPtr(parentID)
	t.StartDate = parseNullableDate(start)
	t.EndDate = parseNullableDate(end)

	if t.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
