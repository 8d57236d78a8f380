package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
)

type SQLitePredecessorRepo struct {
	db db.DBTX
}

func NewSQLitePredecessorRepo(conn db.DBTX) *SQLitePredecessorRepo {
	return &SQLitePredecessorRepo{db: conn}
}

const predecessorColumns = `p.task_id, p.predecessor_id, p.type, p.lag_days, p.created_at`

// Create inserts a link, or replaces the type and lag of an existing link
// between the same two tasks.
func (r *SQLitePredecessorRepo) Create(ctx context.Context, p *domain.Predecessor) error {
	query := `INSERT INTO predecessors (task_id, predecessor_id, type, lag_days, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id, predecessor_id) DO UPDATE SET type = excluded.type, lag_days = excluded.lag_days`
	_, err := r.db.ExecContext(ctx, query,
		p.TaskID, p.PredecessorID, string(p.Type), p.LagDays, formatTimestamp(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting predecessor link: %w", err)
	}
	return nil
}

func (r *SQLitePredecessorRepo) Delete(ctx context.Context, taskID, predecessorID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM predecessors WHERE task_id = ? AND predecessor_id = ?`, taskID, predecessorID)
	if err != nil {
		return fmt.Errorf("deleting predecessor link: %w", err)
	}
	return checkAffected(res, "predecessor link", taskID+"<-"+predecessorID)
}

func (r *SQLitePredecessorRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Predecessor, error) {
	query := `SELECT ` + predecessorColumns + ` FROM predecessors p
		JOIN tasks t ON t.id = p.task_id
		WHERE t.project_id = ?
		ORDER BY p.created_at, p.task_id, p.predecessor_id`
	return r.list(ctx, query, projectID)
}

func (r *SQLitePredecessorRepo) ListForTask(ctx context.Context, taskID string) ([]domain.Predecessor, error) {
	query := `SELECT ` + predecessorColumns + ` FROM predecessors p WHERE p.task_id = ? ORDER BY p.created_at, p.predecessor_id`
	return r.list(ctx, query, taskID)
}

func (r *SQLitePredecessorRepo) ListSuccessors(ctx context.Context, predecessorID string) ([]domain.Predecessor, error) {
	query := `SELECT ` + predecessorColumns + ` FROM predecessors p WHERE p.predecessor_id = ? ORDER BY p.created_at, p.task_id`
	return r.list(ctx, query, predecessorID)
}

func (r *SQLitePredecessorRepo) list(ctx context.Context, query string, args ...any) ([]domain.Predecessor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing predecessor links: %w", err)
	}
	defer rows.Close()

	var links []domain.Predecessor
	for rows.Next() {
		var p domain.Predecessor
		var typ, createdAt string
		if err := rows.Scan(&p.TaskID, &p.PredecessorID, &typ, &p.LagDays, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning predecessor link: %w", err)
		}
		p.Type = domain.LinkType(typ)
		if p.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		links = append(links, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating predecessor links: %w", err)
	}
	return links, nil
}
