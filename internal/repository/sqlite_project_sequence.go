package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/gantry/internal/db"
)

const (
	// Seeds the counter past any task numbers already present, e.g. after
	// an import that numbered tasks itself.
	seqSeedSQL = `INSERT OR IGNORE INTO project_sequences (project_id, next_seq)
		SELECT ?, COALESCE(MAX(seq), 0) + 1 FROM tasks WHERE project_id = ?`
	seqTakeSQL = `UPDATE project_sequences SET next_seq = next_seq + 1
		WHERE project_id = ? RETURNING next_seq - 1`
)

// SQLiteProjectSequenceRepo hands out the task numbers shown as #1, #2, ...
type SQLiteProjectSequenceRepo struct {
	db db.DBTX
}

func NewSQLiteProjectSequenceRepo(conn db.DBTX) *SQLiteProjectSequenceRepo {
	return &SQLiteProjectSequenceRepo{db: conn}
}

// NextProjectSeq takes the next task number for a project. Numbers are never
// reused, even after the task holding one is deleted.
func (r *SQLiteProjectSequenceRepo) NextProjectSeq(ctx context.Context, projectID string) (int, error) {
	if _, err := r.db.ExecContext(ctx, seqSeedSQL, projectID, projectID); err != nil {
		return 0, fmt.Errorf("seed task numbers for project %s: %w", projectID, err)
	}
	var seq int
	if err := r.db.QueryRowContext(ctx, seqTakeSQL, projectID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("take task number for project %s: %w", projectID, err)
	}
	return seq, nil
}
