package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate brings the schema up to date. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migratePredecessorLinkTypes(db); err != nil {
		return fmt.Errorf("migrating predecessors link types: %w", err)
	}
	if err := migrateBackfillTaskSeq(db); err != nil {
		return fmt.Errorf("backfilling task seq values: %w", err)
	}
	if err := migrateBackfillProjectSequences(db); err != nil {
		return fmt.Errorf("backfilling project sequence allocator state: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		short_id   TEXT NOT NULL DEFAULT '',
		name       TEXT NOT NULL,
		start_date TEXT,
		status     TEXT NOT NULL DEFAULT 'active'
		           CHECK(status IN ('active','archived')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_short_id ON projects(short_id) WHERE short_id != ''`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		parent_id    TEXT REFERENCES tasks(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL DEFAULT 0,
		name         TEXT NOT NULL,
		duration_min INTEGER NOT NULL DEFAULT 0 CHECK(duration_min >= 0),
		start_date   TEXT,
		end_date     TEXT,
		progress     INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
		sort_order   INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id)`,

	`CREATE TABLE IF NOT EXISTS predecessors (
		task_id        TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		predecessor_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		type           TEXT NOT NULL DEFAULT 'FS' CHECK(type IN ('FS','SS','FF','SF')),
		lag_days       INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		PRIMARY KEY (task_id, predecessor_id),
		CHECK(task_id != predecessor_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predecessors_predecessor ON predecessors(predecessor_id)`,

	`CREATE TABLE IF NOT EXISTS resources (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'operator'
		           CHECK(role IN ('manager','leader','operator')),
		manager_id TEXT REFERENCES resources(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS allocations (
		id            TEXT PRIMARY KEY,
		task_id       TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		resource_id   TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		start_date    TEXT NOT NULL,
		end_date      TEXT NOT NULL,
		allocated_min INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		CHECK(end_date >= start_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_task ON allocations(task_id)`,

	`CREATE TABLE IF NOT EXISTS project_sequences (
		project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		next_seq   INTEGER NOT NULL CHECK(next_seq > 0)
	)`,

	// Parent margins arrived after the first schema.
	`ALTER TABLE tasks ADD COLUMN margin_start_days INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE tasks ADD COLUMN margin_end_days INTEGER NOT NULL DEFAULT 0`,
}

// migratePredecessorLinkTypes rebuilds a predecessors table created when only
// finish-to-start links existed. SQLite cannot alter a CHECK constraint in place.
func migratePredecessorLinkTypes(db *sql.DB) error {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring db connection: %w", err)
	}
	defer conn.Close()

	var createSQL string
	if err := conn.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'predecessors'`).Scan(&createSQL); err != nil {
		return fmt.Errorf("loading predecessors schema: %w", err)
	}
	if strings.Contains(createSQL, "'SF'") {
		return nil
	}

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`)
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	steps := []struct {
		what string
		stmt string
	}{
		{"dropping stale predecessors_new", `DROP TABLE IF EXISTS predecessors_new`},
		{"creating predecessors_new", `CREATE TABLE predecessors_new (
			task_id        TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			predecessor_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			type           TEXT NOT NULL DEFAULT 'FS' CHECK(type IN ('FS','SS','FF','SF')),
			lag_days       INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL,
			PRIMARY KEY (task_id, predecessor_id),
			CHECK(task_id != predecessor_id)
		)`},
		{"copying predecessors", `INSERT INTO predecessors_new (task_id, predecessor_id, type, lag_days, created_at)
			SELECT task_id, predecessor_id, type, lag_days, created_at FROM predecessors
			WHERE task_id != predecessor_id`},
		{"dropping old predecessors", `DROP TABLE predecessors`},
		{"renaming predecessors_new", `ALTER TABLE predecessors_new RENAME TO predecessors`},
		{"recreating predecessor index", `CREATE INDEX IF NOT EXISTS idx_predecessors_predecessor ON predecessors(predecessor_id)`},
	}
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx, s.stmt); err != nil {
			return fmt.Errorf("%s: %w", s.what, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing predecessors migration: %w", err)
	}
	committed = true
	return nil
}

// migrateBackfillTaskSeq numbers tasks imported before seq existed (seq = 0),
// continuing after the highest seq already used in each project. Order is
// sort_order then created_at, so the numbering follows the tree listing.
func migrateBackfillTaskSeq(db *sql.DB) error {
	ctx := context.Background()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE seq = 0`).Scan(&count); err != nil {
		return fmt.Errorf("checking task seq: %w", err)
	}
	if count == 0 {
		return nil
	}

	rows, err := db.QueryContext(ctx, `SELECT DISTINCT project_id FROM tasks WHERE seq = 0 ORDER BY project_id`)
	if err != nil {
		return fmt.Errorf("listing projects for seq backfill: %w", err)
	}
	var projectIDs []string
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return fmt.Errorf("scanning project id: %w", err)
		}
		projectIDs = append(projectIDs, pid)
	}
	rows.Close()

	for _, pid := range projectIDs {
		if err := backfillProjectTaskSeq(ctx, db, pid); err != nil {
			return fmt.Errorf("backfilling seq for project %s: %w", pid, err)
		}
	}
	return nil
}

func backfillProjectTaskSeq(ctx context.Context, db *sql.DB, projectID string) error {
	var maxSeq int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM tasks WHERE project_id = ?`, projectID).Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading max seq: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id FROM tasks WHERE project_id = ? AND seq = 0 ORDER BY sort_order, created_at, id`, projectID)
	if err != nil {
		return fmt.Errorf("listing unnumbered tasks: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for i, id := range ids {
		if _, err := db.ExecContext(ctx,
			`UPDATE tasks SET seq = ? WHERE id = ? AND seq = 0`, maxSeq+i+1, id); err != nil {
			return fmt.Errorf("updating task seq: %w", err)
		}
	}
	return nil
}

func migrateBackfillProjectSequences(db *sql.DB) error {
	ctx := context.Background()

	// Raise next_seq for every project past the highest seq its tasks use.
	query := `INSERT INTO project_sequences (project_id, next_seq)
		SELECT p.id, COALESCE(MAX(t.seq), 0) + 1
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id AND t.seq > 0
		GROUP BY p.id
		ON CONFLICT(project_id) DO UPDATE
		SET next_seq = MAX(project_sequences.next_seq, excluded.next_seq)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("upserting project sequence rows: %w", err)
	}
	return nil
}
