package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
)

type SQLiteResourceRepo struct {
	db db.DBTX
}

func NewSQLiteResourceRepo(conn db.DBTX) *SQLiteResourceRepo {
	return &SQLiteResourceRepo{db: conn}
}

func (r *SQLiteResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO resources (id, name, role, manager_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		res.ID, res.Name, string(res.Role), nullableString(res.ManagerID), formatTimestamp(res.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	return nil
}

func (r *SQLiteResourceRepo) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, role, manager_id, created_at FROM resources WHERE id = ?`, id)
	res, err := scanResource(row)
	if err != nil {
		return nil, notFound("resource", id, err)
	}
	return res, nil
}

func (r *SQLiteResourceRepo) List(ctx context.Context) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role, manager_id, created_at FROM resources ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resource row: %w", err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return out, nil
}

func (r *SQLiteResourceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	return checkAffected(res, "resource", id)
}

func scanResource(s scanner) (*domain.Resource, error) {
	var res domain.Resource
	var role, createdAt string
	var manager sql.NullString
	if err := s.Scan(&res.ID, &res.Name, &role, &manager, &createdAt); err != nil {
		return nil, err
	}
	res.Role = domain.ResourceRole(role)
	res.ManagerID = stringPtr(manager)
	var err error
	if res.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	return &res, nil
}
