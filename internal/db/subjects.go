package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
)

func (s *Store) ListSubjects(ctx context.Context, activeOnly bool) ([]models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_active FROM subjects
		WHERE is_active OR NOT $1
		ORDER BY name, id
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		var sub models.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.IsActive); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) SubjectByID(ctx context.Context, id int64) (*models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var sub models.Subject
	err := s.db.QueryRowContext(ctx, `SELECT id, name, is_active FROM subjects WHERE id = $1`, id).
		Scan(&sub.ID, &sub.Name, &sub.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select subject: %w", err)
	}
	return &sub, nil
}

func (s *Store) CreateSubject(ctx context.Context, name string) (*models.Subject, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	sub := models.Subject{Name: name, IsActive: true}
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO subjects (name, is_active) VALUES ($1, TRUE) RETURNING id
	`, name).Scan(&sub.ID); err != nil {
		return nil, fmt.Errorf("insert subject: %w", err)
	}
	return &sub, nil
}

func (s *Store) SetSubjectActive(ctx context.Context, id int64, active bool) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `UPDATE subjects SET is_active = $1 WHERE id = $2`, active, id)
	return err
}

func (s *Store) RenameSubject(ctx context.Context, id int64, name string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `UPDATE subjects SET name = $1 WHERE id = $2`, name, id)
	return err
}
