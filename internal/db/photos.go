package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
)

// AddDutyPhoto сохраняет фото и отмечает чергування выполненным в одной транзакции.
// Если фото уже есть, возвращает существующее и added=false.
func (s *Store) AddDutyPhoto(ctx context.Context, dutyID, userID int64, blob []byte) (*models.DutyPhoto, bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	p := models.DutyPhoto{DutyID: dutyID, UserID: userID, Blob: blob}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO duty_photos (duty_id, user_id, blob) VALUES ($1, $2, $3)
		ON CONFLICT (duty_id) DO NOTHING
		RETURNING id
	`, dutyID, userID, blob).Scan(&p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		existing, err := s.DutyPhotoByDuty(ctx, dutyID)
		return existing, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert duty photo: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE duties SET status = 'done' WHERE id = $1`, dutyID); err != nil {
		return nil, false, fmt.Errorf("mark duty done: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Store) photoWhere(ctx context.Context, cond string, arg any) (*models.DutyPhoto, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var p models.DutyPhoto
	err := s.db.QueryRowContext(ctx, `SELECT id, duty_id, user_id, blob FROM duty_photos WHERE `+cond, arg).
		Scan(&p.ID, &p.DutyID, &p.UserID, &p.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select duty photo: %w", err)
	}
	return &p, nil
}

func (s *Store) DutyPhotoByID(ctx context.Context, id int64) (*models.DutyPhoto, error) {
	return s.photoWhere(ctx, `id = $1`, id)
}

func (s *Store) DutyPhotoByDuty(ctx context.Context, dutyID int64) (*models.DutyPhoto, error) {
	return s.photoWhere(ctx, `duty_id = $1`, dutyID)
}
