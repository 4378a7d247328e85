package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
	"github.com/Spok95/group-duty-bot/internal/rotation"
)

func (s *Store) dutyWhere(ctx context.Context, cond string, arg any) (*models.Duty, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var d models.Duty
	err := s.db.QueryRowContext(ctx, `SELECT id, date, status FROM duties WHERE `+cond, arg).
		Scan(&d.ID, &d.Date, &d.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select duty: %w", err)
	}
	return &d, nil
}

func (s *Store) DutyByID(ctx context.Context, id int64) (*models.Duty, error) {
	return s.dutyWhere(ctx, `id = $1`, id)
}

func (s *Store) DutyByDate(ctx context.Context, date time.Time) (*models.Duty, error) {
	return s.dutyWhere(ctx, `date = $1`, models.Day(date))
}

func (s *Store) CreateDutyIfAbsent(ctx context.Context, date time.Time) (*models.Duty, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO duties (date, status) VALUES ($1, 'undone')
		ON CONFLICT (date) DO NOTHING
	`, models.Day(date)); err != nil {
		return nil, fmt.Errorf("insert duty: %w", err)
	}
	return s.DutyByDate(ctx, date)
}

func (s *Store) SetDutyStatus(ctx context.Context, dutyID int64, status models.DutyStatus) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `UPDATE duties SET status = $1 WHERE id = $2`, string(status), dutyID)
	return err
}

// Assign идемпотентен: повторное назначение ничего не меняет.
func (s *Store) Assign(ctx context.Context, dutyID, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO duty_assignments (duty_id, user_id) VALUES ($1, $2)
		ON CONFLICT (duty_id, user_id) DO NOTHING
	`, dutyID, userID)
	return err
}

func (s *Store) Unassign(ctx context.Context, dutyID, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM duty_assignments WHERE duty_id = $1 AND user_id = $2`, dutyID, userID)
	return err
}

func (s *Store) ListDutiers(ctx context.Context, dutyID int64) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userCols+`
		FROM users u JOIN duty_assignments da ON da.user_id = u.id
		WHERE da.duty_id = $1
		ORDER BY u.surname, u.id
	`, dutyID)
	if err != nil {
		return nil, fmt.Errorf("list dutiers: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DutyRotationCandidates: черговые, отмеченные present на паре с наибольшим номером за день,
// с датой последнего выполненного чергування. Нет пар в этот день: пустой список.
func (s *Store) DutyRotationCandidates(ctx context.Context, date time.Time) ([]rotation.Candidate, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		WITH last_lesson AS (
			SELECT id FROM lessons WHERE date = $1 ORDER BY idx DESC LIMIT 1
		)
		SELECT `+userCols+`,
			(SELECT max(d.date)
			   FROM duties d JOIN duty_assignments da ON da.duty_id = d.id
			  WHERE da.user_id = u.id AND d.status = 'done') AS last_done
		FROM users u
		JOIN user_roles dr ON dr.user_id = u.id AND dr.role = 'dutier'
		JOIN attendance a ON a.user_id = u.id AND a.status = 'present'
		JOIN last_lesson ll ON ll.id = a.lesson_id
		ORDER BY last_done ASC NULLS FIRST, u.surname, u.id
	`, models.Day(date))
	if err != nil {
		return nil, fmt.Errorf("duty rotation: %w", err)
	}
	defer rows.Close()

	var out []rotation.Candidate
	for rows.Next() {
		var last sql.NullTime
		u, err := scanUser(rows, &last)
		if err != nil {
			return nil, err
		}
		c := rotation.Candidate{User: u}
		if last.Valid {
			t := last.Time
			c.LastDone = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
