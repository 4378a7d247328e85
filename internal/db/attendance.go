package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
)

func (s *Store) AttendanceOf(ctx context.Context, lessonID, userID int64) (*models.Attendance, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	a := models.Attendance{LessonID: lessonID, UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT status FROM attendance WHERE lesson_id = $1 AND user_id = $2
	`, lessonID, userID).Scan(&a.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select attendance: %w", err)
	}
	return &a, nil
}

// ListAttendance: отметки пары, отсортированные по фамилии студента.
func (s *Store) ListAttendance(ctx context.Context, lessonID int64) ([]models.Attendance, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.user_id, a.lesson_id, a.status
		FROM attendance a JOIN users u ON u.id = a.user_id
		WHERE a.lesson_id = $1
		ORDER BY u.surname, u.id
	`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.UserID, &a.LessonID, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAttendance: upsert по (user, lesson).
func (s *Store) SetAttendance(ctx context.Context, lessonID, userID int64, status models.AttendanceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid attendance status %q", status)
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (user_id, lesson_id, status) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET status = EXCLUDED.status
	`, userID, lessonID, string(status))
	return err
}
