package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
)

const lessonCols = `l.id, l.idx, l.date, s.id, s.name, s.is_active`

const lessonFrom = ` FROM lessons l JOIN subjects s ON s.id = l.subject_id`

func scanLesson(row rowScanner) (models.Lesson, error) {
	var l models.Lesson
	err := row.Scan(&l.ID, &l.Index, &l.Date, &l.Subject.ID, &l.Subject.Name, &l.Subject.IsActive)
	return l, err
}

func (s *Store) lessonWhere(ctx context.Context, cond string, args ...any) (*models.Lesson, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	l, err := scanLesson(s.db.QueryRowContext(ctx, `SELECT `+lessonCols+lessonFrom+` WHERE `+cond, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select lesson: %w", err)
	}
	return &l, nil
}

func (s *Store) LessonByID(ctx context.Context, id int64) (*models.Lesson, error) {
	return s.lessonWhere(ctx, `l.id = $1`, id)
}

func (s *Store) LessonAt(ctx context.Context, date time.Time, index int) (*models.Lesson, error) {
	return s.lessonWhere(ctx, `l.date = $1 AND l.idx = $2`, models.Day(date), index)
}

func (s *Store) ListLessons(ctx context.Context, date time.Time) ([]models.Lesson, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+lessonCols+lessonFrom+` WHERE l.date = $1 ORDER BY l.idx`, models.Day(date))
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var out []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpsertLesson: пара на (date, index) одна; повторное добавление заменяет дисциплину.
func (s *Store) UpsertLesson(ctx context.Context, subjectID int64, index int, date time.Time) (*models.Lesson, error) {
	if index < models.MinLessonIndex || index > models.MaxLessonIndex {
		return nil, fmt.Errorf("lesson index %d out of range", index)
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO lessons (subject_id, idx, date) VALUES ($1, $2, $3)
		ON CONFLICT (date, idx) DO UPDATE SET subject_id = EXCLUDED.subject_id
		RETURNING id
	`, subjectID, index, models.Day(date)).Scan(&id); err != nil {
		return nil, fmt.Errorf("upsert lesson: %w", err)
	}
	return s.LessonByID(ctx, id)
}
