package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
)

// Store: доменное хранилище поверх Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

// DB отдаёт пул для health-check'ов и jobs.
func (s *Store) DB() *sql.DB { return s.db }

const userCols = `u.id, u.surname, u.channel_id,
	ARRAY(SELECT r.role FROM user_roles r WHERE r.user_id = u.id ORDER BY r.role)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (models.User, error) {
	var (
		u     models.User
		roles pq.StringArray
	)
	dest := append([]any{&u.ID, &u.Surname, &u.ChannelID, &roles}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.User{}, err
	}
	u.Roles = make(models.Roles, 0, len(roles))
	for _, r := range roles {
		u.Roles = append(u.Roles, models.Role(r))
	}
	return u, nil
}

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users u WHERE `+cond, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.userWhere(ctx, `u.id = $1`, id)
}

func (s *Store) UserByChannelID(ctx context.Context, channelID int64) (*models.User, error) {
	return s.userWhere(ctx, `u.channel_id = $1`, channelID)
}

func (s *Store) ListUsers(ctx context.Context, role *models.Role) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + userCols + ` FROM users u`
	var args []any
	if role != nil {
		q += ` WHERE EXISTS (SELECT 1 FROM user_roles r WHERE r.user_id = u.id AND r.role = $1)`
		args = append(args, string(*role))
	}
	q += ` ORDER BY u.surname, u.id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
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

// CreateUser идемпотентен по channel_id: повторная регистрация возвращает существующего.
func (s *Store) CreateUser(ctx context.Context, surname string, channelID int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (surname, channel_id) VALUES ($1, $2)
		ON CONFLICT (channel_id) DO NOTHING
	`, surname, channelID); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.UserByChannelID(ctx, channelID)
}

func (s *Store) AddRole(ctx context.Context, userID int64, role models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, userID, string(role))
	return err
}

func (s *Store) RemoveRole(ctx context.Context, userID int64, role models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, string(role))
	return err
}

func (s *Store) SetSurname(ctx context.Context, userID int64, surname string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `UPDATE users SET surname = $1 WHERE id = $2`, surname, userID)
	return err
}

// EnsureSuperadmins выдаёт роль superadmin зарегистрированным пользователям из списка telegram id.
// Возвращает число новых выдач.
func (s *Store) EnsureSuperadmins(ctx context.Context, channelIDs []int64) (int64, error) {
	if len(channelIDs) == 0 {
		return 0, nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		SELECT id, 'superadmin' FROM users WHERE channel_id = ANY($1)
		ON CONFLICT (user_id, role) DO NOTHING
	`, pq.Array(channelIDs))
	if err != nil {
		return 0, fmt.Errorf("ensure superadmins: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
