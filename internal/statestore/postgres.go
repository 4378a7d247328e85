package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
)

// Postgres: таблица conversation_states (payload JSONB).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(database *sql.DB) *Postgres { return &Postgres{db: database} }

func (s *Postgres) Load(ctx context.Context, chatID int64) ([]byte, bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM conversation_states WHERE chat_id = $1`, chatID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load state: %w", err)
	}
	return payload, true, nil
}

func (s *Postgres) Save(ctx context.Context, chatID int64, payload []byte) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_states (chat_id, payload, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (chat_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, chatID, string(payload))
	return err
}

func (s *Postgres) Delete(ctx context.Context, chatID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_states WHERE chat_id = $1`, chatID)
	return err
}

// Prune удаляет состояния, не менявшиеся дольше ttl. Следующий ход такого чата начнётся с главной.
// ttl <= 0 означает бессрочное хранение: ничего не удаляется.
func (s *Postgres) Prune(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM conversation_states WHERE updated_at < $1`, time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
