package db

import (
	"context"
	"fmt"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/models"
)

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT channel_id FROM groups ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ChannelID); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) AddGroup(ctx context.Context, channelID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `INSERT INTO groups (channel_id) VALUES ($1) ON CONFLICT (channel_id) DO NOTHING`, channelID)
	return err
}

func (s *Store) RemoveGroup(ctx context.Context, channelID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE channel_id = $1`, channelID)
	return err
}
