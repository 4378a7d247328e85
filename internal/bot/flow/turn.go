package flow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/metrics"
	"github.com/Spok95/group-duty-bot/internal/models"
)

// Turn: окружение одного хода: кто пишет, куда отвечать, чем пользоваться.
type Turn struct {
	ChatID   int64
	SenderID int64 // telegram id отправителя

	Store Store
	Out   Messenger
	Log   *zap.Logger

	now    time.Time
	loc    *time.Location
	editID int
}

// Today: календарная дата хода в зоне бота.
func (t *Turn) Today() time.Time { return models.Day(t.now.In(t.loc)) }

func (t *Turn) Location() *time.Location { return t.loc }

// ParseDate разбирает дату из текста пользователя.
func (t *Turn) ParseDate(s string) (time.Time, bool) { return models.ParseDate(s, t.loc) }

// Sender: пользователь, который прислал действие; nil, если не зарегистрирован.
func (t *Turn) Sender(ctx context.Context) (*models.User, error) {
	u, err := t.Store.UserByChannelID(ctx, t.SenderID)
	if err != nil {
		return nil, unavailable("load sender", err)
	}
	return u, nil
}

// Show выводит экран. В ходе, начатом кнопкой, редактирует сообщение с этой кнопкой.
// Ошибки отправки не прерывают ход.
func (t *Turn) Show(ctx context.Context, s Screen) {
	id, err := t.Out.Show(ctx, t.ChatID, t.editID, s)
	if err != nil {
		metrics.HandlerErrors.Inc()
		t.Log.Warn("show screen failed", zap.Error(err))
		return
	}
	if t.editID != 0 {
		t.editID = id
	}
}

func (t *Turn) Say(ctx context.Context, text string) { t.Show(ctx, Screen{Text: text}) }

// SendPhoto отправляет фото отдельным сообщением; дальше экраны идут новыми сообщениями.
func (t *Turn) SendPhoto(ctx context.Context, photo []byte, caption string, rows [][]Button) {
	t.editID = 0
	if err := t.Out.SendPhoto(ctx, t.ChatID, photo, caption, rows); err != nil {
		metrics.HandlerErrors.Inc()
		t.Log.Warn("send photo failed", zap.Error(err))
	}
}

// Notify пишет в другой чат (черговому, в группу).
func (t *Turn) Notify(ctx context.Context, chatID int64, text string) {
	if err := t.Out.Notify(ctx, chatID, text); err != nil {
		metrics.HandlerErrors.Inc()
		t.Log.Warn("notify failed", zap.Int64("to", chatID), zap.Error(err))
	}
}
