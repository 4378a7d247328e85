package ctxutil

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyChatID key = iota
	keyUserID
	keyOpName
	keyTurnID
)

// WithChatID /ChatID: chat id, в котором идёт диалог
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, keyChatID, chatID)
}

func ChatID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(keyChatID).(int64)
	return id, ok
}

// WithUserID /UserID: telegram id отправителя
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(keyUserID).(int64)
	return id, ok
}

// WithOp /Op: имя операции (job, тип апдейта)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(keyOpName).(string)
	return s, ok
}

// WithTurnID помечает один ход диалога новым id; по нему склеиваются логи хода.
func WithTurnID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, keyTurnID, id), id
}

func TurnID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(keyTurnID).(string)
	return s, ok
}

var (
	DefaultDBTimeout = 5 * time.Second
	// DefaultTurnTimeout: верхняя граница одного хода, включая отправку сообщений.
	DefaultTurnTimeout = 30 * time.Second
)

// WithTimeout: обёртка над context.WithTimeout; d <= 0 значит без таймаута.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout: стандартный таймаут для БД, но не дольше оставшегося у родителя.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
