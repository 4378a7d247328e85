package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
)

// InitSentry: пустой DSN выключает отправку; возвращает flush для defer.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureCtx отправляет ошибку с тегами хода: chat_id, turn_id, op.
func CaptureCtx(ctx context.Context, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		if id, ok := ctxutil.ChatID(ctx); ok {
			scope.SetTag("chat_id", strconv.FormatInt(id, 10))
		}
		if id, ok := ctxutil.TurnID(ctx); ok {
			scope.SetTag("turn_id", id)
		}
		if op, ok := ctxutil.Op(ctx); ok {
			scope.SetTag("op", op)
		}
		sentry.CaptureException(err)
	})
}
