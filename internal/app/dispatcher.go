package app

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/bot/flow"
	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/metrics"
	"github.com/Spok95/group-duty-bot/internal/observability"
	"github.com/Spok95/group-duty-bot/internal/tg"
)

// TurnHandler: контроллер диалога.
type TurnHandler interface {
	Handle(ctx context.Context, a flow.Action) error
}

// Inbound превращает апдейт в действие; может докачивать файлы.
// Notify нужен, чтобы сообщить о сбое, когда до контроллера дело не дошло.
type Inbound interface {
	Action(ctx context.Context, u tgbotapi.Update) (flow.Action, bool, error)
	Notify(ctx context.Context, chatID int64, text string) error
}

// Groups: список групп для рассылки чергових.
type Groups interface {
	AddGroup(ctx context.Context, channelID int64) error
	RemoveGroup(ctx context.Context, channelID int64) error
}

// Dispatcher разводит апдейты: личные чаты идут в контроллер через очередь чата,
// изменения членства бота в группах сразу пишутся в хранилище.
type Dispatcher struct {
	turns  TurnHandler
	in     Inbound
	groups Groups
	router *Router
	log    *zap.Logger
}

func NewDispatcher(turns TurnHandler, in Inbound, groups Groups, router *Router, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{turns: turns, in: in, groups: groups, router: router, log: log}
}

// Run читает апдейты до отмены ctx или закрытия канала и ждёт начатые ходы.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer d.router.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			d.HandleUpdate(ctx, u)
		}
	}
}

func (d *Dispatcher) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	metrics.BotUpdates.Inc()

	if chatID, joined, ok := tg.GroupChange(u); ok {
		d.groupChanged(ctxutil.WithOp(ctx, "my_chat_member"), chatID, joined)
		return
	}

	chatID, ok := privateChatID(u)
	if !ok {
		return
	}
	d.router.Submit(chatID, func(ctx context.Context) {
		ctx, cancel := ctxutil.WithTimeout(ctx, ctxutil.DefaultTurnTimeout)
		defer cancel()

		a, ok, err := d.in.Action(ctx, u)
		if err != nil {
			metrics.HandlerErrors.Inc()
			d.log.Warn("update skipped", zap.Int64("chat_id", chatID), zap.Error(err))
			observability.CaptureErr(err)
			if err := d.in.Notify(ctx, chatID, flow.FailureNotice); err != nil {
				metrics.HandlerErrors.Inc()
				d.log.Warn("failure notice not sent", zap.Int64("chat_id", chatID), zap.Error(err))
			}
			return
		}
		if !ok {
			return
		}
		// ошибку хода контроллер уже залогировал и показал пользователю
		_ = d.turns.Handle(ctx, a)
	})
}

func (d *Dispatcher) groupChanged(ctx context.Context, chatID int64, joined bool) {
	var err error
	if joined {
		err = d.groups.AddGroup(ctx, chatID)
	} else {
		err = d.groups.RemoveGroup(ctx, chatID)
	}
	if err != nil {
		d.log.Error("group update failed", zap.Int64("chat_id", chatID), zap.Bool("joined", joined), zap.Error(err))
		observability.CaptureCtx(ctx, err)
		return
	}
	d.log.Info("group membership changed", zap.Int64("chat_id", chatID), zap.Bool("joined", joined))
}

// privateChatID: ключ очереди; апдейты не из личных чатов диалогу не нужны.
func privateChatID(u tgbotapi.Update) (int64, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		c := u.CallbackQuery.Message.Chat
		return c.ID, c.IsPrivate()
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID, u.Message.Chat.IsPrivate()
	}
	return 0, false
}
