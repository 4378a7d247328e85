package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/metrics"
	"github.com/Spok95/group-duty-bot/internal/models"
	"github.com/Spok95/group-duty-bot/internal/observability"
)

// DefaultMaxChain: сколько состояний подряд может пройти один ход.
const DefaultMaxChain = 16

// FailureNotice: ответ пользователю, когда ход не удался по нашей вине.
const FailureNotice = "Щось пішло не так. Спробуйте ще раз трохи пізніше."

type ActionKind int

const (
	ActionText ActionKind = iota + 1
	ActionPhoto
	ActionCallback
	ActionCommand
)

// Action: одно входящее действие пользователя в личном чате.
type Action struct {
	Kind     ActionKind
	ChatID   int64
	SenderID int64

	Text    string // текст или подпись к фото
	Photo   []byte
	Token   string
	Command string // имя команды без "/"

	CallbackID string
	MessageID  int // сообщение с нажатой кнопкой
}

type Options struct {
	Location *time.Location
	MaxChain int
	Now      func() time.Time
}

// Controller прогоняет ход диалога: доставка действия, цепочка авто-переходов,
// сохранение итогового состояния.
type Controller struct {
	store    Store
	states   StateStore
	out      Messenger
	log      *zap.Logger
	limiter  *ChatLimiter
	loc      *time.Location
	now      func() time.Time
	maxChain int
}

func NewController(store Store, states StateStore, out Messenger, log *zap.Logger, opt Options) *Controller {
	if opt.Location == nil {
		opt.Location = time.Local
	}
	if opt.MaxChain <= 0 {
		opt.MaxChain = DefaultMaxChain
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:    store,
		states:   states,
		out:      out,
		log:      log,
		limiter:  NewChatLimiter(),
		loc:      opt.Location,
		now:      opt.Now,
		maxChain: opt.MaxChain,
	}
}

// Handle выполняет один ход. Ходы одного чата не пересекаются.
// При ошибке состояние не сохраняется, пользователь получает общее уведомление.
func (c *Controller) Handle(ctx context.Context, a Action) error {
	unlock := c.limiter.Lock(a.ChatID)
	defer unlock()

	start := time.Now()
	ctx, turnID := ctxutil.WithTurnID(ctx)
	ctx = ctxutil.WithUserID(ctxutil.WithChatID(ctx, a.ChatID), a.SenderID)
	log := c.log.With(zap.Int64("chat_id", a.ChatID), zap.String("turn_id", turnID))

	t := &Turn{
		ChatID:   a.ChatID,
		SenderID: a.SenderID,
		Store:    c.store,
		Out:      c.out,
		Log:      log,
		now:      c.now(),
		loc:      c.loc,
	}
	if a.Kind == ActionCallback {
		t.editID = a.MessageID
		if err := c.out.Ack(ctx, a.CallbackID); err != nil {
			metrics.HandlerErrors.Inc()
			log.Warn("callback ack failed", zap.Error(err))
		}
	}

	final, err := c.run(ctx, t, a)
	if err == nil {
		err = c.save(ctx, a.ChatID, final)
	}
	if err != nil {
		c.fail(ctx, t, err)
		metrics.ObserveTurn("failed", time.Since(start))
		return err
	}
	log.Debug("turn done", zap.String("state", string(final.Kind())))
	metrics.ObserveTurn("ok", time.Since(start))
	return nil
}

func (c *Controller) run(ctx context.Context, t *Turn, a Action) (State, error) {
	var next State
	if a.Kind == ActionCommand {
		next = commandState(a.Command)
	} else {
		cur, err := c.load(ctx, t, a.ChatID)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			next = &Home{}
		} else if next, err = c.deliver(ctx, t, cur, a); err != nil {
			return nil, err
		} else if next == nil {
			return cur, nil
		}
	}

	var cur State
	for steps := 0; next != nil; steps++ {
		if steps >= c.maxChain {
			return nil, fmt.Errorf("%w: %d steps, stopped before %s", ErrChainTooLong, steps, next.Kind())
		}
		cur = next
		metrics.Transitions.WithLabelValues(string(cur.Kind())).Inc()
		t.Log.Debug("enter state", zap.String("state", string(cur.Kind())))

		var err error
		next, err = c.guard(ctx, t, cur, func() (State, error) { return cur.OnEnter(ctx, t) })
		if err != nil {
			return nil, fmt.Errorf("enter %s: %w", cur.Kind(), err)
		}
	}
	return cur, nil
}

// deliver передаёт действие текущему состоянию.
func (c *Controller) deliver(ctx context.Context, t *Turn, cur State, a Action) (State, error) {
	next, err := c.guard(ctx, t, cur, func() (State, error) {
		switch a.Kind {
		case ActionCallback:
			return cur.OnCallback(ctx, t, a.Token)
		default:
			return cur.OnMessage(ctx, t, Message{Text: a.Text, Photo: a.Photo})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("deliver to %s: %w", cur.Kind(), err)
	}
	return next, nil
}

// guard проверяет право состояния перед вызовом обработчика.
func (c *Controller) guard(ctx context.Context, t *Turn, s State, handler func() (State, error)) (State, error) {
	g, ok := s.(Guarded)
	if !ok {
		return handler()
	}
	perm := g.Requires()
	u, err := t.Sender(ctx)
	if err != nil {
		return nil, err
	}
	if models.Allowed(u, perm) {
		return handler()
	}
	metrics.AccessDenied.WithLabelValues(perm.String()).Inc()
	t.Log.Info("access denied", zap.String("state", string(s.Kind())), zap.Stringer("permission", perm))
	if perm == models.PermUseBot {
		return &HomeDenied{}, nil
	}
	return &AccessDenied{}, nil
}

// load читает сохранённое состояние; отсутствие или мусор: nil без ошибки.
func (c *Controller) load(ctx context.Context, t *Turn, chatID int64) (State, error) {
	payload, ok, err := c.states.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w: %w", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, nil
	}
	s, err := Decode(payload)
	if err != nil {
		t.Log.Warn("stored state dropped", zap.Error(err))
		return nil, nil
	}
	return s, nil
}

func (c *Controller) save(ctx context.Context, chatID int64, s State) error {
	payload, err := Encode(s)
	if err != nil {
		return err
	}
	if err := c.states.Save(ctx, chatID, payload); err != nil {
		return fmt.Errorf("save state: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (c *Controller) fail(ctx context.Context, t *Turn, err error) {
	t.Log.Error("turn failed", zap.Error(err))
	observability.CaptureCtx(ctx, err)
	if _, sendErr := c.out.Show(ctx, t.ChatID, 0, Screen{Text: FailureNotice}); sendErr != nil {
		metrics.HandlerErrors.Inc()
		t.Log.Warn("failure notice not sent", zap.Error(sendErr))
	}
}

// commandState: команды навигации заменяют текущее состояние.
func commandState(cmd string) State {
	switch strings.ToLower(cmd) {
	case "start":
		return &Welcome{}
	case "register":
		return &Registration{}
	default:
		return &Home{}
	}
}
