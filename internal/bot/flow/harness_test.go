package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/group-duty-bot/internal/models"
	"github.com/Spok95/group-duty-bot/internal/statestore"
	"github.com/Spok95/group-duty-bot/internal/testutil/memstore"
)

var errSend = errors.New("telegram is down")

type shown struct {
	chatID int64
	editID int
	screen Screen
}

type notice struct {
	chatID int64
	text   string
}

// fakeOut запоминает всё, что бот отправил.
type fakeOut struct {
	mu      sync.Mutex
	fail    bool
	screens []shown
	photos  []notice
	notes   []notice
	acks    []string
}

func (o *fakeOut) Show(_ context.Context, chatID int64, editID int, s Screen) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return 0, errSend
	}
	o.screens = append(o.screens, shown{chatID: chatID, editID: editID, screen: s})
	return len(o.screens), nil
}

func (o *fakeOut) SendPhoto(_ context.Context, chatID int64, _ []byte, caption string, _ [][]Button) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errSend
	}
	o.photos = append(o.photos, notice{chatID: chatID, text: caption})
	return nil
}

func (o *fakeOut) Notify(_ context.Context, chatID int64, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errSend
	}
	o.notes = append(o.notes, notice{chatID: chatID, text: text})
	return nil
}

func (o *fakeOut) Ack(_ context.Context, callbackID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.acks = append(o.acks, callbackID)
	return nil
}

func (o *fakeOut) last(t *testing.T) shown {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.screens) == 0 {
		t.Fatal("бот ничего не показал")
	}
	return o.screens[len(o.screens)-1]
}

// brokenStates: хранилище состояний, которое не даёт сохранить.
type brokenStates struct {
	*statestore.Memory
}

func (brokenStates) Save(context.Context, int64, []byte) error {
	return errors.New("redis: connection refused")
}

var testLoc = time.FixedZone("EET", 2*60*60)

// testNow: понедельник, 4 марта 2024, середина дня.
var testNow = time.Date(2024, 3, 4, 12, 0, 0, 0, testLoc)

type harness struct {
	t      *testing.T
	store  *memstore.Store
	states *statestore.Memory
	out    *fakeOut
	ctrl   *Controller
	cbSeq  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		store:  memstore.New(),
		states: statestore.NewMemory(),
		out:    &fakeOut{},
	}
	h.ctrl = h.controller(h.states)
	return h
}

func (h *harness) controller(states StateStore) *Controller {
	return NewController(h.store, states, h.out, nil, Options{
		Location: testLoc,
		Now:      func() time.Time { return testNow },
	})
}

func (h *harness) today() time.Time { return models.Day(testNow) }

// user создаёт пользователя с ролями; chat id совпадает с telegram id.
func (h *harness) user(surname string, channelID int64, roles ...models.Role) *models.User {
	h.t.Helper()
	ctx := context.Background()
	u, err := h.store.CreateUser(ctx, surname, channelID)
	if err != nil {
		h.t.Fatalf("CreateUser: %v", err)
	}
	for _, r := range roles {
		if err := h.store.AddRole(ctx, u.ID, r); err != nil {
			h.t.Fatalf("AddRole: %v", err)
		}
	}
	u.Roles = roles
	return u
}

func (h *harness) do(a Action) error {
	if a.SenderID == 0 {
		a.SenderID = a.ChatID
	}
	return h.ctrl.Handle(context.Background(), a)
}

func (h *harness) must(a Action) {
	h.t.Helper()
	if err := h.do(a); err != nil {
		h.t.Fatalf("ход завершился ошибкой: %v", err)
	}
}

func (h *harness) cmd(chat int64, name string) {
	h.t.Helper()
	h.must(Action{Kind: ActionCommand, ChatID: chat, Command: name})
}

func (h *harness) text(chat int64, s string) {
	h.t.Helper()
	h.must(Action{Kind: ActionText, ChatID: chat, Text: s})
}

func (h *harness) photo(chat int64, b []byte) {
	h.t.Helper()
	h.must(Action{Kind: ActionPhoto, ChatID: chat, Photo: b})
}

func (h *harness) tap(chat int64, token string) {
	h.t.Helper()
	h.must(h.callback(chat, token))
}

func (h *harness) callback(chat int64, token string) Action {
	h.cbSeq++
	return Action{
		Kind:       ActionCallback,
		ChatID:     chat,
		Token:      token,
		CallbackID: "cb-" + idToken(int64(h.cbSeq)),
		MessageID:  100 + h.cbSeq,
	}
}

// state: сохранённое состояние чата.
func (h *harness) state(chat int64) State {
	h.t.Helper()
	b, ok, err := h.states.Load(context.Background(), chat)
	if err != nil || !ok {
		h.t.Fatalf("нет сохранённого состояния для чата %d (err=%v)", chat, err)
	}
	s, err := Decode(b)
	if err != nil {
		h.t.Fatalf("Decode: %v", err)
	}
	return s
}

func (h *harness) expect(chat int64, want Kind) State {
	h.t.Helper()
	s := h.state(chat)
	if s.Kind() != want {
		h.t.Fatalf("состояние чата %d: ожидали %s, получили %s", chat, want, s.Kind())
	}
	return s
}

func hasToken(s Screen, token string) bool {
	for _, row := range s.Rows {
		for _, b := range row {
			if b.Token == token {
				return true
			}
		}
	}
	return false
}
