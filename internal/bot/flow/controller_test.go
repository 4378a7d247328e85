package flow

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// loopState всегда уходит в себя же.
type loopState struct{ passive }

func (*loopState) Kind() Kind { return "test_loop" }

func (*loopState) OnEnter(context.Context, *Turn) (State, error) { return &loopState{}, nil }

func (*loopState) OnMessage(context.Context, *Turn, Message) (State, error) {
	return &loopState{}, nil
}

func TestNoStoredStateFallsBackToHome(t *testing.T) {
	h := newHarness(t)
	h.user("Антоненко", 10, models.Student)

	h.text(10, "привіт")

	h.expect(10, "home")
	if hasToken(h.out.last(t).screen, "Admin") {
		t.Fatal("студент не должен видеть админ-панель")
	}
}

func TestCorruptStateIsDropped(t *testing.T) {
	h := newHarness(t)
	h.user("Антоненко", 10, models.Student)
	if err := h.states.Save(context.Background(), 10, []byte(`{"kind":"removed_long_ago"}`)); err != nil {
		t.Fatal(err)
	}

	h.text(10, "привіт")

	h.expect(10, "home")
}

func TestChainTooLongKeepsPreviousState(t *testing.T) {
	registry["test_loop"] = func() State { return &loopState{} }
	defer delete(registry, "test_loop")

	h := newHarness(t)
	before, err := Encode(&loopState{})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.states.Save(context.Background(), 10, before); err != nil {
		t.Fatal(err)
	}

	err = h.do(Action{Kind: ActionText, ChatID: 10, Text: "x"})
	if !errors.Is(err, ErrChainTooLong) {
		t.Fatalf("ожидали ErrChainTooLong, получили %v", err)
	}
	after, _, _ := h.states.Load(context.Background(), 10)
	if !bytes.Equal(before, after) {
		t.Fatalf("состояние изменилось: %s", after)
	}
	if got := h.out.last(t).screen.Text; got != FailureNotice {
		t.Fatalf("ожидали уведомление о сбое, получили %q", got)
	}
}

func TestStoreFailureKeepsPreviousState(t *testing.T) {
	h := newHarness(t)
	h.user("Антоненко", 10, models.Student)
	h.cmd(10, "home")

	h.store.Break(true)
	err := h.do(h.callback(10, "SaveDutyPhoto"))
	h.store.Break(false)

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("ожидали ErrStoreUnavailable, получили %v", err)
	}
	h.expect(10, "home")
	if got := h.out.last(t).screen.Text; got != FailureNotice {
		t.Fatalf("ожидали уведомление о сбое, получили %q", got)
	}
}

func TestStateSaveFailure(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	h.cmd(10, "home")

	broken := h.controller(brokenStates{h.states})
	err := broken.Handle(context.Background(), h.callback(10, "Admin"))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("ожидали ErrStoreUnavailable, получили %v", err)
	}
	h.expect(10, "home")
}

func TestSendFailureDoesNotAbortTurn(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	h.out.fail = true

	h.cmd(10, "home")
	h.tap(10, "Admin")

	h.expect(10, "admin")
}

func TestCallbackIsAckedAndEdited(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	h.cmd(10, "home")

	a := h.callback(10, "Admin")
	h.must(a)

	if len(h.out.acks) != 1 || h.out.acks[0] != a.CallbackID {
		t.Fatalf("callback не подтверждён: %v", h.out.acks)
	}
	if got := h.out.last(t).editID; got != a.MessageID {
		t.Fatalf("ожидали правку сообщения %d, получили %d", a.MessageID, got)
	}
}

func TestCommandsReplaceState(t *testing.T) {
	h := newHarness(t)
	h.user("Коваль", 10, models.Admin)
	h.cmd(10, "home")
	h.tap(10, "Admin")
	h.tap(10, "Users")

	h.cmd(10, "start")
	h.expect(10, "welcome")

	h.cmd(10, "whatever")
	h.expect(10, "home")
}

func TestUnregisteredUserIsDenied(t *testing.T) {
	h := newHarness(t)

	h.cmd(10, "home")
	h.expect(10, "home_denied")

	// повторное сообщение не открывает меню
	h.text(10, "меню")
	h.expect(10, "home_denied")
}

func TestChatLimiterSerializesChat(t *testing.T) {
	l := NewChatLimiter()
	var active, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(7)
			defer unlock()
			if atomic.AddInt32(&active, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	if overlaps != 0 {
		t.Fatalf("ходы одного чата пересеклись %d раз", overlaps)
	}
}
