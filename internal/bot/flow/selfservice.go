package flow

import (
	"context"
	"time"
)

// Диапазоны дат для отчётов. Сами отчёты пока не формируются:
// Make* состояния сразу возвращают на главную.

// askDate: общий шаг "пришли дату". Отмена, повторный запрос или переход в next.
func askDate(ctx context.Context, t *Turn, m Message, next func(time.Time) State) (State, error) {
	if isCancelText(m.Text) {
		return &Home{}, nil
	}
	date, ok := t.ParseDate(m.Text)
	if !ok {
		t.Say(ctx, "Не вдалося розібрати дату. "+dateHint)
		return nil, nil
	}
	return next(date), nil
}

// askRangeEnd: как askDate, но конец диапазона не раньше начала.
func askRangeEnd(ctx context.Context, t *Turn, m Message, from time.Time, next func(time.Time) State) (State, error) {
	return askDate(ctx, t, m, func(to time.Time) State {
		if to.Before(from) {
			t.Say(ctx, "Кінцева дата не може бути раніше початкової. "+dateHint)
			return nil
		}
		return next(to)
	})
}

type DutyHistoryFrom struct {
	passive
	member
}

func (*DutyHistoryFrom) Kind() Kind { return "duty_history_from" }

func (*DutyHistoryFrom) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Say(ctx, "Надішли дату, з якої почати формувати історію чергувань\n"+dateHint)
	return nil, nil
}

func (*DutyHistoryFrom) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	return askDate(ctx, t, m, func(d time.Time) State { return &DutyHistoryTo{From: d} })
}

type DutyHistoryTo struct {
	passive
	member
	From time.Time `json:"from"`
}

func (*DutyHistoryTo) Kind() Kind { return "duty_history_to" }

func (*DutyHistoryTo) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Say(ctx, "Чудово!\nТепер надішли дату, до якої формувати історію чергувань\n"+dateHint)
	return nil, nil
}

func (s *DutyHistoryTo) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	return askRangeEnd(ctx, t, m, s.From, func(d time.Time) State { return &MakeDutyHistory{From: s.From, To: d} })
}

type MakeDutyHistory struct {
	passive
	member
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (*MakeDutyHistory) Kind() Kind { return "make_duty_history" }

func (*MakeDutyHistory) OnEnter(context.Context, *Turn) (State, error) { return &Home{}, nil }

type MyAttendanceFrom struct {
	passive
	member
}

func (*MyAttendanceFrom) Kind() Kind { return "my_attendance_from" }

func (*MyAttendanceFrom) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Say(ctx, "Надішли дату, з якої почати формувати твою відвідуваність\n"+dateHint)
	return nil, nil
}

func (*MyAttendanceFrom) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	return askDate(ctx, t, m, func(d time.Time) State { return &MyAttendanceTo{From: d} })
}

type MyAttendanceTo struct {
	passive
	member
	From time.Time `json:"from"`
}

func (*MyAttendanceTo) Kind() Kind { return "my_attendance_to" }

func (*MyAttendanceTo) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Say(ctx, "Надішли дату, до якої формувати твою відвідуваність\n"+dateHint)
	return nil, nil
}

func (s *MyAttendanceTo) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	return askRangeEnd(ctx, t, m, s.From, func(d time.Time) State { return &MakeMyAttendance{From: s.From, To: d} })
}

type MakeMyAttendance struct {
	passive
	member
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (*MakeMyAttendance) Kind() Kind { return "make_my_attendance" }

func (*MakeMyAttendance) OnEnter(context.Context, *Turn) (State, error) { return &Home{}, nil }
