package flow

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/group-duty-bot/internal/models"
	"github.com/Spok95/group-duty-bot/internal/rotation"
)

const maxAutoDutiers = 4

// Dutier: снимок выбранного чергового внутри состояния.
type Dutier struct {
	ID        int64  `json:"id"`
	Surname   string `json:"surname"`
	ChannelID int64  `json:"channel_id"`
}

func dutiersText(title string, ds []Dutier) string {
	lines := make([]string, 0, len(ds)+1)
	lines = append(lines, title)
	for _, d := range ds {
		lines = append(lines, d.Surname)
	}
	return strings.Join(lines, "\n")
}

type Duty struct {
	passive
	admin
}

func (*Duty) Kind() Kind { return "duty" }

func (*Duty) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Чергування\nВибери дію",
		Rows: [][]Button{
			{{Label: "Автовибір", Token: "Auto"}, {Label: "Попередні", Token: "PreviousDuties"}},
			backRow,
		},
	})
	return nil, nil
}

func (*Duty) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case "Auto":
		return &AutoDutyAmount{}, nil
	case "PreviousDuties":
		return &PreviousDuties{}, nil
	case tokBack:
		return &Admin{}, nil
	}
	return nil, nil
}

type AutoDutyAmount struct {
	passive
	admin
}

func (*AutoDutyAmount) Kind() Kind { return "auto_duty_amount" }

func (*AutoDutyAmount) OnEnter(ctx context.Context, t *Turn) (State, error) {
	row := make([]Button, 0, maxAutoDutiers)
	for i := 1; i <= maxAutoDutiers; i++ {
		row = append(row, Button{Label: strconv.Itoa(i), Token: strconv.Itoa(i)})
	}
	t.Show(ctx, Screen{Text: "Вибери кількість чергових", Rows: [][]Button{row, backRow}})
	return nil, nil
}

func (*AutoDutyAmount) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Duty{}, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > maxAutoDutiers {
		return nil, nil
	}
	return &AutoDutySelect{Amount: n}, nil
}

// AutoDutySelect без экрана выбирает черговых по очереди и идёт дальше.
type AutoDutySelect struct {
	passive
	admin
	Amount int `json:"amount"`
}

func (*AutoDutySelect) Kind() Kind { return "auto_duty_select" }

func (s *AutoDutySelect) OnEnter(ctx context.Context, t *Turn) (State, error) {
	candidates, err := t.Store.DutyRotationCandidates(ctx, t.Today())
	if err != nil {
		return nil, unavailable("duty rotation", err)
	}
	picked := rotation.Select(candidates, s.Amount)
	if len(picked) == 0 {
		return &NoDutyCandidates{}, nil
	}
	ds := make([]Dutier, 0, len(picked))
	for _, u := range picked {
		ds = append(ds, Dutier{ID: u.ID, Surname: u.Surname, ChannelID: u.ChannelID})
	}
	return &AutoDutyConfirm{Dutiers: ds}, nil
}

// NoDutyCandidates: сегодня нет пар или никто из черговых не присутствовал на последней.
type NoDutyCandidates struct {
	passive
	admin
}

func (*NoDutyCandidates) Kind() Kind { return "no_duty_candidates" }

func (*NoDutyCandidates) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Немає кого призначити: сьогодні немає пар або ніхто з чергових не присутній на останній парі",
		Rows: [][]Button{backRow},
	})
	return nil, nil
}

func (*NoDutyCandidates) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Duty{}, nil
	}
	return nil, nil
}

type AutoDutyConfirm struct {
	passive
	admin
	Dutiers []Dutier `json:"dutiers"`
}

func (*AutoDutyConfirm) Kind() Kind { return "auto_duty_confirm" }

func (s *AutoDutyConfirm) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: dutiersText("Вибрані чергові:", s.Dutiers),
		Rows: [][]Button{{{Label: "Підтвердити", Token: tokConfirm}, {Label: "Назад", Token: tokBack}}},
	})
	return nil, nil
}

func (s *AutoDutyConfirm) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case tokConfirm:
		return &AutoDutyNotify{Dutiers: s.Dutiers}, nil
	case tokBack:
		return &Duty{}, nil
	}
	return nil, nil
}

// AutoDutyNotify без экрана пишет каждому черговому и во все группы.
type AutoDutyNotify struct {
	passive
	admin
	Dutiers []Dutier `json:"dutiers"`
}

func (*AutoDutyNotify) Kind() Kind { return "auto_duty_notify" }

func (s *AutoDutyNotify) OnEnter(ctx context.Context, t *Turn) (State, error) {
	date := models.FormatDate(t.Today())
	for _, d := range s.Dutiers {
		t.Notify(ctx, d.ChannelID, "Сьогодні ("+date+") ви черговий. Після чергування надішліть фото через /home")
	}
	groups, err := t.Store.ListGroups(ctx)
	if err != nil {
		return nil, unavailable("list groups", err)
	}
	for _, g := range groups {
		t.Notify(ctx, g.ChannelID, dutiersText("Чергові на "+date+":", s.Dutiers))
	}
	return &AutoDutySave{Dutiers: s.Dutiers}, nil
}

// AutoDutySave без экрана создаёт чергування на сегодня и назначает выбранных.
type AutoDutySave struct {
	passive
	admin
	Dutiers []Dutier `json:"dutiers"`
}

func (*AutoDutySave) Kind() Kind { return "auto_duty_save" }

func (s *AutoDutySave) OnEnter(ctx context.Context, t *Turn) (State, error) {
	duty, err := t.Store.CreateDutyIfAbsent(ctx, t.Today())
	if err != nil {
		return nil, unavailable("create duty", err)
	}
	for _, d := range s.Dutiers {
		if err := t.Store.Assign(ctx, duty.ID, d.ID); err != nil {
			return nil, unavailable("assign dutier", err)
		}
	}
	return &Home{}, nil
}

// PreviousDuties: дата чергування для просмотра и правки.
type PreviousDuties struct {
	passive
	admin
}

func (*PreviousDuties) Kind() Kind { return "previous_duties" }

func (*PreviousDuties) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Надішли дату чергування\n" + dateHint,
		Rows: [][]Button{{{Label: "Сьогодні", Token: tokToday}}, backRow},
	})
	return nil, nil
}

func (*PreviousDuties) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	if isCancelText(m.Text) {
		return &Duty{}, nil
	}
	date, ok := t.ParseDate(m.Text)
	if !ok {
		t.Say(ctx, "Не вдалося розібрати дату. "+dateHint)
		return nil, nil
	}
	return dutyForDate(ctx, t, date)
}

func (*PreviousDuties) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	switch token {
	case tokToday:
		return dutyForDate(ctx, t, t.Today())
	case tokBack:
		return &Duty{}, nil
	}
	return nil, nil
}

func dutyForDate(ctx context.Context, t *Turn, date time.Time) (State, error) {
	duty, err := t.Store.DutyByDate(ctx, date)
	if err != nil {
		return nil, unavailable("duty by date", err)
	}
	if duty == nil {
		t.Say(ctx, "Цього числа не було чергування. Надішли іншу дату\n"+dateHint)
		return nil, nil
	}
	return &PreviousDuty{DutyID: duty.ID}, nil
}

type PreviousDuty struct {
	passive
	admin
	DutyID int64 `json:"duty_id"`
}

func (*PreviousDuty) Kind() Kind { return "previous_duty" }

func (s *PreviousDuty) OnEnter(ctx context.Context, t *Turn) (State, error) {
	duty, err := t.Store.DutyByID(ctx, s.DutyID)
	if err != nil {
		return nil, unavailable("duty by id", err)
	}
	if duty == nil {
		return notFound(&Duty{}), nil
	}
	dutiers, err := t.Store.ListDutiers(ctx, duty.ID)
	if err != nil {
		return nil, unavailable("list dutiers", err)
	}
	ds := make([]Dutier, 0, len(dutiers))
	for _, u := range dutiers {
		ds = append(ds, Dutier{ID: u.ID, Surname: u.Surname})
	}
	t.Show(ctx, Screen{
		Text: dutiersText(models.FormatDate(duty.Date)+" - "+duty.Status.Title(), ds),
		Rows: [][]Button{
			{{Label: "Статус", Token: tokStatus}, {Label: "Чергові", Token: "Dutiers"}},
			backRow,
		},
	})
	return nil, nil
}

func (s *PreviousDuty) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	switch token {
	case tokStatus:
		duty, err := t.Store.DutyByID(ctx, s.DutyID)
		if err != nil {
			return nil, unavailable("duty by id", err)
		}
		if duty == nil {
			return notFound(&Duty{}), nil
		}
		if err := t.Store.SetDutyStatus(ctx, duty.ID, duty.Status.Toggle()); err != nil {
			return nil, unavailable("set duty status", err)
		}
		return &PreviousDuty{DutyID: s.DutyID}, nil
	case "Dutiers":
		return &PreviousDutyDutiers{DutyID: s.DutyID}, nil
	case tokBack:
		return &PreviousDuties{}, nil
	}
	return nil, nil
}

// PreviousDutyDutiers: все черговые группы; нажатие назначает или снимает.
type PreviousDutyDutiers struct {
	passive
	admin
	DutyID int64 `json:"duty_id"`
}

func (*PreviousDutyDutiers) Kind() Kind { return "previous_duty_dutiers" }

func (s *PreviousDutyDutiers) OnEnter(ctx context.Context, t *Turn) (State, error) {
	duty, err := t.Store.DutyByID(ctx, s.DutyID)
	if err != nil {
		return nil, unavailable("duty by id", err)
	}
	if duty == nil {
		return notFound(&Duty{}), nil
	}
	assigned, err := t.Store.ListDutiers(ctx, duty.ID)
	if err != nil {
		return nil, unavailable("list dutiers", err)
	}
	role := models.Dutier
	all, err := t.Store.ListUsers(ctx, &role)
	if err != nil {
		return nil, unavailable("list users", err)
	}
	rows := make([][]Button, 0, len(all)+1)
	for _, u := range all {
		on := slices.ContainsFunc(assigned, func(a models.User) bool { return a.ID == u.ID })
		rows = append(rows, []Button{{Label: glyph(on) + " " + u.Surname, Token: idToken(u.ID)}})
	}
	t.Show(ctx, Screen{
		Text: "Чергові " + models.FormatDate(duty.Date) + " - " + duty.Status.Title(),
		Rows: append(rows, backRow),
	})
	return nil, nil
}

func (s *PreviousDutyDutiers) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	if token == tokBack {
		return &PreviousDuty{DutyID: s.DutyID}, nil
	}
	userID, ok := parseID(token)
	if !ok {
		return nil, nil
	}
	assigned, err := t.Store.ListDutiers(ctx, s.DutyID)
	if err != nil {
		return nil, unavailable("list dutiers", err)
	}
	if slices.ContainsFunc(assigned, func(a models.User) bool { return a.ID == userID }) {
		err = t.Store.Unassign(ctx, s.DutyID, userID)
	} else {
		err = t.Store.Assign(ctx, s.DutyID, userID)
	}
	if err != nil {
		return nil, unavailable("toggle assignment", err)
	}
	return &PreviousDutyDutiers{DutyID: s.DutyID}, nil
}
