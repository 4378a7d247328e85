package flow

import (
	"context"
	"slices"
	"time"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// SubmitDutyPhoto: черговий дня присылает фотоотчёт.
type SubmitDutyPhoto struct {
	passive
	member
}

func (*SubmitDutyPhoto) Kind() Kind { return "submit_duty_photo" }

// todayDuty проверяет, что отправитель назначен на сегодня и фото ещё нет.
// Возвращает состояние-отказ или nil и чергування.
func todayDuty(ctx context.Context, t *Turn) (State, *models.Duty, *models.User, error) {
	u, err := t.Sender(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	duty, err := t.Store.DutyByDate(ctx, t.Today())
	if err != nil {
		return nil, nil, nil, unavailable("duty by date", err)
	}
	if duty == nil || u == nil {
		return &NotDutierToday{}, nil, nil, nil
	}
	dutiers, err := t.Store.ListDutiers(ctx, duty.ID)
	if err != nil {
		return nil, nil, nil, unavailable("list dutiers", err)
	}
	if !slices.ContainsFunc(dutiers, func(d models.User) bool { return d.ID == u.ID }) {
		return &NotDutierToday{}, nil, nil, nil
	}
	photo, err := t.Store.DutyPhotoByDuty(ctx, duty.ID)
	if err != nil {
		return nil, nil, nil, unavailable("duty photo", err)
	}
	if photo != nil {
		return &PhotoAlreadySaved{}, nil, nil, nil
	}
	return nil, duty, u, nil
}

func (*SubmitDutyPhoto) OnEnter(ctx context.Context, t *Turn) (State, error) {
	deny, _, _, err := todayDuty(ctx, t)
	if err != nil || deny != nil {
		return deny, err
	}
	t.Show(ctx, Screen{Text: "Надішли мені фото чергування", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*SubmitDutyPhoto) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	if len(m.Photo) == 0 {
		if isCancelText(m.Text) {
			return &Home{}, nil
		}
		t.Say(ctx, "Потрібне саме фото. Надішли фото чергування")
		return nil, nil
	}
	// условия перепроверяются: между ходами могли снять с чергування или загрузить фото
	deny, duty, u, err := todayDuty(ctx, t)
	if err != nil || deny != nil {
		return deny, err
	}
	_, added, err := t.Store.AddDutyPhoto(ctx, duty.ID, u.ID, m.Photo)
	if err != nil {
		return nil, unavailable("add duty photo", err)
	}
	if !added {
		return &PhotoAlreadySaved{}, nil
	}
	return &DutyPhotoSaved{}, nil
}

func (*SubmitDutyPhoto) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}

func backHome(token string) (State, error) {
	if token == tokBack {
		return &Home{}, nil
	}
	return nil, nil
}

type NotDutierToday struct{ passive }

func (*NotDutierToday) Kind() Kind { return "not_dutier_today" }

func (*NotDutierToday) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Ви сьогодні не чергуєте", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*NotDutierToday) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}

type PhotoAlreadySaved struct{ passive }

func (*PhotoAlreadySaved) Kind() Kind { return "photo_already_saved" }

func (*PhotoAlreadySaved) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Фото чергування вже завантажено", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*PhotoAlreadySaved) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}

type DutyPhotoSaved struct{ passive }

func (*DutyPhotoSaved) Kind() Kind { return "duty_photo_saved" }

func (*DutyPhotoSaved) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Фото завантажено!", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*DutyPhotoSaved) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}

// ViewDutyPhotoDate: спрашиваем дату, за которую показать фото.
type ViewDutyPhotoDate struct {
	passive
	member
}

func (*ViewDutyPhotoDate) Kind() Kind { return "view_duty_photo_date" }

func (*ViewDutyPhotoDate) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Надішли дату, за яку хочеш переглянути фото\n" + dateHint,
		Rows: [][]Button{{{Label: "Сьогодні", Token: tokToday}}, backRow},
	})
	return nil, nil
}

func (*ViewDutyPhotoDate) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	if isCancelText(m.Text) {
		return &Home{}, nil
	}
	date, ok := t.ParseDate(m.Text)
	if !ok {
		t.Say(ctx, "Не вдалося розібрати дату. "+dateHint)
		return nil, nil
	}
	return photoForDate(ctx, t, date)
}

func (*ViewDutyPhotoDate) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	if token == tokToday {
		return photoForDate(ctx, t, t.Today())
	}
	return backHome(token)
}

func photoForDate(ctx context.Context, t *Turn, date time.Time) (State, error) {
	duty, err := t.Store.DutyByDate(ctx, date)
	if err != nil {
		return nil, unavailable("duty by date", err)
	}
	if duty == nil {
		return &NoDuty{}, nil
	}
	photo, err := t.Store.DutyPhotoByDuty(ctx, duty.ID)
	if err != nil {
		return nil, unavailable("duty photo", err)
	}
	if photo == nil {
		return &NoDutyPhoto{}, nil
	}
	return &ShowDutyPhoto{PhotoID: photo.ID}, nil
}

type ShowDutyPhoto struct {
	passive
	member
	PhotoID int64 `json:"photo_id"`
}

func (*ShowDutyPhoto) Kind() Kind { return "show_duty_photo" }

func (s *ShowDutyPhoto) OnEnter(ctx context.Context, t *Turn) (State, error) {
	photo, err := t.Store.DutyPhotoByID(ctx, s.PhotoID)
	if err != nil {
		return nil, unavailable("duty photo", err)
	}
	if photo == nil {
		return &NoDutyPhoto{}, nil
	}
	author, err := t.Store.UserByID(ctx, photo.UserID)
	if err != nil {
		return nil, unavailable("photo author", err)
	}
	caption := "Фото завантажив: невідомо"
	if author != nil {
		caption = "Фото завантажив: " + author.Surname
	}
	t.SendPhoto(ctx, photo.Blob, caption, [][]Button{homeRow})
	return nil, nil
}

func (*ShowDutyPhoto) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}

type NoDuty struct{ passive }

func (*NoDuty) Kind() Kind { return "no_duty" }

func (*NoDuty) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Цього числа не було чергування", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*NoDuty) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}

type NoDutyPhoto struct{ passive }

func (*NoDutyPhoto) Kind() Kind { return "no_duty_photo" }

func (*NoDutyPhoto) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "На жаль, немає збереженого фото чергування", Rows: [][]Button{backRow}})
	return nil, nil
}

func (*NoDutyPhoto) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	return backHome(token)
}
