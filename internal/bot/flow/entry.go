package flow

import (
	"context"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// Welcome: ответ на /start.
type Welcome struct{ passive }

func (*Welcome) Kind() Kind { return "welcome" }

func (*Welcome) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Привіт! Я бот чергувань і відвідуваності групи.",
		Rows: [][]Button{{
			{Label: "Реєстрація", Token: "Register"},
			{Label: "Головна", Token: "Home"},
		}},
	})
	return nil, nil
}

func (*Welcome) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case "Register":
		return &Registration{}, nil
	case "Home":
		return &Home{}, nil
	}
	return nil, nil
}

// Home: главное меню. Админ-панель видна только тем, у кого есть право.
type Home struct {
	passive
	member
}

func (*Home) Kind() Kind { return "home" }

func (*Home) OnEnter(ctx context.Context, t *Turn) (State, error) {
	u, err := t.Sender(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]Button{
		{{Label: "Надіслати чергування", Token: "SaveDutyPhoto"}, {Label: "Переглянути чергування", Token: "GetDutyPhoto"}},
		{{Label: "Моя відвідуваність", Token: "MyAttendance"}, {Label: "Історія чергувань", Token: "DutyHistory"}},
	}
	if models.Allowed(u, models.PermAdmin) {
		rows = append(rows, []Button{{Label: "Адмін-панель", Token: "Admin"}})
	}
	t.Show(ctx, Screen{Text: "Привіт!\nЯк я можу допомогти?", Rows: rows})
	return nil, nil
}

func (*Home) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case "SaveDutyPhoto":
		return &SubmitDutyPhoto{}, nil
	case "GetDutyPhoto":
		return &ViewDutyPhotoDate{}, nil
	case "MyAttendance":
		return &MyAttendanceFrom{}, nil
	case "DutyHistory":
		return &DutyHistoryFrom{}, nil
	case "Admin":
		return &Admin{}, nil
	}
	return nil, nil
}

// HomeDenied: нет ни одной роли. Выход: /register или ожидание подтверждения.
type HomeDenied struct{ passive }

func (*HomeDenied) Kind() Kind { return "home_denied" }

func (*HomeDenied) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Say(ctx, "У вас немає доступу. Якщо ви думаєте, що це помилка, зверніться до адміністратора.\nРеєстрація - /register")
	return nil, nil
}

// AccessDenied: не хватает прав администратора.
type AccessDenied struct{ passive }

func (*AccessDenied) Kind() Kind { return "access_denied" }

func (*AccessDenied) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "У вас немає прав для цієї дії", Rows: [][]Button{homeRow}})
	return nil, nil
}

func (*AccessDenied) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Home{}, nil
	}
	return nil, nil
}

// NotFound: сущность исчезла между ходами. Back ведёт в раздел To.
type NotFound struct {
	passive
	To Kind `json:"to"`
}

func (*NotFound) Kind() Kind { return "not_found" }

func (*NotFound) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Не знайдено. Можливо, запис уже видалено.", Rows: [][]Button{backRow}})
	return nil, nil
}

func (s *NotFound) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token != tokBack {
		return nil, nil
	}
	switch s.To {
	case (*Admin)(nil).Kind():
		return &Admin{}, nil
	case (*Duty)(nil).Kind():
		return &Duty{}, nil
	case (*Subjects)(nil).Kind():
		return &Subjects{}, nil
	case (*Users)(nil).Kind():
		return &Users{}, nil
	case (*LessonsDate)(nil).Kind():
		return &LessonsDate{}, nil
	}
	return &Home{}, nil
}

func notFound(to State) State { return &NotFound{To: to.Kind()} }
