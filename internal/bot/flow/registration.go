package flow

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxSurnameLen = 64

var titleCaser = cases.Title(language.Ukrainian)

// normalizeSurname приводит фамилию к виду "Шевченко": обрезает пробелы и регистр.
func normalizeSurname(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || utf8.RuneCountInString(s) > maxSurnameLen || strings.HasPrefix(s, "/") {
		return "", false
	}
	return titleCaser.String(s), true
}

// Registration: ждём фамилию.
type Registration struct{ passive }

func (*Registration) Kind() Kind { return "registration" }

func (*Registration) OnEnter(ctx context.Context, t *Turn) (State, error) {
	u, err := t.Sender(ctx)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return &AlreadyRegistered{}, nil
	}
	t.Say(ctx, "Реєстрація\nНадішли своє прізвище")
	return nil, nil
}

func (*Registration) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	surname, ok := normalizeSurname(m.Text)
	if !ok {
		t.Say(ctx, "Не схоже на прізвище. Надішли своє прізвище текстом")
		return nil, nil
	}
	return &RegistrationConfirm{Surname: surname}, nil
}

type AlreadyRegistered struct{ passive }

func (*AlreadyRegistered) Kind() Kind { return "already_registered" }

func (*AlreadyRegistered) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{Text: "Ви вже зареєструвались", Rows: [][]Button{homeRow}})
	return nil, nil
}

func (*AlreadyRegistered) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Home{}, nil
	}
	return nil, nil
}

type RegistrationConfirm struct {
	passive
	Surname string `json:"surname"`
}

func (*RegistrationConfirm) Kind() Kind { return "registration_confirm" }

func (s *RegistrationConfirm) OnEnter(ctx context.Context, t *Turn) (State, error) {
	t.Show(ctx, Screen{
		Text: "Реєстрація\nВаше прізвище '" + s.Surname + "'?",
		Rows: [][]Button{{{Label: "Так", Token: tokYes}, {Label: "Ні", Token: tokNo}}},
	})
	return nil, nil
}

func (s *RegistrationConfirm) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	switch token {
	case tokYes:
		return &RegistrationSuccess{Surname: s.Surname}, nil
	case tokNo:
		return &Registration{}, nil
	}
	return nil, nil
}

// RegistrationSuccess создаёт пользователя без ролей: роли выдаёт администратор.
type RegistrationSuccess struct {
	passive
	Surname string `json:"surname"`
}

func (*RegistrationSuccess) Kind() Kind { return "registration_success" }

func (s *RegistrationSuccess) OnEnter(ctx context.Context, t *Turn) (State, error) {
	existing, err := t.Sender(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AlreadyRegistered{}, nil
	}
	if _, err := t.Store.CreateUser(ctx, s.Surname, t.SenderID); err != nil {
		return nil, unavailable("create user", err)
	}
	t.Say(ctx, "Ви успішно зареєструвались як '"+s.Surname+"'\nОчікуйте підтвердження адміністратора")
	return nil, nil
}
