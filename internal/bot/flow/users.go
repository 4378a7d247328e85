package flow

import (
	"context"
	"fmt"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// editableRoles: роли, которые админ переключает в карточке. superadmin выдаётся только конфигом.
var editableRoles = []models.Role{models.Student, models.Dutier, models.Admin}

func userTitle(u *models.User) string { return fmt.Sprintf("%s - %d", u.Surname, u.ChannelID) }

type Users struct {
	passive
	admin
}

func (*Users) Kind() Kind { return "users" }

func (*Users) OnEnter(ctx context.Context, t *Turn) (State, error) {
	users, err := t.Store.ListUsers(ctx, nil)
	if err != nil {
		return nil, unavailable("list users", err)
	}
	rows := make([][]Button, 0, len(users)+1)
	for i := range users {
		rows = append(rows, []Button{{Label: userTitle(&users[i]), Token: idToken(users[i].ID)}})
	}
	t.Show(ctx, Screen{Text: "Користувачі", Rows: append(rows, backRow)})
	return nil, nil
}

func (*Users) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &Admin{}, nil
	}
	if id, ok := parseID(token); ok {
		return &User{UserID: id}, nil
	}
	return nil, nil
}

// loadManaged загружает карточку и проверяет, что отправитель может ей управлять.
func loadManaged(ctx context.Context, t *Turn, userID int64) (State, *models.User, error) {
	target, err := t.Store.UserByID(ctx, userID)
	if err != nil {
		return nil, nil, unavailable("user by id", err)
	}
	if target == nil {
		return notFound(&Users{}), nil, nil
	}
	actor, err := t.Sender(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !models.CanManage(actor, target) {
		return &AccessDenied{}, nil, nil
	}
	return nil, target, nil
}

// User: карточка пользователя с ролями и фамилией.
type User struct {
	passive
	admin
	UserID int64 `json:"user_id"`
}

func (*User) Kind() Kind { return "user" }

func (s *User) OnEnter(ctx context.Context, t *Turn) (State, error) {
	deny, u, err := loadManaged(ctx, t, s.UserID)
	if err != nil || deny != nil {
		return deny, err
	}
	roles := make([]Button, 0, len(editableRoles))
	for _, r := range editableRoles {
		roles = append(roles, Button{Label: glyph(u.Roles.Has(r)) + r.Title(), Token: string(r)})
	}
	t.Show(ctx, Screen{
		Text: "Вибери дію для " + userTitle(u),
		Rows: [][]Button{
			roles,
			{{Label: "Змінити прізвище", Token: "ChangeSurname"}},
			backRow,
		},
	})
	return nil, nil
}

func (s *User) OnCallback(ctx context.Context, t *Turn, token string) (State, error) {
	switch token {
	case tokBack:
		return &Users{}, nil
	case "ChangeSurname":
		return &UserChangeSurname{UserID: s.UserID}, nil
	}
	role := models.Role(token)
	editable := false
	for _, r := range editableRoles {
		editable = editable || r == role
	}
	if !editable {
		return nil, nil
	}
	deny, u, err := loadManaged(ctx, t, s.UserID)
	if err != nil || deny != nil {
		return deny, err
	}
	if u.Roles.Has(role) {
		err = t.Store.RemoveRole(ctx, u.ID, role)
	} else {
		err = t.Store.AddRole(ctx, u.ID, role)
	}
	if err != nil {
		return nil, unavailable("toggle role", err)
	}
	return &User{UserID: s.UserID}, nil
}

type UserChangeSurname struct {
	passive
	admin
	UserID int64 `json:"user_id"`
}

func (*UserChangeSurname) Kind() Kind { return "user_change_surname" }

func (s *UserChangeSurname) OnEnter(ctx context.Context, t *Turn) (State, error) {
	deny, u, err := loadManaged(ctx, t, s.UserID)
	if err != nil || deny != nil {
		return deny, err
	}
	t.Show(ctx, Screen{Text: "Надішли нове прізвище користувача " + userTitle(u), Rows: [][]Button{backRow}})
	return nil, nil
}

func (s *UserChangeSurname) OnMessage(ctx context.Context, t *Turn, m Message) (State, error) {
	if isCancelText(m.Text) {
		return &User{UserID: s.UserID}, nil
	}
	surname, ok := normalizeSurname(m.Text)
	if !ok {
		t.Say(ctx, "Не схоже на прізвище. Надішли нове прізвище текстом")
		return nil, nil
	}
	deny, u, err := loadManaged(ctx, t, s.UserID)
	if err != nil || deny != nil {
		return deny, err
	}
	if err := t.Store.SetSurname(ctx, u.ID, surname); err != nil {
		return nil, unavailable("set surname", err)
	}
	return &User{UserID: s.UserID}, nil
}

func (s *UserChangeSurname) OnCallback(_ context.Context, _ *Turn, token string) (State, error) {
	if token == tokBack {
		return &User{UserID: s.UserID}, nil
	}
	return nil, nil
}
