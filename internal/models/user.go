package models

import "slices"

type Role string

const (
	Student    Role = "student"
	Dutier     Role = "dutier"
	Admin      Role = "admin"
	Superadmin Role = "superadmin"
)

// AllRoles: порядок важен, так роли выводятся в карточке пользователя.
var AllRoles = []Role{Student, Dutier, Admin, Superadmin}

func (r Role) Valid() bool { return slices.Contains(AllRoles, r) }

// Title: подпись роли на кнопках.
func (r Role) Title() string {
	switch r {
	case Student:
		return "Студент"
	case Dutier:
		return "Черговий"
	case Admin:
		return "Адмін"
	case Superadmin:
		return "Суперадмін"
	default:
		return string(r)
	}
}

// Roles: набор ролей пользователя. Роли аддитивные, порядок не важен.
type Roles []Role

func (rs Roles) Has(r Role) bool { return slices.Contains(rs, r) }

// Effective разворачивает старшинство: superadmin включает admin.
func (rs Roles) Effective() Roles {
	out := slices.Clone(rs)
	if rs.Has(Superadmin) && !rs.Has(Admin) {
		out = append(out, Admin)
	}
	return out
}

type User struct {
	ID        int64
	Surname   string
	ChannelID int64 // telegram user id
	Roles     Roles
}

func (u *User) Has(r Role) bool {
	if u == nil {
		return false
	}
	return u.Roles.Effective().Has(r)
}
