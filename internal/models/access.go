package models

// Permission: способность, которую проверяет охранник состояний.
type Permission int

const (
	// PermUseBot: главное меню и самообслуживание, нужна хотя бы одна роль.
	PermUseBot Permission = iota + 1
	// PermAdmin: админ-панель и всё, что из неё открывается.
	PermAdmin
	// PermSuperadmin: управление суперадминами.
	PermSuperadmin
)

func (p Permission) String() string {
	switch p {
	case PermUseBot:
		return "use_bot"
	case PermAdmin:
		return "admin"
	case PermSuperadmin:
		return "superadmin"
	default:
		return "unknown"
	}
}

// Allowed: единственная функция авторизации. Отсутствующий пользователь не может ничего.
func Allowed(u *User, p Permission) bool {
	if u == nil {
		return false
	}
	roles := u.Roles.Effective()
	switch p {
	case PermUseBot:
		return len(roles) > 0
	case PermAdmin:
		return roles.Has(Admin)
	case PermSuperadmin:
		return roles.Has(Superadmin)
	default:
		return false
	}
}

// CanManage: может ли actor открыть карточку target.
// Карточки суперадминов видны только суперадминам.
func CanManage(actor, target *User) bool {
	if !Allowed(actor, PermAdmin) {
		return false
	}
	if target != nil && target.Roles.Has(Superadmin) {
		return Allowed(actor, PermSuperadmin)
	}
	return true
}
