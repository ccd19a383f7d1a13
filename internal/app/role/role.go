package role

// Role определяет уровень доступа пользователя в системе
type Role int

const (
	Viewer  Role = iota // просмотр контрактов и подписок
	Manager             // редактирование контрактов, подписок и лицензий
	Admin               // управление пользователями и удаление
)

func (r Role) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Manager:
		return "manager"
	case Admin:
		return "admin"
	}
	return "unknown"
}
