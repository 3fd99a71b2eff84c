package roles

// Роли пользователей. Неизвестная или пустая роль всегда трактуется
// как employee - это безопасное значение по умолчанию, а не ошибка.
const (
	RoleEmployee           = "employee"
	RoleManager            = "manager"
	RoleHRAdmin            = "hr_admin"
	RoleFinance            = "finance"
	RoleFinanceCoordinator = "finance_coordinator"
	RoleCEO                = "ceo"
)

// Destination - пункт навигации, доступный роли.
type Destination struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Resolution - результат разрешения роли: префикс API и упорядоченный
// набор доступных пунктов навигации.
type Resolution struct {
	Prefix       string        `json:"prefix"`
	Destinations []Destination `json:"destinations"`
}

// Фиксированная таблица префиксов API по ролям.
var prefixes = map[string]string{
	RoleHRAdmin:            "/admin",
	RoleManager:            "/manager",
	RoleFinance:            "/finance",
	RoleFinanceCoordinator: "/finance_coordinator",
	RoleCEO:                "/ceo",
}

// Базовые пункты, присутствующие у каждой роли.
var (
	destRequests = Destination{Key: "requests", Title: "Мои заявки"}
	destProfile  = Destination{Key: "profile", Title: "Профиль"}
)

// Таблица возможностей: роль -> упорядоченный список пунктов навигации.
// Используется вместо ветвления по ролям в коде.
var capabilities = map[string][]Destination{
	RoleEmployee: {
		{Key: "dashboard", Title: "Главная"},
		{Key: "vacations", Title: "Отпуска"},
		destRequests,
		destProfile,
	},
	RoleManager: {
		{Key: "dashboard_manager", Title: "Главная руководителя"},
		{Key: "vacations_team", Title: "Отпуска команды"},
		destRequests,
		destProfile,
	},
	RoleHRAdmin: {
		{Key: "dashboard_admin", Title: "Главная HR"},
		{Key: "vacations_admin", Title: "Управление отпусками"},
		destRequests,
		destProfile,
	},
	RoleFinance: {
		{Key: "dashboard_finance", Title: "Главная финансов"},
		{Key: "vacations", Title: "Отпуска"},
		destRequests,
		destProfile,
	},
	RoleFinanceCoordinator: {
		{Key: "dashboard_finance_coordinator", Title: "Главная координатора"},
		{Key: "vacations", Title: "Отпуска"},
		destRequests,
		destProfile,
	},
	RoleCEO: {
		{Key: "dashboard_ceo", Title: "Главная CEO"},
		{Key: "vacations_team", Title: "Отпуска компании"},
		destRequests,
		destProfile,
	},
}

// Resolve возвращает префикс API и набор пунктов навигации для роли.
// Чистая функция без побочных эффектов; неизвестная роль закрывается
// в минимальный набор employee.
func Resolve(role string) Resolution {
	prefix, ok := prefixes[role]
	if !ok {
		prefix = "/employee"
	}
	dests, ok := capabilities[role]
	if !ok {
		dests = capabilities[RoleEmployee]
	}
	out := make([]Destination, len(dests))
	copy(out, dests)
	return Resolution{Prefix: prefix, Destinations: out}
}

// IsLineApprover сообщает, может ли роль утверждать/отклонять заявки
// по треку линейного руководителя.
func IsLineApprover(role string) bool {
	return role == RoleManager || role == RoleCEO
}

// IsHRApprover сообщает, может ли роль вести HR-трек согласования.
func IsHRApprover(role string) bool {
	return role == RoleHRAdmin
}

// IsApprover сообщает, ведет ли роль хотя бы один трек согласования.
func IsApprover(role string) bool {
	return IsLineApprover(role) || IsHRApprover(role)
}

// Known сообщает, входит ли роль в известный набор.
func Known(role string) bool {
	_, ok := capabilities[role]
	return ok
}

// All возвращает список всех известных ролей (для валидации при регистрации).
func All() []string {
	return []string{RoleEmployee, RoleManager, RoleHRAdmin, RoleFinance, RoleFinanceCoordinator, RoleCEO}
}
