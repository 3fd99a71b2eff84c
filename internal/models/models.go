package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// --- Статусы заявок на отпуск ---
// Статусы хранятся в БД как числовые идентификаторы. Терминальные статусы
// (Approved, Rejected, Cancelled) не допускают повторных переходов.
const (
	StatusPending   = 1 // На рассмотрении (начальный)
	StatusApproved  = 2 // Утверждена (терминальный)
	StatusRejected  = 3 // Отклонена (терминальный)
	StatusCancelled = 4 // Отменена (терминальный)
)

// StatusName возвращает строковое имя статуса для ответов API.
func StatusName(statusID int) string {
	switch statusID {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminalStatus сообщает, является ли статус терминальным.
func IsTerminalStatus(statusID int) bool {
	return statusID == StatusApproved || statusID == StatusRejected || statusID == StatusCancelled
}

// --- Типы отпусков ---
const (
	LeaveTypeAnnual    = "annual"
	LeaveTypeSick      = "sick"
	LeaveTypeEmergency = "emergency"
	LeaveTypeUnpaid    = "unpaid"
	LeaveTypeMaternity = "maternity"
)

// KnownLeaveTypes - допустимые категории заявок.
var KnownLeaveTypes = map[string]bool{
	LeaveTypeAnnual:    true,
	LeaveTypeSick:      true,
	LeaveTypeEmergency: true,
	LeaveTypeUnpaid:    true,
	LeaveTypeMaternity: true,
}

// --- Типы отметок посещаемости ---
const (
	PunchCheckIn  = "check_in"
	PunchCheckOut = "check_out"
)

// CustomDate - обертка над time.Time для дат заявок.
// Принимает из JSON как дату "2006-01-02", так и полный RFC3339,
// сериализуется всегда как дата без времени.
type CustomDate struct {
	time.Time
}

const customDateFormat = "2006-01-02"

// UnmarshalJSON implements the json.Unmarshaler interface.
func (cd *CustomDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		cd.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(customDateFormat, s)
	if err != nil {
		// Фронтенд исторически присылает и полный timestamp
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("некорректный формат даты '%s': %w", s, err)
		}
	}
	cd.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (cd CustomDate) MarshalJSON() ([]byte, error) {
	if cd.Time.IsZero() {
		return json.Marshal(nil)
	}
	return json.Marshal(cd.Time.Format(customDateFormat))
}

// Value implements the driver.Valuer interface.
func (cd CustomDate) Value() (driver.Value, error) {
	if cd.Time.IsZero() {
		return nil, nil
	}
	return cd.Time, nil
}

// Scan implements the sql.Scanner interface.
func (cd *CustomDate) Scan(value interface{}) error {
	if value == nil {
		cd.Time = time.Time{}
		return nil
	}
	if t, ok := value.(time.Time); ok {
		cd.Time = t
		return nil
	}
	return fmt.Errorf("не удалось сканировать тип %T в CustomDate", value)
}

// User - модель пользователя
type User struct {
	ID           int       `json:"id" db:"id"`
	Login        string    `json:"login" db:"login"`
	Password     string    `json:"-" db:"password"`
	FullName     string    `json:"full_name" db:"full_name"`
	EmployeeCode string    `json:"employee_code" db:"employee_code"`
	Role         string    `json:"role" db:"role"`
	LeaveBalance int       `json:"leave_balance" db:"leave_balance"` // остаток дней отпуска
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserUpdateDTO - структура для обновления данных пользователя.
// Указатели, чтобы различать пустое значение и отсутствие поля.
type UserUpdateDTO struct {
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

// LeaveRequest - модель заявки на отпуск.
// status - трек согласования линейным руководителем,
// hr_status - независимый трек согласования HR-отделом.
type LeaveRequest struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"user_id" db:"user_id"`
	LeaveType   string     `json:"leave_type" db:"leave_type"`
	StartDate   CustomDate `json:"start_date" db:"start_date"`
	EndDate     CustomDate `json:"end_date" db:"end_date"`
	Days        int        `json:"days" db:"days"` // включительное число дней между датами
	StatusID    int        `json:"status_id" db:"status_id"`
	Status      string     `json:"status" db:"-"`
	HRStatusID  int        `json:"hr_status_id" db:"hr_status_id"`
	HRStatus    string     `json:"hr_status" db:"-"`
	Description string     `json:"description" db:"description"`
	Attachment  *string    `json:"attachment,omitempty" db:"attachment"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// FillStatusNames заполняет отображаемые имена статусов из числовых идентификаторов.
func (r *LeaveRequest) FillStatusNames() {
	r.Status = StatusName(r.StatusID)
	r.HRStatus = StatusName(r.HRStatusID)
}

// LeaveRequestAdminView - заявка с данными сотрудника для списков руководителя/HR.
type LeaveRequestAdminView struct {
	LeaveRequest
	UserFullName     string `json:"user_full_name" db:"full_name"`
	UserEmployeeCode string `json:"user_employee_code" db:"employee_code"`
}

// DaysInclusive возвращает включительное число календарных дней между датами.
// Например, 2024-06-10..2024-06-12 - это 3 дня.
func DaysInclusive(start, end CustomDate) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// AttendanceEvent - событие посещаемости (отметка входа или выхода).
// Журнал только дополняется: события никогда не изменяются и не удаляются.
type AttendanceEvent struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"`
	EmployeeCode string    `json:"employee_code" db:"employee_code"`
	Type         string    `json:"type" db:"type"` // check_in | check_out
	LogTime      time.Time `json:"log_time" db:"log_time"`
	ProjectID    *int      `json:"project_id" db:"project_id"` // геозона, в которой зафиксировано событие
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

/// Project - проект с геозоной (круговая граница: центр + радиус в метрах).
type Project struct {
	ID           int     `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	RadiusMeters float64 `json:"radius_meters" db:"radius_meters"`
	IsActive     bool    `json:"is_active" db:"is_active"`
}

// ProjectRange - результат проверки геозоны для одного проекта.
type ProjectRange struct {
	ProjectID      int     `json:"project_id"`
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distance_meters"`
	InRange        bool    `json:"in_range"`
}

// Notification - модель уведомления
type Notification struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Announcement - объявление для всех сотрудников (только чтение)
type Announcement struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Body        string    `json:"body" db:"body"`
	EffectiveAt time.Time `json:"effective_at" db:"effective_at"`
}

// Holiday - праздничный день (только чтение)
type Holiday struct {
	ID   int        `json:"id" db:"id"`
	Name string     `json:"name" db:"name"`
	Date CustomDate `json:"date" db:"date"`
}

// --- Категории элементов ленты ---
const (
	FeedCategoryNotification = "notification"
	FeedCategoryAnnouncement = "announcement"
	FeedCategoryHoliday      = "holiday"
)

// FeedItem - элемент объединенной информационной ленты.
// Флаг Read присутствует только у настоящих уведомлений.
type FeedItem struct {
	ID          int       `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	EffectiveAt time.Time `json:"effective_at"`
	Read        *bool     `json:"read,omitempty"`
}

// PendingBreakdown - распределение ожидающих заявок по категориям
// для очереди согласующего. Нулевые значения валидны (бейдж скрывается).
type PendingBreakdown struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// Dashboard - агрегированные данные для главного экрана, форма зависит от роли.
type Dashboard struct {
	User            *User             `json:"user"`
	TodayPunches    []AttendanceEvent `json:"today_punches"`
	NextPunch       string            `json:"next_punch"`
	MyPendingCount  int               `json:"my_pending_count"`
	Announcements   []Announcement    `json:"announcements"`
	Holidays        []Holiday         `json:"holidays"`
	AssignedPending *PendingBreakdown `json:"assigned_pending,omitempty"` // только для согласующих ролей
}

// ListParams - параметры пагинации и фильтрации списков заявок.
type ListParams struct {
	Page      int
	PerPage   int
	StartDate *CustomDate
	EndDate   *CustomDate
}

// Limit возвращает размер страницы с разумными границами.
func (p ListParams) Limit() int {
	if p.PerPage < 1 {
		return 20
	}
	if p.PerPage > 100 {
		return 100
	}
	return p.PerPage
}

// Offset возвращает смещение для SQL LIMIT/OFFSET.
func (p ListParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit()
}
