package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
)

// AttendanceRepositoryInterface определяет методы для журнала посещаемости.
// Журнал только дополняется: методов изменения или удаления событий нет.
type AttendanceRepositoryInterface interface {
	// LastEventForDay возвращает последнее событие пользователя за календарный день
	// или nil, если событий за день не было.
	LastEventForDay(userID int, day time.Time) (*models.AttendanceEvent, error)
	Append(event *models.AttendanceEvent) error
	ListByUser(userID int, p models.ListParams) ([]models.AttendanceEvent, error)
	ListForDay(userID int, day time.Time) ([]models.AttendanceEvent, error)
	ListActiveProjects() ([]models.Project, error)
}

// AttendanceRepository реализует AttendanceRepositoryInterface
type AttendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository создает новый экземпляр AttendanceRepository
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, user_id, employee_code, type, log_time, project_id, latitude, longitude, created_at`

func scanAttendanceEvent(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.AttendanceEvent, error) {
	event := &models.AttendanceEvent{}
	var projectID sql.NullInt64
	err := scanner.Scan(
		&event.ID, &event.UserID, &event.EmployeeCode, &event.Type,
		&event.LogTime, &projectID, &event.Latitude, &event.Longitude,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if projectID.Valid {
		pid := int(projectID.Int64)
		event.ProjectID = &pid
	}
	return event, nil
}

// dayBounds возвращает границы календарного дня [from, to)
func dayBounds(day time.Time) (time.Time, time.Time) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return from, from.Add(24 * time.Hour)
}

// LastEventForDay возвращает последнее событие пользователя за день
func (r *AttendanceRepository) LastEventForDay(userID int, day time.Time) (*models.AttendanceEvent, error) {
	from, to := dayBounds(day)
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_events
		WHERE user_id = ? AND log_time >= ? AND log_time < ?
		ORDER BY log_time DESC, id DESC
		LIMIT 1`

	event, err := scanAttendanceEvent(r.db.QueryRow(query, userID, from, to))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Событий за день не было
		}
		return nil, fmt.Errorf("ошибка получения последнего события посещаемости пользователя %d: %w", userID, err)
	}
	return event, nil
}

// Append добавляет новое событие в журнал посещаемости
func (r *AttendanceRepository) Append(event *models.AttendanceEvent) error {
	query := `
		INSERT INTO attendance_events
			(user_id, employee_code, type, log_time, project_id, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

	result, err := r.db.Exec(query,
		event.UserID, event.EmployeeCode, event.Type, event.LogTime,
		event.ProjectID, event.Latitude, event.Longitude,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи события посещаемости: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("ошибка получения ID события посещаемости: %w", err)
	}
	event.ID = int(id)
	return nil
}

// ListByUser получает события пользователя с пагинацией (новые первыми)
func (r *AttendanceRepository) ListByUser(userID int, p models.ListParams) ([]models.AttendanceEvent, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_events WHERE user_id = ?`
	args := []interface{}{userID}
	if p.StartDate != nil {
		query += " AND log_time >= ?"
		args = append(args, p.StartDate)
	}
	if p.EndDate != nil {
		query += " AND log_time < ?"
		args = append(args, p.EndDate.Add(24*time.Hour))
	}
	query += " ORDER BY log_time DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, p.Limit(), p.Offset())

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала посещаемости пользователя %d: %w", userID, err)
	}
	defer rows.Close()

	events := []models.AttendanceEvent{}
	for rows.Next() {
		event, err := scanAttendanceEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования события посещаемости: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// ListForDay получает все события пользователя за день в хронологическом порядке
func (r *AttendanceRepository) ListForDay(userID int, day time.Time) ([]models.AttendanceEvent, error) {
	from, to := dayBounds(day)
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_events
		WHERE user_id = ? AND log_time >= ? AND log_time < ?
		ORDER BY log_time ASC, id ASC`

	rows, err := r.db.Query(query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения событий за день пользователя %d: %w", userID, err)
	}
	defer rows.Close()

	events := []models.AttendanceEvent{}
	for rows.Next() {
		event, err := scanAttendanceEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования события посещаемости: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// ListActiveProjects получает активные проекты с геозонами
func (r *AttendanceRepository) ListActiveProjects() ([]models.Project, error) {
	query := `
		SELECT id, name, latitude, longitude, radius_meters, is_active
		FROM projects
		WHERE is_active = 1
		ORDER BY id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка проектов: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project := models.Project{}
		err := rows.Scan(&project.ID, &project.Name, &project.Latitude,
			&project.Longitude, &project.RadiusMeters, &project.IsActive)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования проекта: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
