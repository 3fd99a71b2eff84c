package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
)

// ErrRequestNotFound - заявка не найдена в БД
var ErrRequestNotFound = errors.New("заявка на отпуск не найдена")

// LeaveRepositoryInterface определяет методы для работы с заявками на отпуск
type LeaveRepositoryInterface interface {
	GetByID(requestID int) (*models.LeaveRequest, error)
	Save(request *models.LeaveRequest) error
	// UpdateStatusIfPending атомарно переводит статус трека линейного руководителя
	// из Pending в newStatusID; возвращает false, если заявка уже не Pending.
	UpdateStatusIfPending(requestID int, newStatusID int) (bool, error)
	// UpdateHRStatusIfPending - то же для HR-трека.
	UpdateHRStatusIfPending(requestID int, newStatusID int) (bool, error)
	ListByUser(userID int, p models.ListParams) ([]models.LeaveRequest, error)
	ListAll(statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error)
	CountPendingByType() (map[string]int, error)
	CountPendingByUser(userID int) (int, error)
}

// LeaveRepository предоставляет методы для работы с заявками в БД
type LeaveRepository struct {
	db *sql.DB
}

// NewLeaveRepository создает новый экземпляр LeaveRepository
func NewLeaveRepository(db *sql.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, user_id, leave_type, start_date, end_date, days, status_id, hr_status_id, description, attachment, created_at, updated_at`

func scanLeaveRequest(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.LeaveRequest, error) {
	req := &models.LeaveRequest{}
	var attachment sql.NullString
	err := scanner.Scan(
		&req.ID, &req.UserID, &req.LeaveType, &req.StartDate, &req.EndDate,
		&req.Days, &req.StatusID, &req.HRStatusID, &req.Description,
		&attachment, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if attachment.Valid {
		req.Attachment = &attachment.String
	}
	req.FillStatusNames()
	return req, nil
}

// GetByID получает заявку по идентификатору
func (r *LeaveRepository) GetByID(requestID int) (*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = ?`
	req, err := scanLeaveRequest(r.db.QueryRow(query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки %d из БД: %w", requestID, err)
	}
	return req, nil
}

// Save сохраняет новую заявку на отпуск
func (r *LeaveRepository) Save(request *models.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests
			(user_id, leave_type, start_date, end_date, days, status_id, hr_status_id, description, attachment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	result, err := r.db.Exec(query,
		request.UserID, request.LeaveType, request.StartDate, request.EndDate,
		request.Days, request.StatusID, request.HRStatusID, request.Description, request.Attachment,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения заявки в БД: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("ошибка получения ID созданной заявки: %w", err)
	}
	request.ID = int(id)
	return nil
}

// UpdateStatusIfPending атомарно переводит статус заявки из Pending.
// Условие WHERE защищает терминальные статусы от повторных переходов
// даже при конкурентных запросах.
func (r *LeaveRepository) UpdateStatusIfPending(requestID int, newStatusID int) (bool, error) {
	query := `
		UPDATE leave_requests
		SET status_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status_id = ?`
	result, err := r.db.Exec(query, newStatusID, requestID, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления статуса заявки %d: %w", requestID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки результата обновления заявки %d: %w", requestID, err)
	}
	return rows == 1, nil
}

// UpdateHRStatusIfPending атомарно переводит HR-статус заявки из Pending
func (r *LeaveRepository) UpdateHRStatusIfPending(requestID int, newStatusID int) (bool, error) {
	query := `
		UPDATE leave_requests
		SET hr_status_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND hr_status_id = ?`
	result, err := r.db.Exec(query, newStatusID, requestID, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления HR-статуса заявки %d: %w", requestID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки результата обновления HR-статуса заявки %d: %w", requestID, err)
	}
	return rows == 1, nil
}

// buildDateFilter добавляет фильтры по датам к запросу
func buildDateFilter(query string, args []interface{}, p models.ListParams) (string, []interface{}) {
	if p.StartDate != nil {
		query += " AND end_date >= ?"
		args = append(args, p.StartDate)
	}
	if p.EndDate != nil {
		query += " AND start_date <= ?"
		args = append(args, p.EndDate)
	}
	return query, args
}

// ListByUser получает заявки пользователя с пагинацией и фильтром по датам
func (r *LeaveRepository) ListByUser(userID int, p models.ListParams) ([]models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE user_id = ?`
	args := []interface{}{userID}
	query, args = buildDateFilter(query, args, p)
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, p.Limit(), p.Offset())

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок пользователя %d: %w", userID, err)
	}
	defer rows.Close()

	requests := []models.LeaveRequest{}
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			log.Printf("[Repo ListByUser] Ошибка сканирования строки заявки: %v", err)
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// ListAll получает заявки всех сотрудников для списков согласующих
func (r *LeaveRepository) ListAll(statusFilter *int, p models.ListParams) ([]models.LeaveRequestAdminView, error) {
	query := `
		SELECT r.id, r.user_id, r.leave_type, r.start_date, r.end_date, r.days,
		       r.status_id, r.hr_status_id, r.description, r.attachment, r.created_at, r.updated_at,
		       u.full_name, u.employee_code
		FROM leave_requests r
		JOIN users u ON u.id = r.user_id
		WHERE 1=1`
	args := []interface{}{}

	if statusFilter != nil {
		query += " AND r.status_id = ?"
		args = append(args, *statusFilter)
	}
	if p.StartDate != nil {
		query += " AND r.end_date >= ?"
		args = append(args, p.StartDate)
	}
	if p.EndDate != nil {
		query += " AND r.start_date <= ?"
		args = append(args, p.EndDate)
	}
	query += " ORDER BY r.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, p.Limit(), p.Offset())

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	views := []models.LeaveRequestAdminView{}
	for rows.Next() {
		view := models.LeaveRequestAdminView{}
		var attachment sql.NullString
		err := rows.Scan(
			&view.ID, &view.UserID, &view.LeaveType, &view.StartDate, &view.EndDate,
			&view.Days, &view.StatusID, &view.HRStatusID, &view.Description,
			&attachment, &view.CreatedAt, &view.UpdatedAt,
			&view.UserFullName, &view.UserEmployeeCode,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки со сведениями о сотруднике: %w", err)
		}
		if attachment.Valid {
			view.Attachment = &attachment.String
		}
		view.FillStatusNames()
		views = append(views, view)
	}
	return views, rows.Err()
}

// CountPendingByType возвращает распределение ожидающих заявок по категориям.
// Категории без заявок в результат не попадают - сервис дополняет их нулями.
func (r *LeaveRepository) CountPendingByType() (map[string]int, error) {
	query := `
		SELECT leave_type, COUNT(*)
		FROM leave_requests
		WHERE status_id = ?
		GROUP BY leave_type`
	rows, err := r.db.Query(query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета ожидающих заявок по категориям: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var leaveType string
		var count int
		if err := rows.Scan(&leaveType, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования распределения заявок: %w", err)
		}
		counts[leaveType] = count
	}
	return counts, rows.Err()
}

// CountPendingByUser возвращает число ожидающих заявок пользователя
func (r *LeaveRepository) CountPendingByUser(userID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM leave_requests WHERE user_id = ? AND status_id = ?`
	err := r.db.QueryRow(query, userID, models.StatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета ожидающих заявок пользователя %d: %w", userID, err)
	}
	return count, nil
}
