package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
)

// ErrNotificationNotFound - уведомление не найдено или принадлежит другому пользователю
var ErrNotificationNotFound = errors.New("уведомление не найдено")

// FeedRepositoryInterface определяет методы для уведомлений, объявлений и праздников
type FeedRepositoryInterface interface {
	CreateNotification(notification *models.Notification) error
	ListNotifications(userID int) ([]models.Notification, error)
	// MarkNotificationRead помечает прочитанным одно уведомление пользователя.
	// Чужие и несуществующие идентификаторы дают ErrNotificationNotFound.
	MarkNotificationRead(notificationID int, userID int) error
	ListAnnouncements(limit int) ([]models.Announcement, error)
	ListHolidays() ([]models.Holiday, error)
}

// FeedRepository реализует FeedRepositoryInterface
type FeedRepository struct {
	db *sql.DB
}

// NewFeedRepository создает новый экземпляр FeedRepository
func NewFeedRepository(db *sql.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// CreateNotification создает уведомление для пользователя
func (r *FeedRepository) CreateNotification(notification *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, is_read, created_at)
		VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)`
	result, err := r.db.Exec(query, notification.UserID, notification.Title, notification.Message)
	if err != nil {
		return fmt.Errorf("ошибка создания уведомления: %w", err)
	}
	id, err := result.LastInsertId()
	if err == nil {
		notification.ID = int(id)
	}
	return nil
}

// ListNotifications получает уведомления пользователя (новые первыми)
func (r *FeedRepository) ListNotifications(userID int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения уведомлений пользователя %d: %w", userID, err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n := models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования уведомления: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead помечает уведомление прочитанным.
// Условие по user_id не дает пометить чужое уведомление.
func (r *FeedRepository) MarkNotificationRead(notificationID int, userID int) error {
	query := `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`
	result, err := r.db.Exec(query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("ошибка пометки уведомления %d прочитанным: %w", notificationID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка проверки результата пометки уведомления %d: %w", notificationID, err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ListAnnouncements получает последние объявления
func (r *FeedRepository) ListAnnouncements(limit int) ([]models.Announcement, error) {
	if limit < 1 {
		limit = 20
	}
	query := `
		SELECT id, title, body, effective_at
		FROM announcements
		ORDER BY effective_at DESC
		LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объявлений: %w", err)
	}
	defer rows.Close()

	announcements := []models.Announcement{}
	for rows.Next() {
		a := models.Announcement{}
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.EffectiveAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования объявления: %w", err)
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// ListHolidays получает праздничные дни текущего и следующего года
func (r *FeedRepository) ListHolidays() ([]models.Holiday, error) {
	query := `
		SELECT id, name, date
		FROM holidays
		WHERE YEAR(date) >= YEAR(CURRENT_DATE)
		ORDER BY date ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения праздничных дней: %w", err)
	}
	defer rows.Close()

	holidays := []models.Holiday{}
	for rows.Next() {
		h := models.Holiday{}
		if err := rows.Scan(&h.ID, &h.Name, &h.Date); err != nil {
			return nil, fmt.Errorf("ошибка сканирования праздничного дня: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
