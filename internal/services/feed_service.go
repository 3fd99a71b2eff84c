package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
)

// FeedServiceInterface определяет методы для информационной ленты
type FeedServiceInterface interface {
	GetNotifications(userID int) ([]models.Notification, error)
	MarkRead(notificationID int, userID int) error
	GetAnnouncements() ([]models.Announcement, error)
	GetHolidays() ([]models.Holiday, error)
	// GetFeed возвращает объединенную ленту: уведомления пользователя,
	// объявления и праздники, отсортированные по убыванию даты.
	GetFeed(userID int) ([]models.FeedItem, error)
}

// FeedService реализует FeedServiceInterface
type FeedService struct {
	feedRepo repositories.FeedRepositoryInterface
}

// NewFeedService создает новый экземпляр FeedService
func NewFeedService(feedRepo repositories.FeedRepositoryInterface) *FeedService {
	return &FeedService{feedRepo: feedRepo}
}

// GetNotifications получает уведомления пользователя
func (s *FeedService) GetNotifications(userID int) ([]models.Notification, error) {
	return s.feedRepo.ListNotifications(userID)
}

// MarkRead помечает одно уведомление пользователя прочитанным
func (s *FeedService) MarkRead(notificationID int, userID int) error {
	err := s.feedRepo.MarkNotificationRead(notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperror.Newf(apperror.CodeNotFound, "уведомление %d не найдено", notificationID)
		}
		return fmt.Errorf("ошибка пометки уведомления прочитанным: %w", err)
	}
	return nil
}

// GetAnnouncements получает объявления
func (s *FeedService) GetAnnouncements() ([]models.Announcement, error) {
	return s.feedRepo.ListAnnouncements(50)
}

// GetHolidays получает праздничные дни
func (s *FeedService) GetHolidays() ([]models.Holiday, error) {
	return s.feedRepo.ListHolidays()
}

// GetFeed собирает объединенную информационную ленту.
// Ошибка любого источника не роняет ленту целиком: источник пропускается.
func (s *FeedService) GetFeed(userID int) ([]models.FeedItem, error) {
	items := []models.FeedItem{}

	notifications, err := s.feedRepo.ListNotifications(userID)
	if err == nil {
		for _, n := range notifications {
			read := n.IsRead
			items = append(items, models.FeedItem{
				ID:          n.ID,
				Category:    models.FeedCategoryNotification,
				Title:       n.Title,
				Body:        n.Message,
				EffectiveAt: n.CreatedAt,
				Read:        &read,
			})
		}
	}

	announcements, err := s.feedRepo.ListAnnouncements(50)
	if err == nil {
		for _, a := range announcements {
			items = append(items, models.FeedItem{
				ID:          a.ID,
				Category:    models.FeedCategoryAnnouncement,
				Title:       a.Title,
				Body:        a.Body,
				EffectiveAt: a.EffectiveAt,
			})
		}
	}

	holidays, err := s.feedRepo.ListHolidays()
	if err == nil {
		for _, h := range holidays {
			items = append(items, models.FeedItem{
				ID:          h.ID,
				Category:    models.FeedCategoryHoliday,
				Title:       h.Name,
				EffectiveAt: h.Date.Time,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].EffectiveAt.After(items[j].EffectiveAt)
	})
	return items, nil
}
