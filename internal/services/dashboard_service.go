package services

import (
	"fmt"
	"log"
	"time"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
)

// DashboardServiceInterface определяет методы агрегации данных главного экрана
type DashboardServiceInterface interface {
	GetDashboard(userID int, now time.Time) (*models.Dashboard, error)
}

// DashboardService собирает данные главного экрана.
// Форма ответа зависит от роли: для согласующих добавляется распределение
// ожидающих заявок. Отсутствие части данных не роняет экран целиком.
type DashboardService struct {
	userRepo       repositories.UserRepositoryInterface
	leaveRepo      repositories.LeaveRepositoryInterface
	attendanceRepo repositories.AttendanceRepositoryInterface
	feedRepo       repositories.FeedRepositoryInterface
}

// NewDashboardService создает новый экземпляр DashboardService
func NewDashboardService(
	userRepo repositories.UserRepositoryInterface,
	leaveRepo repositories.LeaveRepositoryInterface,
	attendanceRepo repositories.AttendanceRepositoryInterface,
	feedRepo repositories.FeedRepositoryInterface,
) *DashboardService {
	return &DashboardService{
		userRepo:       userRepo,
		leaveRepo:      leaveRepo,
		attendanceRepo: attendanceRepo,
		feedRepo:       feedRepo,
	}
}

// GetDashboard собирает агрегированные данные для пользователя
func (s *DashboardService) GetDashboard(userID int, now time.Time) (*models.Dashboard, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения данных пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperror.Newf(apperror.CodeNotFound, "пользователь %d не найден", userID)
	}
	user.Password = ""

	dashboard := &models.Dashboard{
		User:          user,
		TodayPunches:  []models.AttendanceEvent{},
		NextPunch:     models.PunchCheckIn,
		Announcements: []models.Announcement{},
		Holidays:      []models.Holiday{},
	}

	punches, err := s.attendanceRepo.ListForDay(userID, now)
	if err != nil {
		log.Printf("[Service GetDashboard] Failed to load today punches for user %d: %v", userID, err)
	} else {
		dashboard.TodayPunches = punches
		if len(punches) > 0 && punches[len(punches)-1].Type == models.PunchCheckIn {
			dashboard.NextPunch = models.PunchCheckOut
		}
	}

	pendingCount, err := s.leaveRepo.CountPendingByUser(userID)
	if err != nil {
		log.Printf("[Service GetDashboard] Failed to count pending requests for user %d: %v", userID, err)
	} else {
		dashboard.MyPendingCount = pendingCount
	}

	announcements, err := s.feedRepo.ListAnnouncements(5)
	if err != nil {
		log.Printf("[Service GetDashboard] Failed to load announcements: %v", err)
	} else {
		dashboard.Announcements = announcements
	}

	holidays, err := s.feedRepo.ListHolidays()
	if err != nil {
		log.Printf("[Service GetDashboard] Failed to load holidays: %v", err)
	} else {
		dashboard.Holidays = holidays
	}

	if roles.IsApprover(user.Role) {
		counts, err := s.leaveRepo.CountPendingByType()
		if err != nil {
			log.Printf("[Service GetDashboard] Failed to load pending breakdown for approver %d: %v", userID, err)
		} else {
			breakdown := &models.PendingBreakdown{ByType: map[string]int{}}
			for leaveType := range models.KnownLeaveTypes {
				breakdown.ByType[leaveType] = 0
			}
			for leaveType, count := range counts {
				breakdown.ByType[leaveType] = count
				breakdown.Total += count
			}
			dashboard.AssignedPending = breakdown
		}
	}

	return dashboard, nil
}
