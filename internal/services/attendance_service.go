package services

import (
	"fmt"
	"log"
	"time"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/geo"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
)

// PunchInput - данные отметки посещаемости от устройства
type PunchInput struct {
	Type              string  `json:"type"` // check_in | check_out
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	BiometricVerified bool    `json:"biometric_verified"`
}

// AttendanceServiceInterface определяет методы шлюза посещаемости с геозонами
type AttendanceServiceInterface interface {
	// CheckGeofence возвращает результат проверки координат против геозон всех
	// активных проектов и идентификатор первого подходящего проекта (или nil).
	CheckGeofence(lat, lng float64) ([]models.ProjectRange, *int, error)
	// DecideNextPunch определяет следующую допустимую отметку пользователя:
	// check_in, если событий за день нет или последнее - check_out, иначе check_out.
	DecideNextPunch(userID int, now time.Time) (string, error)
	SubmitPunch(userID int, input PunchInput, now time.Time) (*models.AttendanceEvent, error)
	GetUserEvents(userID int, p models.ListParams) ([]models.AttendanceEvent, error)
	GetDayEvents(userID int, day time.Time) ([]models.AttendanceEvent, error)
}

// AttendanceService реализует AttendanceServiceInterface
type AttendanceService struct {
	attendanceRepo repositories.AttendanceRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
}

// NewAttendanceService создает новый экземпляр AttendanceService
func NewAttendanceService(attendanceRepo repositories.AttendanceRepositoryInterface, userRepo repositories.UserRepositoryInterface) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
	}
}

// CheckGeofence проверяет координаты против геозон активных проектов.
// Несколько одновременно подходящих проектов не различаются:
// берется первый по порядку выдачи.
func (s *AttendanceService) CheckGeofence(lat, lng float64) ([]models.ProjectRange, *int, error) {
	projects, err := s.attendanceRepo.ListActiveProjects()
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка получения проектов для проверки геозоны: %w", err)
	}

	results := make([]models.ProjectRange, 0, len(projects))
	var firstInRange *int
	for _, project := range projects {
		distance := geo.Distance(lat, lng, project.Latitude, project.Longitude)
		inRange := distance <= project.RadiusMeters
		results = append(results, models.ProjectRange{
			ProjectID:      project.ID,
			Name:           project.Name,
			DistanceMeters: distance,
			InRange:        inRange,
		})
		if inRange && firstInRange == nil {
			id := project.ID
			firstInRange = &id
		}
	}
	return results, firstInRange, nil
}

// DecideNextPunch определяет следующую допустимую отметку за день
func (s *AttendanceService) DecideNextPunch(userID int, now time.Time) (string, error) {
	last, err := s.attendanceRepo.LastEventForDay(userID, now)
	if err != nil {
		return "", fmt.Errorf("ошибка получения последнего события за день: %w", err)
	}
	if last == nil || last.Type == models.PunchCheckOut {
		return models.PunchCheckIn, nil
	}
	return models.PunchCheckOut, nil
}

// SubmitPunch добавляет отметку в журнал посещаемости.
// Требования: подтвержденная биометрия, координаты внутри геозоны какого-либо
// проекта, строгое чередование вход/выход в пределах дня. Нарушение чередования
// возвращается как конфликт с подсказкой дополняющего действия.
func (s *AttendanceService) SubmitPunch(userID int, input PunchInput, now time.Time) (*models.AttendanceEvent, error) {
	if input.Type != models.PunchCheckIn && input.Type != models.PunchCheckOut {
		return nil, apperror.Newf(apperror.CodeValidation, "неизвестный тип отметки '%s'", input.Type)
	}
	if !input.BiometricVerified {
		return nil, apperror.New(apperror.CodeForbidden, "требуется подтверждение биометрии на устройстве")
	}

	_, projectID, err := s.CheckGeofence(input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}
	if projectID == nil {
		log.Printf("[Service SubmitPunch] Out of range: user %d at (%f, %f)", userID, input.Latitude, input.Longitude)
		return nil, apperror.New(apperror.CodeForbidden, "вы находитесь вне зоны проекта, отметка недоступна")
	}

	expected, err := s.DecideNextPunch(userID, now)
	if err != nil {
		return nil, err
	}
	if input.Type != expected {
		// Двойной вход или выход без входа: предлагаем дополняющее действие
		var msg string
		if expected == models.PunchCheckOut {
			msg = "вход уже отмечен, доступна только отметка выхода"
		} else {
			msg = "выход уже отмечен или входа ещё не было, доступна только отметка входа"
		}
		return nil, apperror.Newf(apperror.CodeConflict, "конфликт отметки: %s", msg).WithHint(expected)
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения данных пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperror.Newf(apperror.CodeNotFound, "пользователь %d не найден", userID)
	}

	event := &models.AttendanceEvent{
		UserID:       userID,
		EmployeeCode: user.EmployeeCode,
		Type:         input.Type,
		LogTime:      now,
		ProjectID:    projectID,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
	}
	if err := s.attendanceRepo.Append(event); err != nil {
		return nil, fmt.Errorf("ошибка записи отметки посещаемости: %w", err)
	}
	log.Printf("[Service SubmitPunch] UserID: %d, Type: %s, ProjectID: %d", userID, input.Type, *projectID)
	return event, nil
}

// GetUserEvents получает журнал посещаемости пользователя
func (s *AttendanceService) GetUserEvents(userID int, p models.ListParams) ([]models.AttendanceEvent, error) {
	return s.attendanceRepo.ListByUser(userID, p)
}

// GetDayEvents получает события пользователя за день
func (s *AttendanceService) GetDayEvents(userID int, day time.Time) ([]models.AttendanceEvent, error) {
	return s.attendanceRepo.ListForDay(userID, day)
}
