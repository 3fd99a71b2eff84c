package services

import (
	"fmt"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/apperror"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
)

// UserServiceInterface определяет методы для сервиса пользователей
type UserServiceInterface interface {
	GetProfile(userID int) (*models.User, error)
	// UpdateUserProfile обновляет профиль пользователя с проверкой прав доступа
	UpdateUserProfile(requestingUser *models.User, targetUserID int, updateData *models.UserUpdateDTO) error
	// SetLeaveBalance устанавливает остаток дней отпуска (только HR-администратор)
	SetLeaveBalance(requestingUser *models.User, targetUserID int, days int) error
}

// UserService реализует UserServiceInterface
type UserService struct {
	userRepo repositories.UserRepositoryInterface
}

// NewUserService создает новый экземпляр UserService
func NewUserService(userRepo repositories.UserRepositoryInterface) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// GetProfile получает профиль пользователя без хеша пароля
func (s *UserService) GetProfile(userID int) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профиля пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperror.Newf(apperror.CodeNotFound, "пользователь %d не найден", userID)
	}
	user.Password = ""
	return user, nil
}

// UpdateUserProfile обновляет профиль пользователя с проверкой прав доступа.
// Свои данные может менять каждый; чужие - только HR-администратор.
func (s *UserService) UpdateUserProfile(requestingUser *models.User, targetUserID int, updateData *models.UserUpdateDTO) error {
	if requestingUser == nil {
		return apperror.New(apperror.CodeForbidden, "не удалось определить запрашивающего пользователя")
	}
	if updateData == nil {
		return apperror.New(apperror.CodeValidation, "данные для обновления не предоставлены")
	}

	isSelfUpdate := requestingUser.ID == targetUserID
	if !isSelfUpdate && !roles.IsHRApprover(requestingUser.Role) {
		return apperror.New(apperror.CodeForbidden, "недостаточно прав для изменения данных другого пользователя")
	}

	hasUpdates := updateData.FullName != nil || (updateData.Password != nil && *updateData.Password != "")
	if !hasUpdates {
		return apperror.New(apperror.CodeValidation, "нет допустимых полей для обновления")
	}

	err := s.userRepo.UpdateUser(targetUserID, updateData)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя в репозитории: %w", err)
	}

	return nil
}

// SetLeaveBalance устанавливает остаток дней отпуска пользователю
func (s *UserService) SetLeaveBalance(requestingUser *models.User, targetUserID int, days int) error {
	if requestingUser == nil || !roles.IsHRApprover(requestingUser.Role) {
		return apperror.New(apperror.CodeForbidden, "управление остатками доступно только HR-администратору")
	}
	if days < 0 {
		return apperror.New(apperror.CodeValidation, "остаток дней отпуска не может быть отрицательным")
	}
	if err := s.userRepo.SetLeaveBalance(targetUserID, days); err != nil {
		return fmt.Errorf("ошибка установки остатка отпуска: %w", err)
	}
	return nil
}
