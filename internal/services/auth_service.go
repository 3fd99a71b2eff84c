package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthServiceInterface определяет методы аутентификации
type AuthServiceInterface interface {
	Login(login, password string) (string, *models.User, error)
	Register(login, password, fullName, employeeCode, role string, balanceDays int) (*models.User, error)
	ValidateToken(tokenString string) (*models.User, error)
}

// AuthService предоставляет методы для аутентификации пользователей
type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	jwtSecret string
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(userRepo repositories.UserRepositoryInterface, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Login проверяет учетные данные пользователя и возвращает JWT токен
func (s *AuthService) Login(login, password string) (string, *models.User, error) {
	// 1. Найти пользователя по логину
	user, err := s.userRepo.FindByLogin(login)
	if err != nil {
		return "", nil, errors.New("ошибка при поиске пользователя")
	}
	if user == nil {
		return "", nil, errors.New("неверный логин или пароль")
	}

	// 2. Сравнить хеш пароля из БД с предоставленным паролем
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return "", nil, errors.New("неверный логин или пароль")
	}

	// 3. Сгенерировать JWT токен. Роль кладется в claims и далее
	// определяет доступные префиксы маршрутов.
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"login":   user.Login,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour * 72).Unix(), // Токен действителен 72 часа
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, errors.New("внутренняя ошибка сервера при генерации токена")
	}

	// Убираем хеш пароля перед возвратом данных пользователя
	user.Password = ""

	return tokenString, user, nil
}

// Register создает нового пользователя.
// Неизвестная роль закрывается в employee, как и при разрешении маршрутов.
func (s *AuthService) Register(login, password, fullName, employeeCode, role string, balanceDays int) (*models.User, error) {
	existingUser, err := s.userRepo.FindByLogin(login)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существующего пользователя: %w", err)
	}
	if existingUser != nil {
		return nil, errors.New("пользователь с таким логином уже существует")
	}

	if !roles.Known(role) {
		role = roles.RoleEmployee
	}

	newUser := &models.User{
		Login:        login,
		Password:     password, // Пароль будет хеширован в репозитории
		FullName:     fullName,
		EmployeeCode: employeeCode,
		Role:         role,
		LeaveBalance: balanceDays,
	}

	err = s.userRepo.CreateUser(newUser)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя в сервисе: %w", err)
	}

	// Пароль уже очищен в репозитории после создания
	return newUser, nil
}

// ValidateToken проверяет валидность токена и возвращает пользователя
func (s *AuthService) ValidateToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неожиданный метод подписи токена")
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, errors.New("невалидный токен")
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if expFloat, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(expFloat) {
				return nil, errors.New("срок действия токена истек")
			}
		} else {
			return nil, errors.New("некорректный формат срока действия токена")
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			return nil, errors.New("некорректный формат ID пользователя в токене")
		}
		userID := int(userIDFloat)

		user, err := s.userRepo.FindByID(userID)
		if err != nil || user == nil {
			return nil, errors.New("пользователь из токена не найден")
		}
		user.Password = ""
		return user, nil
	}

	return nil, errors.New("невалидный токен")
}
