package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// UserRepositoryInterface определяет методы для репозитория пользователей
type UserRepositoryInterface interface {
	FindByLogin(login string) (*models.User, error)
	FindByID(id int) (*models.User, error)
	CreateUser(user *models.User) error
	UpdateUser(userID int, updateData *models.UserUpdateDTO) error
	// AddLeaveBalance изменяет остаток дней отпуска на delta (может быть отрицательным)
	AddLeaveBalance(userID int, delta int) error
	SetLeaveBalance(userID int, days int) error
}

// UserRepository реализует UserRepositoryInterface
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, login, password, full_name, employee_code, role, leave_balance, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Login, &user.Password, &user.FullName,
		&user.EmployeeCode, &user.Role, &user.LeaveBalance,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Пользователь не найден, ошибки нет
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя в БД: %w", err)
	}
	return user, nil
}

// FindByLogin находит пользователя по логину
func (r *UserRepository) FindByLogin(login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = ?`
	return scanUser(r.db.QueryRow(query, login))
}

// FindByID находит пользователя по ID
func (r *UserRepository) FindByID(id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRow(query, id))
}

// CreateUser создает нового пользователя, хешируя пароль
func (r *UserRepository) CreateUser(user *models.User) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	query := `
		INSERT INTO users (login, password, full_name, employee_code, role, leave_balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	result, err := r.db.Exec(query, user.Login, string(hashedPassword), user.FullName,
		user.EmployeeCode, user.Role, user.LeaveBalance)
	if err != nil {
		return fmt.Errorf("ошибка создания пользователя в БД: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("ошибка получения ID созданного пользователя: %w", err)
	}
	user.ID = int(id)
	user.Password = "" // Не возвращаем хеш наружу
	return nil
}

// UpdateUser выполняет частичное обновление данных пользователя
func (r *UserRepository) UpdateUser(userID int, updateData *models.UserUpdateDTO) error {
	if updateData.FullName == nil && updateData.Password == nil {
		return nil // Нечего обновлять
	}

	query := "UPDATE users SET updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}

	if updateData.FullName != nil {
		query += ", full_name = ?"
		args = append(args, *updateData.FullName)
	}
	if updateData.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*updateData.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("ошибка хеширования нового пароля: %w", err)
		}
		query += ", password = ?"
		args = append(args, string(hashedPassword))
	}

	query += " WHERE id = ?"
	args = append(args, userID)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя %d: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return errors.New("пользователь для обновления не найден")
	}
	return nil
}

// AddLeaveBalance изменяет остаток дней отпуска пользователя.
// Остаток не опускается ниже нуля.
func (r *UserRepository) AddLeaveBalance(userID int, delta int) error {
	query := `
		UPDATE users
		SET leave_balance = GREATEST(0, leave_balance + ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.db.Exec(query, delta, userID)
	if err != nil {
		return fmt.Errorf("ошибка изменения остатка отпуска (user: %d, delta: %d): %w", userID, delta, err)
	}
	return nil
}

// SetLeaveBalance устанавливает остаток дней отпуска (админское действие)
func (r *UserRepository) SetLeaveBalance(userID int, days int) error {
	if days < 0 {
		return errors.New("остаток дней отпуска не может быть отрицательным")
	}
	query := `UPDATE users SET leave_balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := r.db.Exec(query, days, userID)
	if err != nil {
		return fmt.Errorf("ошибка установки остатка отпуска пользователю %d: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return errors.New("пользователь не найден")
	}
	return nil
}
