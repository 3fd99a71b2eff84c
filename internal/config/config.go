package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Leave    LeaveConfig
}

// ServerConfig - конфигурация сервера
type ServerConfig struct {
	Port string
}

// DatabaseConfig - конфигурация базы данных
type DatabaseConfig struct {
	DSN string // Data Source Name (e.g., "user:password@tcp(localhost:3306)/hr_portal?parseTime=true")
}

// JWTConfig - конфигурация JWT
type JWTConfig struct {
	Secret string
}

// StorageConfig - конфигурация файлового хранилища вложений
type StorageConfig struct {
	BaseURL string // базовый URL, относительно которого разрешаются ссылки на вложения
}

// LeaveConfig - параметры отпусков по умолчанию
type LeaveConfig struct {
	DefaultBalanceDays int // годовой остаток для нового сотрудника
}

// Load загружает конфигурацию из переменных окружения (.env поддерживается).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Предупреждение: файл .env не найден, используются переменные окружения")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", ":8080"),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Storage: StorageConfig{
			BaseURL: getEnv("STORAGE_BASE_URL", "https://storage.example.com/attachments"),
		},
		Leave: LeaveConfig{
			DefaultBalanceDays: getEnvInt("LEAVE_DEFAULT_BALANCE_DAYS", 21),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("необходимо указать DSN базы данных (DB_DSN)")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("необходимо установить секретный ключ JWT (JWT_SECRET)")
	}
	if cfg.Server.Port == "" {
		return nil, errors.New("необходимо указать порт сервера")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Некорректное значение для параметра '%s': %v", key, err)
		return fallback
	}
	return val
}
