package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/services"
)

// AuthHandler обрабатывает запросы аутентификации
type AuthHandler struct {
	authService        services.AuthServiceInterface
	defaultBalanceDays int
}

// NewAuthHandler создает новый экземпляр AuthHandler
func NewAuthHandler(authService services.AuthServiceInterface, defaultBalanceDays int) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		defaultBalanceDays: defaultBalanceDays,
	}
}

// Login обработчик входа. Помимо токена возвращает разрешение роли:
// префикс API и набор доступных пунктов навигации.
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	token, user, err := h.authService.Login(input.Login, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user":       user,
		"resolution": roles.Resolve(user.Role),
	})
}

// Register обработчик регистрации нового сотрудника
func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Login        string `json:"login" binding:"required"`
		Password     string `json:"password" binding:"required"`
		FullName     string `json:"full_name" binding:"required"`
		EmployeeCode string `json:"employee_code"`
		Role         string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	user, err := h.authService.Register(input.Login, input.Password, input.FullName,
		input.EmployeeCode, input.Role, h.defaultBalanceDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, user)
}
