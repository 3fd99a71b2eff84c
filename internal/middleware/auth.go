package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
)

// JWTAuth - middleware для проверки JWT токена.
// Кладет в контекст userID и role; неизвестная роль в токене
// закрывается в employee.
func JWTAuth(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Отсутствует заголовок Authorization"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Некорректный формат заголовка Authorization"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// Парсинг и валидация токена
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			// Проверяем метод подписи: убеждаемся, что это HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		})

		if err != nil {
			errorMsg := "Невалидный токен"
			if errors.Is(err, jwt.ErrTokenExpired) {
				errorMsg = "Срок действия токена истек"
			} else if errors.Is(err, jwt.ErrTokenMalformed) {
				errorMsg = "Некорректный формат токена"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": errorMsg})
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
			// Проверка срока действия (дополнительно, хотя Parse уже проверяет)
			if expFloat, ok := claims["exp"].(float64); ok {
				if time.Now().Unix() > int64(expFloat) {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Срок действия токена истек"})
					c.Abort()
					return
				}
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Некорректный формат срока действия токена"})
				c.Abort()
				return
			}

			userIDFloat, okUserID := claims["user_id"].(float64)
			if !okUserID {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка чтения данных из токена"})
				c.Abort()
				return
			}
			// Роль может отсутствовать в старых токенах - безопасное значение employee
			role, _ := claims["role"].(string)
			if !roles.Known(role) {
				role = roles.RoleEmployee
			}

			c.Set("userID", int(userIDFloat))
			c.Set("role", role)

			c.Next()
		} else {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Невалидный токен"})
			c.Abort()
		}
	}
}

// RoleOnly - middleware, пропускающий только перечисленные роли.
// Используется для защиты ролевых префиксов маршрутов.
func RoleOnly(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}
	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists || !allowedSet[roleVal.(string)] {
			c.JSON(http.StatusForbidden, gin.H{"error": "Доступ запрещен для вашей роли."})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ApproverOnly - middleware для маршрутов согласующих (руководители, HR, CEO)
func ApproverOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists || !roles.IsApprover(roleVal.(string)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Доступ запрещен. Требуются права согласующего."})
			c.Abort()
			return
		}
		c.Next()
	}
}
