package api

import (
	"net/http"
	"time"

	"backend_fitadmin/database"
	"backend_fitadmin/middleware"
	"backend_fitadmin/models"

	"github.com/gin-gonic/gin"
)

// LoginRequest содержит учетные данные пользователя
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login аутентифицирует пользователя и выдает JWT-токен
func Login(authMiddleware *middleware.AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  "Логин и пароль обязательны",
			})
			return
		}

		var user models.User
		err := database.DB.Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error
		if err != nil || !user.CheckPassword(req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Неверный логин или пароль",
			})
			return
		}

		token, err := authMiddleware.GenerateToken(user.ID, user.Username, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": "error",
				"error":  "Ошибка выпуска токена",
			})
			return
		}

		now := time.Now()
		user.LastLoginAt = &now
		database.DB.Model(&user).Update("last_login_at", now)

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"token": token,
				"user": gin.H{
					"id":       user.ID,
					"username": user.Username,
					"role":     user.Role,
				},
			},
		})
	}
}
