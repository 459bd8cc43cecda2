package api

import (
	"net/http"
	"strconv"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"github.com/gin-gonic/gin"
)

// GetClients получает список клиентов центра
func GetClients(c *gin.Context) {
	var clients []models.Client

	query := database.DB.Model(&models.Client{})

	// Фильтрация по активности
	if isActive := c.Query("is_active"); isActive != "" {
		if isActive == "true" {
			query = query.Where("is_active = ?", true)
		} else if isActive == "false" {
			query = query.Where("is_active = ?", false)
		}
	}

	// Поиск по имени или email
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			pattern, pattern, pattern)
	}

	// Пагинация
	page := 1
	limit := 20
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Order("last_name, first_name").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка при получении клиентов",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   clients,
		"count":  len(clients),
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetClient получает конкретного клиента по ID
func GetClient(c *gin.Context) {
	id := c.Param("id")

	var client models.Client
	if err := database.DB.First(&client, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "Клиент не найден",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   client,
	})
}

// CreateClient создает нового клиента
func CreateClient(c *gin.Context) {
	var client models.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные клиента: " + err.Error(),
		})
		return
	}

	if client.FirstName == "" || client.LastName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Имя и фамилия клиента обязательны",
		})
		return
	}

	client.IsActive = true
	if err := database.DB.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка при создании клиента",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   client,
	})
}

// UpdateClient обновляет данные клиента
func UpdateClient(c *gin.Context) {
	id := c.Param("id")

	var client models.Client
	if err := database.DB.First(&client, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "Клиент не найден",
		})
		return
	}

	var updates models.Client
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные клиента: " + err.Error(),
		})
		return
	}

	client.FirstName = updates.FirstName
	client.LastName = updates.LastName
	client.Email = updates.Email
	client.Phone = updates.Phone
	client.IsActive = updates.IsActive
	client.Notes = updates.Notes

	if err := database.DB.Save(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка при обновлении клиента",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   client,
	})
}
