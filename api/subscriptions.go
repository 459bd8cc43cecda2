package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend_fitadmin/services"
)

// CreateSubscription оформляет абонемент клиенту
func CreateSubscription(c *gin.Context) {
	var input services.CreateSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные абонемента: " + err.Error(),
		})
		return
	}

	subscription, err := subscriptionService.Create(input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   subscription,
	})
}

// GetClientSubscription получает абонемент клиента
func GetClientSubscription(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	subscription, err := subscriptionService.GetByClient(clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   subscription,
	})
}

// ChangeSubscriptionStatusRequest содержит новый статус абонемента
type ChangeSubscriptionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeSubscriptionStatus меняет статус абонемента
func ChangeSubscriptionStatus(c *gin.Context) {
	subscriptionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req ChangeSubscriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Статус обязателен",
		})
		return
	}

	subscription, err := subscriptionService.ChangeStatus(subscriptionID, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   subscription,
	})
}

// ChangeSubscriptionPlanRequest содержит новые параметры абонемента
type ChangeSubscriptionPlanRequest struct {
	DaysPerWeek  int   `json:"days_per_week" binding:"required"`
	TrainingDays []int `json:"training_days"`
}

// ChangeSubscriptionPlan меняет расписание абонемента. Цена тренировки
// фиксируется заново по текущей тарифной таблице.
func ChangeSubscriptionPlan(c *gin.Context) {
	subscriptionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req ChangeSubscriptionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные абонемента: " + err.Error(),
		})
		return
	}

	subscription, err := subscriptionService.ChangePlan(subscriptionID, req.DaysPerWeek, req.TrainingDays)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   subscription,
	})
}
