package api

import (
	"net/http"
	"strconv"
	"time"

	"backend_fitadmin/services"

	"github.com/gin-gonic/gin"
)

// RecordAttendance регистрирует результат тренировки клиента
func RecordAttendance(c *gin.Context) {
	var input services.RecordOutcomeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные посещения: " + err.Error(),
		})
		return
	}

	attendance, err := attendanceService.RecordOutcome(input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   attendance,
	})
}

// GetAttendanceByPeriod возвращает посещения клиента за месяц
func GetAttendanceByPeriod(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	month, year, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	records, err := attendanceService.GetByPeriod(clientID, month, year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// GetAttendanceSummary возвращает сводку посещаемости клиента за месяц
func GetAttendanceSummary(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	month, year, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	summary, err := attendanceService.GetMonthlySummary(clientID, month, year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	recoveries, err := attendanceService.GetRecoveryStatusCounts(clientID, month, year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"summary":    summary,
			"recoveries": recoveries,
		},
	})
}

// GetPendingRecoveries возвращает пропуски клиента, ожидающие отработки
func GetPendingRecoveries(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var month, year *int
	if m := c.Query("month"); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil {
			month = &parsed
		}
	}
	if y := c.Query("year"); y != "" {
		if parsed, err := strconv.Atoi(y); err == nil {
			year = &parsed
		}
	}

	records, err := attendanceService.GetPendingRecoveries(clientID, month, year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// ScheduleRecoveryRequest содержит запись расписания для отработки
type ScheduleRecoveryRequest struct {
	RecoveryBookingID uint `json:"recovery_booking_id" binding:"required"`
}

// ScheduleRecovery назначает отработку пропуска
func ScheduleRecovery(c *gin.Context) {
	attendanceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req ScheduleRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Идентификатор записи для отработки обязателен",
		})
		return
	}

	attendance, err := attendanceService.ScheduleRecovery(attendanceID, req.RecoveryBookingID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   attendance,
	})
}

// CompleteRecovery отмечает отработку как состоявшуюся
func CompleteRecovery(c *gin.Context) {
	attendanceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	attendance, err := attendanceService.CompleteRecovery(attendanceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   attendance,
	})
}

// ProcessExpiredRecoveries обрабатывает пропуски с истекшим сроком отработки
func ProcessExpiredRecoveries(c *gin.Context) {
	processed, err := attendanceService.ProcessExpiredRecoveries(time.Now())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"processed": processed,
	})
}
