package api

import (
	"errors"
	"net/http"
	"strconv"

	"backend_fitadmin/config"
	"backend_fitadmin/services"

	"github.com/gin-gonic/gin"
)

// Сервисы уровня пакета, инициализируются один раз при старте приложения
var (
	cacheService        *services.CacheService
	tariffService       *services.TariffService
	subscriptionService *services.SubscriptionService
	attendanceService   *services.AttendanceService
	invoiceService      *services.InvoiceService
	pdfService          *services.InvoicePDFService
	notificationService *services.NotificationService
	automationService   *services.BillingAutomationService
)

// InitServices связывает обработчики API с сервисами приложения
func InitServices(cfg *config.Config, cache *services.CacheService) *services.BillingAutomationService {
	cacheService = cache
	tariffService = services.NewTariffService(cache)
	subscriptionService = services.NewSubscriptionService(tariffService)
	attendanceService = services.NewAttendanceService(cache)
	invoiceService = services.NewInvoiceService(attendanceService)
	pdfService = services.NewInvoicePDFService()
	notificationService = services.NewNotificationService(cfg)
	automationService = services.NewBillingAutomationService(invoiceService, attendanceService, notificationService)
	return automationService
}

// handleServiceError преобразует ошибку сервиса в HTTP-ответ
func handleServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrDuplicateInvoice):
		status = http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrState),
		errors.Is(err, services.ErrNoActiveSubscription),
		errors.Is(err, services.ErrProductInactive),
		errors.Is(err, services.ErrMissingRecipient):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrDependency):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"status": "error",
		"error":  err.Error(),
	})
}

// parseUintParam разбирает числовой параметр пути
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректный параметр " + name,
		})
		return 0, false
	}
	return uint(value), true
}

// parsePeriodQuery разбирает месяц и год из query-параметров
func parsePeriodQuery(c *gin.Context) (int, int, bool) {
	month, err1 := strconv.Atoi(c.Query("month"))
	year, err2 := strconv.Atoi(c.Query("year"))
	if err1 != nil || err2 != nil || month < 1 || month > 12 || year < 2000 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Параметры month и year обязательны",
		})
		return 0, 0, false
	}
	return month, year, true
}
