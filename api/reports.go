package api

import (
	"net/http"
	"path/filepath"

	"backend_fitadmin/config"

	"github.com/gin-gonic/gin"
)

// GetBillingStatistics возвращает сводную статистику биллинга за месяц
func GetBillingStatistics(c *gin.Context) {
	month, year, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	stats, err := automationService.GetBillingStatistics(year, month)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}

// ExportBillingReport выгружает счета месяца в файл отчета (xlsx или csv)
func ExportBillingReport(c *gin.Context) {
	month, year, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	dir := config.GetConfig().External.ReportDir

	path, err := automationService.ExportMonthlyReport(year, month, format, dir)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// AutoGenerateInvoices запускает генерацию счетов месяца по всем
// активным абонементам
func AutoGenerateInvoices(c *gin.Context) {
	month, year, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	if err := automationService.AutoGenerateInvoicesForMonth(year, month); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Генерация счетов завершена",
	})
}
