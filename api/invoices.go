package api

import (
	"fmt"
	"net/http"

	"backend_fitadmin/database"
	"backend_fitadmin/middleware"
	"backend_fitadmin/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest содержит период генерации счета
type GenerateInvoiceRequest struct {
	ClientID uint `json:"client_id" binding:"required"`
	Month    int  `json:"month" binding:"required"`
	Year     int  `json:"year" binding:"required"`
}

// GenerateInvoice генерирует счет клиента за календарный месяц
func GenerateInvoice(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Клиент, месяц и год обязательны",
		})
		return
	}

	invoice, err := invoiceService.Generate(req.ClientID, req.Month, req.Year, middleware.GetCurrentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   invoice,
	})
}

// GetInvoice получает счет со строками, скидками и платежами
func GetInvoice(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	invoice, err := invoiceService.GetByID(invoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   invoice,
	})
}

// GetInvoicesByPeriod возвращает все счета за календарный месяц
func GetInvoicesByPeriod(c *gin.Context) {
	month, year, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	invoices, err := invoiceService.GetByPeriod(month, year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   invoices,
		"count":  len(invoices),
	})
}

// IssueInvoice выставляет счет клиенту: присваивает номер и срок оплаты
func IssueInvoice(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	invoice, err := invoiceService.Issue(invoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   invoice,
	})
}

// RegisterPaymentRequest содержит данные платежа по счету
type RegisterPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// RegisterInvoicePayment регистрирует платеж по счету
func RegisterInvoicePayment(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Сумма платежа обязательна",
		})
		return
	}

	invoice, err := invoiceService.RegisterPayment(invoiceID, req.Amount, req.Method, req.Reference)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   invoice,
	})
}

// AddDiscountRequest содержит данные скидки
type AddDiscountRequest struct {
	Concept string          `json:"concept" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// AddInvoiceDiscount добавляет скидку к счету
func AddInvoiceDiscount(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req AddDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Основание скидки обязательно",
		})
		return
	}

	invoice, err := invoiceService.AddDiscount(invoiceID, req.Concept, req.Amount, req.Percent)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   invoice,
	})
}

// VoidInvoiceRequest содержит причину аннулирования
type VoidInvoiceRequest struct {
	Reason string `json:"reason"`
}

// VoidInvoice аннулирует счет
func VoidInvoice(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req VoidInvoiceRequest
	c.ShouldBindJSON(&req)

	invoice, err := invoiceService.Void(invoiceID, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   invoice,
	})
}

// DownloadInvoicePDF отдает PDF-документ счета
func DownloadInvoicePDF(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	invoice, err := invoiceService.GetByID(invoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	profile, err := models.EnsureCenterProfile(database.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка получения профиля центра",
		})
		return
	}

	pdfBytes, err := pdfService.RenderInvoicePDF(invoice, profile)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("invoice-%02d-%d.pdf", invoice.Month, invoice.Year)
	if invoice.Number != "" {
		filename = fmt.Sprintf("invoice-%s.pdf", invoice.Number)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// EmailInvoice отправляет клиенту письмо со счетом и вложенным PDF
func EmailInvoice(c *gin.Context) {
	invoiceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	invoice, err := invoiceService.GetByID(invoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	profile, err := models.EnsureCenterProfile(database.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка получения профиля центра",
		})
		return
	}

	pdfBytes, err := pdfService.RenderInvoicePDF(invoice, profile)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	receipt, err := notificationService.EmailInvoice(invoice, pdfBytes, profile)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   receipt,
	})
}
