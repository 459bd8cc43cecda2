package api

import (
	"net/http"
	"strconv"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetProducts получает список продуктов центра с тарифными ставками
func GetProducts(c *gin.Context) {
	var products []models.Product

	query := database.DB.Preload("Rates")
	if c.Query("is_active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка при получении продуктов",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   products,
		"count":  len(products),
	})
}

// CreateProduct создает новый продукт
func CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные продукта: " + err.Error(),
		})
		return
	}

	if product.Name == "" || product.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Название и тип продукта обязательны",
		})
		return
	}

	product.IsActive = true
	if err := database.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Ошибка при создании продукта",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   product,
	})
}

// UpsertTariffRateRequest содержит данные тарифной ставки
type UpsertTariffRateRequest struct {
	Bracket string          `json:"bracket" binding:"required"`
	Price   decimal.Decimal `json:"price" binding:"required"`
}

// UpsertTariffRate создает или обновляет тарифную ставку продукта
func UpsertTariffRate(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req UpsertTariffRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Некорректные данные ставки: " + err.Error(),
		})
		return
	}

	rate, err := tariffService.UpsertRate(productID, req.Bracket, req.Price)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   rate,
	})
}

// GetTariffQuote возвращает цену тренировки для продукта и частоты посещений
func GetTariffQuote(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	daysPerWeek, err := strconv.Atoi(c.Query("days_per_week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Параметр days_per_week обязателен",
		})
		return
	}

	quote, err := tariffService.PriceFor(productID, daysPerWeek)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   quote,
	})
}
