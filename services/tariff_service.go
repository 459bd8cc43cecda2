package services

import (
	"errors"
	"fmt"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TariffService предоставляет поиск цен по тарифной таблице
type TariffService struct {
	db    *gorm.DB
	cache *CacheService
}

// NewTariffService создает новый экземпляр TariffService
func NewTariffService(cache *CacheService) *TariffService {
	return &TariffService{
		db:    database.DB,
		cache: cache,
	}
}

// TariffQuote содержит результат подбора тарифа
type TariffQuote struct {
	ProductID uint            `json:"product_id"`
	Bracket   string          `json:"bracket"`
	Price     decimal.Decimal `json:"price"`
}

// PriceFor подбирает цену тренировки для продукта и количества дней в неделю.
// Дни отображаются в тарифную ступень ("1", "2", "3+"), по паре
// (продукт, ступень) ищется строка тарифной таблицы.
func (ts *TariffService) PriceFor(productID uint, daysPerWeek int) (*TariffQuote, error) {
	if daysPerWeek < 1 || daysPerWeek > 5 {
		return nil, fmt.Errorf("%w: количество дней в неделю должно быть от 1 до 5", ErrValidation)
	}

	var product models.Product
	if err := ts.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("продукт %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения продукта: %w", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("продукт %q: %w", product.Name, ErrProductInactive)
	}

	bracket := models.BracketForDays(daysPerWeek)

	if rate, ok := ts.cache.GetCachedTariffRate(product.ID, bracket); ok {
		return &TariffQuote{ProductID: product.ID, Bracket: bracket, Price: rate.Price}, nil
	}

	var rate models.TariffRate
	err := ts.db.Where("product_id = ? AND day_bracket = ?", product.ID, bracket).First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("тариф для продукта %q и ступени %q: %w", product.Name, bracket, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения тарифа: %w", err)
	}

	ts.cache.CacheTariffRate(product.ID, bracket, &rate)

	return &TariffQuote{ProductID: product.ID, Bracket: bracket, Price: rate.Price}, nil
}

// PriceForProductType подбирает цену по типу продукта: сначала находится
// активный продукт данного типа, затем подбор делегируется PriceFor
func (ts *TariffService) PriceForProductType(productType string, daysPerWeek int) (*TariffQuote, error) {
	var product models.Product
	err := ts.db.Where("type = ? AND is_active = ?", productType, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("активный продукт типа %q: %w", productType, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка поиска продукта по типу: %w", err)
	}

	return ts.PriceFor(product.ID, daysPerWeek)
}

// UpsertRate создает или обновляет строку тарифной таблицы и сбрасывает кэш
func (ts *TariffService) UpsertRate(productID uint, bracket string, price decimal.Decimal) (*models.TariffRate, error) {
	if bracket != models.TariffBracketOne && bracket != models.TariffBracketTwo && bracket != models.TariffBracketThreePlus {
		return nil, fmt.Errorf("%w: недопустимая тарифная ступень %q", ErrValidation, bracket)
	}
	if price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: цена не может быть отрицательной", ErrValidation)
	}

	var rate models.TariffRate
	err := ts.db.Where("product_id = ? AND day_bracket = ?", productID, bracket).First(&rate).Error
	switch {
	case err == nil:
		rate.Price = price
		if err := ts.db.Save(&rate).Error; err != nil {
			return nil, fmt.Errorf("ошибка обновления тарифа: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		rate = models.TariffRate{ProductID: productID, DayBracket: bracket, Price: price}
		if err := ts.db.Create(&rate).Error; err != nil {
			if isDuplicateKeyError(err) {
				return nil, fmt.Errorf("тариф (%d, %s): %w", productID, bracket, ErrConflict)
			}
			return nil, fmt.Errorf("ошибка создания тарифа: %w", err)
		}
	default:
		return nil, fmt.Errorf("ошибка получения тарифа: %w", err)
	}

	ts.cache.InvalidateTariffRate(productID, bracket)
	return &rate, nil
}
