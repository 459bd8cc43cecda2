package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Тарифные ступени по количеству тренировочных дней в неделю
const (
	TariffBracketOne       = "1"
	TariffBracketTwo       = "2"
	TariffBracketThreePlus = "3+"
)

// Product представляет тренировочный продукт (вид услуги центра)
type Product struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Name        string `json:"name" gorm:"not null;type:varchar(100)"`
	Type        string `json:"type" gorm:"not null;type:varchar(50);index"` // personal, duo, group
	Description string `json:"description" gorm:"type:text"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	// Тарифные ставки продукта по ступеням
	Rates []TariffRate `json:"rates,omitempty" gorm:"foreignKey:ProductID"`
}

// TableName задает имя таблицы для модели Product
func (Product) TableName() string {
	return "products"
}

// TariffRate представляет цену продукта для тарифной ступени.
// Пара (продукт, ступень) уникальна.
type TariffRate struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ProductID  uint     `json:"product_id" gorm:"not null;uniqueIndex:idx_tariff_product_bracket"`
	Product    *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	DayBracket string   `json:"day_bracket" gorm:"not null;type:varchar(2);uniqueIndex:idx_tariff_product_bracket"` // "1", "2", "3+"

	// Цена за одну тренировку на этой ступени
	Price decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
}

// TableName задает имя таблицы для модели TariffRate
func (TariffRate) TableName() string {
	return "tariff_rates"
}

// BracketForDays возвращает тарифную ступень по количеству дней в неделю:
// 1 -> "1", 2 -> "2", 3 и больше -> "3+"
func BracketForDays(daysPerWeek int) string {
	switch {
	case daysPerWeek <= 1:
		return TariffBracketOne
	case daysPerWeek == 2:
		return TariffBracketTwo
	default:
		return TariffBracketThreePlus
	}
}
