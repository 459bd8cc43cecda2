package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// CenterProfile представляет реквизиты тренировочного центра.
// В системе существует единственная запись профиля: она создается
// явно на старте приложения через EnsureCenterProfile и передается
// в сервисы как аргумент, а не как скрытый глобальный объект.
type CenterProfile struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Реквизиты центра для счетов
	Name    string `json:"name" gorm:"not null;type:varchar(150)"`
	TaxID   string `json:"tax_id" gorm:"type:varchar(30)"`
	Address string `json:"address" gorm:"type:varchar(250)"`
	Phone   string `json:"phone" gorm:"type:varchar(30)"`
	Email   string `json:"email" gorm:"type:varchar(150)"`

	// Оформление документов
	LogoColor string `json:"logo_color" gorm:"default:'#1F6FB2';type:varchar(7)"` // HEX-цвет шапки PDF

	// Банковские реквизиты, показываются в счете пока он не оплачен
	IBAN string `json:"iban" gorm:"type:varchar(34)"`

	// Настройки биллинга
	Currency               string `json:"currency" gorm:"default:'EUR';type:varchar(3)"`
	InvoicePaymentTermDays int    `json:"invoice_payment_term_days" gorm:"default:14"`
}

// TableName задает имя таблицы для модели CenterProfile
func (CenterProfile) TableName() string {
	return "center_profiles"
}

// EnsureCenterProfile возвращает профиль центра, создавая запись
// со значениями по умолчанию при первом запуске
func EnsureCenterProfile(db *gorm.DB) (*CenterProfile, error) {
	var profile CenterProfile
	err := db.First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = CenterProfile{
		Name:                   "Centro de Entrenamiento Personal",
		Currency:               "EUR",
		LogoColor:              "#1F6FB2",
		InvoicePaymentTermDays: 14,
	}
	if err := db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
