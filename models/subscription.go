package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Статусы абонемента
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusPending   = "pending"
)

// ClientSubscription представляет абонемент клиента на регулярные тренировки.
// У клиента может быть не более одного абонемента (уникальный индекс по client_id).
type ClientSubscription struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Связи
	ClientID  uint     `json:"client_id" gorm:"not null;uniqueIndex"`
	Client    *Client  `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	ProductID uint     `json:"product_id" gorm:"not null"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`

	// Расписание: количество дней в неделю (1-5) и дни тренировок (0=Пн .. 4=Пт)
	DaysPerWeek  int   `json:"days_per_week" gorm:"not null"`
	TrainingDays []int `json:"training_days" gorm:"serializer:json;type:text"`

	// Период действия
	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   *time.Time `json:"end_date"` // null = бессрочный

	// Статус абонемента
	Status string `json:"status" gorm:"default:'active';type:varchar(20)"` // active, paused, cancelled, pending

	// Цена за тренировку, зафиксированная при оформлении.
	// Последующие изменения тарифов на этот абонемент не влияют.
	FixedUnitPrice       decimal.Decimal `json:"fixed_unit_price" gorm:"type:decimal(10,2);not null"`
	AppliedTariffBracket string          `json:"applied_tariff_bracket" gorm:"type:varchar(2)"`

	// Неотработанные тренировки, перенесенные из прошлых периодов
	CarriedOverSessions int `json:"carried_over_sessions" gorm:"default:0"`
}

// TableName задает имя таблицы для модели ClientSubscription
func (ClientSubscription) TableName() string {
	return "client_subscriptions"
}

// BeforeSave проверяет расписание абонемента и приводит его к инварианту:
// len(TrainingDays) == DaysPerWeek (лишние дни усекаются, недостающие не добавляются),
// тарифная ступень всегда производная от DaysPerWeek.
func (s *ClientSubscription) BeforeSave(tx *gorm.DB) error {
	if s.DaysPerWeek < 1 || s.DaysPerWeek > 5 {
		return fmt.Errorf("количество дней в неделю должно быть от 1 до 5, получено %d", s.DaysPerWeek)
	}

	for _, day := range s.TrainingDays {
		if day < 0 || day > 4 {
			return fmt.Errorf("недопустимый день тренировки %d: допустимы 0 (Пн) - 4 (Пт)", day)
		}
	}

	if len(s.TrainingDays) > s.DaysPerWeek {
		s.TrainingDays = s.TrainingDays[:s.DaysPerWeek]
	}

	s.AppliedTariffBracket = BracketForDays(s.DaysPerWeek)
	return nil
}

// IsActive проверяет, действует ли абонемент
func (s *ClientSubscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// ExpectedSessionsForMonth считает плановое количество тренировок за календарный
// месяц: перебираются все дни месяца, учитываются только будние дни (Пн-Пт),
// чей индекс входит в TrainingDays. Чистая функция календаря и расписания.
func (s *ClientSubscription) ExpectedSessionsForMonth(month, year int) int {
	trainingDays := make(map[int]bool, len(s.TrainingDays))
	for _, day := range s.TrainingDays {
		trainingDays[day] = true
	}

	count := 0
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for d := firstDay; d.Month() == time.Month(month); d = d.AddDate(0, 0, 1) {
		weekday := d.Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			continue
		}
		// time.Monday == 1, наш индекс понедельника == 0
		if trainingDays[int(weekday)-1] {
			count++
		}
	}

	return count
}
