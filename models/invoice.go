package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Статусы месячного счета
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusGenerated = "generated"
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusVoided    = "voided"
)

// MonthlyInvoice представляет счет клиента за один календарный месяц.
// Тройка (клиент, месяц, год) уникальна: счет за период создается один раз
// и повторно не генерируется.
type MonthlyInvoice struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Номер счета формата "ГГГГ-ММ-NNNN". Присваивается один раз
	// при выходе из статуса draft и никогда не переназначается.
	Number string `json:"number" gorm:"type:varchar(20);index"`

	// Связи и период
	ClientID       uint                `json:"client_id" gorm:"not null;uniqueIndex:idx_invoice_period"`
	Client         *Client             `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Month          int                 `json:"month" gorm:"not null;uniqueIndex:idx_invoice_period"`
	Year           int                 `json:"year" gorm:"not null;uniqueIndex:idx_invoice_period"`
	SubscriptionID *uint               `json:"subscription_id" gorm:"index"` // null для ручных счетов
	Subscription   *ClientSubscription `json:"subscription,omitempty" gorm:"foreignKey:SubscriptionID"`
	GeneratedByID  *uint               `json:"generated_by_id"`
	GeneratedBy    *User               `json:"generated_by,omitempty" gorm:"foreignKey:GeneratedByID"`

	// Снимок абонемента на момент генерации. Все денежные расчеты
	// используют его, даже если абонемент позже изменится.
	SnapshotProductName   string          `json:"snapshot_product_name" gorm:"type:varchar(100)"`
	SnapshotProductType   string          `json:"snapshot_product_type" gorm:"type:varchar(50)"`
	SnapshotDaysPerWeek   int             `json:"snapshot_days_per_week"`
	SnapshotUnitPrice     decimal.Decimal `json:"snapshot_unit_price" gorm:"type:decimal(10,2)"`
	SnapshotTariffBracket string          `json:"snapshot_tariff_bracket" gorm:"type:varchar(2)"`

	// Счетчики тренировок за период
	SessionsScheduled         int `json:"sessions_scheduled" gorm:"default:0"`
	SessionsCarriedFromPrior  int `json:"sessions_carried_from_prior" gorm:"default:0"`
	SessionsAttended          int `json:"sessions_attended" gorm:"default:0"`
	SessionsAbsent            int `json:"sessions_absent" gorm:"default:0"`
	SessionsCancelledByCenter int `json:"sessions_cancelled_by_center" gorm:"default:0"`
	SessionsCancelledByClient int `json:"sessions_cancelled_by_client" gorm:"default:0"`
	SessionsRecovered         int `json:"sessions_recovered" gorm:"default:0"`
	SessionsCarriedToNext     int `json:"sessions_carried_to_next" gorm:"default:0"`
	TotalSessionsBillable     int `json:"total_sessions_billable" gorm:"default:0"`

	// Денежные итоги
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);default:0"`
	TotalDiscounts decimal.Decimal `json:"total_discounts" gorm:"type:decimal(12,2);default:0"`
	TotalDue       decimal.Decimal `json:"total_due" gorm:"type:decimal(12,2);default:0"`
	TotalPaid      decimal.Decimal `json:"total_paid" gorm:"type:decimal(12,2);default:0"`

	// Статус и даты жизненного цикла
	Status   string     `json:"status" gorm:"default:'draft';type:varchar(20)"`
	DueDate  time.Time  `json:"due_date"`
	IssuedAt *time.Time `json:"issued_at"`
	PaidAt   *time.Time `json:"paid_at"`

	Notes string `json:"notes" gorm:"type:text"`

	// Связанные записи
	Lines     []InvoiceLine     `json:"lines,omitempty" gorm:"foreignKey:InvoiceID"`
	Discounts []InvoiceDiscount `json:"discounts,omitempty" gorm:"foreignKey:InvoiceID"`
	Payments  []InvoicePayment  `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
}

// TableName задает имя таблицы для модели MonthlyInvoice
func (MonthlyInvoice) TableName() string {
	return "monthly_invoices"
}

// IsOverdue проверяет, просрочен ли счет
func (i *MonthlyInvoice) IsOverdue() bool {
	if i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusVoided || i.Status == InvoiceStatusDraft {
		return false
	}
	return !i.DueDate.IsZero() && time.Now().After(i.DueDate)
}

// IsFullyPaid проверяет, полностью ли оплачен счет
func (i *MonthlyInvoice) IsFullyPaid() bool {
	return i.TotalDue.GreaterThan(decimal.Zero) && i.TotalPaid.GreaterThanOrEqual(i.TotalDue)
}

// RemainingAmount возвращает оставшуюся к доплате сумму
func (i *MonthlyInvoice) RemainingAmount() decimal.Decimal {
	remaining := i.TotalDue.Sub(i.TotalPaid)
	if remaining.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return remaining
}

// PeriodLabel возвращает период счета в формате "ММ/ГГГГ"
func (i *MonthlyInvoice) PeriodLabel() string {
	return fmt.Sprintf("%02d/%d", i.Month, i.Year)
}

// InvoiceLine представляет строку счета, снимок одной тренировки периода
type InvoiceLine struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	InvoiceID uint `json:"invoice_id" gorm:"not null;index"`

	Date      time.Time       `json:"date" gorm:"not null"`
	StartTime string          `json:"start_time" gorm:"type:varchar(5)"`
	Outcome   string          `json:"outcome" gorm:"type:varchar(30)"` // Статус посещения на момент генерации
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2)"`

	// Отработки учитываются на уровне абонемента и не сверяются
	// построчно, поэтому при генерации флаг всегда false.
	IsRecovery bool `json:"is_recovery" gorm:"default:false"`
}

// TableName задает имя таблицы для модели InvoiceLine
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// InvoiceDiscount представляет скидку по счету: фиксированная сумма
// или процент от промежуточного итога
type InvoiceDiscount struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	InvoiceID uint `json:"invoice_id" gorm:"not null;index"`

	Concept string          `json:"concept" gorm:"not null;type:varchar(200)"`
	Amount  decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);default:0"`
	Percent decimal.Decimal `json:"percent" gorm:"type:decimal(5,2);default:0"`
}

// TableName задает имя таблицы для модели InvoiceDiscount
func (InvoiceDiscount) TableName() string {
	return "invoice_discounts"
}

// InvoicePayment представляет платеж по счету
type InvoicePayment struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	InvoiceID uint `json:"invoice_id" gorm:"not null;index"`

	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method    string          `json:"method" gorm:"type:varchar(50)"` // cash, card, bank_transfer
	PaidAt    time.Time       `json:"paid_at"`
	Reference string          `json:"reference" gorm:"type:varchar(64)"`
}

// TableName задает имя таблицы для модели InvoicePayment
func (InvoicePayment) TableName() string {
	return "invoice_payments"
}

// BillingHistory представляет журнал биллинговых операций
type BillingHistory struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ClientID  uint            `json:"client_id" gorm:"not null;index"`
	InvoiceID *uint           `json:"invoice_id" gorm:"index"`
	Invoice   *MonthlyInvoice `json:"invoice,omitempty" gorm:"foreignKey:InvoiceID"`

	// invoice_generated, invoice_issued, payment_received, invoice_voided, invoice_emailed
	Operation   string          `json:"operation" gorm:"not null;type:varchar(50)"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);default:0"`
	Description string          `json:"description" gorm:"type:text"`

	Status string `json:"status" gorm:"default:'completed';type:varchar(20)"`
}

// TableName задает имя таблицы для модели BillingHistory
func (BillingHistory) TableName() string {
	return "billing_history"
}
