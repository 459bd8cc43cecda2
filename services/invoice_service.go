package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService предоставляет генерацию месячных счетов и операции
// их жизненного цикла: выставление, оплату, аннулирование
type InvoiceService struct {
	db         *gorm.DB
	attendance *AttendanceService
}

// NewInvoiceService создает новый экземпляр InvoiceService
func NewInvoiceService(attendance *AttendanceService) *InvoiceService {
	return &InvoiceService{
		db:         database.DB,
		attendance: attendance,
	}
}

// Generate создает счет клиента за календарный месяц. Генерация выполняется
// ровно один раз на период: повторная попытка завершается ошибкой, без
// слияния и перезаписи. Уникальный индекс (клиент, месяц, год) является
// единственной защитой от двойного выставления при одновременных запросах.
func (is *InvoiceService) Generate(clientID uint, month, year int, actingUserID *uint) (*models.MonthlyInvoice, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: месяц должен быть от 1 до 12", ErrValidation)
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: недопустимый год %d", ErrValidation, year)
	}

	// Счет за период создается один раз
	var existing models.MonthlyInvoice
	err := is.db.Where("client_id = ? AND month = ? AND year = ?", clientID, month, year).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("клиент %d, период %02d/%d: %w", clientID, month, year, ErrDuplicateInvoice)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ошибка проверки существующего счета: %w", err)
	}

	// Счет выставляется только по активному абонементу
	var subscription models.ClientSubscription
	err = is.db.Preload("Product").
		Where("client_id = ? AND status = ?", clientID, models.SubscriptionStatusActive).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("клиент %d: %w", clientID, ErrNoActiveSubscription)
		}
		return nil, fmt.Errorf("ошибка получения абонемента: %w", err)
	}

	scheduled := subscription.ExpectedSessionsForMonth(month, year)

	summary, err := is.attendance.GetMonthlySummary(clientID, month, year)
	if err != nil {
		return nil, err
	}
	recoveryCounts, err := is.attendance.GetRecoveryStatusCounts(clientID, month, year)
	if err != nil {
		return nil, err
	}

	// Строки счета: снимок каждой тренировки периода.
	// Отработки учитываются на уровне абонемента, не построчно.
	records, err := is.attendance.GetByPeriod(clientID, month, year)
	if err != nil {
		return nil, err
	}
	lines := make([]models.InvoiceLine, 0, len(records))
	for _, record := range records {
		lines = append(lines, models.InvoiceLine{
			Date:       record.Date,
			StartTime:  record.StartTime,
			Outcome:    record.Status,
			UnitPrice:  subscription.FixedUnitPrice,
			IsRecovery: false,
		})
	}

	profile, err := models.EnsureCenterProfile(is.db)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профиля центра: %w", err)
	}

	invoice := &models.MonthlyInvoice{
		ClientID:       clientID,
		Month:          month,
		Year:           year,
		SubscriptionID: &subscription.ID,
		GeneratedByID:  actingUserID,

		// Снимок абонемента: дальнейшие изменения абонемента
		// на этот счет не влияют
		SnapshotDaysPerWeek:   subscription.DaysPerWeek,
		SnapshotUnitPrice:     subscription.FixedUnitPrice,
		SnapshotTariffBracket: subscription.AppliedTariffBracket,

		SessionsScheduled:         scheduled,
		SessionsCarriedFromPrior:  subscription.CarriedOverSessions,
		SessionsAttended:          summary.Attended,
		SessionsAbsent:            summary.Absent,
		SessionsCancelledByCenter: summary.CancelledByCenter,
		SessionsCancelledByClient: summary.CancelledByClient,
		SessionsRecovered:         recoveryCounts.Completed,
		SessionsCarriedToNext:     recoveryCounts.Pending,

		Status:  models.InvoiceStatusGenerated,
		DueDate: time.Now().AddDate(0, 0, profile.InvoicePaymentTermDays),
		Lines:   lines,
	}
	if subscription.Product != nil {
		invoice.SnapshotProductName = subscription.Product.Name
		invoice.SnapshotProductType = subscription.Product.Type
	}

	if err := is.db.Create(invoice).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("клиент %d, период %02d/%d: %w", clientID, month, year, ErrDuplicateInvoice)
		}
		return nil, fmt.Errorf("ошибка создания счета: %w", err)
	}

	// Итоги считаются отдельным идемпотентным шагом: при сбое между
	// созданием и расчетом счет остается в статусе generated и
	// безопасно пересчитывается повторным вызовом
	if err := is.RecalculateTotals(invoice); err != nil {
		return nil, err
	}
	if err := is.db.Save(invoice).Error; err != nil {
		return nil, fmt.Errorf("ошибка сохранения итогов счета: %w", err)
	}

	is.recordHistory(invoice, "invoice_generated", invoice.TotalDue,
		fmt.Sprintf("Сгенерирован счет за период %s", invoice.PeriodLabel()))

	return is.GetByID(invoice.ID)
}

// RecalculateTotals пересчитывает итоги счета по его счетчикам, скидкам
// и платежам. Вызов идемпотентен и допустим в любом статусе, кроме voided:
// повторный расчет без других изменений дает те же значения.
func (is *InvoiceService) RecalculateTotals(invoice *models.MonthlyInvoice) error {
	if invoice.Status == models.InvoiceStatusVoided {
		return fmt.Errorf("итоги аннулированного счета не пересчитываются: %w", ErrState)
	}

	// Тренировки, отмененные центром, не оплачиваются; отмененные клиентом
	// оплачиваются. Неотработанные пропуски переносятся в следующий период.
	billable := invoice.SessionsScheduled + invoice.SessionsCarriedFromPrior -
		invoice.SessionsCancelledByCenter - invoice.SessionsCarriedToNext
	if billable < 0 {
		billable = 0
	}
	invoice.TotalSessionsBillable = billable

	invoice.Subtotal = invoice.SnapshotUnitPrice.Mul(decimal.NewFromInt(int64(billable)))

	totalDiscounts := decimal.Zero
	for _, discount := range invoice.Discounts {
		if discount.Percent.GreaterThan(decimal.Zero) {
			totalDiscounts = totalDiscounts.Add(
				invoice.Subtotal.Mul(discount.Percent).Div(decimal.NewFromInt(100)))
		} else {
			totalDiscounts = totalDiscounts.Add(discount.Amount)
		}
	}
	invoice.TotalDiscounts = totalDiscounts

	totalDue := invoice.Subtotal.Sub(totalDiscounts)
	if totalDue.LessThan(decimal.Zero) {
		totalDue = decimal.Zero
	}
	invoice.TotalDue = totalDue

	totalPaid := decimal.Zero
	for _, payment := range invoice.Payments {
		totalPaid = totalPaid.Add(payment.Amount)
	}
	invoice.TotalPaid = totalPaid

	// Статусы оплаты применяются только к выставленным счетам
	if invoice.Status != models.InvoiceStatusDraft {
		if totalPaid.GreaterThanOrEqual(totalDue) && totalDue.GreaterThan(decimal.Zero) {
			invoice.Status = models.InvoiceStatusPaid
			if invoice.PaidAt == nil {
				now := time.Now()
				invoice.PaidAt = &now
			}
		} else if totalPaid.GreaterThan(decimal.Zero) && totalPaid.LessThan(totalDue) {
			invoice.Status = models.InvoiceStatusPartial
		}
	}

	return nil
}

// Issue выставляет счет клиенту: присваивает номер и переводит в issued.
// Номер присваивается не более одного раза и никогда не переназначается.
func (is *InvoiceService) Issue(invoiceID uint) (*models.MonthlyInvoice, error) {
	invoice, err := is.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}

	switch invoice.Status {
	case models.InvoiceStatusGenerated, models.InvoiceStatusDraft:
	default:
		return nil, fmt.Errorf("счет %s в статусе %q уже выставлен: %w",
			invoice.Number, invoice.Status, ErrState)
	}

	if invoice.Number == "" {
		number, err := is.nextInvoiceNumber(invoice.Year, invoice.Month)
		if err != nil {
			return nil, err
		}
		invoice.Number = number
	}

	now := time.Now()
	invoice.Status = models.InvoiceStatusIssued
	invoice.IssuedAt = &now

	if err := is.RecalculateTotals(invoice); err != nil {
		return nil, err
	}
	if err := is.db.Save(invoice).Error; err != nil {
		return nil, fmt.Errorf("ошибка выставления счета: %w", err)
	}

	is.recordHistory(invoice, "invoice_issued", invoice.TotalDue,
		fmt.Sprintf("Выставлен счет %s на сумму %s", invoice.Number, invoice.TotalDue.StringFixed(2)))

	return invoice, nil
}

// nextInvoiceNumber формирует следующий номер счета в формате "ГГГГ-ММ-NNNN".
// Последовательность ведется в рамках пары (год, месяц): считаются уже
// пронумерованные счета периода.
func (is *InvoiceService) nextInvoiceNumber(year, month int) (string, error) {
	var numbered int64
	err := is.db.Model(&models.MonthlyInvoice{}).
		Where("year = ? AND month = ? AND number <> ''", year, month).
		Count(&numbered).Error
	if err != nil {
		return "", fmt.Errorf("ошибка подсчета номеров счетов: %w", err)
	}

	return fmt.Sprintf("%d-%02d-%04d", year, month, numbered+1), nil
}

// RegisterPayment регистрирует платеж по счету и пересчитывает статус оплаты
func (is *InvoiceService) RegisterPayment(invoiceID uint, amount decimal.Decimal, method, reference string) (*models.MonthlyInvoice, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: сумма платежа должна быть больше нуля", ErrValidation)
	}

	invoice, err := is.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Status == models.InvoiceStatusVoided {
		return nil, fmt.Errorf("платеж по аннулированному счету невозможен: %w", ErrState)
	}

	if reference == "" {
		reference = uuid.New().String()
	}

	payment := &models.InvoicePayment{
		InvoiceID: invoice.ID,
		Amount:    amount,
		Method:    method,
		PaidAt:    time.Now(),
		Reference: reference,
	}
	if err := is.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("ошибка регистрации платежа: %w", err)
	}

	invoice.Payments = append(invoice.Payments, *payment)
	if err := is.RecalculateTotals(invoice); err != nil {
		return nil, err
	}
	if err := is.db.Save(invoice).Error; err != nil {
		return nil, fmt.Errorf("ошибка обновления счета после платежа: %w", err)
	}

	is.recordHistory(invoice, "payment_received", amount,
		fmt.Sprintf("Получен платеж %s по счету %s. Способ оплаты: %s",
			amount.StringFixed(2), invoice.Number, method))

	return invoice, nil
}

// AddDiscount добавляет скидку к счету и пересчитывает итоги.
// Скидка задается либо фиксированной суммой, либо процентом.
func (is *InvoiceService) AddDiscount(invoiceID uint, concept string, amount, percent decimal.Decimal) (*models.MonthlyInvoice, error) {
	if concept == "" {
		return nil, fmt.Errorf("%w: основание скидки обязательно", ErrValidation)
	}
	if amount.LessThan(decimal.Zero) || percent.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: скидка не может быть отрицательной", ErrValidation)
	}

	invoice, err := is.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoiceStatusVoided {
		return nil, fmt.Errorf("скидка по аннулированному счету невозможна: %w", ErrState)
	}

	discount := &models.InvoiceDiscount{
		InvoiceID: invoice.ID,
		Concept:   concept,
		Amount:    amount,
		Percent:   percent,
	}
	if err := is.db.Create(discount).Error; err != nil {
		return nil, fmt.Errorf("ошибка добавления скидки: %w", err)
	}

	invoice.Discounts = append(invoice.Discounts, *discount)
	if err := is.RecalculateTotals(invoice); err != nil {
		return nil, err
	}
	if err := is.db.Save(invoice).Error; err != nil {
		return nil, fmt.Errorf("ошибка обновления счета после скидки: %w", err)
	}

	return invoice, nil
}

// Void аннулирует счет. Допустимо из любого статуса, кроме draft и voided;
// аннулирование терминально.
func (is *InvoiceService) Void(invoiceID uint, reason string) (*models.MonthlyInvoice, error) {
	invoice, err := is.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Status == models.InvoiceStatusVoided {
		return nil, fmt.Errorf("счет уже аннулирован: %w", ErrState)
	}
	if invoice.Status == models.InvoiceStatusDraft {
		return nil, fmt.Errorf("черновик счета не аннулируется: %w", ErrState)
	}

	invoice.Status = models.InvoiceStatusVoided
	if reason != "" {
		invoice.Notes = reason
	}
	if err := is.db.Save(invoice).Error; err != nil {
		return nil, fmt.Errorf("ошибка аннулирования счета: %w", err)
	}

	is.recordHistory(invoice, "invoice_voided", invoice.TotalDue,
		fmt.Sprintf("Аннулирован счет %s. Причина: %s", invoice.Number, reason))

	return invoice, nil
}

// MarkOverdueInvoices помечает просроченными неоплаченные счета
// с истекшим сроком оплаты. Возвращает просроченные счета.
func (is *InvoiceService) MarkOverdueInvoices() ([]models.MonthlyInvoice, error) {
	var invoices []models.MonthlyInvoice
	err := is.db.Where("due_date < ? AND status IN ?", time.Now(),
		[]string{models.InvoiceStatusIssued, models.InvoiceStatusPartial}).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка получения просроченных счетов: %w", err)
	}

	for i := range invoices {
		invoices[i].Status = models.InvoiceStatusOverdue
		if err := is.db.Model(&invoices[i]).Update("status", models.InvoiceStatusOverdue).Error; err != nil {
			return nil, fmt.Errorf("ошибка пометки счета %s просроченным: %w", invoices[i].Number, err)
		}
	}

	return invoices, nil
}

// GetByID возвращает счет со строками, скидками и платежами
func (is *InvoiceService) GetByID(invoiceID uint) (*models.MonthlyInvoice, error) {
	var invoice models.MonthlyInvoice
	err := is.db.Preload("Client").Preload("Lines").Preload("Discounts").Preload("Payments").
		First(&invoice, invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("счет %d: %w", invoiceID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения счета: %w", err)
	}
	return &invoice, nil
}

// GetByPeriod возвращает все счета за календарный месяц
func (is *InvoiceService) GetByPeriod(month, year int) ([]models.MonthlyInvoice, error) {
	var invoices []models.MonthlyInvoice
	err := is.db.Preload("Client").
		Where("month = ? AND year = ?", month, year).
		Order("id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счетов за период: %w", err)
	}
	return invoices, nil
}

// recordHistory добавляет запись в журнал биллинга.
// Ошибка журнала не прерывает основную операцию.
func (is *InvoiceService) recordHistory(invoice *models.MonthlyInvoice, operation string, amount decimal.Decimal, description string) {
	history := &models.BillingHistory{
		ClientID:    invoice.ClientID,
		InvoiceID:   &invoice.ID,
		Operation:   operation,
		Amount:      amount,
		Description: description,
		Status:      "completed",
	}
	if err := is.db.Create(history).Error; err != nil {
		log.Printf("Предупреждение: ошибка записи в журнал биллинга: %v", err)
	}
}
