package services

import (
	"errors"
	"testing"
	"time"

	"backend_fitadmin/models"
	"backend_fitadmin/testutils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// invoiceTestEnv содержит все зависимости тестов генерации счетов
type invoiceTestEnv struct {
	db           *gorm.DB
	invoices     *InvoiceService
	attendance   *AttendanceService
	client       *models.Client
	subscription *models.ClientSubscription
}

// setupInvoiceTest готовит клиента с активным абонементом: 2 дня в неделю
// (понедельник и среда), 28 за тренировку
func setupInvoiceTest(t *testing.T) *invoiceTestEnv {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	client := testutils.CreateTestClient(db)
	require.NotNil(t, client)
	product := testutils.CreateTestProduct(db)
	require.NotNil(t, product)
	subscription := testutils.CreateTestSubscription(db, client.ID, product.ID, 2, []int{0, 2})
	require.NotNil(t, subscription)

	attendance := &AttendanceService{db: db}
	return &invoiceTestEnv{
		db:           db,
		invoices:     &InvoiceService{db: db, attendance: attendance},
		attendance:   attendance,
		client:       client,
		subscription: subscription,
	}
}

// record регистрирует результат тренировки клиента окружения
func (env *invoiceTestEnv) record(t *testing.T, day int, status string) *models.Attendance {
	attendance, err := env.attendance.RecordOutcome(RecordOutcomeInput{
		ClientID:  env.client.ID,
		Date:      time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		Status:    status,
	})
	require.NoError(t, err)
	return attendance
}

func TestInvoiceService_Generate(t *testing.T) {
	env := setupInvoiceTest(t)

	// Февраль 2024, Пн/Ср: 8 плановых тренировок
	env.record(t, 5, models.AttendanceStatusAttended)
	env.record(t, 7, models.AttendanceStatusAttended)
	env.record(t, 12, models.AttendanceStatusAbsent)
	env.record(t, 14, models.AttendanceStatusCancelledByCenter)
	env.record(t, 19, models.AttendanceStatusCancelledByClient)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusGenerated, invoice.Status)
	assert.Empty(t, invoice.Number, "Number is assigned on issue, not on generation")
	assert.Equal(t, 8, invoice.SessionsScheduled)
	assert.Equal(t, 2, invoice.SessionsAttended)
	assert.Equal(t, 1, invoice.SessionsAbsent)
	assert.Equal(t, 1, invoice.SessionsCancelledByCenter)
	assert.Equal(t, 1, invoice.SessionsCancelledByClient)
	assert.Equal(t, 1, invoice.SessionsCarriedToNext, "Pending recovery carries to the next period")
	assert.Len(t, invoice.Lines, 5)

	// К оплате: 8 плановых - 1 отмененная центром - 1 перенесенная = 6.
	// Отмененная клиентом оплачивается.
	assert.Equal(t, 6, invoice.TotalSessionsBillable)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(168)), "6 sessions at 28 each, got %s", invoice.Subtotal)
	assert.True(t, invoice.TotalDue.Equal(decimal.NewFromInt(168)))

	// Снимок абонемента
	assert.Equal(t, 2, invoice.SnapshotDaysPerWeek)
	assert.True(t, invoice.SnapshotUnitPrice.Equal(decimal.NewFromInt(28)))
	assert.Equal(t, "Персональная тренировка", invoice.SnapshotProductName)
}

func TestInvoiceService_Generate_Duplicate(t *testing.T) {
	env := setupInvoiceTest(t)

	_, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	_, err = env.invoices.Generate(env.client.ID, 2, 2024, nil)
	assert.True(t, errors.Is(err, ErrDuplicateInvoice), "Invoice per period is generated exactly once")

	// Другой период генерируется свободно
	_, err = env.invoices.Generate(env.client.ID, 3, 2024, nil)
	assert.NoError(t, err)
}

func TestInvoiceService_Generate_NoActiveSubscription(t *testing.T) {
	env := setupInvoiceTest(t)

	require.NoError(t, env.db.Model(env.subscription).
		Update("status", models.SubscriptionStatusPaused).Error)

	_, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	assert.True(t, errors.Is(err, ErrNoActiveSubscription))
}

func TestInvoiceService_Generate_ZeroAttendance(t *testing.T) {
	env := setupInvoiceTest(t)

	// Месяц без единой записи посещаемости: счет создается по плану абонемента
	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	assert.Empty(t, invoice.Lines)
	assert.Equal(t, 8, invoice.SessionsScheduled)
	assert.Equal(t, 8, invoice.TotalSessionsBillable)
	assert.True(t, invoice.TotalDue.Equal(decimal.NewFromInt(224)))
}

func TestInvoiceService_Generate_Validation(t *testing.T) {
	env := setupInvoiceTest(t)

	_, err := env.invoices.Generate(env.client.ID, 0, 2024, nil)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = env.invoices.Generate(env.client.ID, 13, 2024, nil)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = env.invoices.Generate(env.client.ID, 2, 1999, nil)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestInvoiceService_RecalculateTotals_ClampsAtZero(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice := &models.MonthlyInvoice{
		Status:                    models.InvoiceStatusGenerated,
		SnapshotUnitPrice:         decimal.NewFromInt(28),
		SessionsScheduled:         8,
		SessionsCarriedFromPrior:  2,
		SessionsCancelledByCenter: 3,
		SessionsCarriedToNext:     10,
	}

	require.NoError(t, env.invoices.RecalculateTotals(invoice))

	assert.Equal(t, 0, invoice.TotalSessionsBillable, "Billable sessions never go negative")
	assert.True(t, invoice.Subtotal.IsZero())
	assert.True(t, invoice.TotalDue.IsZero())
}

func TestInvoiceService_RecalculateTotals_Idempotent(t *testing.T) {
	env := setupInvoiceTest(t)
	env.record(t, 5, models.AttendanceStatusAttended)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	before := invoice.TotalDue
	require.NoError(t, env.invoices.RecalculateTotals(invoice))
	require.NoError(t, env.invoices.RecalculateTotals(invoice))

	assert.True(t, invoice.TotalDue.Equal(before), "Repeated recalculation must not change totals")
}

func TestInvoiceService_RecalculateTotals_RejectsVoided(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice := &models.MonthlyInvoice{Status: models.InvoiceStatusVoided}
	err := env.invoices.RecalculateTotals(invoice)
	assert.True(t, errors.Is(err, ErrState))
}

func TestInvoiceService_Issue_AssignsNumberOnce(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	issued, err := env.invoices.Issue(invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-0001", issued.Number)
	assert.Equal(t, models.InvoiceStatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)

	// Повторное выставление недопустимо
	_, err = env.invoices.Issue(invoice.ID)
	assert.True(t, errors.Is(err, ErrState))
}

func TestInvoiceService_Issue_SequenceWithinPeriod(t *testing.T) {
	env := setupInvoiceTest(t)

	second := testutils.CreateTestClient(env.db)
	second.Email = "second@example.com"
	require.NoError(t, env.db.Save(second).Error)
	product := testutils.CreateTestProduct(env.db)
	require.NotNil(t, testutils.CreateTestSubscription(env.db, second.ID, product.ID, 1, []int{4}))

	first, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)
	other, err := env.invoices.Generate(second.ID, 2, 2024, nil)
	require.NoError(t, err)
	march, err := env.invoices.Generate(env.client.ID, 3, 2024, nil)
	require.NoError(t, err)

	issuedFirst, err := env.invoices.Issue(first.ID)
	require.NoError(t, err)
	issuedOther, err := env.invoices.Issue(other.ID)
	require.NoError(t, err)
	issuedMarch, err := env.invoices.Issue(march.ID)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-0001", issuedFirst.Number)
	assert.Equal(t, "2024-02-0002", issuedOther.Number, "Sequence is per period and has no gaps")
	assert.Equal(t, "2024-03-0001", issuedMarch.Number, "Each period starts its own sequence")
}

func TestInvoiceService_RegisterPayment_PartialThenPaid(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)
	issued, err := env.invoices.Issue(invoice.ID)
	require.NoError(t, err)
	require.True(t, issued.TotalDue.Equal(decimal.NewFromInt(224)))

	partial, err := env.invoices.RegisterPayment(invoice.ID, decimal.NewFromInt(100), "card", "")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPartial, partial.Status)
	assert.True(t, partial.TotalPaid.Equal(decimal.NewFromInt(100)))
	assert.True(t, partial.RemainingAmount().Equal(decimal.NewFromInt(124)))
	assert.Nil(t, partial.PaidAt)

	paid, err := env.invoices.RegisterPayment(invoice.ID, decimal.NewFromInt(124), "cash", "")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.IsFullyPaid())

	// Платеж без референса получает сгенерированный
	require.Len(t, paid.Payments, 2)
	assert.NotEmpty(t, paid.Payments[0].Reference)
}

func TestInvoiceService_RegisterPayment_Validation(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	_, err = env.invoices.RegisterPayment(invoice.ID, decimal.Zero, "card", "")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = env.invoices.Void(invoice.ID, "тест")
	require.NoError(t, err)

	_, err = env.invoices.RegisterPayment(invoice.ID, decimal.NewFromInt(10), "card", "")
	assert.True(t, errors.Is(err, ErrState), "Voided invoice does not accept payments")
}

func TestInvoiceService_AddDiscount(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)
	require.True(t, invoice.TotalDue.Equal(decimal.NewFromInt(224)))

	// Процентная скидка считается от промежуточного итога
	discounted, err := env.invoices.AddDiscount(invoice.ID, "Семейная скидка", decimal.Zero, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, discounted.TotalDiscounts.Equal(decimal.NewFromInt(112)))
	assert.True(t, discounted.TotalDue.Equal(decimal.NewFromInt(112)))

	// Фиксированная скидка сверх суммы счета: итог не уходит в минус
	discounted, err = env.invoices.AddDiscount(invoice.ID, "Компенсация", decimal.NewFromInt(500), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, discounted.TotalDue.IsZero(), "Total due never goes negative")

	_, err = env.invoices.AddDiscount(invoice.ID, "", decimal.NewFromInt(5), decimal.Zero)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestInvoiceService_Void(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	voided, err := env.invoices.Void(invoice.ID, "Ошибочная генерация")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusVoided, voided.Status)
	assert.Equal(t, "Ошибочная генерация", voided.Notes)

	// Аннулирование терминально
	_, err = env.invoices.Void(invoice.ID, "еще раз")
	assert.True(t, errors.Is(err, ErrState))
}

func TestInvoiceService_Void_RejectsDraft(t *testing.T) {
	env := setupInvoiceTest(t)

	draft := &models.MonthlyInvoice{
		ClientID: env.client.ID,
		Month:    2,
		Year:     2024,
		Status:   models.InvoiceStatusDraft,
	}
	require.NoError(t, env.db.Create(draft).Error)

	_, err := env.invoices.Void(draft.ID, "черновик")
	assert.True(t, errors.Is(err, ErrState), "Draft is deleted, not voided")
}

func TestInvoiceService_MarkOverdueInvoices(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)
	_, err = env.invoices.Issue(invoice.ID)
	require.NoError(t, err)

	// Срок оплаты истек вчера
	require.NoError(t, env.db.Model(&models.MonthlyInvoice{}).
		Where("id = ?", invoice.ID).
		Update("due_date", time.Now().AddDate(0, 0, -1)).Error)

	overdue, err := env.invoices.MarkOverdueInvoices()
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, models.InvoiceStatusOverdue, overdue[0].Status)

	// Повторный запуск не трогает уже просроченные
	overdue, err = env.invoices.MarkOverdueInvoices()
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestInvoiceService_Generate_RecordsHistory(t *testing.T) {
	env := setupInvoiceTest(t)

	invoice, err := env.invoices.Generate(env.client.ID, 2, 2024, nil)
	require.NoError(t, err)

	var history models.BillingHistory
	require.NoError(t, env.db.Where("invoice_id = ? AND operation = ?",
		invoice.ID, "invoice_generated").First(&history).Error)
	assert.Equal(t, env.client.ID, history.ClientID)
	assert.True(t, history.Amount.Equal(invoice.TotalDue))
}
