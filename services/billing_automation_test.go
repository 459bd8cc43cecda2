package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backend_fitadmin/models"
	"backend_fitadmin/testutils"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAutomationTest(t *testing.T) (*gorm.DB, *BillingAutomationService) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	attendance := &AttendanceService{db: db}
	bas := &BillingAutomationService{
		db:         db,
		invoices:   &InvoiceService{db: db, attendance: attendance},
		attendance: attendance,
	}
	return db, bas
}

// createClientWithSubscription заводит клиента с активным абонементом
func createClientWithSubscription(t *testing.T, db *gorm.DB, email string) *models.Client {
	client := testutils.CreateTestClient(db)
	require.NotNil(t, client)
	client.Email = email
	require.NoError(t, db.Save(client).Error)

	product := testutils.CreateTestProduct(db)
	require.NotNil(t, product)
	require.NotNil(t, testutils.CreateTestSubscription(db, client.ID, product.ID, 2, []int{0, 2}))
	return client
}

func TestBillingAutomation_AutoGenerateInvoicesForMonth(t *testing.T) {
	db, bas := setupAutomationTest(t)

	createClientWithSubscription(t, db, "first@example.com")
	createClientWithSubscription(t, db, "second@example.com")

	// Клиент с приостановленным абонементом счетов не получает
	paused := createClientWithSubscription(t, db, "paused@example.com")
	require.NoError(t, db.Model(&models.ClientSubscription{}).
		Where("client_id = ?", paused.ID).
		Update("status", models.SubscriptionStatusPaused).Error)

	require.NoError(t, bas.AutoGenerateInvoicesForMonth(2024, 2))

	invoices, err := bas.invoices.GetByPeriod(2, 2024)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)

	// Повторный запуск пропускает уже существующие счета без ошибок
	require.NoError(t, bas.AutoGenerateInvoicesForMonth(2024, 2))

	invoices, err = bas.invoices.GetByPeriod(2, 2024)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

func TestBillingAutomation_GetBillingStatistics(t *testing.T) {
	db, bas := setupAutomationTest(t)

	paid := createClientWithSubscription(t, db, "paid@example.com")
	open := createClientWithSubscription(t, db, "open@example.com")
	voided := createClientWithSubscription(t, db, "voided@example.com")

	paidInvoice, err := bas.invoices.Generate(paid.ID, 2, 2024, nil)
	require.NoError(t, err)
	_, err = bas.invoices.Issue(paidInvoice.ID)
	require.NoError(t, err)
	_, err = bas.invoices.RegisterPayment(paidInvoice.ID, decimal.NewFromInt(224), "card", "")
	require.NoError(t, err)

	_, err = bas.invoices.Generate(open.ID, 2, 2024, nil)
	require.NoError(t, err)

	voidedInvoice, err := bas.invoices.Generate(voided.ID, 2, 2024, nil)
	require.NoError(t, err)
	_, err = bas.invoices.Void(voidedInvoice.ID, "тест")
	require.NoError(t, err)

	stats, err := bas.GetBillingStatistics(2024, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalInvoices)
	assert.Equal(t, 1, stats.PaidInvoices)
	assert.Equal(t, 1, stats.VoidedInvoices)
	// Аннулированные счета в денежные итоги не входят
	assert.True(t, stats.TotalDue.Equal(decimal.NewFromInt(448)), "got %s", stats.TotalDue)
	assert.True(t, stats.TotalPaid.Equal(decimal.NewFromInt(224)))
}

func TestBillingAutomation_ExportMonthlyReport_CSV(t *testing.T) {
	db, bas := setupAutomationTest(t)

	client := createClientWithSubscription(t, db, "report@example.com")
	invoice, err := bas.invoices.Generate(client.ID, 2, 2024, nil)
	require.NoError(t, err)
	_, err = bas.invoices.Issue(invoice.ID)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := bas.ExportMonthlyReport(2024, 2, "csv", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "billing-2024-02.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2, "Header plus one invoice row")
	assert.Contains(t, lines[1], "2024-02-0001")
	assert.Contains(t, lines[1], "Анна Петрова")
}

func TestBillingAutomation_ExportMonthlyReport_Excel(t *testing.T) {
	db, bas := setupAutomationTest(t)

	client := createClientWithSubscription(t, db, "excel@example.com")
	_, err := bas.invoices.Generate(client.ID, 2, 2024, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := bas.ExportMonthlyReport(2024, 2, "xlsx", dir)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBillingAutomation_ExportMonthlyReport_CreatesDirectory(t *testing.T) {
	db, bas := setupAutomationTest(t)

	client := createClientWithSubscription(t, db, "freshdir@example.com")
	_, err := bas.invoices.Generate(client.ID, 2, 2024, nil)
	require.NoError(t, err)

	// На свежей установке каталог отчетов еще не существует
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := bas.ExportMonthlyReport(2024, 2, "csv", dir)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	path, err = bas.ExportMonthlyReport(2024, 2, "xlsx", dir)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBillingAutomation_ExportMonthlyReport_UnknownFormat(t *testing.T) {
	_, bas := setupAutomationTest(t)

	_, err := bas.ExportMonthlyReport(2024, 2, "pdf", t.TempDir())
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestBillingAutomation_StartStop(t *testing.T) {
	_, bas := setupAutomationTest(t)
	bas.cron = cron.New()

	require.NoError(t, bas.Start())
	bas.Stop()
}
