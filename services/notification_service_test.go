package services

import (
	"errors"
	"strings"
	"testing"

	"backend_fitadmin/config"
	"backend_fitadmin/models"
	"backend_fitadmin/testutils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupNotificationTest(t *testing.T, cfg *config.Config) (*gorm.DB, *NotificationService) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	return db, &NotificationService{db: db, cfg: cfg}
}

func smtpTestConfig() *config.Config {
	return &config.Config{
		External: config.ExternalConfig{
			SMTP: config.SMTPConfig{
				Host: "smtp.example.com",
				Port: 587,
				From: "billing@example.com",
			},
		},
	}
}

func TestNotificationService_EmailInvoice_RequiresSMTPConfig(t *testing.T) {
	_, ns := setupNotificationTest(t, &config.Config{})

	invoice := &models.MonthlyInvoice{ClientID: 1, Month: 2, Year: 2024}
	_, err := ns.EmailInvoice(invoice, nil, &models.CenterProfile{Name: "Центр"})
	assert.True(t, errors.Is(err, ErrConfiguration), "Missing SMTP settings must fail before dialing")

	// Хост без адреса отправителя также недостаточен
	partial := &config.Config{External: config.ExternalConfig{
		SMTP: config.SMTPConfig{Host: "smtp.example.com"},
	}}
	_, ns = setupNotificationTest(t, partial)
	_, err = ns.EmailInvoice(invoice, nil, &models.CenterProfile{Name: "Центр"})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestNotificationService_EmailInvoice_RequiresRecipient(t *testing.T) {
	db, ns := setupNotificationTest(t, smtpTestConfig())

	client := testutils.CreateTestClient(db)
	require.NotNil(t, client)
	require.NoError(t, db.Model(client).Update("email", "").Error)

	invoice := &models.MonthlyInvoice{ClientID: client.ID, Month: 2, Year: 2024}
	_, err := ns.EmailInvoice(invoice, nil, &models.CenterProfile{Name: "Центр"})
	assert.True(t, errors.Is(err, ErrMissingRecipient))
}

func TestNotificationService_EmailInvoice_MissingClient(t *testing.T) {
	_, ns := setupNotificationTest(t, smtpTestConfig())

	invoice := &models.MonthlyInvoice{ClientID: 9999, Month: 2, Year: 2024}
	_, err := ns.EmailInvoice(invoice, nil, &models.CenterProfile{Name: "Центр"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNotificationService_BuildInvoiceEmailHTML(t *testing.T) {
	_, ns := setupNotificationTest(t, smtpTestConfig())

	profile := &models.CenterProfile{
		Name:      "Фитнес-центр Атлант",
		Currency:  "RUB",
		IBAN:      "RU0204452560040702810412345678901",
		LogoColor: "#1F6FB2",
	}
	invoice := &models.MonthlyInvoice{
		Client:                &models.Client{FirstName: "Анна", LastName: "Петрова"},
		Month:                 2,
		Year:                  2024,
		TotalSessionsBillable: 6,
		Subtotal:              decimal.NewFromInt(168),
		TotalDue:              decimal.NewFromInt(168),
		Status:                models.InvoiceStatusIssued,
	}

	html := ns.buildInvoiceEmailHTML(invoice, profile)
	assert.Contains(t, html, "Анна Петрова")
	assert.Contains(t, html, "02/2024")
	assert.Contains(t, html, "168.00 RUB")
	assert.Contains(t, html, profile.IBAN, "Unpaid invoice email should carry bank details")

	// В письме по оплаченному счету реквизитов нет
	invoice.TotalPaid = invoice.TotalDue
	html = ns.buildInvoiceEmailHTML(invoice, profile)
	assert.NotContains(t, html, profile.IBAN)
}

func TestNotificationService_BuildMIMEMessage(t *testing.T) {
	_, ns := setupNotificationTest(t, smtpTestConfig())

	msg := string(ns.buildMIMEMessage("billing@example.com", "anna@example.com",
		"Счет за 02/2024", "<html></html>", []byte("%PDF-fake"), "invoice-02-2024.pdf"))

	assert.Contains(t, msg, "From: billing@example.com")
	assert.Contains(t, msg, "To: anna@example.com")
	assert.Contains(t, msg, "multipart/mixed")
	assert.Contains(t, msg, "Content-Type: application/pdf")
	assert.Contains(t, msg, `filename="invoice-02-2024.pdf"`)
	assert.True(t, strings.HasSuffix(msg, "--\r\n"), "MIME message must end with the closing boundary")
}

func TestNotificationService_NotifyStaffOverdueInvoices_SkipsWhenUnconfigured(t *testing.T) {
	_, ns := setupNotificationTest(t, &config.Config{})

	// Без настроенного бота уведомление пропускается без ошибки
	err := ns.NotifyStaffOverdueInvoices([]models.MonthlyInvoice{{Number: "2024-02-0001"}})
	assert.NoError(t, err)

	// Настроенный бот без просроченных счетов тоже ничего не отправляет
	configured := &config.Config{External: config.ExternalConfig{
		TelegramBotToken: "token", TelegramChatID: "123",
	}}
	_, ns = setupNotificationTest(t, configured)
	assert.NoError(t, ns.NotifyStaffOverdueInvoices(nil))
}
