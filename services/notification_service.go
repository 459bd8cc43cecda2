package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"backend_fitadmin/config"
	"backend_fitadmin/database"
	"backend_fitadmin/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService отправляет счета клиентам по email и уведомляет
// персонал центра в Telegram. Отправка не ретраится внутри сервиса:
// ошибки доставки возвращаются вызывающему.
type NotificationService struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:  database.DB,
		cfg: cfg,
	}
}

// DeliveryReceipt подтверждает отправку счета клиенту
type DeliveryReceipt struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`
}

// EmailInvoice отправляет клиенту письмо со сводкой счета и вложенным PDF.
// Банковские реквизиты включаются в письмо только по неоплаченным счетам.
func (ns *NotificationService) EmailInvoice(invoice *models.MonthlyInvoice, pdfBytes []byte, profile *models.CenterProfile) (*DeliveryReceipt, error) {
	smtpCfg := ns.cfg.External.SMTP
	if smtpCfg.Host == "" || smtpCfg.From == "" {
		return nil, fmt.Errorf("SMTP не настроен: %w", ErrConfiguration)
	}

	if invoice.Client == nil {
		var client models.Client
		if err := ns.db.First(&client, invoice.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("клиент %d: %w", invoice.ClientID, ErrNotFound)
			}
			return nil, fmt.Errorf("ошибка получения клиента: %w", err)
		}
		invoice.Client = &client
	}
	if invoice.Client.Email == "" {
		return nil, fmt.Errorf("клиент %s: %w", invoice.Client.FullName(), ErrMissingRecipient)
	}

	recipient := invoice.Client.Email
	subject := fmt.Sprintf("Счет за %s — %s", invoice.PeriodLabel(), profile.Name)
	html := ns.buildInvoiceEmailHTML(invoice, profile)
	msg := ns.buildMIMEMessage(smtpCfg.From, recipient, subject, html, pdfBytes,
		fmt.Sprintf("invoice-%s.pdf", strings.ReplaceAll(invoice.PeriodLabel(), "/", "-")))

	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	var auth smtp.Auth
	if smtpCfg.User != "" {
		auth = smtp.PlainAuth("", smtpCfg.User, smtpCfg.Password, smtpCfg.Host)
	}
	if err := smtp.SendMail(addr, auth, smtpCfg.From, []string{recipient}, msg); err != nil {
		return nil, fmt.Errorf("%w: отправка счета на %s: %v", ErrDependency, recipient, err)
	}

	receipt := &DeliveryReceipt{
		ID:        uuid.New().String(),
		Recipient: recipient,
		SentAt:    time.Now(),
	}

	history := &models.BillingHistory{
		ClientID:    invoice.ClientID,
		InvoiceID:   &invoice.ID,
		Operation:   "invoice_emailed",
		Amount:      invoice.TotalDue,
		Description: fmt.Sprintf("Счет %s отправлен на %s (квитанция %s)", invoice.Number, recipient, receipt.ID),
		Status:      "completed",
	}
	if err := ns.db.Create(history).Error; err != nil {
		log.Printf("Предупреждение: ошибка записи в журнал биллинга: %v", err)
	}

	return receipt, nil
}

// buildInvoiceEmailHTML формирует HTML-тело письма со сводкой счета
func (ns *NotificationService) buildInvoiceEmailHTML(invoice *models.MonthlyInvoice, profile *models.CenterProfile) string {
	var sb strings.Builder

	sb.WriteString(`<html><body style="font-family:Arial,sans-serif">`)
	sb.WriteString(fmt.Sprintf(`<h2 style="color:%s">%s</h2>`, profile.LogoColor, profile.Name))
	sb.WriteString(fmt.Sprintf("<p>Здравствуйте, %s!</p>", invoice.Client.FullName()))
	sb.WriteString(fmt.Sprintf("<p>Ваш счет за период <b>%s</b> во вложении.</p>", invoice.PeriodLabel()))

	sb.WriteString(`<table cellpadding="6" style="border-collapse:collapse;border:1px solid #ccc">`)
	sb.WriteString(fmt.Sprintf("<tr><td>Тренировок к оплате</td><td align=\"right\">%d</td></tr>", invoice.TotalSessionsBillable))
	sb.WriteString(fmt.Sprintf("<tr><td>Промежуточный итог</td><td align=\"right\">%s %s</td></tr>", invoice.Subtotal.StringFixed(2), profile.Currency))
	if invoice.TotalDiscounts.Sign() > 0 {
		sb.WriteString(fmt.Sprintf("<tr><td>Скидки</td><td align=\"right\">-%s %s</td></tr>", invoice.TotalDiscounts.StringFixed(2), profile.Currency))
	}
	sb.WriteString(fmt.Sprintf("<tr><td><b>Итого к оплате</b></td><td align=\"right\"><b>%s %s</b></td></tr>", invoice.TotalDue.StringFixed(2), profile.Currency))
	sb.WriteString("</table>")

	if !invoice.IsFullyPaid() && profile.IBAN != "" {
		sb.WriteString(fmt.Sprintf("<p>Реквизиты для оплаты:<br>IBAN: <b>%s</b></p>", profile.IBAN))
	}

	sb.WriteString(fmt.Sprintf("<p style=\"color:#888;font-size:12px\">%s | %s</p>", profile.Address, profile.Phone))
	sb.WriteString("</body></html>")

	return sb.String()
}

// buildMIMEMessage собирает multipart-письмо с HTML-телом и PDF-вложением
func (ns *NotificationService) buildMIMEMessage(from, to, subject, html string, attachment []byte, filename string) []byte {
	boundary := "fitadmin-" + uuid.New().String()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	sb.WriteString(html)
	sb.WriteString("\r\n")

	if len(attachment) > 0 {
		sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		sb.WriteString("Content-Type: application/pdf\r\n")
		sb.WriteString("Content-Transfer-Encoding: base64\r\n")
		sb.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", filename))

		encoded := base64.StdEncoding.EncodeToString(attachment)
		// Переносы строк каждые 76 символов по RFC 2045
		for i := 0; i < len(encoded); i += 76 {
			end := i + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			sb.WriteString(encoded[i:end])
			sb.WriteString("\r\n")
		}
	}

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(sb.String())
}

// NotifyStaffOverdueInvoices отправляет в Telegram персоналу центра
// сводку по просроченным счетам. Пропускается, если бот не настроен.
func (ns *NotificationService) NotifyStaffOverdueInvoices(invoices []models.MonthlyInvoice) error {
	token := ns.cfg.External.TelegramBotToken
	chatID := ns.cfg.External.TelegramChatID
	if token == "" || chatID == "" {
		return nil
	}
	if len(invoices) == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("%w: инициализация Telegram бота: %v", ErrDependency, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠️ Просроченных счетов: %d\n", len(invoices)))
	for _, invoice := range invoices {
		clientName := fmt.Sprintf("клиент %d", invoice.ClientID)
		if invoice.Client != nil {
			clientName = invoice.Client.FullName()
		}
		sb.WriteString(fmt.Sprintf("• %s — %s, к оплате %s\n",
			invoice.Number, clientName, invoice.RemainingAmount().StringFixed(2)))
	}

	numericChatID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: некорректный TELEGRAM_CHAT_ID %q", ErrConfiguration, chatID)
	}
	msg := tgbotapi.NewMessage(numericChatID, sb.String())
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("%w: отправка в Telegram: %v", ErrDependency, err)
	}

	return nil
}
