package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// BillingAutomationService выполняет регулярные биллинговые задачи:
// месячную генерацию счетов, перенос неотработанных пропусков и
// пометку просроченных счетов
type BillingAutomationService struct {
	db            *gorm.DB
	invoices      *InvoiceService
	attendance    *AttendanceService
	notifications *NotificationService
	cron          *cron.Cron
}

// NewBillingAutomationService создает новый экземпляр BillingAutomationService
func NewBillingAutomationService(invoices *InvoiceService, attendance *AttendanceService, notifications *NotificationService) *BillingAutomationService {
	return &BillingAutomationService{
		db:            database.DB,
		invoices:      invoices,
		attendance:    attendance,
		notifications: notifications,
		cron:          cron.New(),
	}
}

// Start запускает планировщик биллинговых задач
func (bas *BillingAutomationService) Start() error {
	// Первого числа в 02:00: перенос пропусков и генерация счетов
	// за закончившийся месяц
	_, err := bas.cron.AddFunc("0 2 1 * *", func() {
		now := time.Now()
		prev := now.AddDate(0, -1, 0)

		if _, err := bas.attendance.ProcessExpiredRecoveries(now); err != nil {
			log.Printf("❌ Ошибка переноса неотработанных пропусков: %v", err)
		}
		if err := bas.AutoGenerateInvoicesForMonth(prev.Year(), int(prev.Month())); err != nil {
			log.Printf("❌ Ошибка автогенерации счетов: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("ошибка регистрации месячной задачи: %w", err)
	}

	// Ежедневно в 08:00: пометка просроченных счетов и уведомление персонала
	_, err = bas.cron.AddFunc("0 8 * * *", func() {
		overdue, err := bas.invoices.MarkOverdueInvoices()
		if err != nil {
			log.Printf("❌ Ошибка пометки просроченных счетов: %v", err)
			return
		}
		if err := bas.notifications.NotifyStaffOverdueInvoices(overdue); err != nil {
			log.Printf("⚠️  Ошибка уведомления о просроченных счетах: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("ошибка регистрации ежедневной задачи: %w", err)
	}

	bas.cron.Start()
	log.Println("✅ Планировщик биллинга запущен")
	return nil
}

// Stop останавливает планировщик
func (bas *BillingAutomationService) Stop() {
	if bas.cron != nil {
		bas.cron.Stop()
	}
}

// AutoGenerateInvoicesForMonth генерирует счета за месяц для всех клиентов
// с активными абонементами. Уже существующие счета пропускаются.
func (bas *BillingAutomationService) AutoGenerateInvoicesForMonth(year, month int) error {
	var subscriptions []models.ClientSubscription
	err := bas.db.Where("status = ?", models.SubscriptionStatusActive).Find(&subscriptions).Error
	if err != nil {
		return fmt.Errorf("ошибка получения активных абонементов: %w", err)
	}

	successCount := 0
	failures := make([]error, 0)

	for _, subscription := range subscriptions {
		_, err := bas.invoices.Generate(subscription.ClientID, month, year, nil)
		if err != nil {
			// Счет за период уже существует, это не ошибка автогенерации
			if errors.Is(err, ErrDuplicateInvoice) {
				continue
			}
			failures = append(failures, fmt.Errorf("клиент %d: %w", subscription.ClientID, err))
			continue
		}
		successCount++
	}

	log.Printf("✅ Автогенерация счетов за %02d/%d: создано %d, ошибок %d",
		month, year, successCount, len(failures))

	if len(failures) > 0 {
		return fmt.Errorf("генерация завершена с ошибками. Создано счетов: %d, ошибок: %d. Первая ошибка: %v",
			successCount, len(failures), failures[0])
	}

	return nil
}

// BillingStatistics содержит сводную статистику биллинга за период
type BillingStatistics struct {
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	TotalInvoices   int             `json:"total_invoices"`
	PaidInvoices    int             `json:"paid_invoices"`
	PartialInvoices int             `json:"partial_invoices"`
	OverdueInvoices int             `json:"overdue_invoices"`
	VoidedInvoices  int             `json:"voided_invoices"`
	TotalDue        decimal.Decimal `json:"total_due"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
}

// GetBillingStatistics собирает статистику по счетам месяца
func (bas *BillingAutomationService) GetBillingStatistics(year, month int) (*BillingStatistics, error) {
	invoices, err := bas.invoices.GetByPeriod(month, year)
	if err != nil {
		return nil, err
	}

	stats := &BillingStatistics{
		Year:      year,
		Month:     month,
		TotalDue:  decimal.Zero,
		TotalPaid: decimal.Zero,
	}

	for _, invoice := range invoices {
		stats.TotalInvoices++
		switch invoice.Status {
		case models.InvoiceStatusPaid:
			stats.PaidInvoices++
		case models.InvoiceStatusPartial:
			stats.PartialInvoices++
		case models.InvoiceStatusOverdue:
			stats.OverdueInvoices++
		case models.InvoiceStatusVoided:
			stats.VoidedInvoices++
		}
		if invoice.Status != models.InvoiceStatusVoided {
			stats.TotalDue = stats.TotalDue.Add(invoice.TotalDue)
			stats.TotalPaid = stats.TotalPaid.Add(invoice.TotalPaid)
		}
	}

	return stats, nil
}

// ExportMonthlyReport выгружает счета месяца в файл отчета (xlsx или csv)
// и возвращает путь к созданному файлу
func (bas *BillingAutomationService) ExportMonthlyReport(year, month int, format, dir string) (string, error) {
	invoices, err := bas.invoices.GetByPeriod(month, year)
	if err != nil {
		return "", err
	}

	headers := []string{"Номер", "Клиент", "Статус", "Тренировок к оплате", "Итого", "Оплачено"}
	rows := make([][]string, 0, len(invoices))
	for _, invoice := range invoices {
		clientName := fmt.Sprintf("клиент %d", invoice.ClientID)
		if invoice.Client != nil {
			clientName = invoice.Client.FullName()
		}
		rows = append(rows, []string{
			invoice.Number,
			clientName,
			invoice.Status,
			fmt.Sprintf("%d", invoice.TotalSessionsBillable),
			invoice.TotalDue.StringFixed(2),
			invoice.TotalPaid.StringFixed(2),
		})
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания каталога отчетов: %w", err)
	}

	baseName := fmt.Sprintf("billing-%d-%02d", year, month)

	switch format {
	case "csv":
		return bas.writeCSVReport(filepath.Join(dir, baseName+".csv"), headers, rows)
	case "xlsx", "":
		return bas.writeExcelReport(filepath.Join(dir, baseName+".xlsx"), headers, rows)
	default:
		return "", fmt.Errorf("%w: неизвестный формат отчета %q", ErrValidation, format)
	}
}

// writeCSVReport записывает отчет в CSV
func (bas *BillingAutomationService) writeCSVReport(path string, headers []string, rows [][]string) (string, error) {
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла отчета: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("ошибка записи отчета: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("ошибка записи отчета: %w", err)
		}
	}

	return path, nil
}

// writeExcelReport записывает отчет в Excel
func (bas *BillingAutomationService) writeExcelReport(path string, headers []string, rows [][]string) (string, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for rowIdx, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("ошибка сохранения отчета: %w", err)
	}

	return path, nil
}
