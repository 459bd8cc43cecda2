package services

import (
	"bytes"
	"fmt"
	"strconv"

	"backend_fitadmin/models"

	"github.com/jung-kurt/gofpdf"
)

// InvoicePDFService формирует PDF-документ счета. Сервис чисто
// презентационный: единый фиксированный макет A4, без бизнес-логики.
type InvoicePDFService struct{}

// NewInvoicePDFService создает новый экземпляр InvoicePDFService
func NewInvoicePDFService() *InvoicePDFService {
	return &InvoicePDFService{}
}

// RenderInvoicePDF отрисовывает счет в PDF с реквизитами центра
// и возвращает содержимое документа
func (ps *InvoicePDFService) RenderInvoicePDF(invoice *models.MonthlyInvoice, profile *models.CenterProfile) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Кириллица в базовых шрифтах доступна через cp1251
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")
	pdf.AddPage()

	r, g, b := hexToRGB(profile.LogoColor)

	// Шапка с брендингом центра
	pdf.SetFillColor(r, g, b)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(10, 8)
	pdf.Cell(120, 10, tr(profile.Name))
	pdf.SetFont("Arial", "", 9)
	pdf.SetXY(10, 17)
	pdf.Cell(120, 6, tr(fmt.Sprintf("%s  |  %s", profile.TaxID, profile.Address)))

	number := invoice.Number
	if number == "" {
		number = "(не выставлен)"
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.SetXY(140, 8)
	pdf.CellFormat(60, 8, tr(fmt.Sprintf("Счет %s", number)), "", 0, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetXY(140, 16)
	pdf.CellFormat(60, 6, tr(fmt.Sprintf("Период: %s", invoice.PeriodLabel())), "", 0, "R", false, 0, "")

	// Блок клиента
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(10, 36)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(60, 7, tr("Клиент"))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	if invoice.Client != nil {
		pdf.Cell(100, 6, tr(invoice.Client.FullName()))
		pdf.Ln(5)
		if invoice.Client.Email != "" {
			pdf.Cell(100, 6, invoice.Client.Email)
			pdf.Ln(5)
		}
	}
	pdf.Cell(100, 6, tr(fmt.Sprintf("Абонемент: %s, %d дн./нед., ступень %s",
		invoice.SnapshotProductName, invoice.SnapshotDaysPerWeek, invoice.SnapshotTariffBracket)))
	pdf.Ln(10)

	// Таблица тренировок
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(35, 7, tr("Дата"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, tr("Время"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, tr("Результат"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, tr("Цена"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, tr("Отработка"), "1", 0, "C", true, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for _, line := range invoice.Lines {
		recovery := "-"
		if line.IsRecovery {
			recovery = tr("да")
		}
		pdf.CellFormat(35, 6, line.Date.Format("02.01.2006"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, line.StartTime, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, tr(outcomeLabel(line.Outcome)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, line.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, recovery, "1", 0, "C", false, 0, "")
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Итоги
	pdf.SetFont("Arial", "", 10)
	ps.totalRow(pdf, tr("Тренировок к оплате"), strconv.Itoa(invoice.TotalSessionsBillable))
	ps.totalRow(pdf, tr("Промежуточный итог"), invoice.Subtotal.StringFixed(2)+" "+profile.Currency)
	if invoice.TotalDiscounts.Sign() > 0 {
		ps.totalRow(pdf, tr("Скидки"), "-"+invoice.TotalDiscounts.StringFixed(2)+" "+profile.Currency)
	}
	pdf.SetFont("Arial", "B", 11)
	ps.totalRow(pdf, tr("Итого к оплате"), invoice.TotalDue.StringFixed(2)+" "+profile.Currency)

	// Статус оплаты
	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	if invoice.IsFullyPaid() {
		pdf.Cell(100, 6, tr("Статус: оплачен"))
	} else {
		pdf.Cell(100, 6, tr(fmt.Sprintf("Статус: к оплате %s %s",
			invoice.RemainingAmount().StringFixed(2), profile.Currency)))
		// Банковские реквизиты показываются только по неоплаченным счетам
		if profile.IBAN != "" {
			pdf.Ln(6)
			pdf.Cell(100, 6, fmt.Sprintf("IBAN: %s", profile.IBAN))
		}
	}

	// Подвал
	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(190, 6, tr(fmt.Sprintf("%s  |  %s  |  %s", profile.Name, profile.Phone, profile.Email)),
		"T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: ошибка формирования PDF: %v", ErrDependency, err)
	}

	return buf.Bytes(), nil
}

// totalRow выводит строку итогов справа
func (ps *InvoicePDFService) totalRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetX(100)
	pdf.CellFormat(60, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, value, "", 0, "R", false, 0, "")
	pdf.Ln(7)
}

// outcomeLabel возвращает человекочитаемое название результата тренировки
func outcomeLabel(outcome string) string {
	switch outcome {
	case models.AttendanceStatusAttended:
		return "Посещена"
	case models.AttendanceStatusAbsent:
		return "Пропущена"
	case models.AttendanceStatusCancelledByClient:
		return "Отменена клиентом"
	case models.AttendanceStatusCancelledByCenter:
		return "Отменена центром"
	case models.AttendanceStatusPending:
		return "Запланирована"
	}
	return outcome
}

// hexToRGB разбирает цвет вида "#RRGGBB"
func hexToRGB(hex string) (int, int, int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 31, 111, 178
	}
	r, err1 := strconv.ParseInt(hex[1:3], 16, 0)
	g, err2 := strconv.ParseInt(hex[3:5], 16, 0)
	b, err3 := strconv.ParseInt(hex[5:7], 16, 0)
	if err1 != nil || err2 != nil || err3 != nil {
		return 31, 111, 178
	}
	return int(r), int(g), int(b)
}
