package services

import (
	"errors"
	"fmt"
	"time"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"gorm.io/gorm"
)

// AttendanceService предоставляет операции с журналом посещаемости
type AttendanceService struct {
	db    *gorm.DB
	cache *CacheService
}

// NewAttendanceService создает новый экземпляр AttendanceService
func NewAttendanceService(cache *CacheService) *AttendanceService {
	return &AttendanceService{
		db:    database.DB,
		cache: cache,
	}
}

// RecordOutcomeInput содержит данные для регистрации результата тренировки
type RecordOutcomeInput struct {
	BookingID *uint     `json:"booking_id"`
	ClientID  uint      `json:"client_id"`
	TrainerID *uint     `json:"trainer_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	Status    string    `json:"status"`
}

// RecordOutcome регистрирует результат тренировки: создает запись для слота
// (клиент, дата, время) либо обновляет статус существующей. При переходе
// в absent инициализируется состояние отработки (см. Attendance.BeforeSave).
func (as *AttendanceService) RecordOutcome(input RecordOutcomeInput) (*models.Attendance, error) {
	if !models.IsValidAttendanceStatus(input.Status) {
		return nil, fmt.Errorf("%w: неизвестный статус посещения %q", ErrValidation, input.Status)
	}
	if input.Date.IsZero() || input.StartTime == "" {
		return nil, fmt.Errorf("%w: дата и время тренировки обязательны", ErrValidation)
	}

	var attendance models.Attendance
	err := as.db.Where("client_id = ? AND date = ? AND start_time = ?",
		input.ClientID, input.Date, input.StartTime).First(&attendance).Error

	switch {
	case err == nil:
		attendance.Status = input.Status
		if input.TrainerID != nil {
			attendance.TrainerID = input.TrainerID
		}
		if input.BookingID != nil {
			attendance.BookingID = input.BookingID
		}
		if err := as.db.Save(&attendance).Error; err != nil {
			return nil, fmt.Errorf("ошибка обновления посещения: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		attendance = models.Attendance{
			BookingID: input.BookingID,
			ClientID:  input.ClientID,
			TrainerID: input.TrainerID,
			Date:      input.Date,
			StartTime: input.StartTime,
			Status:    input.Status,
		}
		if err := as.db.Create(&attendance).Error; err != nil {
			// Проигравший гонку за слот получает конфликт
			if isDuplicateKeyError(err) {
				return nil, fmt.Errorf("слот %s %s клиента %d уже зарегистрирован: %w",
					input.Date.Format("02.01.2006"), input.StartTime, input.ClientID, ErrConflict)
			}
			return nil, fmt.Errorf("ошибка создания посещения: %w", err)
		}
	default:
		return nil, fmt.Errorf("ошибка поиска посещения: %w", err)
	}

	as.cache.InvalidateMonthlySummary(attendance.ClientID, attendance.Month, attendance.Year)
	return &attendance, nil
}

// MonthlySummary содержит сводку посещаемости клиента за месяц
type MonthlySummary struct {
	Attended          int `json:"attended"`
	Absent            int `json:"absent"`
	CancelledByClient int `json:"cancelled_by_client"`
	CancelledByCenter int `json:"cancelled_by_center"`
	Pending           int `json:"pending"`
	Total             int `json:"total"`
}

// GetMonthlySummary возвращает количество посещений клиента по статусам
// за календарный месяц
func (as *AttendanceService) GetMonthlySummary(clientID uint, month, year int) (*MonthlySummary, error) {
	if cached, ok := as.cache.GetCachedMonthlySummary(clientID, month, year); ok {
		return cached, nil
	}

	type statusCount struct {
		Status string
		Count  int
	}
	var rows []statusCount
	err := as.db.Model(&models.Attendance{}).
		Select("status, COUNT(*) AS count").
		Where("client_id = ? AND month = ? AND year = ?", clientID, month, year).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации посещаемости: %w", err)
	}

	summary := &MonthlySummary{}
	for _, row := range rows {
		switch row.Status {
		case models.AttendanceStatusAttended:
			summary.Attended = row.Count
		case models.AttendanceStatusAbsent:
			summary.Absent = row.Count
		case models.AttendanceStatusCancelledByClient:
			summary.CancelledByClient = row.Count
		case models.AttendanceStatusCancelledByCenter:
			summary.CancelledByCenter = row.Count
		case models.AttendanceStatusPending:
			summary.Pending = row.Count
		}
		summary.Total += row.Count
	}

	as.cache.CacheMonthlySummary(clientID, month, year, summary)
	return summary, nil
}

// RecoveryStatusCounts содержит количество пропусков по статусам отработки
type RecoveryStatusCounts struct {
	Pending     int `json:"pending"`
	Scheduled   int `json:"scheduled"`
	Completed   int `json:"completed"`
	CarriedOver int `json:"carried_over"`
	Expired     int `json:"expired"`
}

// GetRecoveryStatusCounts считает пропуски клиента за месяц по статусам отработки
func (as *AttendanceService) GetRecoveryStatusCounts(clientID uint, month, year int) (*RecoveryStatusCounts, error) {
	type statusCount struct {
		RecoveryStatus string
		Count          int
	}
	var rows []statusCount
	err := as.db.Model(&models.Attendance{}).
		Select("recovery_status, COUNT(*) AS count").
		Where("client_id = ? AND month = ? AND year = ? AND status = ?",
			clientID, month, year, models.AttendanceStatusAbsent).
		Group("recovery_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации отработок: %w", err)
	}

	counts := &RecoveryStatusCounts{}
	for _, row := range rows {
		switch row.RecoveryStatus {
		case models.RecoveryStatusPending:
			counts.Pending = row.Count
		case models.RecoveryStatusScheduled:
			counts.Scheduled = row.Count
		case models.RecoveryStatusCompleted:
			counts.Completed = row.Count
		case models.RecoveryStatusCarriedOver:
			counts.CarriedOver = row.Count
		case models.RecoveryStatusExpired:
			counts.Expired = row.Count
		}
	}

	return counts, nil
}

// GetPendingRecoveries возвращает пропуски клиента, ожидающие отработки,
// новые первыми. Месяц и год опциональны и сужают выборку до периода.
func (as *AttendanceService) GetPendingRecoveries(clientID uint, month, year *int) ([]models.Attendance, error) {
	query := as.db.Where("client_id = ? AND status = ? AND recovery_status = ?",
		clientID, models.AttendanceStatusAbsent, models.RecoveryStatusPending)

	if month != nil {
		query = query.Where("month = ?", *month)
	}
	if year != nil {
		query = query.Where("year = ?", *year)
	}

	var records []models.Attendance
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения неотработанных пропусков: %w", err)
	}

	return records, nil
}

// ScheduleRecovery назначает отработку пропуска на запись в расписании
func (as *AttendanceService) ScheduleRecovery(attendanceID, recoveryBookingID uint) (*models.Attendance, error) {
	attendance, err := as.getAbsence(attendanceID)
	if err != nil {
		return nil, err
	}

	if *attendance.RecoveryStatus != models.RecoveryStatusPending {
		return nil, fmt.Errorf("отработка в статусе %q не может быть назначена: %w",
			*attendance.RecoveryStatus, ErrState)
	}

	status := models.RecoveryStatusScheduled
	attendance.RecoveryStatus = &status
	attendance.RecoveryBookingID = &recoveryBookingID
	if err := as.db.Save(attendance).Error; err != nil {
		return nil, fmt.Errorf("ошибка назначения отработки: %w", err)
	}

	return attendance, nil
}

// CompleteRecovery отмечает отработку пропуска как состоявшуюся
func (as *AttendanceService) CompleteRecovery(attendanceID uint) (*models.Attendance, error) {
	attendance, err := as.getAbsence(attendanceID)
	if err != nil {
		return nil, err
	}

	switch *attendance.RecoveryStatus {
	case models.RecoveryStatusPending, models.RecoveryStatusScheduled:
	default:
		return nil, fmt.Errorf("отработка в статусе %q не может быть завершена: %w",
			*attendance.RecoveryStatus, ErrState)
	}

	status := models.RecoveryStatusCompleted
	attendance.RecoveryStatus = &status
	if err := as.db.Save(attendance).Error; err != nil {
		return nil, fmt.Errorf("ошибка завершения отработки: %w", err)
	}

	return attendance, nil
}

// ProcessExpiredRecoveries обрабатывает пропуски с истекшим сроком отработки.
// Неотработанные (pending) пропуски переносятся в следующий месяц: помечаются
// carried_over и увеличивают кредит абонемента клиента. Назначенные, но не
// состоявшиеся (scheduled) отработки истекают без переноса.
func (as *AttendanceService) ProcessExpiredRecoveries(now time.Time) (int, error) {
	var expired []models.Attendance
	err := as.db.Where("status = ? AND recovery_status IN ? AND recovery_deadline < ?",
		models.AttendanceStatusAbsent,
		[]string{models.RecoveryStatusPending, models.RecoveryStatusScheduled},
		now).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("ошибка получения просроченных отработок: %w", err)
	}

	processed := 0
	for i := range expired {
		record := &expired[i]

		if *record.RecoveryStatus == models.RecoveryStatusPending {
			nextMonth := record.Month + 1
			nextYear := record.Year
			if nextMonth > 12 {
				nextMonth = 1
				nextYear++
			}

			status := models.RecoveryStatusCarriedOver
			record.RecoveryStatus = &status
			record.CarriedOverToMonth = &nextMonth
			record.CarriedOverToYear = &nextYear
			if err := as.db.Save(record).Error; err != nil {
				return processed, fmt.Errorf("ошибка переноса пропуска %d: %w", record.ID, err)
			}

			// Перенесенный пропуск становится кредитом абонемента
			err := as.db.Model(&models.ClientSubscription{}).
				Where("client_id = ?", record.ClientID).
				UpdateColumn("carried_over_sessions", gorm.Expr("carried_over_sessions + 1")).Error
			if err != nil {
				return processed, fmt.Errorf("ошибка пополнения кредита абонемента клиента %d: %w", record.ClientID, err)
			}
		} else {
			status := models.RecoveryStatusExpired
			record.RecoveryStatus = &status
			if err := as.db.Save(record).Error; err != nil {
				return processed, fmt.Errorf("ошибка истечения отработки %d: %w", record.ID, err)
			}
		}

		processed++
	}

	return processed, nil
}

// GetByPeriod возвращает все посещения клиента за месяц по возрастанию даты
func (as *AttendanceService) GetByPeriod(clientID uint, month, year int) ([]models.Attendance, error) {
	var records []models.Attendance
	err := as.db.Where("client_id = ? AND month = ? AND year = ?", clientID, month, year).
		Order("date ASC, start_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка получения посещений за период: %w", err)
	}
	return records, nil
}

// getAbsence загружает запись пропуска с инициализированной отработкой
func (as *AttendanceService) getAbsence(attendanceID uint) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := as.db.First(&attendance, attendanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("посещение %d: %w", attendanceID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения посещения: %w", err)
	}

	if attendance.Status != models.AttendanceStatusAbsent || attendance.RecoveryStatus == nil {
		return nil, fmt.Errorf("посещение %d не является пропуском с отработкой: %w", attendanceID, ErrState)
	}

	return &attendance, nil
}
