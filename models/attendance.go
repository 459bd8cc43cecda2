package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Статусы посещения тренировки
const (
	AttendanceStatusAttended          = "attended"
	AttendanceStatusAbsent            = "absent"
	AttendanceStatusCancelledByClient = "cancelled_by_client"
	AttendanceStatusCancelledByCenter = "cancelled_by_center"
	AttendanceStatusPending           = "pending"
)

// Статусы отработки пропущенной тренировки
const (
	RecoveryStatusPending     = "pending"
	RecoveryStatusScheduled   = "scheduled"
	RecoveryStatusCompleted   = "completed"
	RecoveryStatusCarriedOver = "carried_over"
	RecoveryStatusExpired     = "expired"
)

// Attendance представляет результат одной тренировки клиента.
// Пара (клиент, дата, время) уникальна, это единственная защита
// от двойной регистрации одного и того же слота.
type Attendance struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Связи
	BookingID *uint    `json:"booking_id" gorm:"index"` // Запись в расписании, если тренировка была запланирована
	ClientID  uint     `json:"client_id" gorm:"not null;uniqueIndex:idx_attendance_slot"`
	Client    *Client  `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	TrainerID *uint    `json:"trainer_id" gorm:"index"`
	Trainer   *Trainer `json:"trainer,omitempty" gorm:"foreignKey:TrainerID"`

	// Слот тренировки
	Date      time.Time `json:"date" gorm:"not null;uniqueIndex:idx_attendance_slot"`
	StartTime string    `json:"start_time" gorm:"not null;type:varchar(5);uniqueIndex:idx_attendance_slot"` // "HH:MM"

	// Результат тренировки
	Status string `json:"status" gorm:"default:'pending';type:varchar(30)"`

	// Месяц и год выводятся из даты при сохранении и не задаются извне
	Month int `json:"month" gorm:"index:idx_attendance_period"`
	Year  int `json:"year" gorm:"index:idx_attendance_period"`

	// Отработка пропуска. Заполняется только для статуса absent.
	RecoveryStatus     *string    `json:"recovery_status" gorm:"type:varchar(20);index"`
	RecoveryBookingID  *uint      `json:"recovery_booking_id"`
	RecoveryDeadline   *time.Time `json:"recovery_deadline"` // Последний день месяца пропуска
	CarriedOverToMonth *int       `json:"carried_over_to_month"`
	CarriedOverToYear  *int       `json:"carried_over_to_year"`
}

// TableName задает имя таблицы для модели Attendance
func (Attendance) TableName() string {
	return "attendances"
}

// BeforeSave выводит месяц и год из даты и поддерживает инвариант отработки:
// состояние отработки существует тогда и только тогда, когда статус absent.
func (a *Attendance) BeforeSave(tx *gorm.DB) error {
	if a.Date.IsZero() {
		return fmt.Errorf("дата тренировки обязательна")
	}

	a.Month = int(a.Date.Month())
	a.Year = a.Date.Year()

	if a.Status == AttendanceStatusAbsent {
		if a.RecoveryStatus == nil {
			status := RecoveryStatusPending
			deadline := LastDayOfMonth(a.Month, a.Year)
			a.RecoveryStatus = &status
			a.RecoveryDeadline = &deadline
		}
	} else {
		a.RecoveryStatus = nil
		a.RecoveryBookingID = nil
		a.RecoveryDeadline = nil
		a.CarriedOverToMonth = nil
		a.CarriedOverToYear = nil
	}

	return nil
}

// IsValidAttendanceStatus проверяет, что статус посещения входит в допустимый набор
func IsValidAttendanceStatus(status string) bool {
	switch status {
	case AttendanceStatusAttended, AttendanceStatusAbsent,
		AttendanceStatusCancelledByClient, AttendanceStatusCancelledByCenter,
		AttendanceStatusPending:
		return true
	}
	return false
}

// LastDayOfMonth возвращает последний календарный день месяца
func LastDayOfMonth(month, year int) time.Time {
	// Нулевой день следующего месяца нормализуется к последнему дню текущего
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}
