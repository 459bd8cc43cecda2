package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastDayOfMonth(t *testing.T) {
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), LastDayOfMonth(2, 2024), "February 2024 is a leap month")
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), LastDayOfMonth(2, 2023))
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), LastDayOfMonth(12, 2024))
}

func TestAttendance_BeforeSave_DerivesPeriod(t *testing.T) {
	attendance := &Attendance{
		ClientID:  1,
		Date:      time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		Status:    AttendanceStatusAttended,
		// Период задается извне и должен быть перезаписан датой
		Month: 11,
		Year:  2020,
	}
	require.NoError(t, attendance.BeforeSave(nil))

	assert.Equal(t, 2, attendance.Month)
	assert.Equal(t, 2024, attendance.Year)
}

func TestAttendance_BeforeSave_InitializesRecovery(t *testing.T) {
	attendance := &Attendance{
		ClientID:  1,
		Date:      time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		Status:    AttendanceStatusAbsent,
	}
	require.NoError(t, attendance.BeforeSave(nil))

	require.NotNil(t, attendance.RecoveryStatus)
	assert.Equal(t, RecoveryStatusPending, *attendance.RecoveryStatus)
	require.NotNil(t, attendance.RecoveryDeadline)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), *attendance.RecoveryDeadline,
		"Recovery deadline should be the last day of the absence month")
}

func TestAttendance_BeforeSave_KeepsExistingRecovery(t *testing.T) {
	scheduled := RecoveryStatusScheduled
	bookingID := uint(42)
	attendance := &Attendance{
		ClientID:          1,
		Date:              time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime:         "10:00",
		Status:            AttendanceStatusAbsent,
		RecoveryStatus:    &scheduled,
		RecoveryBookingID: &bookingID,
	}
	require.NoError(t, attendance.BeforeSave(nil))

	assert.Equal(t, RecoveryStatusScheduled, *attendance.RecoveryStatus, "Existing recovery state should not be reset")
	assert.Equal(t, uint(42), *attendance.RecoveryBookingID)
}

func TestAttendance_BeforeSave_ClearsRecoveryWhenNotAbsent(t *testing.T) {
	pending := RecoveryStatusPending
	deadline := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	attendance := &Attendance{
		ClientID:         1,
		Date:             time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime:        "10:00",
		Status:           AttendanceStatusAttended,
		RecoveryStatus:   &pending,
		RecoveryDeadline: &deadline,
	}
	require.NoError(t, attendance.BeforeSave(nil))

	assert.Nil(t, attendance.RecoveryStatus, "Recovery state exists only for absences")
	assert.Nil(t, attendance.RecoveryDeadline)
	assert.Nil(t, attendance.RecoveryBookingID)
	assert.Nil(t, attendance.CarriedOverToMonth)
	assert.Nil(t, attendance.CarriedOverToYear)
}

func TestAttendance_UniqueSlot(t *testing.T) {
	db := setupModelsTestDB(t)

	first := &Attendance{
		ClientID:  1,
		Date:      time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		Status:    AttendanceStatusAttended,
	}
	require.NoError(t, db.Create(first).Error)

	duplicate := &Attendance{
		ClientID:  1,
		Date:      time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		Status:    AttendanceStatusAbsent,
	}
	assert.Error(t, db.Create(duplicate).Error, "Same slot for the same client should violate the unique index")

	otherTime := &Attendance{
		ClientID:  1,
		Date:      time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "11:00",
		Status:    AttendanceStatusAttended,
	}
	assert.NoError(t, db.Create(otherTime).Error)
}

func TestIsValidAttendanceStatus(t *testing.T) {
	assert.True(t, IsValidAttendanceStatus(AttendanceStatusAttended))
	assert.True(t, IsValidAttendanceStatus(AttendanceStatusAbsent))
	assert.True(t, IsValidAttendanceStatus(AttendanceStatusCancelledByClient))
	assert.True(t, IsValidAttendanceStatus(AttendanceStatusCancelledByCenter))
	assert.True(t, IsValidAttendanceStatus(AttendanceStatusPending))
	assert.False(t, IsValidAttendanceStatus("no_show"))
	assert.False(t, IsValidAttendanceStatus(""))
}
