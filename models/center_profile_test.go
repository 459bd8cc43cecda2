package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCenterProfile_CreatesDefault(t *testing.T) {
	db := setupModelsTestDB(t)

	profile, err := EnsureCenterProfile(db)
	require.NoError(t, err)
	assert.NotZero(t, profile.ID)
	assert.Equal(t, "EUR", profile.Currency)
	assert.Equal(t, 14, profile.InvoicePaymentTermDays)

	var count int64
	require.NoError(t, db.Model(&CenterProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureCenterProfile_ReturnsExisting(t *testing.T) {
	db := setupModelsTestDB(t)

	existing := &CenterProfile{Name: "Фитнес-центр Атлант", Currency: "RUB"}
	require.NoError(t, db.Create(existing).Error)

	profile, err := EnsureCenterProfile(db)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, profile.ID)
	assert.Equal(t, "Фитнес-центр Атлант", profile.Name)

	var count int64
	require.NoError(t, db.Model(&CenterProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "Repeated bootstrap must not create a second profile")
}
