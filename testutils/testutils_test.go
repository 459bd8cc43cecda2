package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err, "Should setup test database without error")
	require.NotNil(t, db, "Database should not be nil")

	// Проверяем, что таблицы созданы
	var tableCount int64
	err = db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&tableCount).Error
	require.NoError(t, err, "Should be able to query sqlite_master")
	assert.Greater(t, tableCount, int64(0), "Should have created some tables")

	// Очищаем
	CleanupTestDB(db)
}

func TestCreateTestClient(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	client := CreateTestClient(db)
	require.NotNil(t, client)
	assert.NotZero(t, client.ID)
	assert.Equal(t, "Анна Петрова", client.FullName())
}

func TestCreateTestProduct(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	product := CreateTestProduct(db)
	require.NotNil(t, product)

	var rateCount int64
	db.Table("tariff_rates").Where("product_id = ?", product.ID).Count(&rateCount)
	assert.Equal(t, int64(3), rateCount, "Product should have rates for all three brackets")
}

func TestCreateTestUser(t *testing.T) {
	db, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(db)

	user := CreateTestUser(db)
	require.NotNil(t, user)
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}
