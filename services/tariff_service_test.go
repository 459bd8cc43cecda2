package services

import (
	"errors"
	"testing"

	"backend_fitadmin/models"
	"backend_fitadmin/testutils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTariffTest(t *testing.T) (*gorm.DB, *TariffService, *models.Product) {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	product := testutils.CreateTestProduct(db)
	require.NotNil(t, product)

	return db, &TariffService{db: db}, product
}

func TestTariffService_PriceFor_BracketMapping(t *testing.T) {
	_, ts, product := setupTariffTest(t)

	cases := []struct {
		daysPerWeek int
		bracket     string
		price       int64
	}{
		{1, models.TariffBracketOne, 30},
		{2, models.TariffBracketTwo, 28},
		{3, models.TariffBracketThreePlus, 25},
		{4, models.TariffBracketThreePlus, 25},
		{5, models.TariffBracketThreePlus, 25},
	}

	for _, tc := range cases {
		quote, err := ts.PriceFor(product.ID, tc.daysPerWeek)
		require.NoError(t, err, "days per week %d", tc.daysPerWeek)
		assert.Equal(t, tc.bracket, quote.Bracket)
		assert.True(t, quote.Price.Equal(decimal.NewFromInt(tc.price)),
			"expected %d, got %s", tc.price, quote.Price)
	}
}

func TestTariffService_PriceFor_Validation(t *testing.T) {
	_, ts, product := setupTariffTest(t)

	_, err := ts.PriceFor(product.ID, 0)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ts.PriceFor(product.ID, 6)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestTariffService_PriceFor_MissingProduct(t *testing.T) {
	_, ts, _ := setupTariffTest(t)

	_, err := ts.PriceFor(9999, 2)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTariffService_PriceFor_InactiveProduct(t *testing.T) {
	db, ts, product := setupTariffTest(t)

	require.NoError(t, db.Model(product).Update("is_active", false).Error)

	_, err := ts.PriceFor(product.ID, 2)
	assert.True(t, errors.Is(err, ErrProductInactive))
}

func TestTariffService_PriceFor_MissingRate(t *testing.T) {
	db, ts, _ := setupTariffTest(t)

	bare := &models.Product{Name: "Сплит-тренировка", Type: "duo", IsActive: true}
	require.NoError(t, db.Create(bare).Error)

	_, err := ts.PriceFor(bare.ID, 2)
	assert.True(t, errors.Is(err, ErrNotFound), "Product without rates should yield not found")
}

func TestTariffService_UpsertRate(t *testing.T) {
	_, ts, product := setupTariffTest(t)

	// Обновление существующей ставки
	rate, err := ts.UpsertRate(product.ID, models.TariffBracketTwo, decimal.NewFromInt(32))
	require.NoError(t, err)
	assert.True(t, rate.Price.Equal(decimal.NewFromInt(32)))

	quote, err := ts.PriceFor(product.ID, 2)
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(32)))

	// Недопустимая ступень
	_, err = ts.UpsertRate(product.ID, "4", decimal.NewFromInt(20))
	assert.True(t, errors.Is(err, ErrValidation))

	// Отрицательная цена
	_, err = ts.UpsertRate(product.ID, models.TariffBracketOne, decimal.NewFromInt(-1))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestTariffService_PriceForProductType(t *testing.T) {
	_, ts, _ := setupTariffTest(t)

	quote, err := ts.PriceForProductType("personal", 3)
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(25)))

	_, err = ts.PriceForProductType("group", 3)
	assert.True(t, errors.Is(err, ErrNotFound))
}
