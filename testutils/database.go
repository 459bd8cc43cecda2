package testutils

import (
	"log"
	"time"

	"backend_fitadmin/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB создает и настраивает тестовую базу данных в памяти
// Эта функция должна использоваться во всех тестах для обеспечения консистентности
func SetupTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		// Базовые модели
		&models.User{},
		&models.Client{},
		&models.Trainer{},
		&models.CenterProfile{},

		// Продукты и тарифы
		&models.Product{},
		&models.TariffRate{},

		// Абонементы и посещаемость
		&models.ClientSubscription{},
		&models.Attendance{},

		// Счета
		&models.MonthlyInvoice{},
		&models.InvoiceLine{},
		&models.InvoiceDiscount{},
		&models.InvoicePayment{},
		&models.BillingHistory{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// CleanupTestDB очищает тестовую базу данных
func CleanupTestDB(db *gorm.DB) {
	if db != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// CreateTestClient создает тестового клиента
func CreateTestClient(db *gorm.DB) *models.Client {
	client := &models.Client{
		FirstName: "Анна",
		LastName:  "Петрова",
		Email:     "anna@example.com",
		Phone:     "+79001234567",
		IsActive:  true,
	}

	if err := db.Create(client).Error; err != nil {
		log.Printf("Failed to create test client: %v", err)
		return nil
	}

	return client
}

// CreateTestTrainer создает тестового тренера
func CreateTestTrainer(db *gorm.DB) *models.Trainer {
	trainer := &models.Trainer{
		FirstName:      "Игорь",
		LastName:       "Соколов",
		Email:          "igor@example.com",
		Specialization: "functional",
		IsActive:       true,
	}

	if err := db.Create(trainer).Error; err != nil {
		log.Printf("Failed to create test trainer: %v", err)
		return nil
	}

	return trainer
}

// CreateTestProduct создает тестовый продукт с тарифными ставками
// для всех трех ступеней
func CreateTestProduct(db *gorm.DB) *models.Product {
	product := &models.Product{
		Name:     "Персональная тренировка",
		Type:     "personal",
		IsActive: true,
	}

	if err := db.Create(product).Error; err != nil {
		log.Printf("Failed to create test product: %v", err)
		return nil
	}

	rates := []models.TariffRate{
		{ProductID: product.ID, DayBracket: models.TariffBracketOne, Price: decimal.NewFromInt(30)},
		{ProductID: product.ID, DayBracket: models.TariffBracketTwo, Price: decimal.NewFromInt(28)},
		{ProductID: product.ID, DayBracket: models.TariffBracketThreePlus, Price: decimal.NewFromInt(25)},
	}
	for i := range rates {
		if err := db.Create(&rates[i]).Error; err != nil {
			log.Printf("Failed to create test tariff rate: %v", err)
			return nil
		}
	}

	return product
}

// CreateTestSubscription создает тестовый абонемент клиента
func CreateTestSubscription(db *gorm.DB, clientID, productID uint, daysPerWeek int, trainingDays []int) *models.ClientSubscription {
	subscription := &models.ClientSubscription{
		ClientID:       clientID,
		ProductID:      productID,
		DaysPerWeek:    daysPerWeek,
		TrainingDays:   trainingDays,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:         models.SubscriptionStatusActive,
		FixedUnitPrice: decimal.NewFromInt(28),
	}

	if err := db.Create(subscription).Error; err != nil {
		log.Printf("Failed to create test subscription: %v", err)
		return nil
	}

	return subscription
}

// CreateTestUser создает тестового пользователя
func CreateTestUser(db *gorm.DB) *models.User {
	user := &models.User{
		Username: "testuser",
		Email:    "test@example.com",
		Role:     "staff",
		IsActive: true,
	}
	if err := user.SetPassword("secret123"); err != nil {
		log.Printf("Failed to hash test password: %v", err)
		return nil
	}

	if err := db.Create(user).Error; err != nil {
		log.Printf("Failed to create test user: %v", err)
		return nil
	}

	return user
}
