package services

import (
	"errors"
	"fmt"
	"time"

	"backend_fitadmin/database"
	"backend_fitadmin/models"

	"gorm.io/gorm"
)

// SubscriptionService предоставляет операции с абонементами клиентов
type SubscriptionService struct {
	db     *gorm.DB
	tariff *TariffService
}

// NewSubscriptionService создает новый экземпляр SubscriptionService
func NewSubscriptionService(tariff *TariffService) *SubscriptionService {
	return &SubscriptionService{
		db:     database.DB,
		tariff: tariff,
	}
}

// CreateSubscriptionInput содержит данные для оформления абонемента
type CreateSubscriptionInput struct {
	ClientID     uint       `json:"client_id"`
	ProductID    uint       `json:"product_id"`
	DaysPerWeek  int        `json:"days_per_week"`
	TrainingDays []int      `json:"training_days"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

// Create оформляет абонемент клиенту. Цена тренировки подбирается по
// тарифной таблице на текущий момент и фиксируется в абонементе:
// последующие изменения тарифов на него не влияют.
func (ss *SubscriptionService) Create(input CreateSubscriptionInput) (*models.ClientSubscription, error) {
	var client models.Client
	if err := ss.db.First(&client, input.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("клиент %d: %w", input.ClientID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}

	// У клиента может быть только один абонемент
	var existing models.ClientSubscription
	if err := ss.db.Where("client_id = ?", input.ClientID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("у клиента %s уже есть абонемент: %w", client.FullName(), ErrConflict)
	}

	quote, err := ss.tariff.PriceFor(input.ProductID, input.DaysPerWeek)
	if err != nil {
		return nil, err
	}

	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = time.Now()
	}

	subscription := &models.ClientSubscription{
		ClientID:       input.ClientID,
		ProductID:      input.ProductID,
		DaysPerWeek:    input.DaysPerWeek,
		TrainingDays:   input.TrainingDays,
		StartDate:      startDate,
		EndDate:        input.EndDate,
		Status:         models.SubscriptionStatusActive,
		FixedUnitPrice: quote.Price,
	}

	if err := ss.db.Create(subscription).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("у клиента %d уже есть абонемент: %w", input.ClientID, ErrConflict)
		}
		return nil, fmt.Errorf("ошибка создания абонемента: %w", err)
	}

	return subscription, nil
}

// GetByClient возвращает абонемент клиента с продуктом
func (ss *SubscriptionService) GetByClient(clientID uint) (*models.ClientSubscription, error) {
	var subscription models.ClientSubscription
	err := ss.db.Preload("Product").Where("client_id = ?", clientID).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("абонемент клиента %d: %w", clientID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения абонемента: %w", err)
	}
	return &subscription, nil
}

// ChangeStatus переводит абонемент в новый статус
func (ss *SubscriptionService) ChangeStatus(subscriptionID uint, status string) (*models.ClientSubscription, error) {
	switch status {
	case models.SubscriptionStatusActive, models.SubscriptionStatusPaused,
		models.SubscriptionStatusCancelled, models.SubscriptionStatusPending:
	default:
		return nil, fmt.Errorf("%w: неизвестный статус абонемента %q", ErrValidation, status)
	}

	var subscription models.ClientSubscription
	if err := ss.db.First(&subscription, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("абонемент %d: %w", subscriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения абонемента: %w", err)
	}

	subscription.Status = status
	if err := ss.db.Save(&subscription).Error; err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса абонемента: %w", err)
	}

	return &subscription, nil
}

// ChangePlan меняет расписание абонемента. Цена подбирается заново
// по текущей тарифной таблице и фиксируется снова.
func (ss *SubscriptionService) ChangePlan(subscriptionID uint, daysPerWeek int, trainingDays []int) (*models.ClientSubscription, error) {
	var subscription models.ClientSubscription
	if err := ss.db.First(&subscription, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("абонемент %d: %w", subscriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения абонемента: %w", err)
	}

	quote, err := ss.tariff.PriceFor(subscription.ProductID, daysPerWeek)
	if err != nil {
		return nil, err
	}

	subscription.DaysPerWeek = daysPerWeek
	subscription.TrainingDays = trainingDays
	subscription.FixedUnitPrice = quote.Price
	if err := ss.db.Save(&subscription).Error; err != nil {
		return nil, fmt.Errorf("ошибка обновления абонемента: %w", err)
	}

	return &subscription, nil
}
