package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Ошибки бизнес-уровня. API-слой сопоставляет их с HTTP-статусами
// через errors.Is, сервисы оборачивают их с контекстом через fmt.Errorf.
var (
	// ErrNotFound означает, что запрошенная сущность не найдена
	ErrNotFound = errors.New("запись не найдена")

	// ErrConflict означает нарушение уникальности (дубликат абонемента,
	// периода счета или слота посещения)
	ErrConflict = errors.New("нарушение уникальности")

	// ErrValidation означает некорректные входные данные
	ErrValidation = errors.New("некорректные данные")

	// ErrState означает недопустимый переход статуса
	ErrState = errors.New("недопустимый переход статуса")

	// ErrConfiguration означает, что внешний сервис не настроен (SMTP и т.п.)
	ErrConfiguration = errors.New("сервис не настроен")

	// ErrDependency означает ошибку внешнего сервиса (SMTP, Telegram)
	ErrDependency = errors.New("ошибка внешнего сервиса")

	// ErrDuplicateInvoice означает, что счет за период уже существует
	ErrDuplicateInvoice = errors.New("счет за этот период уже существует")

	// ErrNoActiveSubscription означает, что у клиента нет активного абонемента
	ErrNoActiveSubscription = errors.New("у клиента нет активного абонемента")

	// ErrProductInactive означает, что продукт деактивирован
	ErrProductInactive = errors.New("продукт деактивирован")

	// ErrMissingRecipient означает, что у клиента не указан email
	ErrMissingRecipient = errors.New("у клиента не указан email")
)

// isDuplicateKeyError распознает нарушение уникального индекса,
// которым хранилище отвечает проигравшему гонку за вставку
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
