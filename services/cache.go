package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backend_fitadmin/models"

	"github.com/go-redis/redis/v8"
)

// TTL кэша по типам данных
const (
	cacheTTLTariffRate    = 10 * time.Minute
	cacheTTLCenterProfile = 30 * time.Minute
	cacheTTLSummary       = 2 * time.Minute
)

// CacheService предоставляет кэширование справочных данных в Redis.
// Все методы безопасны при отсутствующем Redis: кэш просто не работает.
type CacheService struct {
	redis  *redis.Client
	logger *log.Logger
}

// NewCacheService создает новый экземпляр CacheService
func NewCacheService(redisClient *redis.Client, logger *log.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// Get получает строковое значение из кэша
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	if cs == nil || cs.redis == nil {
		return "", redis.Nil
	}
	return cs.redis.Get(ctx, key).Result()
}

// Set сохраняет строковое значение в кэш с TTL
func (cs *CacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if cs == nil || cs.redis == nil {
		return nil
	}
	return cs.redis.Set(ctx, key, value, ttl).Err()
}

// Del удаляет ключ из кэша
func (cs *CacheService) Del(ctx context.Context, key string) error {
	if cs == nil || cs.redis == nil {
		return nil
	}
	return cs.redis.Del(ctx, key).Err()
}

// setJSON сохраняет объект в кэш в JSON
func (cs *CacheService) setJSON(key string, value interface{}, ttl time.Duration) error {
	if cs == nil || cs.redis == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("ошибка сериализации для кэша: %w", err)
	}
	return cs.redis.Set(context.Background(), key, data, ttl).Err()
}

// getJSON получает объект из кэша
func (cs *CacheService) getJSON(key string, dest interface{}) error {
	if cs == nil || cs.redis == nil {
		return redis.Nil
	}
	data, err := cs.redis.Get(context.Background(), key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// CacheTariffRate кэширует тарифную ставку
func (cs *CacheService) CacheTariffRate(productID uint, bracket string, rate *models.TariffRate) {
	key := fmt.Sprintf("tariff:%d:%s", productID, bracket)
	if err := cs.setJSON(key, rate, cacheTTLTariffRate); err != nil && cs.logger != nil {
		cs.logger.Printf("Предупреждение: не удалось кэшировать тариф %s: %v", key, err)
	}
}

// GetCachedTariffRate получает тарифную ставку из кэша
func (cs *CacheService) GetCachedTariffRate(productID uint, bracket string) (*models.TariffRate, bool) {
	key := fmt.Sprintf("tariff:%d:%s", productID, bracket)
	var rate models.TariffRate
	if err := cs.getJSON(key, &rate); err != nil {
		return nil, false
	}
	return &rate, true
}

// InvalidateTariffRate сбрасывает кэш тарифной ставки
func (cs *CacheService) InvalidateTariffRate(productID uint, bracket string) {
	key := fmt.Sprintf("tariff:%d:%s", productID, bracket)
	if err := cs.Del(context.Background(), key); err != nil && cs.logger != nil {
		cs.logger.Printf("Предупреждение: не удалось сбросить кэш тарифа %s: %v", key, err)
	}
}

// CacheCenterProfile кэширует профиль центра
func (cs *CacheService) CacheCenterProfile(profile *models.CenterProfile) {
	if err := cs.setJSON("center:profile", profile, cacheTTLCenterProfile); err != nil && cs.logger != nil {
		cs.logger.Printf("Предупреждение: не удалось кэшировать профиль центра: %v", err)
	}
}

// GetCachedCenterProfile получает профиль центра из кэша
func (cs *CacheService) GetCachedCenterProfile() (*models.CenterProfile, bool) {
	var profile models.CenterProfile
	if err := cs.getJSON("center:profile", &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

// CacheMonthlySummary кэширует сводку посещаемости за месяц
func (cs *CacheService) CacheMonthlySummary(clientID uint, month, year int, summary *MonthlySummary) {
	key := fmt.Sprintf("attendance:summary:%d:%d-%02d", clientID, year, month)
	if err := cs.setJSON(key, summary, cacheTTLSummary); err != nil && cs.logger != nil {
		cs.logger.Printf("Предупреждение: не удалось кэшировать сводку %s: %v", key, err)
	}
}

// GetCachedMonthlySummary получает сводку посещаемости из кэша
func (cs *CacheService) GetCachedMonthlySummary(clientID uint, month, year int) (*MonthlySummary, bool) {
	key := fmt.Sprintf("attendance:summary:%d:%d-%02d", clientID, year, month)
	var summary MonthlySummary
	if err := cs.getJSON(key, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// InvalidateMonthlySummary сбрасывает кэш сводки после записи результата
func (cs *CacheService) InvalidateMonthlySummary(clientID uint, month, year int) {
	key := fmt.Sprintf("attendance:summary:%d:%d-%02d", clientID, year, month)
	if err := cs.Del(context.Background(), key); err != nil && cs.logger != nil {
		cs.logger.Printf("Предупреждение: не удалось сбросить кэш сводки %s: %v", key, err)
	}
}
