package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Client представляет клиента тренировочного центра
type Client struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные данные клиента
	FirstName string `json:"first_name" gorm:"not null;type:varchar(100)"`
	LastName  string `json:"last_name" gorm:"not null;type:varchar(100)"`
	Email     string `json:"email" gorm:"type:varchar(150);index"`
	Phone     string `json:"phone" gorm:"type:varchar(30)"`

	// Статус клиента
	IsActive bool `json:"is_active" gorm:"default:true"`

	// Дополнительная информация
	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели Client
func (Client) TableName() string {
	return "clients"
}

// FullName возвращает полное имя клиента
func (c *Client) FullName() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// Trainer представляет тренера центра
type Trainer struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	FirstName      string `json:"first_name" gorm:"not null;type:varchar(100)"`
	LastName       string `json:"last_name" gorm:"not null;type:varchar(100)"`
	Email          string `json:"email" gorm:"type:varchar(150)"`
	Phone          string `json:"phone" gorm:"type:varchar(30)"`
	Specialization string `json:"specialization" gorm:"type:varchar(100)"`

	IsActive bool `json:"is_active" gorm:"default:true"`
}

// TableName задает имя таблицы для модели Trainer
func (Trainer) TableName() string {
	return "trainers"
}

// FullName возвращает полное имя тренера
func (t *Trainer) FullName() string {
	return fmt.Sprintf("%s %s", t.FirstName, t.LastName)
}
