package models

import (
	"time"

	"github.com/angelmondragon/storefront-gateway/pkg/enums"
)

// User is the local record provisioned for an identity-provider account. ID is
// the provider's subject identifier and is never regenerated.
type User struct {
	ID           string         `gorm:"column:id;type:text;primaryKey"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name         string         `gorm:"column:name;type:text;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'USER'"`
	IsSubscribed bool           `gorm:"column:is_subscribed;not null;default:false"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
