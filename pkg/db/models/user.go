package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/pkg/enums"
)

// User represents a shopper or administrator account.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Name         string         `gorm:"column:name;not null"`
	Phone        string         `gorm:"column:phone;not null;default:''"`
	Address      string         `gorm:"column:address;not null;default:''"`
	City         string         `gorm:"column:city;not null;default:''"`
	Region       string         `gorm:"column:region;not null;default:''"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'user'"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
