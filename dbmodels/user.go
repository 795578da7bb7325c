package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirstName       string    `gorm:"type:varchar(255)" json:"firstName"`
	LastName        string    `gorm:"type:varchar(255)" json:"lastName"`
	ProfileImageURL string    `gorm:"type:varchar(512)" json:"profileImageUrl"`
	Role            string    `gorm:"type:varchar(64);default:user" json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return
}

// UpsertUser is the payload for creating or refreshing a user record.
type UpsertUser struct {
	ID              string `json:"id"`
	Email           string `json:"email" validate:"omitempty,email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
	Role            string `json:"role"`
}
