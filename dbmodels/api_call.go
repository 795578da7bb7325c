package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApiCall is an append-only audit record of a handled REST request.
type ApiCall struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Endpoint     string     `gorm:"type:varchar(255);not null" json:"endpoint"`
	Method       string     `gorm:"type:varchar(16);not null" json:"method"`
	UserID       *string    `gorm:"type:varchar(64)" json:"userId"`
	SwarmID      *uuid.UUID `gorm:"type:char(36)" json:"swarmId"`
	ResponseTime int        `json:"responseTime"`
	StatusCode   int        `json:"statusCode"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
}

func (c *ApiCall) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

type InsertApiCall struct {
	Endpoint     string     `json:"endpoint" validate:"required"`
	Method       string     `json:"method" validate:"required"`
	UserID       *string    `json:"userId"`
	SwarmID      *uuid.UUID `json:"swarmId"`
	ResponseTime int        `json:"responseTime"`
	StatusCode   int        `json:"statusCode"`
}
