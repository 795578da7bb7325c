package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Template struct {
	ID            uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Type          AgentType      `gorm:"type:varchar(32);not null" json:"type"`
	Icon          string         `gorm:"type:varchar(128);default:'fas fa-cubes'" json:"icon"`
	MinAgents     int            `gorm:"default:1;not null" json:"minAgents"`
	MaxAgents     int            `gorm:"default:100;not null" json:"maxAgents"`
	DefaultConfig datatypes.JSON `gorm:"type:json" json:"defaultConfig"`
	IsPublic      bool           `gorm:"default:true;not null" json:"isPublic"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (t *Template) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

type InsertTemplate struct {
	Name          string         `json:"name" validate:"required"`
	Description   string         `json:"description"`
	Type          AgentType      `json:"type" validate:"required,oneof=cybersecurity data_analysis automation monitoring custom"`
	Icon          string         `json:"icon"`
	MinAgents     int            `json:"minAgents" validate:"omitempty,min=1,max=1000"`
	MaxAgents     int            `json:"maxAgents" validate:"omitempty,min=1,max=1000"`
	DefaultConfig datatypes.JSON `json:"defaultConfig"`
	IsPublic      *bool          `json:"isPublic"`
}
