package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SwarmStatus string

const (
	SwarmStatusActive    SwarmStatus = "active"
	SwarmStatusInactive  SwarmStatus = "inactive"
	SwarmStatusDeploying SwarmStatus = "deploying"
	SwarmStatusError     SwarmStatus = "error"
)

type Swarm struct {
	ID             uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         SwarmStatus    `gorm:"type:varchar(32);default:inactive;index" json:"status"`
	TemplateID     *uuid.UUID     `gorm:"type:char(36)" json:"templateId"`
	OwnerID        string         `gorm:"type:varchar(64);index;not null" json:"ownerId"`
	AgentCount     int            `gorm:"default:0;not null" json:"agentCount"`
	MaxAgents      int            `gorm:"default:100;not null" json:"maxAgents"`
	AutoScaling    bool           `gorm:"default:true;not null" json:"autoScaling"`
	SecurityConfig datatypes.JSON `gorm:"type:json" json:"securityConfig"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID" json:"-"`
}

func (s *Swarm) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// InsertSwarm is the validated creation payload. AgentCount is accepted for
// compatibility with the dashboard forms but is a display hint only: the
// persisted counter starts at zero and tracks real agent rows.
type InsertSwarm struct {
	Name           string         `json:"name" validate:"required"`
	Description    string         `json:"description"`
	Status         SwarmStatus    `json:"status" validate:"omitempty,oneof=active inactive deploying error"`
	TemplateID     *uuid.UUID     `json:"templateId"`
	OwnerID        string         `json:"ownerId" validate:"required"`
	AgentCount     int            `json:"agentCount" validate:"omitempty,min=0,max=1000"`
	MaxAgents      int            `json:"maxAgents" validate:"omitempty,min=1,max=1000"`
	AutoScaling    *bool          `json:"autoScaling"`
	SecurityConfig datatypes.JSON `json:"securityConfig"`
}

// UpdateSwarm carries a partial update; nil fields are left untouched.
type UpdateSwarm struct {
	Name           *string         `json:"name"`
	Description    *string         `json:"description"`
	Status         *SwarmStatus    `json:"status" validate:"omitempty,oneof=active inactive deploying error"`
	MaxAgents      *int            `json:"maxAgents" validate:"omitempty,min=1,max=1000"`
	AutoScaling    *bool           `json:"autoScaling"`
	SecurityConfig *datatypes.JSON `json:"securityConfig"`
}
