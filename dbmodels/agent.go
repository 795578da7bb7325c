package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AgentType string

const (
	AgentTypeCybersecurity AgentType = "cybersecurity"
	AgentTypeDataAnalysis  AgentType = "data_analysis"
	AgentTypeAutomation    AgentType = "automation"
	AgentTypeMonitoring    AgentType = "monitoring"
	AgentTypeCustom        AgentType = "custom"
)

type AgentStatus string

const (
	AgentStatusActive       AgentStatus = "active"
	AgentStatusInactive     AgentStatus = "inactive"
	AgentStatusError        AgentStatus = "error"
	AgentStatusInitializing AgentStatus = "initializing"
)

type Agent struct {
	ID            uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Type          AgentType      `gorm:"type:varchar(32);not null" json:"type"`
	Status        AgentStatus    `gorm:"type:varchar(32);default:initializing" json:"status"`
	SwarmID       uuid.UUID      `gorm:"type:char(36);index;not null" json:"swarmId"`
	Config        datatypes.JSON `gorm:"type:json" json:"config"`
	LastHeartbeat *time.Time     `json:"lastHeartbeat"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	Swarm Swarm `gorm:"foreignKey:SwarmID;references:ID" json:"-"`
}

func (a *Agent) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

type InsertAgent struct {
	Name    string         `json:"name" validate:"required"`
	Type    AgentType      `json:"type" validate:"required,oneof=cybersecurity data_analysis automation monitoring custom"`
	Status  AgentStatus    `json:"status" validate:"omitempty,oneof=active inactive error initializing"`
	SwarmID uuid.UUID      `json:"swarmId" validate:"required"`
	Config  datatypes.JSON `json:"config"`
}

type UpdateAgent struct {
	Name          *string         `json:"name"`
	Type          *AgentType      `json:"type" validate:"omitempty,oneof=cybersecurity data_analysis automation monitoring custom"`
	Status        *AgentStatus    `json:"status" validate:"omitempty,oneof=active inactive error initializing"`
	Config        *datatypes.JSON `json:"config"`
	LastHeartbeat *time.Time      `json:"lastHeartbeat"`
}
