package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

// SecurityAlert transitions exactly once from unresolved to resolved.
type SecurityAlert struct {
	ID          uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Severity    AlertSeverity `gorm:"type:varchar(32);not null" json:"severity"`
	SwarmID     *uuid.UUID    `gorm:"type:char(36);index" json:"swarmId"`
	AgentID     *uuid.UUID    `gorm:"type:char(36)" json:"agentId"`
	Resolved    bool          `gorm:"default:false;not null;index" json:"resolved"`
	CreatedAt   time.Time     `json:"createdAt"`
	ResolvedAt  *time.Time    `json:"resolvedAt"`
}

func (a *SecurityAlert) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

type InsertSecurityAlert struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	Severity    AlertSeverity `json:"severity" validate:"required,oneof=low medium high critical"`
	SwarmID     *uuid.UUID    `json:"swarmId"`
	AgentID     *uuid.UUID    `json:"agentId"`
}
