package models

import (
	"time"

	"gorm.io/datatypes"
)

// AppState is generic persisted key/value storage. It carries the simulated
// metric counters across process restarts; it holds no domain data.
type AppState struct {
	Key       string         `gorm:"type:varchar(128);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"type:json;not null" json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (AppState) TableName() string { return "app_state" }
