package models

import (
	"time"

	"gorm.io/gorm"
)

type ActivityAction string

const (
	ActionCreated ActivityAction = "created"
	ActionUpdated ActivityAction = "updated"
	ActionDeleted ActivityAction = "deleted"
)

// ActivityLog is one successful mutation sent to the Food API.
type ActivityLog struct {
	gorm.Model
	Action   ActivityAction `gorm:"size:16;index;not null" json:"action"`
	FoodID   string         `gorm:"size:64;index" json:"food_id"`
	FoodName string         `json:"food_name"`
	Search   string         `json:"search"` // list key that was invalidated
	At       time.Time      `gorm:"index;not null" json:"at"`
}
