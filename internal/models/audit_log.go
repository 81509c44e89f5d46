package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    *uint             `gorm:"index" json:"actor_id"`
	Actor      *User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Action     string            `gorm:"size:100;not null;index" json:"action"`
	TargetType string            `gorm:"size:30" json:"target_type"`
	TargetID   uint              `json:"target_id"`
	Details    string            `gorm:"type:text" json:"details"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
