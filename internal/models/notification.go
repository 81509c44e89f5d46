package models

import (
	"time"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"` // receiver
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Message   string    `gorm:"size:300;not null" json:"mensagem"`
	LinkURL   string    `gorm:"size:300" json:"link_url"`
	IsRead    bool      `gorm:"default:false;index" json:"lida"`
	CreatedAt time.Time `json:"data_criacao"`
}
