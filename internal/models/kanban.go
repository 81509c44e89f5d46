package models

import (
	"time"
)

const (
	KanbanTodo  = "todo"
	KanbanDoing = "doing"
	KanbanDone  = "done"
)

// KanbanColumns is the board order.
var KanbanColumns = []string{KanbanTodo, KanbanDoing, KanbanDone}

func IsKanbanColumn(s string) bool {
	for _, c := range KanbanColumns {
		if c == s {
			return true
		}
	}
	return false
}

type KanbanTask struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Owner       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Column      string     `gorm:"column:status;size:10;not null;default:'todo';index" json:"column"`
	Position    int        `gorm:"default:0" json:"position"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
