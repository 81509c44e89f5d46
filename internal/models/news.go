package models

import (
	"time"
)

const (
	NewsSourceManual = "manual"
	NewsSourcePortal = "portal"
	NewsSourceRSS    = "rss"
)

// News is a notícia, either posted by an admin or aggregated from the campus portal.
type News struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"titulo"`
	Content      string    `gorm:"type:text;not null" json:"conteudo"`
	ImageURL     string    `gorm:"size:300" json:"imagem_url"`
	FileURL      string    `gorm:"size:300" json:"arquivo_url"`
	ExternalLink string    `gorm:"size:500;index" json:"link_externo"`
	Campus       string    `gorm:"size:100" json:"campus"`
	Category     string    `gorm:"size:100" json:"categoria"`
	Source       string    `gorm:"size:20;default:'manual'" json:"fonte"`
	PublishedAt  time.Time `gorm:"not null;index" json:"data_postagem"`
	AuthorID     *uint     `gorm:"index" json:"autor_id"`
	Author       *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// PointOfInterest is a place on the campus map.
type PointOfInterest struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null" json:"nome"`
	Description string  `gorm:"type:text" json:"descricao"`
	Latitude    float64 `gorm:"not null" json:"latitude"`
	Longitude   float64 `gorm:"not null" json:"longitude"`
	Kind        string  `gorm:"size:50" json:"tipo"`
}

type Event struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:200;not null" json:"titulo"`
	Description string           `gorm:"type:text;not null" json:"descricao"`
	StartsAt    time.Time        `gorm:"not null;index" json:"data_hora_inicio"`
	Link        string           `gorm:"size:500" json:"link"`
	PlaceID     *uint            `gorm:"index" json:"local_id"`
	Place       *PointOfInterest `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"local,omitempty"`
	OrganizerID *uint            `gorm:"index" json:"organizador_id"`
	Organizer   *User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt   time.Time        `json:"-"`
}
