package models

import (
	"path"
	"strings"
	"time"
)

type Material struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	FilePath      string    `gorm:"size:300" json:"file_path"`     // relative to the upload dir
	OriginalName  string    `gorm:"size:255" json:"original_name"` // as sent by the browser
	ExternalLink  string    `gorm:"size:500" json:"external_link"`
	Category      string    `gorm:"size:100;index" json:"category"`
	DownloadCount int       `gorm:"default:0" json:"download_count"`
	AuthorID      uint      `gorm:"not null;index" json:"author_id"`
	Author        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Tags          []Tag     `gorm:"many2many:material_tags;constraint:OnDelete:CASCADE;" json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (m *Material) IsLink() bool {
	return m.ExternalLink != ""
}

// Extension returns the lower-case file extension without the dot.
func (m *Material) Extension() string {
	if m.FilePath == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(m.FilePath)), ".")
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

type MaterialFavorite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:idx_fav_user_material" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	MaterialID uint      `gorm:"not null;uniqueIndex:idx_fav_user_material" json:"material_id"`
	Material   Material  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
