package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Matricula    string    `gorm:"size:80;uniqueIndex;not null" json:"matricula"`
	Name         string    `gorm:"size:100" json:"name"`
	Email        string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128" json:"-"` // empty for SUAP-only accounts
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	IsBanned     bool      `gorm:"default:false" json:"is_banned"`
	FotoURL      string    `gorm:"size:255" json:"foto_url"`
	Campus       string    `gorm:"size:50" json:"campus"`
	SUAPID       string    `gorm:"column:suap_id;size:80;index" json:"-"`
	Profile      *Profile  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName falls back to the matricula when no name was given.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Matricula
}

// Initials is used for the avatar placeholder when FotoURL is empty.
func (u *User) Initials() string {
	fields := strings.Fields(u.DisplayName())
	if len(fields) == 0 {
		return "?"
	}
	first := []rune(fields[0])
	if len(fields) == 1 {
		return strings.ToUpper(string(first[0]))
	}
	last := []rune(fields[len(fields)-1])
	return strings.ToUpper(string(first[0]) + string(last[0]))
}

// Profile holds the editable "perfil" fields of a user.
type Profile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Curso     string `gorm:"size:100" json:"curso"`
	Bio       string `gorm:"type:text" json:"bio"`
	BannerURL string `gorm:"size:255" json:"banner_url"`
}
