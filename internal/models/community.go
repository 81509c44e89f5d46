package models

import (
	"time"
)

const (
	CommunityPublic     = "public"
	CommunityRestricted = "restricted"
)

type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:20;not null;default:'public'" json:"type"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
	Members     []User    `gorm:"many2many:community_members;constraint:OnDelete:CASCADE;" json:"-"`
	Moderators  []User    `gorm:"many2many:community_moderators;constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	MemberCount int `gorm:"-" json:"member_count"`
}

func (c *Community) IsRestricted() bool {
	return c.Type == CommunityRestricted
}

// CommunityRequest is a pending join request for a restricted community.
type CommunityRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"not null;uniqueIndex:idx_request_user_community" json:"community_id"`
	Community   Community `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_request_user_community" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CreatedAt   time.Time `json:"created_at"`
}
