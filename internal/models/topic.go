package models

import (
	"time"
)

// Topic is a forum post (tópico).
type Topic struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	CommunityID *uint      `gorm:"index" json:"community_id"` // nil for the general forum
	Community   *Community `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"community,omitempty"`
	Relevance   int        `gorm:"default:0;index" json:"relevance"`
	Pinned      bool       `gorm:"default:false" json:"pinned"`
	Locked      bool       `gorm:"default:false" json:"locked"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// filled by queries, not stored
	ReplyCount int `gorm:"-" json:"reply_count"`
	LikeCount  int `gorm:"-" json:"like_count"`
}

// Reply is a comment on a topic (resposta). ParentID is set for nested replies.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TopicID   uint      `gorm:"not null;index" json:"topic_id"`
	Topic     Topic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Parent    *Reply    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type TopicLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_topic" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TopicID   uint      `gorm:"not null;index;uniqueIndex:idx_like_user_topic" json:"topic_id"`
	Topic     Topic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TopicSave is a bookmark of a topic (post salvo).
type TopicSave struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_save_user_topic" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TopicID   uint      `gorm:"not null;uniqueIndex:idx_save_user_topic" json:"topic_id"`
	Topic     Topic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}
