package models

import "time"

// PollOption is one choice of a topic poll (enquete).
type PollOption struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TopicID  uint   `gorm:"not null;index" json:"topic_id"`
	Topic    Topic  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Text     string `gorm:"size:200;not null" json:"text"`
	Position int    `gorm:"default:0" json:"position"`
}

// PollVote allows one vote per user per topic.
type PollVote struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OptionID  uint       `gorm:"not null;index" json:"option_id"`
	Option    PollOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TopicID   uint       `gorm:"not null;uniqueIndex:idx_poll_vote_user_topic" json:"topic_id"`
	Topic     Topic      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_poll_vote_user_topic" json:"user_id"`
	User      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}
