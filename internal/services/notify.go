package services

import (
	"fmt"
	"unicode/utf8"

	"siif/internal/models"
	"siif/internal/utils"

	"gorm.io/gorm"
)

const maxNotificationLen = 300

// Notify creates one notification. userID 0 is ignored.
func Notify(tx *gorm.DB, userID uint, message, link string) error {
	if userID == 0 {
		return nil
	}
	if utf8.RuneCountInString(message) > maxNotificationLen {
		message = utils.Excerpt(message, maxNotificationLen-3)
	}
	n := models.Notification{
		UserID:  userID,
		Message: message,
		LinkURL: link,
	}
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// NotifyMany notifies each user once, skipping exceptID.
func NotifyMany(tx *gorm.DB, userIDs []uint, exceptID uint, message, link string) (int, error) {
	seen := map[uint]bool{exceptID: true, 0: true}
	sent := 0
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := Notify(tx, id, message, link); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// ReplyRecipients returns who hears about a new reply:
// the topic author and, for nested replies, the parent's author.
func ReplyRecipients(tx *gorm.DB, topic *models.Topic, reply *models.Reply) []uint {
	ids := []uint{topic.AuthorID}
	if reply.ParentID != nil {
		var parent models.Reply
		if err := tx.Select("author_id").First(&parent, *reply.ParentID).Error; err == nil {
			ids = append(ids, parent.AuthorID)
		}
	}
	return ids
}

// NotifyCommunityMembers fans out to every member except the author.
func NotifyCommunityMembers(tx *gorm.DB, communityID, exceptID uint, message, link string) (int, error) {
	var ids []uint
	if err := tx.Table(membersTable).Where("community_id = ?", communityID).Pluck("user_id", &ids).Error; err != nil {
		return 0, err
	}
	return NotifyMany(tx, ids, exceptID, message, link)
}

func NotifyModerators(tx *gorm.DB, communityID uint, message, link string) (int, error) {
	var ids []uint
	if err := tx.Table(moderatorsTable).Where("community_id = ?", communityID).Pluck("user_id", &ids).Error; err != nil {
		return 0, err
	}
	return NotifyMany(tx, ids, 0, message, link)
}

func NotifyAdmins(tx *gorm.DB, exceptID uint, message, link string) (int, error) {
	var ids []uint
	if err := tx.Model(&models.User{}).Where("is_admin = ?", true).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	return NotifyMany(tx, ids, exceptID, message, link)
}
