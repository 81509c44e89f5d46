package services

import (
	"fmt"

	"siif/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateAuditLog records an admin action. It must run inside the caller's
// transaction so the log and the change commit together.
func CreateAuditLog(tx *gorm.DB, actorID uint, action, targetType string, targetID uint, details string, meta map[string]interface{}) error {
	entry := models.AuditLog{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if actorID != 0 {
		entry.ActorID = &actorID
	}
	if meta != nil {
		entry.Metadata = datatypes.JSONMap(meta)
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}
