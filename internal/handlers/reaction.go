package handlers

import (
	"fmt"
	"log"
	"net/http"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// reactionState feeds the like and save button partials.
type reactionState struct {
	TopicID   uint
	Liked     bool
	LikeCount int64
	Saved     bool
	SaveCount int64
}

type ReactionHandler struct{}

func NewReactionHandler() *ReactionHandler {
	return &ReactionHandler{}
}

func (h *ReactionHandler) state(topicID, userID uint) reactionState {
	s := reactionState{TopicID: topicID}
	var n int64
	db.DB.Model(&models.TopicLike{}).Where("topic_id = ?", topicID).Count(&s.LikeCount)
	db.DB.Model(&models.TopicSave{}).Where("topic_id = ?", topicID).Count(&s.SaveCount)
	db.DB.Model(&models.TopicLike{}).Where("topic_id = ? AND user_id = ?", topicID, userID).Count(&n)
	s.Liked = n > 0
	db.DB.Model(&models.TopicSave{}).Where("topic_id = ? AND user_id = ?", topicID, userID).Count(&n)
	s.Saved = n > 0
	return s
}

func (h *ReactionHandler) respond(c *gin.Context, partial string, topicID, userID uint) {
	if isHTMX(c) {
		c.HTML(http.StatusOK, partial, gin.H{"Reaction": h.state(topicID, userID)})
		return
	}
	redirect(c, fmt.Sprintf("/foruns/%d", topicID))
}

// Like toggles the like of the current user and notifies the author on a new like.
func (h *ReactionHandler) Like(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("topic_id = ? AND user_id = ?", topic.ID, user.ID).Delete(&models.TopicLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Create(&models.TopicLike{TopicID: topic.ID, UserID: user.ID}).Error; err != nil {
			return err
		}
		if topic.AuthorID == user.ID {
			return nil
		}
		msg := fmt.Sprintf("%s curtiu seu tópico \"%s\"", user.DisplayName(), topic.Title)
		return services.Notify(tx, topic.AuthorID, msg, fmt.Sprintf("/foruns/%d", topic.ID))
	})
	if err != nil {
		log.Printf("Toggle like failed: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	services.GetRankingService().ScheduleUpdate(topic.ID)
	h.respond(c, "partials/like_button.html", topic.ID, user.ID)
}

func (h *ReactionHandler) Save(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("topic_id = ? AND user_id = ?", topic.ID, user.ID).Delete(&models.TopicSave{})
		if res.Error != nil || res.RowsAffected > 0 {
			return res.Error
		}
		return tx.Create(&models.TopicSave{TopicID: topic.ID, UserID: user.ID}).Error
	})
	if err != nil {
		log.Printf("Toggle save failed: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	services.GetRankingService().ScheduleUpdate(topic.ID)
	h.respond(c, "partials/save_button.html", topic.ID, user.ID)
}

// Favorite toggles a material in the user's favorites.
func (h *ReactionHandler) Favorite(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var material models.Material
	if err := db.DB.Select("id").First(&material, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Material não encontrado.")
		return
	}

	favorited := false
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("material_id = ? AND user_id = ?", material.ID, user.ID).Delete(&models.MaterialFavorite{})
		if res.Error != nil || res.RowsAffected > 0 {
			return res.Error
		}
		favorited = true
		return tx.Create(&models.MaterialFavorite{MaterialID: material.ID, UserID: user.ID}).Error
	})
	if err != nil {
		log.Printf("Toggle favorite failed: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if isHTMX(c) {
		c.HTML(http.StatusOK, "partials/favorite_button.html", gin.H{"MaterialID": material.ID, "Favorited": favorited})
		return
	}
	if favorited {
		Flash(c, "success", "Material adicionado aos favoritos.")
	} else {
		Flash(c, "info", "Material removido dos favoritos.")
	}
	redirectBack(c, "/materiais")
}
