package handlers

import (
	"net/http"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct{}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

func (h *NotificationHandler) List(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var notifications []models.Notification
	db.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Limit(50).
		Find(&notifications)

	Render(c, http.StatusOK, "notifications/list.html", gin.H{
		"Title":         "Notificações",
		"Notifications": notifications,
		"Active":        "notifications",
	})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := c.Param("id")

	var notification models.Notification
	if err := db.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&notification).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	db.DB.Model(&notification).Update("is_read", true)

	// HTMX only needs the status; the client drops the unread marker.
	if isHTMX(c) {
		c.Status(http.StatusOK)
		return
	}
	if notification.LinkURL != "" {
		c.Redirect(http.StatusFound, notification.LinkURL)
		return
	}
	c.Redirect(http.StatusFound, "/notificacoes")
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := c.Param("id")

	res := db.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Notification{})
	if res.RowsAffected == 0 {
		c.Status(http.StatusNotFound)
		return
	}

	// HTMX: empty body removes the element
	if isHTMX(c) {
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, "/notificacoes")
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)

	redirect(c, "/notificacoes")
}
