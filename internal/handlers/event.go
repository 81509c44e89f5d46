package handlers

import (
	"net/http"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EventHandler struct{}

func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// ParseEventDate reads "dd/mm" in the current year; anything else becomes now.
func ParseEventDate(s string, now time.Time) time.Time {
	t, err := time.ParseInLocation("02/01", strings.TrimSpace(s), now.Location())
	if err != nil {
		return now
	}
	d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	if d.Day() != t.Day() {
		// 29/02 outside a leap year
		return now
	}
	return d
}

func (h *EventHandler) APIList(c *gin.Context) {
	var events []models.Event
	if err := db.DB.Preload("Place").Order("starts_at DESC").Find(&events).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) APICreate(c *gin.Context) {
	user := currentUser(c)
	title := strings.TrimSpace(c.PostForm("titulo"))
	if title == "" {
		jsonError(c, http.StatusBadRequest, "Título é obrigatório.")
		return
	}
	description := strings.TrimSpace(c.PostForm("descricao"))
	if description == "" {
		description = title
	}

	ev := models.Event{
		Title:       title,
		Description: description,
		StartsAt:    ParseEventDate(c.PostForm("data"), time.Now()),
		Link:        strings.TrimSpace(c.PostForm("link")),
		PlaceID:     utils.UintPtr(utils.StringToUint(c.PostForm("local_id"))),
		OrganizerID: &user.ID,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, user.ID, "event.create", "event", ev.ID, ev.Title, nil)
	})
	if err != nil {
		jsonError(c, http.StatusBadRequest, "Não foi possível criar o evento.")
		return
	}
	utils.GetCache().Delete(utils.CacheKeyHome)
	c.JSON(http.StatusCreated, gin.H{"msg": "Evento criado com sucesso!", "id": ev.ID})
}

func (h *EventHandler) APIDelete(c *gin.Context) {
	user := currentUser(c)
	id, ok := idParam(c, "id")
	if !ok {
		jsonError(c, http.StatusNotFound, "Evento não encontrado.")
		return
	}
	var ev models.Event
	if err := db.DB.First(&ev, id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "Evento não encontrado.")
		return
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ev).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, user.ID, "event.delete", "event", ev.ID, ev.Title, nil)
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Erro ao excluir evento.")
		return
	}
	utils.GetCache().Delete(utils.CacheKeyHome)
	c.JSON(http.StatusOK, gin.H{"msg": "Evento excluído com sucesso!"})
}

// Page lists upcoming events.
func (h *EventHandler) Page(c *gin.Context) {
	var events []models.Event
	db.DB.Preload("Place").Where("starts_at >= ?", time.Now().Add(-24*time.Hour)).
		Order("starts_at ASC").Find(&events)

	var points []models.PointOfInterest
	db.DB.Order("name").Find(&points)

	Render(c, http.StatusOK, "events/list.html", gin.H{
		"Title":  "Eventos",
		"Events": events,
		"Points": points,
		"Active": "events",
	})
}

func (h *EventHandler) Map(c *gin.Context) {
	Render(c, http.StatusOK, "map.html", gin.H{"Title": "Mapa do campus", "Active": "map"})
}

func (h *EventHandler) APIPoints(c *gin.Context) {
	var points []models.PointOfInterest
	if err := db.DB.Order("name").Find(&points).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, points)
}
