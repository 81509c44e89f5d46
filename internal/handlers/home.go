package handlers

import (
	"net/http"
	"time"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

type homeData struct {
	News      []models.News
	Events    []models.Event
	HotTopics []models.Topic
}

func loadHomeData() homeData {
	if cached := utils.GetCache().Get(utils.CacheKeyHome); cached != nil {
		if d, ok := cached.(homeData); ok {
			return d
		}
	}

	var d homeData
	db.DB.Order("published_at DESC").Limit(4).Find(&d.News)
	db.DB.Preload("Place").Where("starts_at >= ?", time.Now().Add(-12*time.Hour)).
		Order("starts_at ASC").Limit(4).Find(&d.Events)
	db.DB.Preload("Author").Where("community_id IS NULL").
		Order("relevance DESC, created_at DESC").Limit(5).Find(&d.HotTopics)
	fillTopicCounts(d.HotTopics)

	utils.GetCache().Set(utils.CacheKeyHome, d, time.Minute)
	return d
}

func (h *HomeHandler) Index(c *gin.Context) {
	d := loadHomeData()
	Render(c, http.StatusOK, "home.html", gin.H{
		"Title":     "Início",
		"News":      d.News,
		"Events":    d.Events,
		"HotTopics": d.HotTopics,
		"Active":    "home",
	})
}

func (h *HomeHandler) RedirectHome(c *gin.Context) {
	c.Redirect(http.StatusFound, "/home")
}
