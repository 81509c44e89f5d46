package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	storage *services.Storage
	suap    *services.SUAPService
}

func NewUserHandler(storage *services.Storage, suap *services.SUAPService) *UserHandler {
	return &UserHandler{storage: storage, suap: suap}
}

func loadProfile(user *models.User) *models.Profile {
	var profile models.Profile
	if err := db.DB.Where(models.Profile{UserID: user.ID}).FirstOrCreate(&profile).Error; err != nil {
		log.Printf("Load profile of user %d failed: %v", user.ID, err)
	}
	return &profile
}

// Me - /perfil
func (h *UserHandler) Me(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	h.renderMe(c, http.StatusOK, user, loadProfile(user), "")
}

func (h *UserHandler) renderMe(c *gin.Context, code int, user *models.User, profile *models.Profile, errMsg string) {
	var topicCount, materialCount int64
	db.DB.Model(&models.Topic{}).Where("author_id = ?", user.ID).Count(&topicCount)
	db.DB.Model(&models.Material{}).Where("author_id = ?", user.ID).Count(&materialCount)

	Render(c, code, "profile/me.html", gin.H{
		"Title":         "Meu perfil",
		"User":          user,
		"Profile":       profile,
		"TopicCount":    topicCount,
		"MaterialCount": materialCount,
		"SUAPLinked":    suapToken(c) != nil,
		"Error":         errMsg,
		"Active":        "profile",
	})
}

// replaceImage stores a new image upload and removes the previous one.
// It returns the old URL when no file was sent.
func (h *UserHandler) replaceImage(c *gin.Context, field, dir, old string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return old, nil
	}
	rel, err := h.storage.SaveUnique(fh, dir, services.ImageExtensions)
	if err != nil {
		return old, err
	}
	if err := h.storage.RemoveURL(old); err != nil {
		log.Printf("Remove old %s failed: %v", field, err)
	}
	return h.storage.URL(rel), nil
}

func (h *UserHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	profile := loadProfile(user)

	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderMe(c, http.StatusBadRequest, user, profile, validationMessage(err))
		return
	}

	foto, err := h.replaceImage(c, "foto", "perfis", user.FotoURL)
	if err != nil {
		h.renderMe(c, http.StatusBadRequest, user, profile, imageError(err))
		return
	}
	banner, err := h.replaceImage(c, "banner", "banners", profile.BannerURL)
	if err != nil {
		h.renderMe(c, http.StatusBadRequest, user, profile, imageError(err))
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		userUpdates := map[string]interface{}{"foto_url": foto, "campus": strings.TrimSpace(form.Campus)}
		if name := strings.TrimSpace(form.Name); name != "" {
			userUpdates["name"] = name
		}
		if err := tx.Model(user).Updates(userUpdates).Error; err != nil {
			return err
		}
		return tx.Model(profile).Updates(map[string]interface{}{
			"curso":      strings.TrimSpace(form.Curso),
			"bio":        strings.TrimSpace(form.Bio),
			"banner_url": banner,
		}).Error
	})
	if err != nil {
		log.Printf("Update profile failed: %v", err)
		h.renderMe(c, http.StatusInternalServerError, user, profile, "Não foi possível salvar o perfil.")
		return
	}

	Flash(c, "success", "Perfil atualizado.")
	c.Redirect(http.StatusFound, "/perfil")
}

func imageError(err error) string {
	switch {
	case errors.Is(err, services.ErrExtensionNotAllowed), errors.Is(err, services.ErrInvalidFilename):
		return "Envie imagens JPG ou PNG."
	case errors.Is(err, services.ErrFileTooLarge):
		return "Imagem muito grande."
	}
	log.Printf("Save image failed: %v", err)
	return "Não foi possível salvar a imagem."
}

// Public - /u/:id
func (h *UserHandler) Public(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Usuário não encontrado.")
		return
	}
	var user models.User
	if err := db.DB.Preload("Profile").First(&user, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Usuário não encontrado.")
		return
	}

	var topics []models.Topic
	publicTopics().Preload("Community").Where("topics.author_id = ?", user.ID).
		Order("topics.created_at DESC").Limit(20).Find(&topics)
	fillTopicCounts(topics)

	var materials []models.Material
	db.DB.Where("author_id = ?", user.ID).Order("created_at DESC").Limit(20).Find(&materials)

	Render(c, http.StatusOK, "profile/public.html", gin.H{
		"Title":     user.DisplayName(),
		"User":      user,
		"Topics":    topics,
		"Materials": materials,
	})
}

// Boletim shows grades from SUAP. Without a session token it restarts the SUAP login.
func (h *UserHandler) Boletim(c *gin.Context) {
	if !h.suap.Enabled() {
		RenderError(c, http.StatusServiceUnavailable, "Integração com o SUAP indisponível.")
		return
	}
	token := suapToken(c)
	if token == nil {
		c.Redirect(http.StatusFound, "/auth/suap/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		return
	}

	now := time.Now()
	ano, _ := strconv.Atoi(c.DefaultQuery("ano", strconv.Itoa(now.Year())))
	periodo, _ := strconv.Atoi(c.DefaultQuery("periodo", "1"))
	if ano < 2000 || ano > now.Year()+1 {
		ano = now.Year()
	}
	if periodo != 1 && periodo != 2 {
		periodo = 1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	entries, err := h.suap.Boletim(ctx, token, ano, periodo)
	errMsg := ""
	if err != nil {
		log.Printf("Fetch boletim failed: %v", err)
		errMsg = "Não foi possível consultar o boletim no SUAP."
	}

	years := make([]int, 0, 6)
	for y := now.Year(); y > now.Year()-6; y-- {
		years = append(years, y)
	}

	Render(c, http.StatusOK, "profile/boletim.html", gin.H{
		"Title":   "Boletim",
		"Entries": entries,
		"Ano":     ano,
		"Periodo": periodo,
		"Years":   years,
		"Error":   errMsg,
		"Active":  "boletim",
	})
}
