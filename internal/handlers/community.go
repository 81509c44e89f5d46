package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommunityHandler struct{}

func NewCommunityHandler() *CommunityHandler {
	return &CommunityHandler{}
}

func (h *CommunityHandler) List(c *gin.Context) {
	var communities []models.Community
	db.DB.Order("name ASC").Find(&communities)

	type countResult struct {
		CommunityID uint
		Count       int
	}
	var counts []countResult
	db.DB.Table("community_members").Select("community_id, COUNT(*) as count").Group("community_id").Scan(&counts)
	countMap := make(map[uint]int, len(counts))
	for _, r := range counts {
		countMap[r.CommunityID] = r.Count
	}
	for i := range communities {
		communities[i].MemberCount = countMap[communities[i].ID]
	}

	Render(c, http.StatusOK, "community/list.html", gin.H{
		"Title":       "Comunidades",
		"Communities": communities,
		"Active":      "communities",
	})
}

func (h *CommunityHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form CommunityForm
	if err := c.ShouldBind(&form); err != nil {
		Flash(c, "danger", validationMessage(err))
		redirect(c, "/comunidades")
		return
	}

	var community *models.Community
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		community, err = services.CreateCommunity(tx, form.Name, form.Description, form.Type, user)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrCommunityExists) {
			Flash(c, "warning", "Já existe uma comunidade com este nome.")
		} else {
			log.Printf("Create community failed: %v", err)
			Flash(c, "danger", "Não foi possível criar a comunidade.")
		}
		redirect(c, "/comunidades")
		return
	}

	Flash(c, "success", "Comunidade criada!")
	redirect(c, "/c/"+community.Slug)
}

// loadCommunity renders 404 itself when the slug is unknown.
func loadCommunity(c *gin.Context) (*models.Community, bool) {
	var community models.Community
	if err := db.DB.Preload("Creator").Where("slug = ?", c.Param("slug")).First(&community).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Comunidade não encontrada.")
		return nil, false
	}
	return &community, true
}

func (h *CommunityHandler) Detail(c *gin.Context) {
	community, ok := loadCommunity(c)
	if !ok {
		return
	}
	user := currentUser(c)
	community.MemberCount = services.MemberCount(db.DB, community.ID)

	var isMember, isModerator, pending bool
	if user != nil {
		isMember = services.IsMember(db.DB, community.ID, user.ID)
		isModerator = services.CanModerate(db.DB, user, &community.ID)
		var n int64
		db.DB.Model(&models.CommunityRequest{}).Where("community_id = ? AND user_id = ?", community.ID, user.ID).Count(&n)
		pending = n > 0
	}

	canView := services.CanView(db.DB, user, community)
	var topics []models.Topic
	if canView {
		db.DB.Preload("Author").Where("community_id = ?", community.ID).
			Order("pinned DESC, created_at DESC").Limit(50).Find(&topics)
		fillTopicCounts(topics)
	}

	var requests []models.CommunityRequest
	var moderators []models.User
	if isModerator {
		db.DB.Preload("User").Where("community_id = ?", community.ID).Order("created_at ASC").Find(&requests)
	}
	db.DB.Joins("JOIN community_moderators ON community_moderators.user_id = users.id").
		Where("community_moderators.community_id = ?", community.ID).Order("users.name").Find(&moderators)

	Render(c, http.StatusOK, "community/detail.html", gin.H{
		"Title":       community.Name,
		"Community":   community,
		"Topics":      topics,
		"CanView":     canView,
		"IsMember":    isMember,
		"IsModerator": isModerator,
		"Pending":     pending,
		"Requests":    requests,
		"Moderators":  moderators,
		"Active":      "communities",
	})
}

func (h *CommunityHandler) Join(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	community, ok := loadCommunity(c)
	if !ok {
		return
	}

	var pending bool
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		pending, err = services.JoinCommunity(tx, community, user)
		return err
	})
	switch {
	case errors.Is(err, services.ErrAlreadyMember), errors.Is(err, services.ErrRequestPending):
		Flash(c, "info", capitalizeError(err))
	case err != nil:
		log.Printf("Join community failed: %v", err)
		Flash(c, "danger", "Não foi possível entrar na comunidade.")
	case pending:
		Flash(c, "info", "Solicitação enviada aos moderadores.")
	default:
		Flash(c, "success", "Você agora é membro de "+community.Name+".")
	}
	redirect(c, "/c/"+community.Slug)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	community, ok := loadCommunity(c)
	if !ok {
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return services.LeaveCommunity(tx, community, user)
	})
	if err != nil {
		Flash(c, "warning", capitalizeError(err))
	} else {
		Flash(c, "success", "Você saiu de "+community.Name+".")
	}
	redirect(c, "/c/"+community.Slug)
}

// requireModerator renders 403 itself for users who cannot moderate the community.
func requireModerator(c *gin.Context, user *models.User, community *models.Community) bool {
	if services.CanModerate(db.DB, user, &community.ID) {
		return true
	}
	RenderError(c, http.StatusForbidden, "Apenas moderadores podem fazer isso.")
	return false
}

func (h *CommunityHandler) resolve(c *gin.Context, approve bool) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	community, ok := loadCommunity(c)
	if !ok || !requireModerator(c, user, community) {
		return
	}
	requestID, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Solicitação não encontrada.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		req, err := services.ResolveRequest(tx, community, requestID, approve)
		if err != nil {
			return err
		}
		action := "community.reject"
		if approve {
			action = "community.approve"
		}
		return services.CreateAuditLog(tx, user.ID, action, "community", community.ID,
			fmt.Sprintf("user %d", req.UserID), map[string]interface{}{"user_id": req.UserID})
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		Flash(c, "warning", "Solicitação não encontrada.")
	case err != nil:
		log.Printf("Resolve request failed: %v", err)
		Flash(c, "danger", "Não foi possível processar a solicitação.")
	case approve:
		Flash(c, "success", "Solicitação aprovada.")
	default:
		Flash(c, "info", "Solicitação recusada.")
	}
	redirect(c, "/c/"+community.Slug)
}

func (h *CommunityHandler) Approve(c *gin.Context) { h.resolve(c, true) }

func (h *CommunityHandler) Reject(c *gin.Context) { h.resolve(c, false) }

func (h *CommunityHandler) AddModerator(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	community, ok := loadCommunity(c)
	if !ok || !requireModerator(c, user, community) {
		return
	}
	back := "/c/" + community.Slug

	var target models.User
	matricula := strings.TrimSpace(c.PostForm("matricula"))
	if err := db.DB.Where("matricula = ?", matricula).First(&target).Error; err != nil {
		Flash(c, "warning", "Usuário não encontrado.")
		redirect(c, back)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := services.AddModerator(tx, community, target.ID); err != nil {
			return err
		}
		return services.CreateAuditLog(tx, user.ID, "community.add_moderator", "community", community.ID, target.Matricula, nil)
	})
	if err != nil {
		Flash(c, "warning", capitalizeError(err))
	} else {
		Flash(c, "success", target.DisplayName()+" agora é moderador.")
	}
	redirect(c, back)
}

func (h *CommunityHandler) RemoveModerator(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	community, ok := loadCommunity(c)
	if !ok || !requireModerator(c, user, community) {
		return
	}
	uid, ok := idParam(c, "uid")
	if !ok {
		RenderError(c, http.StatusNotFound, "Usuário não encontrado.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := services.RemoveModerator(tx, community, uid); err != nil {
			return err
		}
		return services.CreateAuditLog(tx, user.ID, "community.remove_moderator", "community", community.ID,
			fmt.Sprintf("user %d", uid), map[string]interface{}{"user_id": uid})
	})
	if err != nil {
		Flash(c, "warning", capitalizeError(err))
	} else {
		Flash(c, "success", "Moderador removido.")
	}
	redirect(c, "/c/"+community.Slug)
}

// capitalizeError shows a service error as a sentence.
func capitalizeError(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	return strings.ToUpper(string(r[0])) + string(r[1:]) + "."
}
