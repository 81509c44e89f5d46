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
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ForumHandler struct {
	moderator   *services.Moderator
	mailService *services.MailService
	siteURL     string
}

func NewForumHandler(moderator *services.Moderator, mail *services.MailService, siteURL string) *ForumHandler {
	return &ForumHandler{moderator: moderator, mailService: mail, siteURL: siteURL}
}

const topicsPerPage = 20

// fillTopicCounts fills ReplyCount and LikeCount with two grouped queries.
func fillTopicCounts(topics []models.Topic) {
	if len(topics) == 0 {
		return
	}
	ids := make([]uint, len(topics))
	for i, t := range topics {
		ids[i] = t.ID
	}

	type countResult struct {
		TopicID uint
		Count   int
	}
	var replies, likes []countResult
	db.DB.Model(&models.Reply{}).Select("topic_id, COUNT(*) as count").
		Where("topic_id IN ?", ids).Group("topic_id").Scan(&replies)
	db.DB.Model(&models.TopicLike{}).Select("topic_id, COUNT(*) as count").
		Where("topic_id IN ?", ids).Group("topic_id").Scan(&likes)

	replyMap := make(map[uint]int, len(replies))
	for _, r := range replies {
		replyMap[r.TopicID] = r.Count
	}
	likeMap := make(map[uint]int, len(likes))
	for _, r := range likes {
		likeMap[r.TopicID] = r.Count
	}
	for i := range topics {
		topics[i].ReplyCount = replyMap[topics[i].ID]
		topics[i].LikeCount = likeMap[topics[i].ID]
	}
}

// publicTopics are topics of the general forum or of public communities.
func publicTopics() *gorm.DB {
	return db.DB.Model(&models.Topic{}).
		Joins("LEFT JOIN communities ON communities.id = topics.community_id").
		Where("topics.community_id IS NULL OR communities.type = ?", models.CommunityPublic)
}

func (h *ForumHandler) List(c *gin.Context) {
	order := c.DefaultQuery("ordem", "recentes")
	query := strings.TrimSpace(c.Query("q"))
	page := pageParam(c)

	var topics []models.Topic
	var total int64

	if query != "" {
		var candidates []models.Topic
		publicTopics().Preload("Author").Preload("Community").
			Order("topics.created_at DESC").Limit(500).Find(&candidates)
		topics = services.Items(services.FuzzyRank(candidates, query, func(t models.Topic) string {
			return t.Title + " " + t.Content
		}))
		total = int64(len(topics))
	} else {
		orderBy := "topics.pinned DESC, topics.created_at DESC"
		if order == "relevantes" {
			orderBy = "topics.pinned DESC, topics.relevance DESC, topics.created_at DESC"
		}
		publicTopics().Count(&total)
		publicTopics().Preload("Author").Preload("Community").
			Order(orderBy).Limit(topicsPerPage).Offset((page - 1) * topicsPerPage).Find(&topics)
	}
	fillTopicCounts(topics)

	Render(c, http.StatusOK, "forum/list.html", gin.H{
		"Title":       "Fóruns",
		"Topics":      topics,
		"Order":       order,
		"Query":       query,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, topicsPerPage),
		"Active":      "forum",
	})
}

func userCommunities(userID uint) []models.Community {
	var communities []models.Community
	db.DB.Joins("JOIN community_members ON community_members.community_id = communities.id").
		Where("community_members.user_id = ?", userID).Order("communities.name").Find(&communities)
	return communities
}

func (h *ForumHandler) ShowCreate(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	Render(c, http.StatusOK, "forum/new.html", gin.H{
		"Title":       "Novo tópico",
		"Communities": userCommunities(user.ID),
		"CommunityID": utils.StringToUint(c.Query("comunidade")),
		"Active":      "forum",
	})
}

func (h *ForumHandler) createError(c *gin.Context, user *models.User, code int, form TopicForm, msg string) {
	Render(c, code, "forum/new.html", gin.H{
		"Title":       "Novo tópico",
		"Error":       msg,
		"Form":        form,
		"Communities": userCommunities(user.ID),
		"CommunityID": form.CommunityID,
		"Active":      "forum",
	})
}

func (h *ForumHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form TopicForm
	if err := c.ShouldBind(&form); err != nil {
		h.createError(c, user, http.StatusBadRequest, form, validationMessage(err))
		return
	}
	if err := h.moderator.Check(form.Title, form.Content); err != nil {
		h.createError(c, user, http.StatusUnprocessableEntity, form, "Seu tópico contém termos não permitidos.")
		return
	}
	options, err := services.NormalizePollOptions(form.Options)
	if err != nil {
		h.createError(c, user, http.StatusBadRequest, form, "A enquete precisa de 2 a 10 opções preenchidas.")
		return
	}

	var community *models.Community
	if form.CommunityID != 0 {
		community = &models.Community{}
		if err := db.DB.First(community, form.CommunityID).Error; err != nil {
			h.createError(c, user, http.StatusBadRequest, form, "Comunidade não encontrada.")
			return
		}
		if community.IsRestricted() && !user.IsAdmin && !services.IsMember(db.DB, community.ID, user.ID) {
			h.createError(c, user, http.StatusForbidden, form, "Apenas membros podem publicar nesta comunidade.")
			return
		}
	}

	topic := models.Topic{
		Title:    strings.TrimSpace(form.Title),
		Content:  form.Content,
		AuthorID: user.ID,
	}
	if community != nil {
		topic.CommunityID = &community.ID
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&topic).Error; err != nil {
			return err
		}
		for i, text := range options {
			if err := tx.Create(&models.PollOption{TopicID: topic.ID, Text: text, Position: i}).Error; err != nil {
				return err
			}
		}
		if community != nil {
			msg := fmt.Sprintf("Novo tópico em %s: %s", community.Name, topic.Title)
			if _, err := services.NotifyCommunityMembers(tx, community.ID, user.ID, msg, fmt.Sprintf("/foruns/%d", topic.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Create topic failed: %v", err)
		h.createError(c, user, http.StatusInternalServerError, form, "Não foi possível publicar o tópico.")
		return
	}

	services.GetRankingService().ScheduleUpdate(topic.ID)
	utils.GetCache().Delete(utils.CacheKeyHome)
	Flash(c, "success", "Tópico publicado!")
	c.Redirect(http.StatusFound, fmt.Sprintf("/foruns/%d", topic.ID))
}

// loadVisibleTopic loads a topic and renders 404/403 itself when it cannot be shown.
func loadVisibleTopic(c *gin.Context, preload ...string) (*models.Topic, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Tópico não encontrado.")
		return nil, false
	}
	q := db.DB
	for _, p := range preload {
		q = q.Preload(p)
	}
	var topic models.Topic
	if err := q.First(&topic, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Tópico não encontrado.")
		return nil, false
	}
	if topic.CommunityID != nil {
		if topic.Community == nil {
			topic.Community = &models.Community{}
			db.DB.First(topic.Community, *topic.CommunityID)
		}
		if !services.CanView(db.DB, currentUser(c), topic.Community) {
			RenderError(c, http.StatusForbidden, "Este tópico pertence a uma comunidade restrita.")
			return nil, false
		}
	}
	return &topic, true
}

func canEditTopic(user *models.User, topic *models.Topic) bool {
	if user == nil {
		return false
	}
	return user.ID == topic.AuthorID || services.CanModerate(db.DB, user, topic.CommunityID)
}

func (h *ForumHandler) Detail(c *gin.Context) {
	topic, ok := loadVisibleTopic(c, "Author", "Community")
	if !ok {
		return
	}
	user := currentUser(c)

	var replies []models.Reply
	db.DB.Preload("Author").Where("topic_id = ?", topic.ID).Order("created_at ASC, id ASC").Find(&replies)

	var likeCount, saveCount int64
	db.DB.Model(&models.TopicLike{}).Where("topic_id = ?", topic.ID).Count(&likeCount)
	db.DB.Model(&models.TopicSave{}).Where("topic_id = ?", topic.ID).Count(&saveCount)

	var liked, saved bool
	var userID uint
	if user != nil {
		userID = user.ID
		var n int64
		db.DB.Model(&models.TopicLike{}).Where("topic_id = ? AND user_id = ?", topic.ID, user.ID).Count(&n)
		liked = n > 0
		db.DB.Model(&models.TopicSave{}).Where("topic_id = ? AND user_id = ?", topic.ID, user.ID).Count(&n)
		saved = n > 0
	}

	poll, err := services.LoadPoll(db.DB, topic.ID, userID)
	if err != nil {
		log.Printf("Load poll of topic %d failed: %v", topic.ID, err)
	}

	Render(c, http.StatusOK, "forum/detail.html", gin.H{
		"Title":       topic.Title,
		"Topic":       topic,
		"Replies":     services.BuildReplyTree(replies),
		"ReplyCount":  len(replies),
		"Poll":        poll,
		"CanEdit":     canEditTopic(user, topic),
		"CanModerate": services.CanModerate(db.DB, user, topic.CommunityID),
		"Reaction": reactionState{
			TopicID: topic.ID, Liked: liked, LikeCount: likeCount, Saved: saved, SaveCount: saveCount,
		},
		"Active": "forum",
	})
}

func (h *ForumHandler) Reply(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}
	back := fmt.Sprintf("/foruns/%d", topic.ID)

	if topic.Locked {
		Flash(c, "warning", "Este tópico está trancado para novas respostas.")
		redirect(c, back)
		return
	}

	var form ReplyForm
	if err := c.ShouldBind(&form); err != nil {
		Flash(c, "danger", validationMessage(err))
		redirect(c, back)
		return
	}
	if err := h.moderator.Check(form.Content); err != nil {
		Flash(c, "danger", "Sua resposta contém termos não permitidos.")
		redirect(c, back)
		return
	}

	reply := models.Reply{TopicID: topic.ID, AuthorID: user.ID, Content: form.Content}
	var recipients []uint
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if form.ParentID != 0 {
			var parent models.Reply
			if err := tx.Where("id = ? AND topic_id = ?", form.ParentID, topic.ID).First(&parent).Error; err != nil {
				return services.ErrInvalidParent
			}
			reply.ParentID = &parent.ID
		}
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}

		recipients = services.ReplyRecipients(tx, topic, &reply)
		msg := fmt.Sprintf("%s respondeu em \"%s\"", user.DisplayName(), topic.Title)
		link := fmt.Sprintf("/foruns/%d#resposta-%d", topic.ID, reply.ID)
		_, err := services.NotifyMany(tx, recipients, user.ID, msg, link)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidParent) {
			Flash(c, "danger", "A resposta original não foi encontrada.")
		} else {
			log.Printf("Create reply failed: %v", err)
			Flash(c, "danger", "Não foi possível enviar a resposta.")
		}
		redirect(c, back)
		return
	}

	h.emailRecipients(recipients, user, topic, &reply)
	services.GetRankingService().ScheduleUpdate(topic.ID)
	redirect(c, fmt.Sprintf("%s#resposta-%d", back, reply.ID))
}

func (h *ForumHandler) emailRecipients(ids []uint, actor *models.User, topic *models.Topic, reply *models.Reply) {
	if !h.mailService.Enabled {
		return
	}
	var users []models.User
	db.DB.Where("id IN ? AND id <> ?", ids, actor.ID).Find(&users)
	link := fmt.Sprintf("%s/foruns/%d#resposta-%d", h.siteURL, topic.ID, reply.ID)
	for _, u := range users {
		h.mailService.SendReplyNotification(u.Email, actor.DisplayName(), topic.Title, utils.MarkdownExcerpt(reply.Content, 300), link)
	}
}

func (h *ForumHandler) ShowEdit(c *gin.Context) {
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}
	if !canEditTopic(currentUser(c), topic) {
		RenderError(c, http.StatusForbidden, "Você não pode editar este tópico.")
		return
	}
	Render(c, http.StatusOK, "forum/edit.html", gin.H{"Title": "Editar tópico", "Topic": topic, "Active": "forum"})
}

func (h *ForumHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}
	if !canEditTopic(user, topic) {
		RenderError(c, http.StatusForbidden, "Você não pode editar este tópico.")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	content := c.PostForm("content")
	renderErr := func(code int, msg string) {
		topic.Title, topic.Content = title, content
		Render(c, code, "forum/edit.html", gin.H{"Title": "Editar tópico", "Topic": topic, "Error": msg, "Active": "forum"})
	}
	if title == "" || strings.TrimSpace(content) == "" {
		renderErr(http.StatusBadRequest, "Título e conteúdo são obrigatórios.")
		return
	}
	if len([]rune(title)) > 200 {
		renderErr(http.StatusBadRequest, "Título deve ter no máximo 200 caracteres.")
		return
	}
	if err := h.moderator.Check(title, content); err != nil {
		renderErr(http.StatusUnprocessableEntity, "Seu tópico contém termos não permitidos.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(topic).Updates(map[string]interface{}{"title": title, "content": content}).Error; err != nil {
			return err
		}
		if user.ID != topic.AuthorID {
			return services.CreateAuditLog(tx, user.ID, "topic.edit", "topic", topic.ID, title, nil)
		}
		return nil
	})
	if err != nil {
		renderErr(http.StatusInternalServerError, "Não foi possível salvar.")
		return
	}
	Flash(c, "success", "Tópico atualizado.")
	c.Redirect(http.StatusFound, fmt.Sprintf("/foruns/%d", topic.ID))
}

func (h *ForumHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}
	if !canEditTopic(user, topic) {
		RenderError(c, http.StatusForbidden, "Você não pode excluir este tópico.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := services.DeleteTopic(tx, topic.ID); err != nil {
			return err
		}
		if user.ID != topic.AuthorID {
			if err := services.Notify(tx, topic.AuthorID, fmt.Sprintf("Seu tópico \"%s\" foi removido pela moderação.", topic.Title), ""); err != nil {
				return err
			}
			return services.CreateAuditLog(tx, user.ID, "topic.delete", "topic", topic.ID, topic.Title, nil)
		}
		return nil
	})
	if err != nil {
		log.Printf("Delete topic %d failed: %v", topic.ID, err)
		Flash(c, "danger", "Não foi possível excluir o tópico.")
		redirect(c, fmt.Sprintf("/foruns/%d", topic.ID))
		return
	}

	utils.GetCache().Delete(utils.CacheKeyHome)
	Flash(c, "success", "Tópico excluído.")
	redirect(c, "/foruns")
}

func (h *ForumHandler) DeleteReply(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Resposta não encontrada.")
		return
	}
	var reply models.Reply
	if err := db.DB.Preload("Topic").First(&reply, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Resposta não encontrada.")
		return
	}
	if user.ID != reply.AuthorID && !services.CanModerate(db.DB, user, reply.Topic.CommunityID) {
		RenderError(c, http.StatusForbidden, "Você não pode excluir esta resposta.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := services.DeleteReply(tx, reply.ID); err != nil {
			return err
		}
		if user.ID != reply.AuthorID {
			return services.CreateAuditLog(tx, user.ID, "reply.delete", "reply", reply.ID, utils.Excerpt(reply.Content, 100), nil)
		}
		return nil
	})
	if err != nil {
		Flash(c, "danger", "Não foi possível excluir a resposta.")
	} else {
		Flash(c, "success", "Resposta excluída.")
		services.GetRankingService().ScheduleUpdate(reply.TopicID)
	}
	redirect(c, fmt.Sprintf("/foruns/%d", reply.TopicID))
}

func (h *ForumHandler) Saved(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var saves []models.TopicSave
	db.DB.Preload("Topic").Preload("Topic.Author").Preload("Topic.Community").
		Where("user_id = ?", user.ID).Order("created_at DESC").Find(&saves)

	topics := make([]models.Topic, 0, len(saves))
	for _, s := range saves {
		if services.CanView(db.DB, user, s.Topic.Community) {
			topics = append(topics, s.Topic)
		}
	}
	fillTopicCounts(topics)

	Render(c, http.StatusOK, "forum/saved.html", gin.H{
		"Title":  "Tópicos salvos",
		"Topics": topics,
		"Active": "saved",
	})
}

func (h *ForumHandler) Vote(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	topic, ok := loadVisibleTopic(c)
	if !ok {
		return
	}
	back := fmt.Sprintf("/foruns/%d", topic.ID)

	optionID := utils.StringToUint(c.PostForm("option_id"))
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return services.CastVote(tx, topic.ID, optionID, user.ID)
	})
	switch {
	case errors.Is(err, services.ErrAlreadyVoted):
		Flash(c, "warning", "Você já votou nesta enquete.")
	case errors.Is(err, services.ErrInvalidOption):
		Flash(c, "danger", "Opção inválida.")
	case err != nil:
		log.Printf("Vote failed: %v", err)
		Flash(c, "danger", "Não foi possível registrar seu voto.")
	default:
		services.GetRankingService().ScheduleUpdate(topic.ID)
		if isHTMX(c) {
			poll, _ := services.LoadPoll(db.DB, topic.ID, user.ID)
			c.HTML(http.StatusOK, "partials/poll.html", gin.H{"Topic": topic, "Poll": poll, "CurrentUser": user})
			return
		}
		Flash(c, "success", "Voto registrado!")
	}
	redirect(c, back+"#enquete")
}
