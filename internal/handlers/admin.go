package handlers

import (
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

type AdminHandler struct {
	storage     *services.Storage
	mailService *services.MailService
}

func NewAdminHandler(storage *services.Storage, mail *services.MailService) *AdminHandler {
	return &AdminHandler{storage: storage, mailService: mail}
}

// DashboardStats are the counters of the admin home.
type DashboardStats struct {
	Users       int64
	Topics      int64
	Replies     int64
	Materials   int64
	News        int64
	OpenReports int64
	Tickets     int64
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	var s DashboardStats
	db.DB.Model(&models.User{}).Count(&s.Users)
	db.DB.Model(&models.Topic{}).Count(&s.Topics)
	db.DB.Model(&models.Reply{}).Count(&s.Replies)
	db.DB.Model(&models.Material{}).Count(&s.Materials)
	db.DB.Model(&models.News{}).Count(&s.News)
	db.DB.Model(&models.Report{}).Where("status IN ?", []string{models.ReportStatusReceived, models.ReportStatusReviewing}).Count(&s.OpenReports)
	db.DB.Model(&models.SupportTicket{}).Count(&s.Tickets)

	var recent []models.AuditLog
	db.DB.Preload("Actor").Order("created_at DESC").Limit(10).Find(&recent)

	Render(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Title":  "Administração",
		"Stats":  s,
		"Recent": recent,
		"Active": "admin",
	})
}

const usersPerPage = 30

func (h *AdminHandler) Users(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	page := pageParam(c)

	q := db.DB.Model(&models.User{})
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR matricula LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	var total int64
	q.Count(&total)

	var users []models.User
	q.Order("created_at DESC").Limit(usersPerPage).Offset((page - 1) * usersPerPage).Find(&users)

	Render(c, http.StatusOK, "admin/users.html", gin.H{
		"Title":       "Usuários",
		"Users":       users,
		"Query":       query,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, usersPerPage),
		"Active":      "admin",
	})
}

// toggleUserFlag flips is_admin or is_banned. Admins cannot change their own flags.
func (h *AdminHandler) toggleUserFlag(c *gin.Context, column, action string) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Usuário não encontrado.")
		return
	}
	if id == admin.ID {
		Flash(c, "warning", "Você não pode alterar a própria conta.")
		redirect(c, "/admin/usuarios")
		return
	}

	var target models.User
	if err := db.DB.First(&target, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Usuário não encontrado.")
		return
	}

	value := !target.IsAdmin
	if column == "is_banned" {
		value = !target.IsBanned
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&target).Update(column, value).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, admin.ID, action, "user", target.ID, target.Matricula,
			map[string]interface{}{column: value})
	})
	if err != nil {
		log.Printf("Admin %s failed: %v", action, err)
		Flash(c, "danger", "Não foi possível atualizar o usuário.")
	} else {
		Flash(c, "success", "Usuário "+target.DisplayName()+" atualizado.")
	}
	redirectBack(c, "/admin/usuarios")
}

func (h *AdminHandler) Promote(c *gin.Context) { h.toggleUserFlag(c, "is_admin", "user.promote") }

func (h *AdminHandler) Ban(c *gin.Context) { h.toggleUserFlag(c, "is_banned", "user.ban") }

func (h *AdminHandler) Reports(c *gin.Context) {
	status := c.Query("status")

	q := db.DB.Preload("Reporter").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reports []models.Report
	q.Limit(200).Find(&reports)

	var tickets []models.SupportTicket
	db.DB.Preload("Reporter").Order("created_at DESC").Limit(50).Find(&tickets)

	Render(c, http.StatusOK, "admin/reports.html", gin.H{
		"Title":    "Denúncias",
		"Reports":  reports,
		"Tickets":  tickets,
		"Status":   status,
		"Statuses": models.ReportStatuses,
		"Active":   "admin",
	})
}

func validReportStatus(s string) bool {
	for _, st := range models.ReportStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ReportStatus changes a report status and tells the reporter.
func (h *AdminHandler) ReportStatus(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Denúncia não encontrada.")
		return
	}
	status := c.PostForm("status")
	if !validReportStatus(status) {
		Flash(c, "danger", "Status inválido.")
		redirect(c, "/admin/denuncias")
		return
	}

	var report models.Report
	if err := db.DB.Preload("Reporter").First(&report, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Denúncia não encontrada.")
		return
	}
	old := report.Status

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&report).Update("status", status).Error; err != nil {
			return err
		}
		if report.ReporterID != nil {
			msg := fmt.Sprintf("Sua denúncia #%d agora está: %s", report.ID, status)
			if err := services.Notify(tx, *report.ReporterID, msg, ""); err != nil {
				return err
			}
		}
		return services.CreateAuditLog(tx, admin.ID, "report.status", "report", report.ID, status,
			map[string]interface{}{"from": old, "to": status})
	})
	if err != nil {
		log.Printf("Update report status failed: %v", err)
		Flash(c, "danger", "Não foi possível atualizar a denúncia.")
	} else {
		if report.Reporter != nil {
			h.mailService.SendReportStatus(report.Reporter.Email, report.ID, status)
		}
		Flash(c, "success", fmt.Sprintf("Denúncia #%d: %s.", report.ID, status))
	}
	redirect(c, "/admin/denuncias")
}

func (h *AdminHandler) DeleteTopic(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Tópico não encontrado.")
		return
	}
	var topic models.Topic
	if err := db.DB.First(&topic, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Tópico não encontrado.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := services.DeleteTopic(tx, topic.ID); err != nil {
			return err
		}
		msg := fmt.Sprintf("Seu tópico \"%s\" foi removido por violar as regras da comunidade.", topic.Title)
		if err := services.Notify(tx, topic.AuthorID, msg, "/suporte"); err != nil {
			return err
		}
		return services.CreateAuditLog(tx, admin.ID, "topic.delete", "topic", topic.ID, topic.Title, nil)
	})
	if err != nil {
		log.Printf("Admin delete topic failed: %v", err)
		Flash(c, "danger", "Não foi possível excluir o tópico.")
		redirectBack(c, "/admin")
		return
	}
	utils.GetCache().Delete(utils.CacheKeyHome)
	Flash(c, "success", "Tópico excluído.")
	redirect(c, "/foruns")
}

func (h *AdminHandler) DeleteReply(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Resposta não encontrada.")
		return
	}
	var reply models.Reply
	if err := db.DB.First(&reply, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Resposta não encontrada.")
		return
	}

	var removed int
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if removed, err = services.DeleteReply(tx, reply.ID); err != nil {
			return err
		}
		return services.CreateAuditLog(tx, admin.ID, "reply.delete", "reply", reply.ID,
			utils.Excerpt(reply.Content, 100), map[string]interface{}{"removed": removed, "topic_id": reply.TopicID})
	})
	if err != nil {
		log.Printf("Admin delete reply failed: %v", err)
		Flash(c, "danger", "Não foi possível excluir a resposta.")
	} else {
		services.GetRankingService().ScheduleUpdate(reply.TopicID)
		Flash(c, "success", fmt.Sprintf("%d resposta(s) excluída(s).", removed))
	}
	redirect(c, fmt.Sprintf("/foruns/%d", reply.TopicID))
}

// toggleTopicFlag flips pinned or locked. HTMX gets the new button label.
func (h *AdminHandler) toggleTopicFlag(c *gin.Context, column, action, onLabel, offLabel string) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	var topic models.Topic
	if err := db.DB.First(&topic, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	value := !topic.Pinned
	if column == "locked" {
		value = !topic.Locked
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&topic).Update(column, value).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, admin.ID, action, "topic", topic.ID, topic.Title,
			map[string]interface{}{column: value})
	})
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	if isHTMX(c) {
		label := offLabel
		if value {
			label = onLabel
		}
		c.String(http.StatusOK, label)
		return
	}
	redirect(c, fmt.Sprintf("/foruns/%d", topic.ID))
}

func (h *AdminHandler) TogglePin(c *gin.Context) {
	h.toggleTopicFlag(c, "pinned", "topic.pin", "Desafixar", "Fixar")
}

func (h *AdminHandler) ToggleLock(c *gin.Context) {
	h.toggleTopicFlag(c, "locked", "topic.lock", "Destrancar", "Trancar")
}

func (h *AdminHandler) FAQ(c *gin.Context) {
	var faqs []models.FAQ
	db.DB.Order("category ASC, id DESC").Find(&faqs)
	Render(c, http.StatusOK, "admin/faq.html", gin.H{
		"Title":  "Perguntas frequentes",
		"FAQs":   faqs,
		"Active": "admin",
	})
}

func (h *AdminHandler) SaveFAQ(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form FAQForm
	if err := c.ShouldBind(&form); err != nil {
		Flash(c, "danger", validationMessage(err))
		redirect(c, "/admin/faq")
		return
	}

	faq := models.FAQ{}
	id, editing := idParam(c, "id")
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		action := "faq.create"
		if editing {
			if err := tx.First(&faq, id).Error; err != nil {
				return err
			}
			action = "faq.update"
		}
		faq.Question = strings.TrimSpace(form.Question)
		faq.Answer = strings.TrimSpace(form.Answer)
		faq.Category = strings.TrimSpace(form.Category)
		if err := tx.Save(&faq).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, admin.ID, action, "faq", faq.ID, faq.Question, nil)
	})
	if err != nil {
		log.Printf("Save FAQ failed: %v", err)
		Flash(c, "danger", "Não foi possível salvar a pergunta.")
	} else {
		Flash(c, "success", "Pergunta salva.")
	}
	redirect(c, "/admin/faq")
}

func (h *AdminHandler) DeleteFAQ(c *gin.Context) {
	admin := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, ok := idParam(c, "id")
	if !ok {
		RenderError(c, http.StatusNotFound, "Pergunta não encontrada.")
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var faq models.FAQ
		if err := tx.First(&faq, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&faq).Error; err != nil {
			return err
		}
		return services.CreateAuditLog(tx, admin.ID, "faq.delete", "faq", faq.ID, faq.Question, nil)
	})
	if err != nil {
		Flash(c, "danger", "Não foi possível excluir a pergunta.")
	} else {
		Flash(c, "success", "Pergunta excluída.")
	}
	redirect(c, "/admin/faq")
}

const auditPerPage = 50

func (h *AdminHandler) Audit(c *gin.Context) {
	page := pageParam(c)
	action := strings.TrimSpace(c.Query("acao"))

	q := db.DB.Model(&models.AuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var total int64
	q.Count(&total)

	var logs []models.AuditLog
	q.Preload("Actor").Order("created_at DESC, id DESC").
		Limit(auditPerPage).Offset((page - 1) * auditPerPage).Find(&logs)

	Render(c, http.StatusOK, "admin/audit.html", gin.H{
		"Title":       "Auditoria",
		"Logs":        logs,
		"Action":      action,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, auditPerPage),
		"Active":      "admin",
	})
}

func (h *AdminHandler) Security(c *gin.Context) {
	report, err := services.ScanUploads(db.DB, h.storage)
	errMsg := ""
	if err != nil {
		log.Printf("Upload scan failed: %v", err)
		errMsg = "A varredura não pôde ser concluída."
	}
	Render(c, http.StatusOK, "admin/security.html", gin.H{
		"Title":  "Segurança de arquivos",
		"Report": report,
		"Error":  errMsg,
		"Active": "admin",
	})
}
