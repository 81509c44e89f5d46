package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportHandler struct {
	captcha *services.CaptchaService
}

func NewReportHandler(captcha *services.CaptchaService) *ReportHandler {
	return &ReportHandler{captcha: captcha}
}

// targetExists checks the reported object is still there.
func targetExists(targetType string, id uint) bool {
	var model interface{}
	switch targetType {
	case models.ReportTargetTopic:
		model = &models.Topic{}
	case models.ReportTargetReply:
		model = &models.Reply{}
	case models.ReportTargetMaterial:
		model = &models.Material{}
	default:
		return false
	}
	var n int64
	db.DB.Model(model).Where("id = ?", id).Count(&n)
	return n > 0
}

// Create files a denúncia about a topic, reply or material.
// Anonymous when logged out or when "anonimo" is checked.
func (h *ReportHandler) Create(c *gin.Context) {
	var form ReportForm
	if err := c.ShouldBind(&form); err != nil {
		Flash(c, "danger", validationMessage(err))
		redirectBack(c, "/foruns")
		return
	}
	if !targetExists(form.TargetType, form.TargetID) {
		Flash(c, "warning", "O conteúdo denunciado não existe mais.")
		redirectBack(c, "/foruns")
		return
	}

	report := models.Report{
		Kind:        strings.TrimSpace(form.Kind),
		Description: strings.TrimSpace(form.Description),
		TargetType:  form.TargetType,
		TargetID:    form.TargetID,
		Status:      models.ReportStatusReceived,
	}
	var exceptID uint
	if user := currentUser(c); user != nil && c.PostForm("anonimo") == "" {
		report.ReporterID = &user.ID
		exceptID = user.ID
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("Nova denúncia (%s) sobre %s #%d", report.Kind, report.TargetType, report.TargetID)
		_, err := services.NotifyAdmins(tx, exceptID, msg, "/admin/denuncias")
		return err
	})
	if err != nil {
		log.Printf("Create report failed: %v", err)
		Flash(c, "danger", "Não foi possível enviar a denúncia.")
	} else {
		Flash(c, "success", "Denúncia enviada. Obrigado por ajudar a moderar a comunidade.")
	}
	redirectBack(c, "/foruns")
}

func (h *ReportHandler) newCaptcha(c *gin.Context) string {
	question, answer := h.captcha.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(services.CaptchaSessionKey, answer)
	session.Save()
	return question
}

func (h *ReportHandler) renderSupport(c *gin.Context, code int, extra gin.H) {
	query := strings.TrimSpace(c.Query("q"))

	var results []models.FAQ
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		db.DB.Where("LOWER(question) LIKE ? OR LOWER(answer) LIKE ?", like, like).Order("id DESC").Find(&results)
	}
	var recent []models.FAQ
	db.DB.Order("id DESC").Limit(4).Find(&recent)

	data := gin.H{
		"Title":   "Suporte",
		"Query":   query,
		"Results": results,
		"Recent":  recent,
		"Captcha": h.newCaptcha(c),
		"Active":  "support",
	}
	for k, v := range extra {
		data[k] = v
	}
	Render(c, code, "support.html", data)
}

func (h *ReportHandler) Support(c *gin.Context) {
	h.renderSupport(c, http.StatusOK, nil)
}

// SupportSubmit stores an anonymous report guarded by the math captcha.
func (h *ReportHandler) SupportSubmit(c *gin.Context) {
	var form SupportForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderSupport(c, http.StatusBadRequest, gin.H{"Error": validationMessage(err), "Form": form})
		return
	}

	session := sessions.Default(c)
	expected := session.Get(services.CaptchaSessionKey)
	session.Delete(services.CaptchaSessionKey)
	session.Save()
	if !h.captcha.Verify(form.Captcha, expected) {
		h.renderSupport(c, http.StatusBadRequest, gin.H{"Error": "Resposta do desafio incorreta.", "Form": form})
		return
	}

	description := strings.TrimSpace(form.Description)
	if description == "" {
		h.renderSupport(c, http.StatusBadRequest, gin.H{"Error": "Descreva o problema.", "Form": form})
		return
	}
	if subject := strings.TrimSpace(form.Subject); subject != "" {
		description = "Assunto: " + subject + "\n\n" + description
	}
	kind := strings.TrimSpace(form.Kind)
	if kind == "" {
		kind = "Outro"
	}

	report := models.Report{
		Kind:        kind,
		Description: description,
		TargetType:  models.ReportTargetSupport,
		Status:      models.ReportStatusReceived,
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		_, err := services.NotifyAdmins(tx, 0, "Nova denúncia anônima: "+utils.Excerpt(kind, 50), "/admin/denuncias")
		return err
	})
	if err != nil {
		log.Printf("Create support report failed: %v", err)
		h.renderSupport(c, http.StatusInternalServerError, gin.H{"Error": "Não foi possível enviar.", "Form": form})
		return
	}

	Flash(c, "success", "Denúncia anônima enviada com sucesso.")
	c.Redirect(http.StatusFound, "/suporte")
}

func (h *ReportHandler) Ticket(c *gin.Context) {
	var form TicketForm
	if err := c.ShouldBind(&form); err != nil {
		Flash(c, "danger", validationMessage(err))
		redirect(c, "/suporte")
		return
	}

	ticket := models.SupportTicket{
		Kind:        form.Kind,
		Description: strings.TrimSpace(form.Description),
	}
	var exceptID uint
	if user := currentUser(c); user != nil {
		ticket.ReporterID = &user.ID
		exceptID = user.ID
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		_, err := services.NotifyAdmins(tx, exceptID, "Novo relato de suporte: "+ticket.Kind, "/admin/denuncias")
		return err
	})
	if err != nil {
		log.Printf("Create support ticket failed: %v", err)
		Flash(c, "danger", "Não foi possível enviar o relato.")
	} else {
		Flash(c, "success", "Relato enviado. Obrigado!")
	}
	redirect(c, "/suporte")
}
