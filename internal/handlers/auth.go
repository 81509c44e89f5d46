package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	suap *services.SUAPService
}

func NewAuthHandler(suap *services.SUAPService) *AuthHandler {
	return &AuthHandler{suap: suap}
}

func safeNext(next string) string {
	if utils.IsSafeRedirect(next) {
		return next
	}
	return "/home"
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title":       "Entrar",
		"Next":        c.Query("next"),
		"SUAPEnabled": h.suap.Enabled(),
	})
}

func (h *AuthHandler) loginError(c *gin.Context, code int, form LoginForm, msg string) {
	Render(c, code, "auth/login.html", gin.H{
		"Title":       "Entrar",
		"Error":       msg,
		"Matricula":   form.Matricula,
		"Next":        form.Next,
		"SUAPEnabled": h.suap.Enabled(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.loginError(c, http.StatusBadRequest, form, "Informe matrícula e senha.")
		return
	}

	var user models.User
	err := db.DB.Where("matricula = ?", strings.TrimSpace(form.Matricula)).First(&user).Error
	if err != nil || !utils.CheckPasswordHash(form.Password, user.PasswordHash) {
		h.loginError(c, http.StatusUnauthorized, form, "Matrícula ou senha inválidos.")
		return
	}
	if user.IsBanned {
		h.loginError(c, http.StatusForbidden, form, "Sua conta foi suspensa.")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	session.Save()

	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Title": "Cadastro"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		Render(c, http.StatusBadRequest, "auth/register.html", gin.H{
			"Title": "Cadastro",
			"Error": validationMessage(err),
			"Form":  form,
		})
		return
	}

	user, err := registerUser(db.DB, form)
	if err != nil {
		code := http.StatusInternalServerError
		msg := "Não foi possível concluir o cadastro."
		if errors.Is(err, errAccountExists) {
			code = http.StatusConflict
			msg = "Matrícula ou e-mail já cadastrados."
		} else {
			log.Printf("Register failed: %v", err)
		}
		Render(c, code, "auth/register.html", gin.H{"Title": "Cadastro", "Error": msg, "Form": form})
		return
	}

	log.Printf("New user %s registered", user.Matricula)
	Flash(c, "success", "Cadastro realizado! Faça login para continuar.")
	c.Redirect(http.StatusFound, "/login")
}

var errAccountExists = errors.New("account exists")

// registerUser creates the user and its empty profile in one transaction.
func registerUser(conn *gorm.DB, form RegisterForm) (*models.User, error) {
	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Matricula:    strings.TrimSpace(form.Matricula),
		Name:         strings.TrimSpace(form.Name),
		Email:        strings.ToLower(strings.TrimSpace(form.Email)),
		PasswordHash: hash,
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.User{}).Where("matricula = ? OR email = ?", user.Matricula, user.Email).Count(&count)
		if count > 0 {
			return errAccountExists
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	Flash(c, "info", "Você foi desconectado.")
	c.Redirect(http.StatusFound, "/login")
}
