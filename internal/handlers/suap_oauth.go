package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	oauthStateKey   = "oauth_state"
	oauthNextKey    = "oauth_next"
	suapTokenKey    = "suap_token"
	suapTokenExpKey = "suap_token_exp"
)

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// SUAPLogin starts the OAuth2 flow.
func (h *AuthHandler) SUAPLogin(c *gin.Context) {
	if !h.suap.Enabled() {
		Flash(c, "warning", "Login com SUAP indisponível no momento.")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	state, err := generateStateToken()
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Falha ao iniciar login.")
		return
	}

	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	session.Set(oauthNextKey, c.Query("next"))
	session.Save()

	c.Redirect(http.StatusTemporaryRedirect, h.suap.AuthCodeURL(state))
}

func (h *AuthHandler) SUAPCallback(c *gin.Context) {
	session := sessions.Default(c)
	savedState, _ := session.Get(oauthStateKey).(string)
	next, _ := session.Get(oauthNextKey).(string)
	session.Delete(oauthStateKey)
	session.Delete(oauthNextKey)
	session.Save()

	if savedState == "" || c.Query("state") != savedState {
		Flash(c, "danger", "Sessão de login inválida. Tente novamente.")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	code := c.Query("code")
	if code == "" {
		Flash(c, "danger", "O SUAP não retornou autorização.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	token, err := h.suap.Exchange(ctx, code)
	if err != nil {
		log.Printf("SUAP token exchange failed: %v", err)
		Flash(c, "danger", "Falha ao autenticar com o SUAP.")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	info, err := h.suap.Me(ctx, token)
	if err != nil {
		log.Printf("SUAP /api/eu/ failed: %v", err)
		Flash(c, "danger", "Não foi possível obter seus dados do SUAP.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	user, err := upsertSUAPUser(db.DB, info)
	if errors.Is(err, errSUAPAccountConflict) {
		log.Printf("SUAP login of %s refused: %v", info.Identificacao, err)
		Flash(c, "warning", "Já existe uma conta com sua matrícula ou e-mail. Entre com matrícula e senha.")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err != nil {
		log.Printf("SUAP user sync failed: %v", err)
		Flash(c, "danger", "Não foi possível criar sua conta.")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if user.IsBanned {
		Flash(c, "danger", "Sua conta foi suspensa.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	session.Set(middleware.SessionUserKey, user.ID)
	session.Set(suapTokenKey, token.AccessToken)
	session.Set(suapTokenExpKey, token.Expiry.Unix())
	session.Save()

	c.Redirect(http.StatusFound, safeNext(next))
}

var errSUAPAccountConflict = errors.New("matrícula ou e-mail já pertencem a uma conta local")

// upsertSUAPUser finds the account linked to the SUAP id and creates it when
// missing. A row found by matricula or email is only adopted when it was never
// linked and has no password. Name, photo and campus follow SUAP.
func upsertSUAPUser(conn *gorm.DB, info *services.SUAPUser) (*models.User, error) {
	var user models.User
	email := strings.ToLower(strings.TrimSpace(info.PreferredEmail()))
	if email == "" {
		email = info.Identificacao + "@suap.local"
	}

	err := conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("suap_id = ?", info.Identificacao).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var existing []models.User
			if err := tx.Where("matricula = ? OR email = ?", info.Identificacao, email).Find(&existing).Error; err != nil {
				return err
			}
			switch {
			case len(existing) == 0:
				user = models.User{
					Matricula: info.Identificacao,
					Email:     email,
					Profile:   &models.Profile{},
				}
			case len(existing) == 1 && existing[0].SUAPID == "" && existing[0].PasswordHash == "":
				user = existing[0]
			default:
				return errSUAPAccountConflict
			}
		} else if err != nil {
			return err
		}

		user.SUAPID = info.Identificacao
		if info.NomeUsual != "" {
			user.Name = info.NomeUsual
		}
		if info.Foto != "" {
			user.FotoURL = info.Foto
		}
		if info.Campus != "" {
			user.Campus = info.Campus
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// suapToken rebuilds the OAuth token stored at login.
func suapToken(c *gin.Context) *oauth2.Token {
	session := sessions.Default(c)
	access, _ := session.Get(suapTokenKey).(string)
	if access == "" {
		return nil
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if exp, ok := session.Get(suapTokenExpKey).(int64); ok && exp > 0 {
		tok.Expiry = time.Unix(exp, 0)
	}
	if !tok.Valid() {
		return nil
	}
	return tok
}
