package middleware

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"siif/internal/db"
	"siif/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"

// SessionUserKey is the session field holding the logged-in user id.
const SessionUserKey = "user_id"

// CurrentUser returns the user set by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// AuthRequired sends anonymous visitors to /login?next=<path>.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"erro": "Autenticação necessária."})
				return
			}
			target := "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			if isHTMX(c) {
				c.Header("HX-Redirect", target)
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || !u.IsAdmin {
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"erro": "Acesso restrito a administradores."})
				return
			}
			c.HTML(http.StatusForbidden, "error.html", gin.H{
				"CurrentUser": u,
				"Code":        http.StatusForbidden,
				"Error":       "Acesso restrito a administradores.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets it in the context.
// Banned or deleted users are logged out.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserKey)

		if userID != nil {
			var user models.User
			err := db.DB.First(&user, userID).Error
			switch {
			case err == nil && !user.IsBanned:
				c.Set(CheckUserKey, &user)

				var count int64
				db.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", user.ID, false).Count(&count)
				c.Set(UnreadCountKey, count)
			case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
				session.Delete(SessionUserKey)
				session.Save()
			default:
				// Anonymous for this request only; the session survives DB errors.
				log.Printf("LoadUser %v: %v", userID, err)
			}
		}
		c.Next()
	}
}
