package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"siif/internal/models"
	"siif/internal/testutil"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sessionRouter(userID uint) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("siif_session", cookie.NewStore([]byte("segredo-de-teste"))))
	r.GET("/entrar", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, userID)
		s.Save()
		c.Status(http.StatusOK)
	})
	r.GET("/eu", LoadUser(), func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func sessionCookie(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	w := perform(r, "GET", "/entrar")
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func getWithCookie(r http.Handler, path string, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(ck)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadUserKeepsSessionOnDBError(t *testing.T) {
	conn := testutil.SetupDB(t)
	u := testutil.CreateUser(t, conn, "2021001", false)
	r := sessionRouter(u.ID)
	ck := sessionCookie(t, r)

	assert.Equal(t, http.StatusOK, getWithCookie(r, "/eu", ck).Code)

	require.NoError(t, conn.Callback().Query().Before("gorm:query").Register("test:falha", func(tx *gorm.DB) {
		tx.AddError(errors.New("banco indisponível"))
	}))
	w := getWithCookie(r, "/eu", ck)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Set-Cookie"))

	require.NoError(t, conn.Callback().Query().Remove("test:falha"))
	assert.Equal(t, http.StatusOK, getWithCookie(r, "/eu", ck).Code)
}

func TestLoadUserClearsSessionForMissingOrBannedUser(t *testing.T) {
	conn := testutil.SetupDB(t)
	banned := testutil.CreateUser(t, conn, "2021001", false)
	require.NoError(t, conn.Model(banned).Update("is_banned", true).Error)

	r := sessionRouter(banned.ID)
	w := getWithCookie(r, "/eu", sessionCookie(t, r))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))

	r = sessionRouter(9999)
	w = getWithCookie(r, "/eu", sessionCookie(t, r))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))

	var n int64
	conn.Model(&models.User{}).Count(&n)
	assert.Equal(t, int64(1), n)
}
