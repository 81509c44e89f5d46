package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"siif/internal/config"
	"siif/internal/models"
	"siif/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSUAP answers the token and /api/eu/ endpoints for one student.
func fakeSUAP(t *testing.T, me map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/o/token/", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") != "abc" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-teste", "token_type": "Bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/api/eu/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-teste" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(me)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupSUAP(t *testing.T, me map[string]string) *env {
	srv := fakeSUAP(t, me)
	return setup(t, func(cfg *config.Config) {
		cfg.SUAP = config.SUAPConfig{
			ClientID:     "siif",
			ClientSecret: "segredo",
			BaseURL:      srv.URL,
			RedirectURL:  "http://example.com/auth/suap/callback",
		}
	})
}

// suapLogin starts the flow and returns the state sent to the provider.
func suapLogin(t *testing.T, c *client, next string) string {
	t.Helper()
	w := c.get("/auth/suap/login?next=" + url.QueryEscape(next))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/o/authorize/", loc.Path)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

var anaSUAP = map[string]string{
	"identificacao": "20231012345",
	"nome_usual":    "Ana Souza",
	"email":         "ana@escolar.ifrn.edu.br",
	"campus":        "CNAT",
}

func TestSUAPCallbackCreatesAndSignsIn(t *testing.T) {
	e := setupSUAP(t, anaSUAP)
	c := e.client(t)

	state := suapLogin(t, c, "/kanban")
	w := c.get("/auth/suap/callback?code=abc&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/kanban", w.Header().Get("Location"))

	var u models.User
	require.NoError(t, e.conn.Where("suap_id = ?", "20231012345").First(&u).Error)
	assert.Equal(t, "Ana Souza", u.Name)
	assert.Equal(t, "CNAT", u.Campus)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, http.StatusOK, c.get("/perfil").Code)

	// a second login reuses the linked account
	c2 := e.client(t)
	state = suapLogin(t, c2, "")
	w = c2.get("/auth/suap/callback?code=abc&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
	var n int64
	e.conn.Model(&models.User{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestSUAPCallbackRejectsBadStateAndCode(t *testing.T) {
	e := setupSUAP(t, anaSUAP)
	c := e.client(t)

	w := c.get("/auth/suap/callback?code=abc&state=forjado")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	state := suapLogin(t, c, "")
	w = c.get("/auth/suap/callback?code=abc&state=" + url.QueryEscape(state+"x"))
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// the state is single use
	w = c.get("/auth/suap/callback?code=abc&state=" + url.QueryEscape(state))
	assert.Equal(t, "/login", w.Header().Get("Location"))

	state = suapLogin(t, c, "")
	w = c.get("/auth/suap/callback?code=errado&state=" + url.QueryEscape(state))
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var n int64
	e.conn.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
	assert.Equal(t, http.StatusFound, c.get("/perfil").Code)
}

func TestSUAPCallbackRefusesBannedUser(t *testing.T) {
	e := setupSUAP(t, anaSUAP)
	c := e.client(t)
	state := suapLogin(t, c, "")
	require.Equal(t, "/home", c.get("/auth/suap/callback?code=abc&state="+url.QueryEscape(state)).Header().Get("Location"))

	require.NoError(t, e.conn.Model(&models.User{}).Where("suap_id = ?", "20231012345").Update("is_banned", true).Error)

	fresh := e.client(t)
	state = suapLogin(t, fresh, "")
	w := fresh.get("/auth/suap/callback?code=abc&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, http.StatusFound, fresh.get("/perfil").Code)
}

func TestSUAPCallbackDoesNotLinkLocalAccount(t *testing.T) {
	e := setupSUAP(t, map[string]string{
		"identificacao":      "20231012345",
		"nome_usual":         "Intruso",
		"email_preferencial": "2021001@escolar.ifrn.edu.br",
	})
	local := testutil.CreateUser(t, e.conn, "2021001", false)
	c := e.client(t)

	state := suapLogin(t, c, "")
	w := c.get("/auth/suap/callback?code=abc&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, http.StatusFound, c.get("/perfil").Code)

	var got models.User
	require.NoError(t, e.conn.First(&got, local.ID).Error)
	assert.Empty(t, got.SUAPID)
	assert.Equal(t, "Usuário 2021001", got.Name)

	// the owner still signs in with the password
	e.login(t, local)
}
