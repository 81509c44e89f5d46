package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"siif/internal/config"
	"siif/internal/models"
	"siif/internal/testutil"
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// client keeps the session cookie between requests, like a browser.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	setHeaders(req, headers)
	return c.do(req)
}

func (c *client) post(path string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	setHeaders(req, headers)
	return c.do(req)
}

func setHeaders(req *http.Request, headers []string) {
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
}

type env struct {
	conn *gorm.DB
	cfg  *config.Config
	r    *gin.Engine
}

// setup builds the engine over a fresh database; opts adjust the config first.
func setup(t *testing.T, opts ...func(*config.Config)) *env {
	t.Helper()
	conn := testutil.SetupDB(t)
	utils.GetCache().DeletePrefix("")

	cfg := config.Default()
	cfg.Server.SiteURL = "http://example.com"
	cfg.Server.UploadDir = t.TempDir()
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	for _, opt := range opts {
		opt(cfg)
	}

	r, err := New(cfg, NewServices(cfg))
	require.NoError(t, err)
	return &env{conn: conn, cfg: cfg, r: r}
}

func (e *env) client(t *testing.T) *client {
	return &client{t: t, handler: e.r, cookies: map[string]*http.Cookie{}}
}

// login signs in a user created by testutil.CreateUser.
func (e *env) login(t *testing.T, u *models.User) *client {
	t.Helper()
	c := e.client(t)
	w := c.post("/login", url.Values{"matricula": {u.Matricula}, "password": {"senha123"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/home", w.Header().Get("Location"))
	return c
}

func TestPublicPages(t *testing.T) {
	e := setup(t)
	c := e.client(t)

	for _, path := range []string{
		"/home", "/foruns", "/noticias", "/comunidades", "/materiais", "/eventos",
		"/mapa", "/suporte", "/login", "/register", "/robots.txt", "/sitemap.xml",
		"/noticias/feed.xml", "/api/noticias", "/api/eventos", "/api/mapa/pontos",
	} {
		w := c.get(path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := c.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	w = c.get("/perfil")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fperfil", w.Header().Get("Location"))

	w = c.get("/foruns/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	e := setup(t)
	c := e.client(t)

	form := url.Values{
		"matricula": {"20211014040001"}, "name": {"Ana Souza"}, "email": {"Ana@IFRN.edu.br"},
		"password": {"segredo1"}, "password_confirm": {"segredo1"},
	}
	w := c.post("/register", form)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = c.post("/register", form)
	assert.Equal(t, http.StatusConflict, w.Code)

	var user models.User
	require.NoError(t, e.conn.Where("matricula = ?", "20211014040001").First(&user).Error)
	assert.Equal(t, "ana@ifrn.edu.br", user.Email)

	w = c.post("/login", url.Values{"matricula": {"20211014040001"}, "password": {"errada"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.post("/login", url.Values{"matricula": {"20211014040001"}, "password": {"segredo1"}, "next": {"/kanban"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/kanban", w.Header().Get("Location"))

	w = c.get("/perfil")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ana Souza")

	c.get("/logout")
	assert.Equal(t, http.StatusFound, c.get("/perfil").Code)
}

func TestBannedUserCannotLogin(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	require.NoError(t, e.conn.Model(u).Update("is_banned", true).Error)

	w := e.client(t).post("/login", url.Values{"matricula": {u.Matricula}, "password": {"senha123"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func topicIDFrom(t *testing.T, location string) uint {
	t.Helper()
	m := regexp.MustCompile(`^/foruns/(\d+)`).FindStringSubmatch(location)
	require.NotNil(t, m, location)
	id, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	return uint(id)
}

func TestForumFlow(t *testing.T) {
	e := setup(t)
	author := testutil.CreateUser(t, e.conn, "2021001", false)
	other := testutil.CreateUser(t, e.conn, "2021002", false)
	ca, co := e.login(t, author), e.login(t, other)

	w := ca.post("/foruns/novo", url.Values{
		"title": {"Horário da biblioteca"}, "content": {"Alguém sabe o **horário**?"},
		"opcoes": {"Manhã", "Tarde", ""},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	topicID := topicIDFrom(t, w.Header().Get("Location"))
	base := fmt.Sprintf("/foruns/%d", topicID)

	var options []models.PollOption
	require.NoError(t, e.conn.Where("topic_id = ?", topicID).Order("position").Find(&options).Error)
	require.Len(t, options, 2)

	w = ca.get(base)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Horário da biblioteca")
	assert.Contains(t, w.Body.String(), "<strong>horário</strong>")

	// reply from another user notifies the author
	w = co.post(base+"/responder", url.Values{"content": {"Das 8h às 21h."}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), base+"#resposta-")

	var reply models.Reply
	require.NoError(t, e.conn.Where("topic_id = ?", topicID).First(&reply).Error)

	// nested reply from the author notifies the first replier
	w = ca.post(base+"/responder", url.Values{"content": {"Obrigado!"}, "parent_id": {strconv.Itoa(int(reply.ID))}})
	require.Equal(t, http.StatusFound, w.Code)

	var notes int64
	e.conn.Model(&models.Notification{}).Where("user_id = ?", author.ID).Count(&notes)
	assert.Equal(t, int64(1), notes)
	e.conn.Model(&models.Notification{}).Where("user_id = ?", other.ID).Count(&notes)
	assert.Equal(t, int64(1), notes)

	// like toggles and returns the partial for HTMX
	w = co.post(base+"/curtir", nil, "HX-Request", "true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bi-heart-fill")
	w = co.post(base+"/curtir", nil, "HX-Request", "true")
	assert.Contains(t, w.Body.String(), `bi bi-heart"`)

	w = co.post(base+"/salvar", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	w = co.get("/salvos")
	assert.Contains(t, w.Body.String(), "Horário da biblioteca")

	// poll: one vote per user
	w = co.post(base+"/votar", url.Values{"option_id": {strconv.Itoa(int(options[1].ID))}})
	assert.Equal(t, http.StatusFound, w.Code)
	co.post(base+"/votar", url.Values{"option_id": {strconv.Itoa(int(options[0].ID))}})
	var votes int64
	e.conn.Model(&models.PollVote{}).Where("topic_id = ?", topicID).Count(&votes)
	assert.Equal(t, int64(1), votes)

	// only the author edits
	w = co.get(base + "/editar")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ca.post(base+"/editar", url.Values{"title": {"Horário da biblioteca central"}, "content": {"Atualizado"}})
	assert.Equal(t, http.StatusFound, w.Code)

	var topic models.Topic
	require.NoError(t, e.conn.First(&topic, topicID).Error)
	assert.Equal(t, "Horário da biblioteca central", topic.Title)

	w = ca.post(base+"/excluir", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.ErrorIs(t, e.conn.First(&models.Topic{}, topicID).Error, gorm.ErrRecordNotFound)
}

func TestForumModerationAndPollValidation(t *testing.T) {
	e := setup(t, func(cfg *config.Config) {
		cfg.Moderation.BannedWords = []string{"proibido"}
	})

	u := testutil.CreateUser(t, e.conn, "2021001", false)
	c := e.login(t, u)

	w := c.post("/foruns/novo", url.Values{"title": {"Algo PROIBIDO"}, "content": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = c.post("/foruns/novo", url.Values{"title": {"Enquete"}, "content": {"x"}, "opcoes": {"só uma"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	e.conn.Model(&models.Topic{}).Count(&count)
	assert.Zero(t, count)
}

func TestLockedTopicRejectsReplies(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	topic := testutil.CreateTopic(t, e.conn, u, "Trancado", nil)
	require.NoError(t, e.conn.Model(topic).Update("locked", true).Error)

	c := e.login(t, u)
	c.post(fmt.Sprintf("/foruns/%d/responder", topic.ID), url.Values{"content": {"oi"}})

	var replies int64
	e.conn.Model(&models.Reply{}).Count(&replies)
	assert.Zero(t, replies)
}

func TestRestrictedCommunity(t *testing.T) {
	e := setup(t)
	owner := testutil.CreateUser(t, e.conn, "2021001", false)
	student := testutil.CreateUser(t, e.conn, "2021002", false)
	co, cs := e.login(t, owner), e.login(t, student)

	w := co.post("/comunidades", url.Values{"name": {"Monitoria de Cálculo"}, "type": {"restricted"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/c/monitoria-de-calculo", w.Header().Get("Location"))

	var community models.Community
	require.NoError(t, e.conn.Where("slug = ?", "monitoria-de-calculo").First(&community).Error)

	w = co.post("/foruns/novo", url.Values{
		"title": {"Lista 3"}, "content": {"Resolução"}, "community_id": {strconv.Itoa(int(community.ID))},
	})
	require.Equal(t, http.StatusFound, w.Code)
	topicPath := w.Header().Get("Location")

	assert.Equal(t, http.StatusForbidden, cs.get(topicPath).Code)
	assert.NotContains(t, cs.get("/foruns").Body.String(), "Lista 3")

	w = cs.post("/foruns/novo", url.Values{
		"title": {"Intruso"}, "content": {"x"}, "community_id": {strconv.Itoa(int(community.ID))},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	cs.post("/c/monitoria-de-calculo/entrar", nil)
	var req models.CommunityRequest
	require.NoError(t, e.conn.Where("user_id = ?", student.ID).First(&req).Error)

	w = cs.post(fmt.Sprintf("/c/monitoria-de-calculo/solicitacoes/%d/aprovar", req.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = co.post(fmt.Sprintf("/c/monitoria-de-calculo/solicitacoes/%d/aprovar", req.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, http.StatusOK, cs.get(topicPath).Code)

	var audit int64
	e.conn.Model(&models.AuditLog{}).Where("action = ?", "community.approve").Count(&audit)
	assert.Equal(t, int64(1), audit)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestMaterials(t *testing.T) {
	e := setup(t)
	author := testutil.CreateUser(t, e.conn, "2021001", false)
	other := testutil.CreateUser(t, e.conn, "2021002", false)
	ca, co := e.login(t, author), e.login(t, other)

	body, ctype := multipartBody(t, map[string]string{
		"title": "Apostila de Redes", "nova_categoria": "informática", "tags": "redes, TCP",
	}, "arquivo", "apostila redes.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/materiais/adicionar", body)
	req.Header.Set("Content-Type", ctype)
	w := ca.do(req)
	require.Equal(t, http.StatusFound, w.Code)

	var material models.Material
	require.NoError(t, e.conn.Preload("Tags").First(&material).Error)
	assert.Equal(t, "Informática", material.Category)
	assert.Equal(t, "materiais/apostila_redes.pdf", material.FilePath)
	assert.Len(t, material.Tags, 2)

	body, ctype = multipartBody(t, map[string]string{"title": "Cópia", "categoria": "Informática"},
		"arquivo", "apostila redes.pdf", []byte("outro"))
	req = httptest.NewRequest(http.MethodPost, "/materiais/adicionar", body)
	req.Header.Set("Content-Type", ctype)
	ca.do(req)
	var count int64
	e.conn.Model(&models.Material{}).Count(&count)
	assert.Equal(t, int64(1), count)

	w = co.get(fmt.Sprintf("/materiais/download/%d", material.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	w = co.get("/materiais?q=redes")
	assert.Contains(t, w.Body.String(), "Apostila de Redes")

	w = co.post(fmt.Sprintf("/materiais/%d/favoritar", material.ID), nil, "HX-Request", "true")
	assert.Equal(t, http.StatusOK, w.Code)
	e.conn.Model(&models.MaterialFavorite{}).Count(&count)
	assert.Equal(t, int64(1), count)

	w = co.post(fmt.Sprintf("/materiais/excluir/%d", material.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ca.post(fmt.Sprintf("/materiais/excluir/%d", material.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	e.conn.Model(&models.Material{}).Count(&count)
	assert.Zero(t, count)
	e.conn.Model(&models.MaterialFavorite{}).Count(&count)
	assert.Zero(t, count)
}

func TestMaterialLinkDownloadCounts(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	c := e.login(t, u)

	w := c.post("/materiais/adicionar", url.Values{
		"title": {"Vídeo-aula"}, "categoria": {"Física"}, "link": {"https://youtu.be/abc"},
	})
	require.Equal(t, http.StatusFound, w.Code)

	var m models.Material
	require.NoError(t, e.conn.First(&m).Error)
	w = c.get(fmt.Sprintf("/materiais/download/%d", m.ID))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://youtu.be/abc", w.Header().Get("Location"))

	require.NoError(t, e.conn.First(&m, m.ID).Error)
	assert.Equal(t, 1, m.DownloadCount)
}

func TestNotifications(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	n := models.Notification{UserID: u.ID, Message: "Olá", LinkURL: "/foruns/1"}
	require.NoError(t, e.conn.Create(&n).Error)
	require.NoError(t, e.conn.Create(&models.Notification{UserID: u.ID, Message: "Outra"}).Error)
	c := e.login(t, u)

	w := c.get("/notificacoes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Olá")

	w = c.post(fmt.Sprintf("/notificacoes/%d/lida", n.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/foruns/1", w.Header().Get("Location"))

	c.post("/notificacoes/lidas", nil)
	var unread int64
	e.conn.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", u.ID, false).Count(&unread)
	assert.Zero(t, unread)

	c.post(fmt.Sprintf("/notificacoes/%d/excluir", n.ID), nil)
	var total int64
	e.conn.Model(&models.Notification{}).Count(&total)
	assert.Equal(t, int64(1), total)
}

func TestReportsAndAdmin(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.conn, "admin01", true)
	student := testutil.CreateUser(t, e.conn, "2021001", false)
	topic := testutil.CreateTopic(t, e.conn, student, "Spam", nil)
	cadm, cs := e.login(t, admin), e.login(t, student)

	w := cs.post("/denunciar", url.Values{
		"target_type": {"topic"}, "target_id": {strconv.Itoa(int(topic.ID))},
		"tipo": {"Spam"}, "descricao": {"Propaganda"},
	})
	assert.Equal(t, http.StatusFound, w.Code)

	var report models.Report
	require.NoError(t, e.conn.First(&report).Error)
	require.NotNil(t, report.ReporterID)
	assert.Equal(t, models.ReportStatusReceived, report.Status)

	var adminNotes int64
	e.conn.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Count(&adminNotes)
	assert.Equal(t, int64(1), adminNotes)

	assert.Equal(t, http.StatusForbidden, cs.get("/admin").Code)
	assert.Equal(t, http.StatusOK, cadm.get("/admin").Code)
	assert.Equal(t, http.StatusOK, cadm.get("/admin/denuncias").Code)
	assert.Equal(t, http.StatusOK, cadm.get("/admin/usuarios?q=2021").Code)
	assert.Equal(t, http.StatusOK, cadm.get("/admin/auditoria").Code)
	assert.Equal(t, http.StatusOK, cadm.get("/admin/seguranca").Code)
	assert.Equal(t, http.StatusOK, cadm.get("/admin/faq").Code)

	status := models.ReportStatuses[len(models.ReportStatuses)-1]
	w = cadm.post(fmt.Sprintf("/admin/denuncias/%d/status", report.ID), url.Values{"status": {status}})
	assert.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, e.conn.First(&report, report.ID).Error)
	assert.Equal(t, status, report.Status)

	var studentNotes int64
	e.conn.Model(&models.Notification{}).Where("user_id = ?", student.ID).Count(&studentNotes)
	assert.Equal(t, int64(1), studentNotes)

	w = cadm.post(fmt.Sprintf("/admin/topicos/%d/fixar", topic.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	var pinned models.Topic
	require.NoError(t, e.conn.First(&pinned, topic.ID).Error)
	assert.True(t, pinned.Pinned)

	w = cadm.post(fmt.Sprintf("/admin/usuarios/%d/banir", student.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, http.StatusFound, cs.get("/perfil").Code)

	w = cadm.post(fmt.Sprintf("/admin/usuarios/%d/banir", admin.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	var self models.User
	require.NoError(t, e.conn.First(&self, admin.ID).Error)
	assert.False(t, self.IsBanned)

	var actions []string
	e.conn.Model(&models.AuditLog{}).Order("id").Pluck("action", &actions)
	assert.Equal(t, []string{"report.status", "topic.pin", "user.ban"}, actions)
}

func TestAdminFAQ(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.conn, "admin01", true)
	c := e.login(t, admin)

	w := c.post("/admin/faq", url.Values{"pergunta": {"Como acesso o Wi-Fi?"}, "resposta": {"Use sua matrícula."}, "categoria": {"Rede"}})
	assert.Equal(t, http.StatusFound, w.Code)

	var faq models.FAQ
	require.NoError(t, e.conn.Where("question = ?", "Como acesso o Wi-Fi?").First(&faq).Error)

	c.post(fmt.Sprintf("/admin/faq/%d", faq.ID), url.Values{"pergunta": {"Como acesso o Wi-Fi?"}, "resposta": {"Use matrícula e senha do SUAP."}})
	require.NoError(t, e.conn.First(&faq, faq.ID).Error)
	assert.Equal(t, "Use matrícula e senha do SUAP.", faq.Answer)

	w = e.client(t).get("/suporte?q=wi-fi")
	assert.Contains(t, w.Body.String(), "Como acesso o Wi-Fi?")

	c.post(fmt.Sprintf("/admin/faq/%d/excluir", faq.ID), nil)
	assert.ErrorIs(t, e.conn.First(&models.FAQ{}, faq.ID).Error, gorm.ErrRecordNotFound)
}

var captchaRe = regexp.MustCompile(`Quanto é (\d+) ([+-]) (\d+)\?`)

func solveCaptcha(t *testing.T, page string) string {
	t.Helper()
	m := captchaRe.FindStringSubmatch(page)
	require.NotNil(t, m, "captcha not found")
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	if m[2] == "-" {
		return strconv.Itoa(a - b)
	}
	return strconv.Itoa(a + b)
}

func TestAnonymousSupportReport(t *testing.T) {
	e := setup(t)
	testutil.CreateUser(t, e.conn, "admin01", true)
	c := e.client(t)

	require.Equal(t, http.StatusOK, c.get("/suporte").Code)
	w := c.post("/suporte", url.Values{"assunto": {"Assédio"}, "descricao": {"Relato"}, "captcha": {"999"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the error page carries a fresh challenge
	w = c.post("/suporte", url.Values{"assunto": {"Assédio"}, "descricao": {"Relato"}, "captcha": {solveCaptcha(t, w.Body.String())}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var report models.Report
	require.NoError(t, e.conn.First(&report).Error)
	assert.Nil(t, report.ReporterID)
	assert.Equal(t, models.ReportTargetSupport, report.TargetType)
	assert.Equal(t, "Outro", report.Kind)
	assert.True(t, strings.HasPrefix(report.Description, "Assunto: Assédio\n\n"))
}

func TestKanban(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	other := testutil.CreateUser(t, e.conn, "2021002", false)
	c, co := e.login(t, u), e.login(t, other)
	jsonHdr := []string{"Accept", "application/json"}

	var ids []uint
	for _, title := range []string{"Estudar cálculo", "Entregar relatório"} {
		w := c.post("/kanban", url.Values{"title": {title}, "due_date": {"2025-12-01"}}, jsonHdr...)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Task models.KanbanTask `json:"task"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		ids = append(ids, resp.Task.ID)
	}

	var second models.KanbanTask
	require.NoError(t, e.conn.First(&second, ids[1]).Error)
	assert.Equal(t, 1, second.Position)
	require.NotNil(t, second.DueDate)

	w := c.post(fmt.Sprintf("/kanban/%d/mover", ids[1]), url.Values{"column": {"doing"}, "position": {"0"}}, jsonHdr...)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, e.conn.First(&second, ids[1]).Error)
	assert.Equal(t, models.KanbanDoing, second.Column)

	w = co.post(fmt.Sprintf("/kanban/%d/excluir", ids[0]), nil, jsonHdr...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusOK, c.get("/kanban").Code)
	w = c.post(fmt.Sprintf("/kanban/%d/excluir", ids[0]), nil, jsonHdr...)
	assert.Equal(t, http.StatusOK, w.Code)

	var left int64
	e.conn.Model(&models.KanbanTask{}).Count(&left)
	assert.Equal(t, int64(1), left)
}

func TestEventsAPI(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.conn, "admin01", true)
	student := testutil.CreateUser(t, e.conn, "2021001", false)
	cadm, cs := e.login(t, admin), e.login(t, student)

	w := cs.post("/api/eventos", url.Values{"titulo": {"Hackathon"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = cadm.post("/api/eventos", url.Values{"titulo": {"Hackathon"}, "data": {"15/10"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ev models.Event
	require.NoError(t, e.conn.First(&ev).Error)
	assert.Equal(t, "Hackathon", ev.Description)
	assert.Equal(t, 15, ev.StartsAt.Day())

	w = e.client(t).get("/api/eventos", "Origin", "http://example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	var events []models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 1)

	w = cadm.do(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/eventos/%d", ev.ID), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBoletimWithoutSUAP(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	w := e.login(t, u).get("/boletim")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestKanbanMoveRenumbersSourceColumn(t *testing.T) {
	e := setup(t)
	u := testutil.CreateUser(t, e.conn, "2021001", false)
	c := e.login(t, u)
	jsonHdr := []string{"Accept", "application/json"}

	var ids []uint
	for _, title := range []string{"Ler capítulo 1", "Lista de exercícios", "Revisar prova"} {
		w := c.post("/kanban", url.Values{"title": {title}}, jsonHdr...)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Task models.KanbanTask `json:"task"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		ids = append(ids, resp.Task.ID)
	}

	w := c.post(fmt.Sprintf("/kanban/%d/mover", ids[0]), url.Values{"column": {"done"}, "position": {"0"}}, jsonHdr...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var todo []models.KanbanTask
	require.NoError(t, e.conn.Where("status = ?", models.KanbanTodo).Order("position ASC").Find(&todo).Error)
	require.Len(t, todo, 2)
	assert.Equal(t, ids[1], todo[0].ID)
	assert.Equal(t, 0, todo[0].Position)
	assert.Equal(t, ids[2], todo[1].ID)
	assert.Equal(t, 1, todo[1].Position)
}
