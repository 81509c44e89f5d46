package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"siif/internal/middleware"
	"siif/internal/models"
	"siif/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// FlashMessage is shown once on the next rendered page.
type FlashMessage struct {
	Category string // success, danger, warning, info
	Message  string
}

const flashKey = "_flash"

// Flash queues a message for the next page.
func Flash(c *gin.Context, category, message string) {
	session := sessions.Default(c)
	session.AddFlash(category+"|"+message, flashKey)
	session.Save()
}

func popFlashes(c *gin.Context) []FlashMessage {
	session := sessions.Default(c)
	raw := session.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	session.Save()

	out := make([]FlashMessage, 0, len(raw))
	for _, f := range raw {
		s, ok := f.(string)
		if !ok {
			continue
		}
		cat, msg, found := strings.Cut(s, "|")
		if !found {
			cat, msg = "info", s
		}
		out = append(out, FlashMessage{Category: cat, Message: msg})
	}
	return out
}

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
		if count, ok := c.Get(middleware.UnreadCountKey); ok {
			obj["UnreadCount"] = int(count.(int64))
		} else {
			obj["UnreadCount"] = 0
		}
	}

	obj["CurrentPath"] = c.Request.URL.Path
	obj["Flashes"] = popFlashes(c)

	c.HTML(code, name, obj)
}

// HtmxRedirect lets HTMX follow the redirect on the client side.
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code, "Title": "Erro"})
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// redirect answers HTMX requests with HX-Redirect and the rest with 302.
func redirect(c *gin.Context, path string) {
	if isHTMX(c) {
		HtmxRedirect(c, path)
		return
	}
	c.Redirect(http.StatusFound, path)
}

// redirectBack returns to the Referer when it is local, otherwise fallback.
func redirectBack(c *gin.Context, fallback string) {
	ref := c.Request.Referer()
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 && strings.HasPrefix(ref, requestOrigin(c)) {
			ref = rest[j:]
		} else {
			ref = ""
		}
	}
	if !utils.IsSafeRedirect(ref) {
		ref = fallback
	}
	redirect(c, ref)
}

func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func jsonError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"erro": message})
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func pageParam(c *gin.Context) int {
	if p := utils.StringToInt(c.Query("page")); p > 0 {
		return p
	}
	return 1
}

func totalPages(total int64, perPage int) int {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages == 0 {
		return 1
	}
	return pages
}
