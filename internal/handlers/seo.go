package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/utils"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct {
	siteURL string
}

func NewSEOHandler(siteURL string) *SEOHandler {
	return &SEOHandler{siteURL: strings.TrimSuffix(siteURL, "/")}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /perfil
Disallow: /kanban
Disallow: /notificacoes
Disallow: /login
Disallow: /register
Disallow: /api/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

func sitemapURL(b *strings.Builder, loc, lastmod, changefreq string, priority float64) {
	fmt.Fprintf(b, `  <url>
    <loc>%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, escapeXML(loc), lastmod, changefreq, priority)
}

func (h *SEOHandler) SitemapXML(c *gin.Context) {
	now := time.Now().Format("2006-01-02")

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	sitemapURL(&b, h.siteURL+"/home", now, "daily", 1.0)
	sitemapURL(&b, h.siteURL+"/noticias", now, "hourly", 0.9)
	sitemapURL(&b, h.siteURL+"/foruns", now, "hourly", 0.9)
	sitemapURL(&b, h.siteURL+"/materiais", now, "daily", 0.8)
	sitemapURL(&b, h.siteURL+"/comunidades", now, "weekly", 0.7)
	sitemapURL(&b, h.siteURL+"/eventos", now, "daily", 0.7)

	var communities []models.Community
	db.DB.Where("type = ?", models.CommunityPublic).Find(&communities)
	for _, cm := range communities {
		sitemapURL(&b, h.siteURL+"/c/"+cm.Slug, cm.UpdatedAt.Format("2006-01-02"), "daily", 0.6)
	}

	// general forum topics only; restricted community topics are not public
	var topics []models.Topic
	db.DB.Where("community_id IS NULL").Order("created_at DESC").Limit(500).Find(&topics)
	for _, t := range topics {
		freq, prio := "weekly", 0.5
		if time.Since(t.CreatedAt) < 7*24*time.Hour {
			freq, prio = "daily", 0.7
		}
		sitemapURL(&b, fmt.Sprintf("%s/foruns/%d", h.siteURL, t.ID), t.UpdatedAt.Format("2006-01-02"), freq, prio)
	}

	b.WriteString(`</urlset>`)
	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// NewsFeed is the RSS 2.0 feed of the 20 latest news.
func (h *SEOHandler) NewsFeed(c *gin.Context) {
	var news []models.News
	db.DB.Order("published_at DESC").Limit(20).Find(&news)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>SIIF - Notícias</title>
    <link>` + h.siteURL + `/noticias</link>
    <description>Notícias dos campi e da comunidade acadêmica</description>
    <language>pt-BR</language>
    <lastBuildDate>` + time.Now().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/noticias/feed.xml" rel="self" type="application/rss+xml"/>
`)

	for _, n := range news {
		link := fmt.Sprintf("%s/noticias/%d", h.siteURL, n.ID)
		summary := strings.ReplaceAll(utils.Excerpt(utils.StripHTML(n.Content), 400), "]]>", "]]&gt;")
		b.WriteString(`    <item>
      <title>` + escapeXML(n.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + summary + `]]></description>
      <category>` + escapeXML(n.Category) + `</category>
      <pubDate>` + n.PublishedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`)
	}

	b.WriteString(`  </channel>
</rss>`)
	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}
