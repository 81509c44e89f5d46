package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"siif/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	portalItemLimit = 10
	PortalCampus    = "Reitoria"
	PortalCategory  = "Notícia Portal"
)

var (
	daysRe    = regexp.MustCompile(`(\d+)\s*dias?`)
	hoursRe   = regexp.MustCompile(`(\d+)\s*horas?`)
	minutesRe = regexp.MustCompile(`(\d+)\s*minutos?`)
)

// ParseRelativeDate understands "há 2 dias", "3 horas", "1 dia e 5 minutos".
// Anything else resolves to now.
func ParseRelativeDate(text string, now time.Time) time.Time {
	text = strings.ToLower(text)
	var delta time.Duration
	if m := daysRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		delta += time.Duration(n) * 24 * time.Hour
	}
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		delta += time.Duration(n) * time.Hour
	}
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		delta += time.Duration(n) * time.Minute
	}
	return now.Add(-delta)
}

func absoluteURL(domain, href string) string {
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return domain + href
	}
	return href
}

// PortalScraper reads the news grid of the campus portal.
type PortalScraper struct {
	URL    string
	Domain string
	client *http.Client
}

func NewPortalScraper(pageURL, domain string) *PortalScraper {
	return &PortalScraper{
		URL:    pageURL,
		Domain: strings.TrimSuffix(domain, "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PortalScraper) Fetch(ctx context.Context) ([]models.News, error) {
	body, err := fetchPage(ctx, p.client, p.URL)
	if err != nil {
		return nil, err
	}
	return ParsePortalHTML(bytes.NewReader(body), p.Domain, time.Now())
}

// ParsePortalHTML extracts up to ten items from the "a.grid-item" cards.
func ParsePortalHTML(r io.Reader, domain string, now time.Time) ([]models.News, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse portal page: %w", err)
	}

	items := doc.Find("a.grid-item")
	if items.Length() == 0 {
		log.Println("Portal scraper: no a.grid-item found")
		return nil, nil
	}

	var out []models.News
	items.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= portalItemLimit {
			return false
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		title := strings.TrimSpace(s.Find("h3").First().Text())
		if title == "" {
			title = "Sem Título"
		}

		n := models.News{
			Title:        title,
			Content:      strings.TrimSpace(s.Find(".subtitulo").First().Text()),
			ExternalLink: absoluteURL(domain, strings.TrimSpace(href)),
			PublishedAt:  ParseRelativeDate(strings.TrimSpace(s.Find(".date").First().Text()), now),
			Campus:       PortalCampus,
			Category:     PortalCategory,
			Source:       models.NewsSourcePortal,
		}
		if src, ok := s.Find("img").First().Attr("src"); ok && src != "" {
			n.ImageURL = absoluteURL(domain, src)
		}
		out = append(out, n)
		return true
	})
	return out, nil
}
