package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"siif/internal/models"

	"github.com/mmcdole/gofeed"
)

// RSSSource reads extra news feeds (campus blogs, other portals).
type RSSSource struct {
	parser *gofeed.Parser
}

func NewRSSSource() *RSSSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}
	return &RSSSource{parser: parser}
}

func (f *RSSSource) Fetch(ctx context.Context, feedURL string) ([]models.News, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return FeedToNews(feed), nil
}

// FeedToNews maps feed items to unsaved News rows.
func FeedToNews(feed *gofeed.Feed) []models.News {
	var out []models.News
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			link = strings.TrimSpace(item.GUID)
		}
		if link == "" {
			continue
		}

		published := time.Now()
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		n := models.News{
			Title:        strings.TrimSpace(item.Title),
			Content:      content,
			ExternalLink: link,
			PublishedAt:  published,
			Campus:       feed.Title,
			Category:     "Feed",
			Source:       models.NewsSourceRSS,
		}
		if len(item.Categories) > 0 {
			n.Category = item.Categories[0]
		}
		if item.Image != nil {
			n.ImageURL = item.Image.URL
		}
		out = append(out, n)
	}
	return out
}
