package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"siif/internal/config"
	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/utils"

	"gorm.io/gorm"
)

// NewsFetcher is one source of aggregated news.
type NewsFetcher interface {
	Fetch(ctx context.Context) ([]models.News, error)
}

// NewsFetcherFunc adapts a plain function to NewsFetcher.
type NewsFetcherFunc func(ctx context.Context) ([]models.News, error)

func (f NewsFetcherFunc) Fetch(ctx context.Context) ([]models.News, error) { return f(ctx) }

type feedFetcher struct {
	src *RSSSource
	url string
}

func (f feedFetcher) Fetch(ctx context.Context) ([]models.News, error) {
	return f.src.Fetch(ctx, f.url)
}

// NewsAggregator pulls the portal and the configured feeds into the News table.
type NewsAggregator struct {
	fetchers []NewsFetcher
	extract  func(ctx context.Context, url string) string
	running  sync.Mutex
}

func NewNewsAggregator(cfg config.NewsConfig) *NewsAggregator {
	var fetchers []NewsFetcher
	if cfg.PortalURL != "" {
		fetchers = append(fetchers, NewPortalScraper(cfg.PortalURL, cfg.PortalDomain))
	}
	rss := NewRSSSource()
	for _, u := range cfg.FeedURLs {
		fetchers = append(fetchers, feedFetcher{src: rss, url: u})
	}
	return &NewsAggregator{
		fetchers: fetchers,
		extract:  GetCrawlerService().FetchWithFallback,
	}
}

// NewNewsAggregatorWith builds an aggregator over explicit fetchers.
// extract may be nil to skip body extraction.
func NewNewsAggregatorWith(extract func(ctx context.Context, url string) string, fetchers ...NewsFetcher) *NewsAggregator {
	return &NewsAggregator{fetchers: fetchers, extract: extract}
}

// Run fetches every source and stores items whose link is not known yet.
// A failing source is logged and skipped. Returns the number of new rows.
func (a *NewsAggregator) Run(ctx context.Context) (int, error) {
	if !a.running.TryLock() {
		log.Println("News aggregation already running, skipping")
		return 0, nil
	}
	defer a.running.Unlock()

	var fresh []models.News
	seen := make(map[string]bool)
	for _, f := range a.fetchers {
		items, err := f.Fetch(ctx)
		if err != nil {
			log.Printf("News source failed: %v", err)
			continue
		}
		for _, n := range items {
			if n.ExternalLink == "" || seen[n.ExternalLink] {
				continue
			}
			seen[n.ExternalLink] = true

			var count int64
			if err := db.DB.Model(&models.News{}).Where("external_link = ?", n.ExternalLink).Count(&count).Error; err != nil {
				return 0, fmt.Errorf("check existing news: %w", err)
			}
			if count > 0 {
				continue
			}
			fresh = append(fresh, a.prepare(ctx, n))
		}
	}

	if len(fresh) == 0 {
		log.Println("No new news found")
		return 0, nil
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&fresh).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save news: %w", err)
	}
	utils.GetCache().Delete(utils.CacheKeyHome)
	log.Printf("%d new news saved", len(fresh))
	return len(fresh), nil
}

func (a *NewsAggregator) prepare(ctx context.Context, n models.News) models.News {
	if n.Source == models.NewsSourceRSS {
		n.Content = utils.SanitizeHTML(n.Content)
	}
	if strings.TrimSpace(utils.StripHTML(n.Content)) == "" && a.extract != nil {
		if body := a.extract(ctx, n.ExternalLink); body != "" {
			n.Content = utils.SanitizeHTML(body)
		}
	}
	if strings.TrimSpace(n.Content) == "" {
		n.Content = n.Title
	}
	if len([]rune(n.Title)) > 200 {
		n.Title = string([]rune(n.Title)[:200])
	}
	return n
}
