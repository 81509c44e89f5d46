package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CrawlerService extracts the readable body of an article page.
type CrawlerService struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
}

func NewCrawlerService() *CrawlerService {
	return &CrawlerService{
		client:    &http.Client{Timeout: 30 * time.Second},
		sanitizer: bluemonday.UGCPolicy(),
	}
}

var (
	crawlerService *CrawlerService
	crawlerOnce    sync.Once
)

func GetCrawlerService() *CrawlerService {
	crawlerOnce.Do(func() {
		crawlerService = NewCrawlerService()
	})
	return crawlerService
}

func fetchPage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FetchArticleContent downloads url and returns its sanitized main content.
func (s *CrawlerService) FetchArticleContent(ctx context.Context, url string) (string, error) {
	body, err := fetchPage(ctx, s.client, url)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), nil)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}
	return s.sanitizer.Sanitize(article.Content), nil
}

// FetchWithFallback returns "" instead of an error.
func (s *CrawlerService) FetchWithFallback(ctx context.Context, url string) string {
	content, err := s.FetchArticleContent(ctx, url)
	if err != nil {
		return ""
	}
	return content
}
