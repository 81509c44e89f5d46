package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"siif/internal/config"

	"github.com/robfig/cron/v3"
)

// StartScheduler registers the background jobs and starts the cron runner.
// Callers stop it with the returned *cron.Cron.
func StartScheduler(cfg config.NewsConfig, agg *NewsAggregator) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(cfg.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("Starting scheduled news aggregation...")
		if _, err := agg.Run(ctx); err != nil {
			log.Printf("News aggregation failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid news cron %q: %w", cfg.Cron, err)
	}

	// recompute relevance of recent topics once a day
	if _, err := c.AddFunc("0 3 * * *", func() {
		GetRankingService().RefreshRecent()
	}); err != nil {
		return nil, err
	}

	c.Start()

	if cfg.FetchAtStartup {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := agg.Run(ctx); err != nil {
				log.Printf("Initial news aggregation failed: %v", err)
			}
		}()
	}
	return c, nil
}
