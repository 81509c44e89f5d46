package main

import (
	"log"

	"siif/internal/config"
	"siif/internal/db"
	"siif/internal/router"
	"siif/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// Initialize Database
	db.Init(cfg)

	// async relevance worker
	services.GetRankingService()

	svc := router.NewServices(cfg)

	scheduler, err := services.StartScheduler(cfg.News, svc.Aggregator)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	r, err := router.New(cfg, svc)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	log.Printf("SIIF server starting on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
