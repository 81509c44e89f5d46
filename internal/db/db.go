package db

import (
	"fmt"
	"log"
	"strings"

	"siif/internal/config"
	"siif/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured driver without touching the global.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dsn := cfg.DSN
		if strings.Contains(dsn, "?") {
			dsn += "&_foreign_keys=on"
		} else {
			dsn += "?_foreign_keys=on"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	return conn, nil
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Community{},
		&models.CommunityRequest{},
		&models.Topic{},
		&models.Reply{},
		&models.TopicLike{},
		&models.TopicSave{},
		&models.PollOption{},
		&models.PollVote{},
		&models.Tag{},
		&models.Material{},
		&models.MaterialFavorite{},
		&models.News{},
		&models.PointOfInterest{},
		&models.Event{},
		&models.Notification{},
		&models.Report{},
		&models.SupportTicket{},
		&models.FAQ{},
		&models.AuditLog{},
		&models.KanbanTask{},
	}
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}

// Init opens the database, migrates and seeds it. Failures are fatal.
func Init(cfg *config.Config) {
	var err error
	DB, err = Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	if err = Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	if err = Seed(DB, cfg.Admin); err != nil {
		log.Printf("Seeding failed: %v", err)
	}
}
