package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	SUAP       SUAPConfig
	SMTP       SMTPConfig
	News       NewsConfig
	Moderation ModerationConfig
	RateLimit  RateLimitConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port          string
	SiteURL       string
	SessionSecret string
	UploadDir     string
	MaxUploadMB   int64
	Mode          string
}

type DatabaseConfig struct {
	Driver string // postgres, sqlite
	DSN    string
}

type SUAPConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	RedirectURL  string
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type NewsConfig struct {
	PortalURL      string
	PortalDomain   string
	FeedURLs       []string
	Cron           string
	FetchAtStartup bool
}

type ModerationConfig struct {
	BannedWords []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type AdminConfig struct {
	Matricula string
	Email     string
	Password  string
}

// C holds the configuration loaded by Load.
var C = Default()

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			SiteURL:       "http://localhost:8080",
			SessionSecret: "secret_key_change_me",
			UploadDir:     "./uploads",
			MaxUploadMB:   25,
			Mode:          "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "siif.db",
		},
		SUAP: SUAPConfig{
			BaseURL:     "https://suap.ifrn.edu.br",
			RedirectURL: "http://localhost:8080/auth/suap/callback",
		},
		News: NewsConfig{
			PortalURL:    "https://portal.ifrn.edu.br/campus/reitoria/noticias/",
			PortalDomain: "https://portal.ifrn.edu.br",
			Cron:         "@every 1h",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             40,
		},
	}
}

// Load reads .env, an optional config.yaml and SIIF_* environment variables.
// Environment variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("SIIF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetString("server.port"),
			SiteURL:       strings.TrimSuffix(v.GetString("server.site_url"), "/"),
			SessionSecret: v.GetString("server.session_secret"),
			UploadDir:     v.GetString("server.upload_dir"),
			MaxUploadMB:   v.GetInt64("server.max_upload_mb"),
			Mode:          v.GetString("server.mode"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		SUAP: SUAPConfig{
			ClientID:     v.GetString("suap.client_id"),
			ClientSecret: v.GetString("suap.client_secret"),
			BaseURL:      strings.TrimSuffix(v.GetString("suap.base_url"), "/"),
			RedirectURL:  v.GetString("suap.redirect_url"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetString("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		News: NewsConfig{
			PortalURL:      v.GetString("news.portal_url"),
			PortalDomain:   strings.TrimSuffix(v.GetString("news.portal_domain"), "/"),
			FeedURLs:       splitList(v.GetStringSlice("news.feed_urls")),
			Cron:           v.GetString("news.cron"),
			FetchAtStartup: v.GetBool("news.fetch_at_startup"),
		},
		Moderation: ModerationConfig{
			BannedWords: splitList(v.GetStringSlice("moderation.banned_words")),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("rate_limit.requests_per_second"),
			Burst:             v.GetInt("rate_limit.burst"),
		},
		Admin: AdminConfig{
			Matricula: v.GetString("admin.matricula"),
			Email:     v.GetString("admin.email"),
			Password:  v.GetString("admin.password"),
		},
	}

	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	C = cfg
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.site_url", d.Server.SiteURL)
	v.SetDefault("server.session_secret", d.Server.SessionSecret)
	v.SetDefault("server.upload_dir", d.Server.UploadDir)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("suap.client_id", "")
	v.SetDefault("suap.client_secret", "")
	v.SetDefault("suap.base_url", d.SUAP.BaseURL)
	v.SetDefault("suap.redirect_url", d.SUAP.RedirectURL)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", "")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("news.portal_url", d.News.PortalURL)
	v.SetDefault("news.portal_domain", d.News.PortalDomain)
	v.SetDefault("news.feed_urls", []string{})
	v.SetDefault("news.cron", d.News.Cron)
	v.SetDefault("news.fetch_at_startup", false)
	v.SetDefault("moderation.banned_words", []string{})
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
	v.SetDefault("admin.matricula", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
