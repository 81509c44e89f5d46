package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Server.Port, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, d.RateLimit.Burst, cfg.RateLimit.Burst)
	assert.Equal(t, "@every 1h", cfg.News.Cron)
	assert.Empty(t, cfg.Moderation.BannedWords)
	assert.Same(t, cfg, C)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := `
server:
  port: "9090"
  site_url: https://siif.example.com/
news:
  feed_urls:
    - https://a.example.com/rss
    - https://b.example.com/rss
moderation:
  banned_words: [spam]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("SIIF_SERVER_PORT", "7070")
	t.Setenv("SIIF_RATE_LIMIT_BURST", "5")
	t.Setenv("SIIF_SUAP_CLIENT_ID", "abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "https://siif.example.com", cfg.Server.SiteURL)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, "abc", cfg.SUAP.ClientID)
	assert.Equal(t, []string{"https://a.example.com/rss", "https://b.example.com/rss"}, cfg.News.FeedURLs)
	assert.Equal(t, []string{"spam"}, cfg.Moderation.BannedWords)
}

func TestLoadCommaSeparatedEnvList(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SIIF_MODERATION_BANNED_WORDS", "proibido,feio")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"proibido", "feio"}, cfg.Moderation.BannedWords)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SIIF_DATABASE_DRIVER", "mysql")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{" a, b", "", "c,"}))
	assert.Nil(t, splitList(nil))
}
