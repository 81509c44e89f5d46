// Package testutil wires an in-memory sqlite database into db.DB for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"siif/internal/config"
	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupDB replaces db.DB with a fresh migrated database private to t.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(conn))

	prev := db.DB
	db.DB = conn
	t.Cleanup(func() {
		db.DB = prev
		sqlDB.Close()
	})
	return conn
}

// CreateUser inserts a user with password "senha123".
func CreateUser(t *testing.T, conn *gorm.DB, matricula string, admin bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("senha123")
	require.NoError(t, err)
	u := &models.User{
		Matricula:    matricula,
		Name:         "Usuário " + matricula,
		Email:        matricula + "@escolar.ifrn.edu.br",
		PasswordHash: hash,
		IsAdmin:      admin,
		Profile:      &models.Profile{},
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

// CreateTopic inserts a topic in the general forum unless communityID is set.
func CreateTopic(t *testing.T, conn *gorm.DB, author *models.User, title string, communityID *uint) *models.Topic {
	t.Helper()
	topic := &models.Topic{Title: title, Content: "conteúdo de " + title, AuthorID: author.ID, CommunityID: communityID}
	require.NoError(t, conn.Create(topic).Error)
	return topic
}
