package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"siif/internal/models"
	"siif/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyMany(t *testing.T) {
	conn := testutil.SetupDB(t)
	a := testutil.CreateUser(t, conn, "2021001", false)
	b := testutil.CreateUser(t, conn, "2021002", false)

	sent, err := NotifyMany(conn, []uint{a.ID, b.ID, a.ID, 0}, b.ID, "Olá", "/foruns/1")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	var notes []models.Notification
	conn.Find(&notes)
	require.Len(t, notes, 1)
	assert.Equal(t, a.ID, notes[0].UserID)
	assert.Equal(t, "/foruns/1", notes[0].LinkURL)
	assert.False(t, notes[0].IsRead)

	require.NoError(t, Notify(conn, 0, "ninguém", ""))
	require.NoError(t, Notify(conn, a.ID, strings.Repeat("x", 500), ""))
	var long models.Notification
	require.NoError(t, conn.Order("id DESC").First(&long).Error)
	assert.LessOrEqual(t, len(long.Message), maxNotificationLen)
}

func TestNotifyTruncatesOnlyOverLimit(t *testing.T) {
	conn := testutil.SetupDB(t)
	u := testutil.CreateUser(t, conn, "2021001", false)

	exact := strings.Repeat("é", maxNotificationLen)
	require.NoError(t, Notify(conn, u.ID, exact, ""))
	var n models.Notification
	require.NoError(t, conn.Order("id DESC").First(&n).Error)
	assert.Equal(t, exact, n.Message)

	require.NoError(t, Notify(conn, u.ID, exact+"a", ""))
	n = models.Notification{}
	require.NoError(t, conn.Order("id DESC").First(&n).Error)
	assert.Equal(t, maxNotificationLen, utf8.RuneCountInString(n.Message))
	assert.True(t, strings.HasSuffix(n.Message, "..."))
}

func TestReplyRecipientsAndAdmins(t *testing.T) {
	conn := testutil.SetupDB(t)
	author := testutil.CreateUser(t, conn, "2021001", false)
	replier := testutil.CreateUser(t, conn, "2021002", false)
	admin := testutil.CreateUser(t, conn, "admin", true)
	topic := testutil.CreateTopic(t, conn, author, "Tópico", nil)

	parent := models.Reply{TopicID: topic.ID, AuthorID: replier.ID, Content: "primeira"}
	require.NoError(t, conn.Create(&parent).Error)
	nested := models.Reply{TopicID: topic.ID, AuthorID: author.ID, Content: "resposta", ParentID: &parent.ID}

	assert.Equal(t, []uint{author.ID, replier.ID}, ReplyRecipients(conn, topic, &nested))
	assert.Equal(t, []uint{author.ID}, ReplyRecipients(conn, topic, &parent))

	sent, err := NotifyAdmins(conn, admin.ID, "nova denúncia", "/admin/denuncias")
	require.NoError(t, err)
	assert.Zero(t, sent)
	sent, err = NotifyAdmins(conn, 0, "nova denúncia", "/admin/denuncias")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestCommunityMemberFanOut(t *testing.T) {
	conn := testutil.SetupDB(t)
	owner := testutil.CreateUser(t, conn, "2021001", false)
	member := testutil.CreateUser(t, conn, "2021002", false)
	c, err := CreateCommunity(conn, "Leitura", "", models.CommunityPublic, owner)
	require.NoError(t, err)
	_, err = JoinCommunity(conn, c, member)
	require.NoError(t, err)

	sent, err := NotifyCommunityMembers(conn, c.ID, owner.ID, "novo tópico", "/foruns/1")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestCreateAuditLog(t *testing.T) {
	conn := testutil.SetupDB(t)
	admin := testutil.CreateUser(t, conn, "admin", true)

	require.NoError(t, CreateAuditLog(conn, admin.ID, "report.status", "report", 7, "Status alterado",
		map[string]interface{}{"from": "Recebida", "to": "Resolvida"}))
	require.NoError(t, CreateAuditLog(conn, 0, "system.seed", "", 0, "", nil))

	var logs []models.AuditLog
	require.NoError(t, conn.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, admin.ID, *logs[0].ActorID)
	assert.Equal(t, "Resolvida", logs[0].Metadata["to"])
	assert.Nil(t, logs[1].ActorID)
}
