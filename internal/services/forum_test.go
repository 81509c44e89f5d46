package services

import (
	"strings"
	"testing"

	"siif/internal/models"
	"siif/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePollOptions(t *testing.T) {
	opts, err := NormalizePollOptions([]string{" Sim ", "", "Não", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sim", "Não"}, opts)

	opts, err = NormalizePollOptions([]string{"", " "})
	require.NoError(t, err)
	assert.Nil(t, opts)

	_, err = NormalizePollOptions([]string{"só uma"})
	assert.ErrorIs(t, err, ErrInvalidPoll)

	eleven := strings.Split("a b c d e f g h i j k", " ")
	_, err = NormalizePollOptions(eleven)
	assert.ErrorIs(t, err, ErrInvalidPoll)
}

func TestPollVoting(t *testing.T) {
	conn := testutil.SetupDB(t)
	author := testutil.CreateUser(t, conn, "2021001", false)
	voter := testutil.CreateUser(t, conn, "2021002", false)
	topic := testutil.CreateTopic(t, conn, author, "Melhor horário?", nil)
	other := testutil.CreateTopic(t, conn, author, "Outro", nil)

	none, err := LoadPoll(conn, topic.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, none)

	options := []models.PollOption{
		{TopicID: topic.ID, Text: "Manhã", Position: 0},
		{TopicID: topic.ID, Text: "Tarde", Position: 1},
		{TopicID: topic.ID, Text: "Noite", Position: 2},
	}
	require.NoError(t, conn.Create(&options).Error)

	require.NoError(t, CastVote(conn, topic.ID, options[0].ID, author.ID))
	require.NoError(t, CastVote(conn, topic.ID, options[1].ID, voter.ID))
	assert.ErrorIs(t, CastVote(conn, topic.ID, options[2].ID, voter.ID), ErrAlreadyVoted)
	assert.ErrorIs(t, CastVote(conn, other.ID, options[0].ID, voter.ID), ErrInvalidOption)

	poll, err := LoadPoll(conn, topic.ID, voter.ID)
	require.NoError(t, err)
	require.Len(t, poll.Results, 3)
	assert.Equal(t, 2, poll.Total)
	assert.True(t, poll.HasVoted())
	assert.Equal(t, options[1].ID, poll.MyVoteID)
	assert.Equal(t, "Manhã", poll.Results[0].Option.Text)
	assert.Equal(t, 50, poll.Results[0].Percent)
	assert.Equal(t, 0, poll.Results[2].Percent)

	anon, err := LoadPoll(conn, topic.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.HasVoted())
}

func uintp(v uint) *uint { return &v }

func TestBuildReplyTree(t *testing.T) {
	replies := []models.Reply{
		{ID: 1, Content: "raiz"},
		{ID: 2, ParentID: uintp(1), Content: "filho"},
		{ID: 3, ParentID: uintp(2), Content: "neto"},
		{ID: 4, Content: "outra raiz"},
		{ID: 5, ParentID: uintp(99), Content: "órfã"},
		{ID: 6, ParentID: uintp(1), Content: "segundo filho"},
	}
	roots := BuildReplyTree(replies)

	require.Len(t, roots, 3)
	assert.Equal(t, uint(1), roots[0].Reply.ID)
	assert.Equal(t, uint(4), roots[1].Reply.ID)
	assert.Equal(t, uint(5), roots[2].Reply.ID)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, uint(6), roots[0].Children[1].Reply.ID)
	grandchild := roots[0].Children[0].Children[0]
	assert.Equal(t, uint(3), grandchild.Reply.ID)
	assert.Equal(t, 2, grandchild.Depth)
}

func TestDeleteReplyAndTopic(t *testing.T) {
	conn := testutil.SetupDB(t)
	author := testutil.CreateUser(t, conn, "2021001", false)
	topic := testutil.CreateTopic(t, conn, author, "Dúvida", nil)

	root := models.Reply{TopicID: topic.ID, AuthorID: author.ID, Content: "a"}
	require.NoError(t, conn.Create(&root).Error)
	child := models.Reply{TopicID: topic.ID, AuthorID: author.ID, Content: "b", ParentID: &root.ID}
	require.NoError(t, conn.Create(&child).Error)
	leaf := models.Reply{TopicID: topic.ID, AuthorID: author.ID, Content: "c", ParentID: &child.ID}
	require.NoError(t, conn.Create(&leaf).Error)
	sibling := models.Reply{TopicID: topic.ID, AuthorID: author.ID, Content: "d"}
	require.NoError(t, conn.Create(&sibling).Error)

	n, err := DeleteReply(conn, child.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var left int64
	conn.Model(&models.Reply{}).Where("topic_id = ?", topic.ID).Count(&left)
	assert.Equal(t, int64(2), left)

	require.NoError(t, conn.Create(&models.TopicLike{TopicID: topic.ID, UserID: author.ID}).Error)
	require.NoError(t, conn.Create(&models.TopicSave{TopicID: topic.ID, UserID: author.ID}).Error)
	require.NoError(t, DeleteTopic(conn, topic.ID))

	for _, m := range []interface{}{&models.Topic{}, &models.Reply{}, &models.TopicLike{}, &models.TopicSave{}} {
		var count int64
		conn.Model(m).Count(&count)
		assert.Zero(t, count)
	}
}

func TestUpdateRelevance(t *testing.T) {
	conn := testutil.SetupDB(t)
	author := testutil.CreateUser(t, conn, "2021001", false)
	fan := testutil.CreateUser(t, conn, "2021002", false)
	topic := testutil.CreateTopic(t, conn, author, "Popular", nil)
	require.NoError(t, conn.Create(&models.TopicLike{TopicID: topic.ID, UserID: fan.ID}).Error)
	require.NoError(t, conn.Create(&models.TopicSave{TopicID: topic.ID, UserID: fan.ID}).Error)

	UpdateRelevance(topic.ID)

	var stored models.Topic
	require.NoError(t, conn.First(&stored, topic.ID).Error)
	assert.Greater(t, stored.Relevance, 0)
}
