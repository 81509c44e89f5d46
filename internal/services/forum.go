package services

import (
	"errors"
	"math"
	"strings"

	"siif/internal/models"

	"gorm.io/gorm"
)

const (
	MinPollOptions = 2
	MaxPollOptions = 10
)

var (
	ErrInvalidPoll   = errors.New("a enquete precisa de 2 a 10 opções")
	ErrInvalidOption = errors.New("opção inválida")
	ErrAlreadyVoted  = errors.New("você já votou nesta enquete")
	ErrTopicLocked   = errors.New("este tópico está trancado")
	ErrInvalidParent = errors.New("resposta original não pertence a este tópico")
)

// NormalizePollOptions trims and drops empty entries. No options means
// no poll; otherwise the count must be within 2..10.
func NormalizePollOptions(raw []string) ([]string, error) {
	var out []string
	for _, o := range raw {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	if len(out) < MinPollOptions || len(out) > MaxPollOptions {
		return nil, ErrInvalidPoll
	}
	return out, nil
}

type PollResult struct {
	Option  models.PollOption
	Votes   int
	Percent int
}

type Poll struct {
	Results  []PollResult
	Total    int
	MyVoteID uint
}

func (p *Poll) HasVoted() bool {
	return p.MyVoteID != 0
}

// LoadPoll returns nil when the topic has no poll. userID 0 means anonymous.
func LoadPoll(tx *gorm.DB, topicID, userID uint) (*Poll, error) {
	var options []models.PollOption
	if err := tx.Where("topic_id = ?", topicID).Order("position ASC, id ASC").Find(&options).Error; err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, nil
	}

	type row struct {
		OptionID uint
		Count    int
	}
	var rows []row
	if err := tx.Model(&models.PollVote{}).Select("option_id, COUNT(*) as count").
		Where("topic_id = ?", topicID).Group("option_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(rows))
	poll := &Poll{}
	for _, r := range rows {
		counts[r.OptionID] = r.Count
		poll.Total += r.Count
	}

	for _, o := range options {
		pr := PollResult{Option: o, Votes: counts[o.ID]}
		if poll.Total > 0 {
			pr.Percent = int(math.Round(float64(pr.Votes) * 100 / float64(poll.Total)))
		}
		poll.Results = append(poll.Results, pr)
	}

	if userID != 0 {
		var vote models.PollVote
		if err := tx.Where("topic_id = ? AND user_id = ?", topicID, userID).First(&vote).Error; err == nil {
			poll.MyVoteID = vote.OptionID
		}
	}
	return poll, nil
}

// CastVote records a single vote per user per poll.
func CastVote(tx *gorm.DB, topicID, optionID, userID uint) error {
	var option models.PollOption
	if err := tx.Where("id = ? AND topic_id = ?", optionID, topicID).First(&option).Error; err != nil {
		return ErrInvalidOption
	}
	var count int64
	tx.Model(&models.PollVote{}).Where("topic_id = ? AND user_id = ?", topicID, userID).Count(&count)
	if count > 0 {
		return ErrAlreadyVoted
	}
	return tx.Create(&models.PollVote{OptionID: optionID, TopicID: topicID, UserID: userID}).Error
}

// ReplyNode is a reply with its nested answers.
type ReplyNode struct {
	Reply    models.Reply
	Children []*ReplyNode
	Depth    int
}

// BuildReplyTree nests replies by ParentID keeping input order at each level.
// Replies whose parent is missing are shown at the top level.
func BuildReplyTree(replies []models.Reply) []*ReplyNode {
	nodes := make(map[uint]*ReplyNode, len(replies))
	for _, r := range replies {
		nodes[r.ID] = &ReplyNode{Reply: r}
	}
	var roots []*ReplyNode
	for _, r := range replies {
		n := nodes[r.ID]
		if r.ParentID != nil {
			if parent, ok := nodes[*r.ParentID]; ok && *r.ParentID != r.ID {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	var setDepth func(ns []*ReplyNode, d int)
	setDepth = func(ns []*ReplyNode, d int) {
		for _, n := range ns {
			n.Depth = d
			setDepth(n.Children, d+1)
		}
	}
	setDepth(roots, 0)
	return roots
}

// replySubtree returns id and the ids of every reply below it.
func replySubtree(tx *gorm.DB, id uint) ([]uint, error) {
	ids := []uint{id}
	frontier := []uint{id}
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Reply{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

// DeleteReply removes a reply with its nested answers.
func DeleteReply(tx *gorm.DB, replyID uint) (int, error) {
	ids, err := replySubtree(tx, replyID)
	if err != nil {
		return 0, err
	}
	// children first so parent_id references never dangle
	for i := len(ids) - 1; i >= 0; i-- {
		if err := tx.Delete(&models.Reply{}, ids[i]).Error; err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// DeleteTopic removes a topic and everything hanging off it.
func DeleteTopic(tx *gorm.DB, topicID uint) error {
	for _, m := range []interface{}{
		&models.PollVote{}, &models.PollOption{}, &models.TopicLike{}, &models.TopicSave{},
	} {
		if err := tx.Where("topic_id = ?", topicID).Delete(m).Error; err != nil {
			return err
		}
	}
	if err := tx.Model(&models.Reply{}).Where("topic_id = ?", topicID).Update("parent_id", nil).Error; err != nil {
		return err
	}
	if err := tx.Where("topic_id = ?", topicID).Delete(&models.Reply{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Topic{}, topicID).Error
}
