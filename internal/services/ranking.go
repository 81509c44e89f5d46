package services

import (
	"log"
	"sync"
	"time"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/utils"
)

// RankingService recomputes topic relevance off the request path.
type RankingService struct {
	queue   chan uint
	pending map[uint]bool
	mu      sync.Mutex
}

var (
	rankingService *RankingService
	rankingOnce    sync.Once
)

func GetRankingService() *RankingService {
	rankingOnce.Do(func() {
		rankingService = &RankingService{
			queue:   make(chan uint, 1000),
			pending: make(map[uint]bool),
		}
		go rankingService.worker()
	})
	return rankingService
}

// ScheduleUpdate queues a topic; duplicates already queued are dropped.
func (s *RankingService) ScheduleUpdate(topicID uint) {
	s.mu.Lock()
	if s.pending[topicID] {
		s.mu.Unlock()
		return
	}
	s.pending[topicID] = true
	s.mu.Unlock()

	select {
	case s.queue <- topicID:
	default:
		s.mu.Lock()
		delete(s.pending, topicID)
		s.mu.Unlock()
		log.Printf("Ranking queue full, skipping topic %d", topicID)
	}
}

func (s *RankingService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case id := <-s.queue:
			batch = append(batch, id)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(ids []uint) {
	for _, id := range ids {
		UpdateRelevance(id)
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}
}

// UpdateRelevance recomputes and stores one topic's relevance synchronously.
func UpdateRelevance(topicID uint) {
	var topic models.Topic
	if err := db.DB.Select("id", "created_at").First(&topic, topicID).Error; err != nil {
		return
	}

	var likes, replies, saves, votes int64
	db.DB.Model(&models.TopicLike{}).Where("topic_id = ?", topicID).Count(&likes)
	db.DB.Model(&models.Reply{}).Where("topic_id = ?", topicID).Count(&replies)
	db.DB.Model(&models.TopicSave{}).Where("topic_id = ?", topicID).Count(&saves)
	db.DB.Model(&models.PollVote{}).Where("topic_id = ?", topicID).Count(&votes)

	score := utils.CalculateRelevance(topic.CreatedAt, int(likes), int(replies), int(saves), int(votes))
	if err := db.DB.Model(&models.Topic{}).Where("id = ?", topicID).UpdateColumn("relevance", score).Error; err != nil {
		log.Printf("Failed to update relevance of topic %d: %v", topicID, err)
	}
}

// RefreshRecent recomputes topics from the last 7 days plus the current top 30.
func (s *RankingService) RefreshRecent() {
	processed := make(map[uint]bool)

	var ids []uint
	db.DB.Model(&models.Topic{}).Where("created_at >= ?", time.Now().AddDate(0, 0, -7)).Pluck("id", &ids)
	var top []uint
	db.DB.Model(&models.Topic{}).Order("relevance DESC").Limit(30).Pluck("id", &top)

	for _, id := range append(ids, top...) {
		if processed[id] {
			continue
		}
		processed[id] = true
		UpdateRelevance(id)
	}
	log.Printf("Relevance refreshed for %d topics", len(processed))
}
