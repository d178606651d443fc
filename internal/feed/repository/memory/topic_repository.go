package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

type TopicRepository struct {
	topics map[int64]*models.Topic
	nextID int64
	mu     sync.RWMutex
}

func NewTopicRepository() *TopicRepository {
	return &TopicRepository{
		topics: make(map[int64]*models.Topic),
		nextID: 1,
	}
}

func (r *TopicRepository) Save(_ context.Context, topic *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	for _, existing := range r.topics {
		if existing.UserID != topic.UserID {
			continue
		}

		if existing.MatchesSource(topic.Username, topic.ChannelName) {
			return &errors.ErrTopicAlreadyExists{Source: topic.DisplayName}
		}

		count++
	}

	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now()
	}

	topic.ID = r.nextID
	r.nextID++
	topic.Order = count

	copied := *topic
	r.topics[topic.ID] = &copied

	return nil
}

func (r *TopicRepository) FindByID(_ context.Context, id int64) (*models.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topic, exists := r.topics[id]
	if !exists {
		return nil, &errors.ErrTopicNotFound{TopicID: id}
	}

	copied := *topic

	return &copied, nil
}

func (r *TopicRepository) FindByUserID(_ context.Context, userID int64) ([]*models.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := r.userTopicsLocked(userID)
	copies := make([]*models.Topic, 0, len(topics))

	for _, topic := range topics {
		copied := *topic
		copies = append(copies, &copied)
	}

	return copies, nil
}

func (r *TopicRepository) Update(_ context.Context, topic *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.topics[topic.ID]
	if !exists {
		return &errors.ErrTopicNotFound{TopicID: topic.ID}
	}

	copied := *topic
	copied.UserID = existing.UserID
	copied.Order = existing.Order
	copied.CreatedAt = existing.CreatedAt
	r.topics[topic.ID] = &copied

	return nil
}

func (r *TopicRepository) Delete(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	topic, exists := r.topics[id]
	if !exists || topic.UserID != userID {
		return &errors.ErrTopicNotFound{TopicID: id}
	}

	delete(r.topics, id)

	for i, remaining := range r.userTopicsLocked(userID) {
		r.topics[remaining.ID].Order = i
	}

	return nil
}

func (r *TopicRepository) UpdateOrders(_ context.Context, userID int64, orders []models.OrderUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range orders {
		topic, exists := r.topics[order.TopicID]
		if !exists || topic.UserID != userID {
			continue
		}

		topic.Order = order.Order
	}

	return nil
}

func (r *TopicRepository) FindStale(_ context.Context, olderThan time.Time, limit, offset int) ([]*models.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stale := make([]*models.Topic, 0)

	for _, topic := range r.topics {
		if topic.LastUpdated.Before(olderThan) {
			copied := *topic
			stale = append(stale, &copied)
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		if stale[i].LastUpdated.Equal(stale[j].LastUpdated) {
			return stale[i].ID < stale[j].ID
		}

		return stale[i].LastUpdated.Before(stale[j].LastUpdated)
	})

	if offset >= len(stale) {
		return []*models.Topic{}, nil
	}

	stale = stale[offset:]
	if len(stale) > limit {
		stale = stale[:limit]
	}

	return stale, nil
}

func (r *TopicRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.topics), nil
}

func (r *TopicRepository) CountByType(_ context.Context) (map[models.TopicType]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.TopicType]int)

	for _, topic := range r.topics {
		counts[topic.Type]++
	}

	return counts, nil
}

func (r *TopicRepository) userTopicsLocked(userID int64) []*models.Topic {
	topics := make([]*models.Topic, 0)

	for _, topic := range r.topics {
		if topic.UserID == userID {
			topics = append(topics, topic)
		}
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Order == topics[j].Order {
			return topics[i].ID < topics[j].ID
		}

		return topics[i].Order < topics[j].Order
	})

	return topics
}
