package scheduler_test

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/scheduler"
	"github.com/stretchr/testify/assert"
)

type fakeStaleFinder struct {
	mu      sync.Mutex
	batches [][]*models.Topic
	offsets []int
}

func (f *fakeStaleFinder) FindStale(_ context.Context, _ time.Time, _ int, offset int) ([]*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.offsets = append(f.offsets, offset)

	if len(f.batches) == 0 {
		return []*models.Topic{}, nil
	}

	batch := f.batches[0]
	f.batches = f.batches[1:]

	return batch, nil
}

type fakeRefresher struct {
	mu        sync.Mutex
	refreshed []int64
	failIDs   map[int64]bool
}

func (f *fakeRefresher) Refresh(_ context.Context, topicID, _ int64) (*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failIDs[topicID] {
		return nil, stderrors.New("refresh failed")
	}

	f.refreshed = append(f.refreshed, topicID)

	return &models.Topic{ID: topicID}, nil
}

func TestParallelScheduler_ProcessBatches(t *testing.T) {
	topic1 := &models.Topic{ID: 1, UserID: 10}
	topic2 := &models.Topic{ID: 2, UserID: 10}
	topic3 := &models.Topic{ID: 3, UserID: 20}

	finder := &fakeStaleFinder{
		batches: [][]*models.Topic{
			{topic1, topic2},
			{topic3},
		},
	}
	refresher := &fakeRefresher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	parallelScheduler := scheduler.NewParallelScheduler(
		refresher,
		finder,
		time.Hour,
		12*time.Hour,
		2,
		2,
		logger,
	)

	parallelScheduler.ProcessBatches(context.Background())

	assert.ElementsMatch(t, []int64{1, 2, 3}, refresher.refreshed)
	assert.Equal(t, []int{0, 0, 0}, finder.offsets, "успешно обновленные топики выпадают из выборки, смещение не растет")
}

func TestParallelScheduler_OffsetSkipsOnlyFailedTopics(t *testing.T) {
	topic1 := &models.Topic{ID: 1, UserID: 10}
	topic2 := &models.Topic{ID: 2, UserID: 10}
	topic3 := &models.Topic{ID: 3, UserID: 20}

	finder := &fakeStaleFinder{
		batches: [][]*models.Topic{
			{topic1, topic2},
			{topic3},
		},
	}
	refresher := &fakeRefresher{failIDs: map[int64]bool{1: true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	parallelScheduler := scheduler.NewParallelScheduler(
		refresher,
		finder,
		time.Hour,
		12*time.Hour,
		2,
		1,
		logger,
	)

	parallelScheduler.ProcessBatches(context.Background())

	assert.ElementsMatch(t, []int64{2, 3}, refresher.refreshed)
	assert.Equal(t, []int{0, 1, 1}, finder.offsets, "смещение пропускает только топики, оставшиеся устаревшими")
}

func TestParallelScheduler_ContinuesAfterRefreshError(t *testing.T) {
	topic1 := &models.Topic{ID: 1, UserID: 10}
	topic2 := &models.Topic{ID: 2, UserID: 10}

	finder := &fakeStaleFinder{
		batches: [][]*models.Topic{
			{topic1, topic2},
		},
	}
	refresher := &fakeRefresher{failIDs: map[int64]bool{1: true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	parallelScheduler := scheduler.NewParallelScheduler(
		refresher,
		finder,
		time.Hour,
		12*time.Hour,
		10,
		1,
		logger,
	)

	parallelScheduler.ProcessBatches(context.Background())

	assert.Equal(t, []int64{2}, refresher.refreshed, "ошибка одного топика не останавливает батч")
}
