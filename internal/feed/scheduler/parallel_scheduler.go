package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/degen-feed/degen-feed/internal/common/metrics"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/go-co-op/gocron"
)

// TopicRefresher обновляет контент и сводки одного топика.
type TopicRefresher interface {
	Refresh(ctx context.Context, topicID, userID int64) (*models.Topic, error)
}

// StaleTopicFinder возвращает топики, не обновлявшиеся дольше порога.
type StaleTopicFinder interface {
	FindStale(ctx context.Context, olderThan time.Time, limit, offset int) ([]*models.Topic, error)
}

// ParallelScheduler периодически находит устаревшие топики и обновляет их
// батчами через пул воркеров.
type ParallelScheduler struct {
	scheduler  *gocron.Scheduler
	refresher  TopicRefresher
	topicRepo  StaleTopicFinder
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	workers    int
}

func NewParallelScheduler(
	refresher TopicRefresher,
	topicRepo StaleTopicFinder,
	interval time.Duration,
	staleAfter time.Duration,
	batchSize int,
	workers int,
	logger *slog.Logger,
) *ParallelScheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	if workers <= 0 {
		workers = 4
	}

	if batchSize <= 0 {
		batchSize = 100
	}

	return &ParallelScheduler{
		scheduler:  scheduler,
		refresher:  refresher,
		topicRepo:  topicRepo,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		workers:    workers,
	}
}

func (s *ParallelScheduler) Start() {
	s.logger.Info("Запуск параллельного планировщика",
		"interval", s.interval.String(),
		"staleAfter", s.staleAfter.String(),
		"workers", s.workers,
		"batchSize", s.batchSize,
	)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.logger.Info("Запуск обновления устаревших топиков")

		ctx := context.Background()
		s.ProcessBatches(ctx)
	})

	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *ParallelScheduler) Stop() {
	s.logger.Info("Остановка параллельного планировщика")
	s.scheduler.Stop()
}

func (s *ParallelScheduler) ProcessBatches(ctx context.Context) {
	if topicService, ok := s.refresher.(interface{ UpdateTopicMetrics(ctx context.Context) }); ok {
		topicService.UpdateTopicMetrics(ctx)
	}

	olderThan := time.Now().Add(-s.staleAfter)
	offset := 0
	batchNum := 1
	processedCount := 0

	for {
		s.logger.Debug("Запрос очередной порции топиков", "batchSize", s.batchSize, "offset", offset)

		topics, err := s.topicRepo.FindStale(ctx, olderThan, s.batchSize, offset)
		if err != nil {
			s.logger.Error("Ошибка при получении порции топиков",
				"error", err,
				"offset", offset,
			)

			break
		}

		if len(topics) == 0 {
			s.logger.Info("Больше нет устаревших топиков")
			break
		}

		batchSize := len(topics)
		s.logger.Info("Обработка батча",
			"batch", batchNum,
			"size", batchSize,
			"offset", offset,
		)

		failed := s.processOneBatch(ctx, topics, batchNum)

		processedCount += batchSize
		// Успешно обновленные топики выпадают из выборки FindStale,
		// смещение пропускает только оставшиеся устаревшими.
		offset += failed
		batchNum++
	}

	s.logger.Info("Обновление устаревших топиков завершено",
		"processed", processedCount,
	)
}

func (s *ParallelScheduler) processOneBatch(ctx context.Context, batch []*models.Topic, batchNum int) int {
	topicCh := make(chan *models.Topic)
	wg := sync.WaitGroup{}

	var failed atomic.Int64

	for i := 0; i < s.workers; i++ {
		workerID := i + 1

		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, topicCh, workerID, batchNum, &failed)
		}(workerID)
	}

	go func() {
		for _, topic := range batch {
			topicCh <- topic
		}

		close(topicCh)
	}()

	wg.Wait()

	return int(failed.Load())
}

func (s *ParallelScheduler) worker(ctx context.Context, topicCh <-chan *models.Topic, workerID, batchNum int, failed *atomic.Int64) {
	for topic := range topicCh {
		s.logger.Debug("Воркер обновляет топик",
			"worker", workerID,
			"batch", batchNum,
			"topic", topic.ID,
			"displayName", topic.DisplayName,
		)

		_, err := s.refresher.Refresh(ctx, topic.ID, topic.UserID)
		metrics.RecordStaleRefresh(err)

		if err != nil {
			failed.Add(1)

			s.logger.Error("Ошибка при обновлении топика",
				"worker", workerID,
				"batch", batchNum,
				"topic", topic.ID,
				"error", err,
			)

			continue
		}

		s.logger.Info("Топик обновлен",
			"worker", workerID,
			"batch", batchNum,
			"topic", topic.ID,
		)
	}

	s.logger.Debug("Воркер завершил работу",
		"worker", workerID,
		"batch", batchNum,
	)
}
