package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "degen_feed"

	FeedSubsystem = "feed"
	BotSubsystem  = "bot"
)

// Общие метрики для всех сервисов.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	ExternalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "external_requests_total",
			Help:      "Total number of requests to external APIs",
		},
		[]string{"service", "status"},
	)
)

// Метрики feed-сервиса.
var (
	TopicsInDB = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: FeedSubsystem,
			Name:      "topics_count",
			Help:      "Number of tracked topics in database by type",
		},
		[]string{"topic_type"},
	)

	TopicOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: FeedSubsystem,
			Name:      "topic_operations_total",
			Help:      "Total number of topic lifecycle operations",
		},
		[]string{"operation", "status"},
	)

	SummariesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: FeedSubsystem,
			Name:      "summaries_generated_total",
			Help:      "Total number of AI summaries generated",
		},
		[]string{"platform", "status"},
	)

	SummaryGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: FeedSubsystem,
			Name:      "summary_generation_duration_seconds",
			Help:      "AI summary generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 60, 120},
		},
		[]string{"platform"},
	)

	StaleRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: FeedSubsystem,
			Name:      "stale_refreshes_total",
			Help:      "Total number of automatic stale topic refreshes",
		},
		[]string{"status"},
	)
)

// Метрики бота.
var (
	BriefsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "briefs_sent_total",
			Help:      "Total number of daily briefs sent",
		},
		[]string{"status"},
	)

	BotCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "commands_total",
			Help:      "Total number of bot commands processed",
		},
		[]string{"command"},
	)
)

func RecordHTTPRequest(service, method, endpoint string, statusCode int, duration time.Duration) {
	status := "success"
	if statusCode >= 400 {
		status = "error"
	}

	HTTPRequestsTotal.WithLabelValues(service, method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(service, method, endpoint).Observe(duration.Seconds())
}

func RecordTopicOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	TopicOperationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordSummary(platform string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	SummariesGeneratedTotal.WithLabelValues(platform, status).Inc()
	SummaryGenerationDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

func RecordStaleRefresh(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	StaleRefreshesTotal.WithLabelValues(status).Inc()
}

func RecordBotCommand(command string) {
	BotCommandsTotal.WithLabelValues(command).Inc()
}

func RecordBrief(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	BriefsSentTotal.WithLabelValues(status).Inc()
}
