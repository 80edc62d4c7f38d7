package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	quizPreviewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_previews_total",
		Help: "Total preview scoring requests",
	})
	quizSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_submissions_total",
		Help: "Total quiz submissions by recommended category",
	}, []string{"category"})
	quizClassifyRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_classify_rejected_total",
		Help: "Total classifications rejected for a zero score total",
	})
	bookingsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total booking requests stored",
	})
	followupsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followups_processed_total",
		Help: "Total booking follow-ups processed",
	})
	followupsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followups_failed_total",
		Help: "Total booking follow-ups failed",
	})
	followupsDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followups_discarded_total",
		Help: "Total booking follow-ups discarded as unrecoverable",
	})
	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		quizPreviewsTotal,
		quizSubmissionsTotal,
		quizClassifyRejectedTotal,
		bookingsCreatedTotal,
		followupsProcessedTotal,
		followupsFailedTotal,
		followupsDiscardedTotal,
		requestDuration,
	)
}

// IncQuizPreview counts a preview scoring request.
func IncQuizPreview() {
	quizPreviewsTotal.Inc()
}

// IncQuizSubmission counts a stored submission by recommended category.
func IncQuizSubmission(category string) {
	quizSubmissionsTotal.WithLabelValues(category).Inc()
}

// IncQuizClassifyRejected counts classifications refused for an all-zero score vector.
func IncQuizClassifyRejected() {
	quizClassifyRejectedTotal.Inc()
}

// IncBookingCreated counts stored booking requests.
func IncBookingCreated() {
	bookingsCreatedTotal.Inc()
}

// IncFollowupProcessed counts follow-up messages handled successfully.
func IncFollowupProcessed() {
	followupsProcessedTotal.Inc()
}

// IncFollowupFailed counts follow-up messages left on the queue for retry.
func IncFollowupFailed() {
	followupsFailedTotal.Inc()
}

// IncFollowupDiscarded counts follow-up messages deleted as unrecoverable.
func IncFollowupDiscarded() {
	followupsDiscardedTotal.Inc()
}

// ObserveRequestDurationMs records an HTTP request duration in milliseconds.
func ObserveRequestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	requestDuration.Observe(value)
}

// Handler exposes the registry in the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Since returns the milliseconds elapsed from start.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
