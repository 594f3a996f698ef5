package site

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sitecanvas/internal/domain"
)

var (
	// mutationsTotal counts layout mutations by operation and result
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecanvas_mutations_total",
		Help: "Total layout mutations by operation and result",
	}, []string{"operation", "result"})

	// mutationDuration tracks the read-transform-write latency of a mutation
	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitecanvas_mutation_duration_seconds",
		Help:    "Mutation duration in seconds, including persistence",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"operation"})

	// draftsCreated counts drafts cloned from a published layout
	draftsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecanvas_drafts_created_total",
		Help: "Total drafts created on first write",
	})

	// publishesTotal counts draft promotions
	publishesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecanvas_publishes_total",
		Help: "Total drafts promoted to published",
	})

	// moveFallbacks counts moves whose drop target did not resolve
	moveFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecanvas_move_fallbacks_total",
		Help: "Total moves appended to the root because the drop target was not found",
	})

	// backupsTotal counts backup operations by operation and result
	backupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecanvas_backups_total",
		Help: "Total backup operations by operation and result",
	}, []string{"operation", "result"})
)

// resultLabel classifies err for metric labels
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrInvariantViolation):
		return "invariant"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	}
	return "error"
}

func observeMutation(op string, start time.Time, err error) {
	mutationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	mutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func observeBackup(op string, err error) {
	backupsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}
