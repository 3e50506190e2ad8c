// Package metrics exports daily check outcomes to Prometheus.
package metrics

import (
	"sync"
	"time"

	"obligation_reminder_bot/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "obligation"

// Collector implements app.RunObserver.
type Collector struct {
	registry *prometheus.Registry

	checks        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	resets        prometheus.Counter
	malformed     prometheus.Counter
	duration      prometheus.Histogram
	lastSuccess   prometheus.Gauge

	mu      sync.RWMutex
	lastRun *RunSummary
}

// RunSummary is the most recent daily check as served on /last_run.
type RunSummary struct {
	FinishedAt time.Time            `json:"finished_at"`
	Duration   string               `json:"duration"`
	Error      string               `json:"error,omitempty"`
	Report     *notification.Report `json:"report,omitempty"`
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_checks_total",
			Help:      "Daily checks run, by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Reminders dispatched, by result.",
		}, []string{"result"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_resets_total",
			Help:      "Paid flags cleared on monthly cycle boundaries.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Stored obligations skipped as malformed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "daily_check_duration_seconds",
			Help:      "Wall time of a daily check.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_check_last_success_timestamp_seconds",
			Help:      "Unix time of the last daily check that completed without a store error.",
		}),
	}
	c.registry.MustRegister(c.checks, c.notifications, c.resets, c.malformed, c.duration, c.lastSuccess)
	return c
}

// Registry exposes the collector's metrics for the HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveRun(report *notification.Report, err error, elapsed time.Duration) {
	c.duration.Observe(elapsed.Seconds())

	summary := &RunSummary{
		FinishedAt: time.Now().UTC(),
		Duration:   elapsed.String(),
		Report:     report,
	}

	switch {
	case err != nil:
		c.checks.WithLabelValues("error").Inc()
		summary.Error = err.Error()
	case report != nil && report.Failed > 0:
		c.checks.WithLabelValues("partial").Inc()
	default:
		c.checks.WithLabelValues("ok").Inc()
	}

	if report != nil {
		c.notifications.WithLabelValues("sent").Add(float64(report.Notified))
		c.notifications.WithLabelValues("failed").Add(float64(report.Failed))
		c.notifications.WithLabelValues("skipped").Add(float64(report.Skipped))
		c.resets.Add(float64(report.Reset))
		c.malformed.Add(float64(report.Malformed))
	}
	if err == nil {
		c.lastSuccess.SetToCurrentTime()
	}

	c.mu.Lock()
	c.lastRun = summary
	c.mu.Unlock()
}

// LastRun returns nil until the first run is observed.
func (c *Collector) LastRun() *RunSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRun
}
