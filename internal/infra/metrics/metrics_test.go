package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"obligation_reminder_bot/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveRun(t *testing.T) {
	c := NewCollector()

	c.ObserveRun(&notification.Report{Date: "2025-03-01", Notified: 3, Failed: 1, Skipped: 2, Reset: 4, Malformed: 1}, nil, time.Second)
	c.ObserveRun(nil, errors.New("store down"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.checks.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checks.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.checks.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.notifications.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.notifications.WithLabelValues("skipped")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.resets))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.malformed))

	last := c.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, "store down", last.Error)
	assert.Nil(t, last.Report)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestRouter(t *testing.T) {
	c := NewCollector()

	t.Run("healthz ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRouter(c, fakePinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("healthz db down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRouter(c, fakePinger{err: errors.New("refused")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("last run before first check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRouter(c, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/last_run", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("last run and metrics after a check", func(t *testing.T) {
		c.ObserveRun(&notification.Report{Date: "2025-03-01", Notified: 1}, nil, time.Second)
		router := NewRouter(c, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/last_run", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"date":"2025-03-01"`)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "obligation_daily_checks_total"))
	})
}
