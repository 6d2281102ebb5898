package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDecision("reject", "and", 0.4, 0.9, 3*time.Millisecond)
	m.ObserveDecision("accept", "and", 0.9, 0.9, time.Millisecond)
	m.IncrementLockouts()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("reject", "and")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockoutsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenSessions))
}

func TestNewWithSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
