package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceObserveDBQuery(t *testing.T) {
	m := NewMetricsService()

	m.ObserveDBQuery("ping", 10*time.Millisecond)
	m.ObserveDBQuery("ping", 30*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.DBQueryCount)
	assert.InDelta(t, 20, snap.AverageDBQueryDurationMs, 0.01)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService

	m.ObserveDBQuery("ping", time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.Zero(t, m.Snapshot().DBQueryCount)
}
