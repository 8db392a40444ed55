package pipeline

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/oyen-dev/streamfund-backend/internal/metrics"
)

func TestPipelineHealth_RecordSuccess(t *testing.T) {
	h := NewPipelineHealth(84532, "Base Sepolia", 0)
	assert.False(t, h.RecordSuccess())

	snap := h.Snapshot()
	assert.Equal(t, string(HealthStatusHealthy), snap.Status)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.NotNil(t, snap.LastSuccessAt)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PipelineHealthStatus.WithLabelValues("84532")))
}

func TestPipelineHealth_RecordFailure_Threshold(t *testing.T) {
	h := NewPipelineHealth(11155111, "Sepolia", 3)
	assert.False(t, h.RecordFailure())
	assert.False(t, h.RecordFailure())
	assert.True(t, h.RecordFailure(), "transition at threshold")
	assert.False(t, h.RecordFailure(), "already unhealthy")

	snap := h.Snapshot()
	assert.True(t, snap.Unhealthy())
	assert.Equal(t, 4, snap.ConsecutiveFailures)
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.PipelineConsecutiveFailures.WithLabelValues("11155111")))
}

func TestPipelineHealth_Recovery(t *testing.T) {
	h := NewPipelineHealth(656476, "EDU Chain Testnet", 0)
	for i := 0; i < DefaultUnhealthyThreshold; i++ {
		h.RecordFailure()
	}
	assert.True(t, h.RecordSuccess())
	assert.Equal(t, string(HealthStatusHealthy), h.Snapshot().Status)
	assert.False(t, h.RecordSuccess())
}

func TestPipelineHealth_RecordLatency(t *testing.T) {
	h := NewPipelineHealth(421614, "Arbitrum Sepolia", 0)
	h.RecordSuccess()

	for i := 0; i < latencyWindowSize; i++ {
		h.RecordLatency(10 * time.Second)
	}
	assert.Equal(t, string(HealthStatusDegraded), h.Snapshot().Status)

	for i := 0; i < latencyWindowSize; i++ {
		h.RecordLatency(100 * time.Millisecond)
	}
	assert.Equal(t, string(HealthStatusHealthy), h.Snapshot().Status)
}

func TestPipelineHealth_RecordLatency_DoesNotOverrideUnhealthy(t *testing.T) {
	h := NewPipelineHealth(1, "x", 1)
	h.RecordFailure()
	h.RecordLatency(10 * time.Millisecond)
	assert.Equal(t, string(HealthStatusUnhealthy), h.Snapshot().Status)
}

func TestPipelineHealth_RecordBlock_Monotonic(t *testing.T) {
	h := NewPipelineHealth(2, "y", 0)
	h.RecordBlock(100)
	h.RecordBlock(90)
	assert.Equal(t, uint64(100), h.Snapshot().LastBlock)
	assert.Equal(t, float64(100), testutil.ToFloat64(metrics.WatcherHeadBlock.WithLabelValues("2")))
}

func TestPipelineHealth_SnapshotDefaults(t *testing.T) {
	h := NewPipelineHealth(3, "z", 0)
	h.SetStatus(HealthStatusStopped)
	snap := h.Snapshot()
	assert.Equal(t, int64(3), snap.ChainID)
	assert.Equal(t, "z", snap.Chain)
	assert.Equal(t, string(HealthStatusStopped), snap.Status)
	assert.Nil(t, snap.LastSuccessAt)
	assert.Nil(t, snap.LastFailureAt)
}
