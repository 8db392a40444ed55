package pipeline

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/oyen-dev/streamfund-backend/internal/metrics"
)

type HealthStatus string

const (
	HealthStatusUnknown   HealthStatus = "UNKNOWN"
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
	HealthStatusStopped   HealthStatus = "STOPPED"

	// DefaultUnhealthyThreshold is the number of consecutive failed events
	// or watcher errors before a chain pipeline is unhealthy.
	DefaultUnhealthyThreshold = 5

	// DefaultDegradedLatencyThreshold applies to the p95 handler latency.
	DefaultDegradedLatencyThreshold = 5 * time.Second

	latencyWindowSize = 10
)

var healthGaugeValue = map[HealthStatus]float64{
	HealthStatusUnknown:   0,
	HealthStatusHealthy:   1,
	HealthStatusDegraded:  2,
	HealthStatusUnhealthy: 3,
	HealthStatusStopped:   0,
}

// PipelineHealth tracks the health of one chain pipeline.
type PipelineHealth struct {
	mu                       sync.RWMutex
	chainID                  int64
	chainName                string
	chainLabel               string
	status                   HealthStatus
	consecutiveFailures      int
	lastSuccessAt            *time.Time
	lastFailureAt            *time.Time
	lastBlock                uint64
	unhealthyThreshold       int
	recentLatencies          []time.Duration
	degradedLatencyThreshold time.Duration
	nowFn                    func() time.Time
}

func NewPipelineHealth(chainID int64, chainName string, unhealthyThreshold int) *PipelineHealth {
	if unhealthyThreshold <= 0 {
		unhealthyThreshold = DefaultUnhealthyThreshold
	}
	h := &PipelineHealth{
		chainID:                  chainID,
		chainName:                chainName,
		chainLabel:               strconv.FormatInt(chainID, 10),
		status:                   HealthStatusUnknown,
		unhealthyThreshold:       unhealthyThreshold,
		recentLatencies:          make([]time.Duration, 0, latencyWindowSize),
		degradedLatencyThreshold: DefaultDegradedLatencyThreshold,
		nowFn:                    time.Now,
	}
	h.publish()
	return h
}

func (h *PipelineHealth) SetStatus(status HealthStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
	h.publish()
}

// RecordSuccess records a successfully handled event or watcher cycle.
// It reports true when this success recovers an unhealthy pipeline.
func (h *PipelineHealth) RecordSuccess() (recovered bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.nowFn()
	recovered = h.status == HealthStatusUnhealthy
	h.consecutiveFailures = 0
	h.lastSuccessAt = &now
	if h.isLatencyDegraded() {
		h.status = HealthStatusDegraded
	} else {
		h.status = HealthStatusHealthy
	}
	h.publish()
	return recovered
}

// RecordFailure reports true when this failure moves the pipeline into
// UNHEALTHY.
func (h *PipelineHealth) RecordFailure() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.nowFn()
	h.consecutiveFailures++
	h.lastFailureAt = &now
	transitioned := false
	if h.consecutiveFailures >= h.unhealthyThreshold && h.status != HealthStatusUnhealthy {
		h.status = HealthStatusUnhealthy
		transitioned = true
	}
	h.publish()
	return transitioned
}

func (h *PipelineHealth) RecordLatency(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.recentLatencies) >= latencyWindowSize {
		h.recentLatencies = h.recentLatencies[1:]
	}
	h.recentLatencies = append(h.recentLatencies, d)

	if h.status == HealthStatusHealthy || h.status == HealthStatusDegraded {
		if h.isLatencyDegraded() {
			h.status = HealthStatusDegraded
		} else if h.consecutiveFailures == 0 {
			h.status = HealthStatusHealthy
		}
		h.publish()
	}
}

// RecordBlock advances the highest block the watcher has covered.
func (h *PipelineHealth) RecordBlock(block uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if block > h.lastBlock {
		h.lastBlock = block
		metrics.WatcherHeadBlock.WithLabelValues(h.chainLabel).Set(float64(block))
	}
}

// Must be called with mu held.
func (h *PipelineHealth) isLatencyDegraded() bool {
	if len(h.recentLatencies) < 2 {
		return false
	}
	return h.percentileLatency(95) > h.degradedLatencyThreshold
}

// Must be called with mu held.
func (h *PipelineHealth) percentileLatency(pct int) time.Duration {
	n := len(h.recentLatencies)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(h.recentLatencies)
	slices.Sort(sorted)
	idx := (pct*n - 1) / 100
	idx = max(0, min(idx, n-1))
	return sorted[idx]
}

// Must be called with mu held.
func (h *PipelineHealth) publish() {
	metrics.PipelineHealthStatus.WithLabelValues(h.chainLabel).Set(healthGaugeValue[h.status])
	metrics.PipelineConsecutiveFailures.WithLabelValues(h.chainLabel).Set(float64(h.consecutiveFailures))
}

func (h *PipelineHealth) Snapshot() HealthSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthSnapshot{
		ChainID:             h.chainID,
		Chain:               h.chainName,
		Status:              string(h.status),
		ConsecutiveFailures: h.consecutiveFailures,
		LastBlock:           h.lastBlock,
		LastSuccessAt:       h.lastSuccessAt,
		LastFailureAt:       h.lastFailureAt,
	}
}

// HealthSnapshot is a point-in-time, JSON-safe view of pipeline health.
type HealthSnapshot struct {
	ChainID             int64      `json:"chain_id"`
	Chain               string     `json:"chain"`
	Status              string     `json:"status"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastBlock           uint64     `json:"last_block"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
}

func (s HealthSnapshot) Unhealthy() bool {
	return s.Status == string(HealthStatusUnhealthy)
}
