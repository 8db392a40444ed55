package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/oyen-dev/streamfund-backend/internal/alert"
	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/config"
	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/reconciler"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/retry"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/watcher"
	"github.com/oyen-dev/streamfund-backend/internal/ratelimit"
)

const (
	handlerRetryInitial = 200 * time.Millisecond
	handlerRetryMax     = 5 * time.Second
)

// Handler applies one decoded contract event to the ledger.
type Handler interface {
	Handle(ctx context.Context, ev event.ContractEvent) (reconciler.Outcome, error)
}

// LogDecoder turns a raw contract log into a typed event.
type LogDecoder interface {
	DecodeLog(lg types.Log, observedChainID int64) (event.ContractEvent, error)
}

// LogSource feeds logs into the pipeline until ctx is done.
type LogSource interface {
	Run(ctx context.Context, sink watcher.Sink) error
}

type Config struct {
	Chain              config.ChainDescriptor
	QueueSize          int
	HandlerMaxAttempts int
	HandlerTimeout     time.Duration
	ShutdownGrace      time.Duration
	UnhealthyThreshold int
}

// ConfigFor derives the pipeline settings for one registry entry.
func ConfigFor(desc config.ChainDescriptor, cfg config.PipelineConfig) Config {
	return Config{
		Chain:              desc,
		QueueSize:          cfg.QueueSize,
		HandlerMaxAttempts: cfg.HandlerMaxAttempts,
		HandlerTimeout:     cfg.HandlerTimeout,
		ShutdownGrace:      cfg.ShutdownGrace,
	}
}

// WatcherFor builds the log watcher for one registry entry. Subscription
// mode is used when the RPC URL is a websocket or IPC endpoint.
func WatcherFor(desc config.ChainDescriptor, cfg config.PipelineConfig, dial evm.Dialer, logger *slog.Logger, opts ...watcher.Option) *watcher.Watcher {
	limiter := ratelimit.New(cfg.RPCRPS, cfg.RPCBurst, "rpc:"+strconv.FormatInt(desc.ChainID, 10))
	return watcher.New(watcher.Config{
		ChainID:             desc.ChainID,
		Contract:            common.HexToAddress(desc.ContractAddress),
		Subscribe:           evm.SupportsSubscriptions(desc.RPCURL),
		PollInterval:        cfg.PollInterval,
		MaxBlockRange:       cfg.MaxBlockRange,
		ReconnectBackoff:    cfg.ReconnectBackoff,
		ReconnectBackoffMax: cfg.ReconnectBackoffMax,
	}, dial, logger, append([]watcher.Option{watcher.WithLimiter(limiter)}, opts...)...)
}

// Pipeline runs one chain: a log source feeding a bounded queue drained by a
// single dispatcher, so events of a chain are applied one at a time in the
// order they were received.
type Pipeline struct {
	cfg        Config
	source     LogSource
	decoder    LogDecoder
	handler    Handler
	alerter    alert.Alerter
	health     *PipelineHealth
	logger     *slog.Logger
	chainLabel string
	queue      chan types.Log

	retryInitial time.Duration
	retryMax     time.Duration
}

type Option func(*Pipeline)

func WithAlerter(a alert.Alerter) Option {
	return func(p *Pipeline) { p.alerter = a }
}

func WithDecoder(d LogDecoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

func New(cfg Config, source LogSource, handler Handler, logger *slog.Logger, opts ...Option) *Pipeline {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.HandlerMaxAttempts <= 0 {
		cfg.HandlerMaxAttempts = 1
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	p := &Pipeline{
		cfg:        cfg,
		source:     source,
		decoder:    evm.NewDecoder(),
		handler:    handler,
		alerter:    &alert.NoopAlerter{},
		health:     NewPipelineHealth(cfg.Chain.ChainID, cfg.Chain.Name, cfg.UnhealthyThreshold),
		logger:     logger.With("component", "pipeline", "chain_id", cfg.Chain.ChainID, "chain_name", cfg.Chain.Name),
		chainLabel: strconv.FormatInt(cfg.Chain.ChainID, 10),
		queue:      make(chan types.Log, cfg.QueueSize),

		retryInitial: handlerRetryInitial,
		retryMax:     handlerRetryMax,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewChainPipeline builds the pipeline for one registry entry with a
// watcher whose failures and progress feed the pipeline's health.
func NewChainPipeline(desc config.ChainDescriptor, cfg config.PipelineConfig, dial evm.Dialer, handler Handler, logger *slog.Logger, opts ...Option) *Pipeline {
	p := New(ConfigFor(desc, cfg), nil, handler, logger, opts...)
	p.source = WatcherFor(desc, cfg, dial, p.logger,
		watcher.WithErrorHook(func(err error) { p.recordFailure(context.Background(), "watcher", err) }),
		watcher.WithConnectHook(func() { p.recordSuccess(context.Background()) }),
		watcher.WithProgressHook(p.health.RecordBlock),
	)
	return p
}

func (p *Pipeline) ChainID() int64 { return p.cfg.Chain.ChainID }

func (p *Pipeline) Health() *PipelineHealth { return p.health }

// Run blocks until ctx is cancelled. The dispatcher finishes the event it is
// handling within ShutdownGrace and abandons whatever is still queued.
func (p *Pipeline) Run(ctx context.Context) error {
	p.health.SetStatus(HealthStatusHealthy)
	p.logger.Info("pipeline started", "queue_size", p.cfg.QueueSize)
	defer p.health.SetStatus(HealthStatusStopped)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.source.Run(gCtx, p.enqueue)
	})
	g.Go(func() error {
		return p.dispatch(gCtx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline chain %d: %w", p.cfg.Chain.ChainID, err)
	}
	return nil
}

// enqueue blocks while the queue is full so a slow ledger slows the intake
// instead of losing logs.
func (p *Pipeline) enqueue(ctx context.Context, logs []types.Log) error {
	for _, lg := range logs {
		select {
		case p.queue <- lg:
			metrics.DispatchQueueDepth.WithLabelValues(p.chainLabel).Set(float64(len(p.queue)))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context) error {
	for {
		// select picks randomly among ready cases; stop draining once cancelled.
		if ctx.Err() != nil {
			p.abandon()
			return nil
		}
		select {
		case <-ctx.Done():
			p.abandon()
			return nil
		case lg := <-p.queue:
			metrics.DispatchQueueDepth.WithLabelValues(p.chainLabel).Set(float64(len(p.queue)))
			p.process(ctx, lg)
		}
	}
}

func (p *Pipeline) abandon() {
	if abandoned := len(p.queue); abandoned > 0 {
		metrics.DispatchAbandoned.WithLabelValues(p.chainLabel).Add(float64(abandoned))
		p.logger.Warn("abandoning queued logs at shutdown", "abandoned", abandoned)
	}
	p.logger.Info("pipeline stopped")
}

// process decodes and applies one log. It never returns an error: failures
// are logged, counted and fed into health so the next log still runs.
func (p *Pipeline) process(ctx context.Context, lg types.Log) {
	ev, err := p.decoder.DecodeLog(lg, p.cfg.Chain.ChainID)
	if err != nil {
		reason := "decode_error"
		if errors.Is(err, evm.ErrUnknownEvent) {
			reason = "unknown_event"
			p.logger.Debug("ignoring unknown event", "tx_hash", lg.TxHash.Hex(), "log_index", lg.Index)
		} else {
			p.logger.Error("decode log failed",
				"error", err,
				"tx_hash", lg.TxHash.Hex(),
				"log_index", lg.Index,
				"block", lg.BlockNumber,
			)
		}
		metrics.DispatchDropped.WithLabelValues(p.chainLabel, reason).Inc()
		return
	}

	// The in-flight handler outlives cancellation by at most ShutdownGrace.
	hCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.HandlerTimeout)
	defer cancel()
	stopGrace := context.AfterFunc(ctx, func() {
		time.AfterFunc(p.cfg.ShutdownGrace, cancel)
	})
	defer stopGrace()

	meta := ev.Metadata()
	log := p.logger.With("event", string(ev.EventName()), "tx_hash", meta.TxHash, "log_index", meta.LogIndex)

	for attempt := 1; ; attempt++ {
		start := time.Now()
		outcome, err := p.safeHandle(hCtx, ev)
		if err == nil {
			p.health.RecordLatency(time.Since(start))
			p.recordSuccess(ctx)
			log.Debug("event handled", "outcome", outcome, "attempt", attempt)
			return
		}

		decision := retry.Classify(err)
		if decision.IsTransient() && attempt < p.cfg.HandlerMaxAttempts && ctx.Err() == nil {
			metrics.ReconcilerRetries.WithLabelValues(p.chainLabel, string(ev.EventName())).Inc()
			delay := retry.Backoff(attempt, p.retryInitial, p.retryMax)
			log.Warn("handler failed, retrying",
				"error", err,
				"attempt", attempt,
				"reason", decision.Reason,
				"backoff", delay,
			)
			if retry.Sleep(hCtx, delay) == nil {
				continue
			}
		}

		log.Error("event dropped",
			"error", err,
			"attempt", attempt,
			"class", decision.Class,
			"reason", decision.Reason,
		)
		metrics.DispatchDropped.WithLabelValues(p.chainLabel, dropReason(err, decision)).Inc()
		if countsAgainstHealth(err) {
			p.recordFailure(ctx, "handler", err)
		}
		return
	}
}

func (p *Pipeline) safeHandle(ctx context.Context, ev event.ContractEvent) (outcome reconciler.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.DispatchPanics.WithLabelValues(p.chainLabel).Inc()
			p.logger.Error("handler panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return p.handler.Handle(ctx, ev)
}

func (p *Pipeline) recordSuccess(ctx context.Context) {
	if !p.health.RecordSuccess() {
		return
	}
	p.logger.Info("pipeline recovered")
	p.sendAlert(ctx, alert.Alert{
		Type:    alert.AlertTypeRecovery,
		Title:   "pipeline recovered",
		Message: fmt.Sprintf("chain %s (%d) is processing events again", p.cfg.Chain.Name, p.cfg.Chain.ChainID),
	})
}

func (p *Pipeline) recordFailure(ctx context.Context, stage string, err error) {
	if !p.health.RecordFailure() {
		return
	}
	snap := p.health.Snapshot()
	p.logger.Error("pipeline unhealthy", "stage", stage, "consecutive_failures", snap.ConsecutiveFailures, "error", err)
	p.sendAlert(ctx, alert.Alert{
		Type:    alert.AlertTypeUnhealthy,
		Title:   "pipeline unhealthy",
		Message: fmt.Sprintf("chain %s (%d) failed %d times in a row: %v", p.cfg.Chain.Name, p.cfg.Chain.ChainID, snap.ConsecutiveFailures, err),
		Fields: map[string]string{
			"stage":      stage,
			"last_block": strconv.FormatUint(snap.LastBlock, 10),
		},
	})
}

func (p *Pipeline) sendAlert(ctx context.Context, a alert.Alert) {
	a.ChainID = p.cfg.Chain.ChainID
	a.Chain = p.cfg.Chain.Name
	if err := p.alerter.Send(context.WithoutCancel(ctx), a); err != nil {
		p.logger.Warn("send alert failed", "type", a.Type, "error", err)
	}
}

// countsAgainstHealth separates broken infrastructure from events that are
// simply unusable. Decode and consistency failures are already counted and
// alerted by the reconciler.
func countsAgainstHealth(err error) bool {
	var consistency *reconciler.ConsistencyError
	var decodeErr *evm.DecodeError
	return !errors.As(err, &consistency) && !errors.As(err, &decodeErr)
}

func dropReason(err error, decision retry.Decision) string {
	var consistency *reconciler.ConsistencyError
	var decodeErr *evm.DecodeError
	switch {
	case errors.As(err, &consistency):
		return "consistency_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case decision.IsTransient():
		return "retries_exhausted"
	default:
		return "handler_error"
	}
}
