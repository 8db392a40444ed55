package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/retry"
	"github.com/oyen-dev/streamfund-backend/internal/ratelimit"
)

const (
	ModeSubscription = "subscription"
	ModePolling      = "polling"
	ModeGapFill      = "gap_fill"

	subscriptionBuffer = 128
)

var errSubscriptionClosed = errors.New("log subscription closed")

// Sink receives one batch of logs in the order they were observed. It may
// block to apply backpressure; a non-nil error stops the current session.
type Sink func(ctx context.Context, logs []types.Log) error

type Config struct {
	ChainID             int64
	Contract            common.Address
	Subscribe           bool
	PollInterval        time.Duration
	MaxBlockRange       uint64
	ReconnectBackoff    time.Duration
	ReconnectBackoffMax time.Duration
}

type Option func(*Watcher)

// WithLimiter throttles every RPC call the watcher makes.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(w *Watcher) { w.limiter = l }
}

// WithErrorHook is called for each session failure before reconnecting.
func WithErrorHook(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithConnectHook is called each time a session is established and any
// missed range has been refilled.
func WithConnectHook(fn func()) Option {
	return func(w *Watcher) { w.onConnect = fn }
}

// WithProgressHook is called whenever the covered block height advances.
func WithProgressHook(fn func(block uint64)) Option {
	return func(w *Watcher) { w.onProgress = fn }
}

// Watcher streams StreamFund contract logs for one chain. It subscribes when
// the transport supports it and polls otherwise; either way a dropped
// connection is redialed with backoff and the missed range is refilled.
type Watcher struct {
	cfg        Config
	dial       evm.Dialer
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
	chainLabel string
	rpcTarget  string
	onError    func(error)
	onConnect  func()
	onProgress func(uint64)

	lastBlock atomic.Uint64
}

func New(cfg Config, dial evm.Dialer, logger *slog.Logger, opts ...Option) *Watcher {
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = 2000
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 4 * time.Second
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = time.Second
	}
	if cfg.ReconnectBackoffMax < cfg.ReconnectBackoff {
		cfg.ReconnectBackoffMax = cfg.ReconnectBackoff
	}
	chainLabel := strconv.FormatInt(cfg.ChainID, 10)
	w := &Watcher{
		cfg:        cfg,
		dial:       dial,
		logger:     logger.With("component", "watcher", "chain_id", cfg.ChainID),
		chainLabel: chainLabel,
		rpcTarget:  "rpc:" + chainLabel,
		onError:    func(error) {},
		onConnect:  func() {},
		onProgress: func(uint64) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.limiter == nil {
		w.limiter = ratelimit.New(0, 1, w.rpcTarget)
	}
	return w
}

// LastBlock is the highest block the watcher has delivered or scanned.
func (w *Watcher) LastBlock() uint64 {
	return w.lastBlock.Load()
}

// Subscribes reports whether the watcher uses a log subscription rather
// than polling.
func (w *Watcher) Subscribes() bool {
	return w.cfg.Subscribe
}

func (w *Watcher) mode() string {
	if w.Subscribes() {
		return ModeSubscription
	}
	return ModePolling
}

// Run watches until ctx is cancelled. Session failures are reported and
// retried; Run itself only returns once ctx is done.
func (w *Watcher) Run(ctx context.Context, sink Sink) error {
	w.logger.Info("watcher started", "mode", w.mode(), "contract", w.cfg.Contract.Hex())
	attempt := 0
	for {
		before := w.LastBlock()
		err := w.session(ctx, sink)
		if ctx.Err() != nil {
			w.logger.Info("watcher stopped", "last_block", w.LastBlock())
			return nil
		}
		if w.LastBlock() > before {
			attempt = 0
		}
		attempt++

		metrics.WatcherReconnects.WithLabelValues(w.chainLabel).Inc()
		w.onError(err)
		delay := retry.Backoff(attempt, w.cfg.ReconnectBackoff, w.cfg.ReconnectBackoffMax)
		w.logger.Warn("watcher session ended, reconnecting",
			"error", err,
			"attempt", attempt,
			"backoff", delay,
			"last_block", w.LastBlock(),
		)
		if err := retry.Sleep(ctx, delay); err != nil {
			w.logger.Info("watcher stopped", "last_block", w.LastBlock())
			return nil
		}
	}
}

func (w *Watcher) session(ctx context.Context, sink Sink) error {
	client, err := w.dial(ctx)
	if err != nil {
		metrics.WatcherErrors.WithLabelValues(w.chainLabel, "dial").Inc()
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	// The subscription is opened before the head is read so blocks mined
	// during the catch up are buffered rather than skipped.
	var (
		sub  ethereum.Subscription
		logs chan types.Log
	)
	if w.cfg.Subscribe {
		logs = make(chan types.Log, subscriptionBuffer)
		if sub, err = w.openSubscription(ctx, client, logs); err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	head, err := w.blockNumber(ctx, client)
	if err != nil {
		return err
	}

	last := w.LastBlock()
	if last == 0 {
		w.advance(head)
		w.logger.Info("watching from head", "head", head)
	} else if head >= last {
		// Replaying the boundary block is harmless; handlers are idempotent.
		if err := w.fillRange(ctx, client, sink, last, head, ModeGapFill); err != nil {
			return err
		}
	}

	w.onConnect()

	if sub != nil {
		return w.consume(ctx, sub, logs, sink)
	}
	return w.poll(ctx, client, sink)
}

func (w *Watcher) openSubscription(ctx context.Context, client evm.LogClient, ch chan<- types.Log) (ethereum.Subscription, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	sub, err := client.SubscribeFilterLogs(ctx, w.query(nil, nil), ch)
	ratelimit.RecordCall(w.rpcTarget, "eth_subscribe", err)
	if err != nil {
		metrics.WatcherErrors.WithLabelValues(w.chainLabel, "subscribe").Inc()
		return nil, fmt.Errorf("subscribe logs: %w", err)
	}
	return sub, nil
}

// consume delivers subscription logs, batching whatever is already buffered.
func (w *Watcher) consume(ctx context.Context, sub ethereum.Subscription, ch <-chan types.Log, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			metrics.WatcherErrors.WithLabelValues(w.chainLabel, "subscription").Inc()
			if err == nil {
				return errSubscriptionClosed
			}
			return fmt.Errorf("log subscription: %w", err)
		case lg := <-ch:
			batch := []types.Log{lg}
		drain:
			for {
				select {
				case next := <-ch:
					batch = append(batch, next)
				default:
					break drain
				}
			}
			if err := w.deliver(ctx, sink, batch, ModeSubscription); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) poll(ctx context.Context, client evm.LogClient, sink Sink) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			head, err := w.blockNumber(ctx, client)
			if err != nil {
				return err
			}
			last := w.LastBlock()
			if head <= last {
				continue
			}
			to := min(head, last+w.cfg.MaxBlockRange)
			if err := w.fillRange(ctx, client, sink, last+1, to, ModePolling); err != nil {
				return err
			}
		}
	}
}

// fillRange scans [from, to] in MaxBlockRange sized chunks.
func (w *Watcher) fillRange(ctx context.Context, client evm.LogClient, sink Sink, from, to uint64, mode string) error {
	for start := from; start <= to; {
		end := min(to, start+w.cfg.MaxBlockRange-1)

		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		logs, err := client.FilterLogs(ctx, w.query(new(big.Int).SetUint64(start), new(big.Int).SetUint64(end)))
		ratelimit.RecordCall(w.rpcTarget, "eth_getLogs", err)
		if err != nil {
			metrics.WatcherErrors.WithLabelValues(w.chainLabel, "filter_logs").Inc()
			return fmt.Errorf("filter logs [%d, %d]: %w", start, end, err)
		}
		if err := w.deliver(ctx, sink, logs, mode); err != nil {
			return err
		}
		w.advance(end)

		if end == to {
			break
		}
		start = end + 1
	}
	return nil
}

func (w *Watcher) deliver(ctx context.Context, sink Sink, logs []types.Log, mode string) error {
	batch := make([]types.Log, 0, len(logs))
	var highest uint64
	for _, lg := range logs {
		if lg.Removed {
			metrics.DispatchDropped.WithLabelValues(w.chainLabel, "removed").Inc()
			w.logger.Debug("skipping removed log", "tx_hash", lg.TxHash.Hex(), "log_index", lg.Index)
			continue
		}
		batch = append(batch, lg)
		highest = max(highest, lg.BlockNumber)
	}
	if len(batch) == 0 {
		return nil
	}
	metrics.WatcherLogsReceived.WithLabelValues(w.chainLabel, mode).Add(float64(len(batch)))

	if err := sink(ctx, batch); err != nil {
		return fmt.Errorf("deliver logs: %w", err)
	}
	w.advance(highest)
	return nil
}

func (w *Watcher) blockNumber(ctx context.Context, client evm.LogClient) (uint64, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	head, err := client.BlockNumber(ctx)
	ratelimit.RecordCall(w.rpcTarget, "eth_blockNumber", err)
	if err != nil {
		metrics.WatcherErrors.WithLabelValues(w.chainLabel, "block_number").Inc()
		return 0, fmt.Errorf("get block number: %w", err)
	}
	return head, nil
}

func (w *Watcher) advance(block uint64) {
	for {
		cur := w.lastBlock.Load()
		if block <= cur {
			return
		}
		if w.lastBlock.CompareAndSwap(cur, block) {
			w.onProgress(block)
			return
		}
	}
}

func (w *Watcher) query(from, to *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{w.cfg.Contract},
		Topics:    [][]common.Hash{evm.EventTopics()},
	}
}
