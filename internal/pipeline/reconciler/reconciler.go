package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/alert"
	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
	"github.com/oyen-dev/streamfund-backend/internal/notify"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/retry"
	"github.com/oyen-dev/streamfund-backend/internal/pricing"
	"github.com/oyen-dev/streamfund-backend/internal/store"
	"github.com/oyen-dev/streamfund-backend/internal/tracing"
)

const (
	DefaultProtocolFeeBps = 250
	bpsDenominator        = 10000
	usdScale              = 18
)

// Outcome reports what a handler did to the ledger.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeNoop      Outcome = "noop"
)

func (o Outcome) String() string {
	return string(o)
}

// Entities a ConsistencyError can name.
const (
	EntityChain        = "chain"
	EntityToken        = "token"
	EntityFeeCollector = "fee_collector"
)

// ConsistencyError reports that an event references a Chain, Token or
// FeeCollector that should already exist. The event is dropped.
type ConsistencyError struct {
	Entity  string
	ChainID int64
	Address string
}

func (e *ConsistencyError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("consistency: %s missing for chain %d", e.Entity, e.ChainID)
	}
	return fmt.Sprintf("consistency: %s %s missing for chain %d", e.Entity, e.Address, e.ChainID)
}

func consistencyError(entity string, chainID int64, address string) error {
	return retry.Terminal(&ConsistencyError{Entity: entity, ChainID: chainID, Address: address})
}

// Reconciler applies decoded contract events to the ledger.
type Reconciler struct {
	repos     *store.Repos
	prices    pricing.Oracle
	publisher notify.Publisher
	alerter   alert.Alerter
	feeBps    decimal.Decimal
	logger    *slog.Logger
}

type Option func(*Reconciler)

func WithProtocolFeeBps(bps int64) Option {
	return func(r *Reconciler) {
		r.feeBps = decimal.NewFromInt(bps)
	}
}

func WithPublisher(p notify.Publisher) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.publisher = p
		}
	}
}

func WithAlerter(a alert.Alerter) Option {
	return func(r *Reconciler) {
		if a != nil {
			r.alerter = a
		}
	}
}

func New(repos *store.Repos, prices pricing.Oracle, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		repos:     repos,
		prices:    prices,
		publisher: notify.NoopPublisher{},
		alerter:   &alert.NoopAlerter{},
		feeBps:    decimal.NewFromInt(DefaultProtocolFeeBps),
		logger:    logger.With("component", "reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle dispatches ev to its handler and records the span, metrics and
// alerts for the result.
func (r *Reconciler) Handle(ctx context.Context, ev event.ContractEvent) (outcome Outcome, err error) {
	meta := ev.Metadata()
	name := ev.EventName()
	chainLabel := strconv.FormatInt(meta.ObservedChainID, 10)

	ctx, span := tracing.StartEventSpan(ctx, name.String(), meta.ObservedChainID, meta.TxHash, meta.LogIndex)
	start := time.Now()
	defer func() {
		tracing.End(span, err)
		metrics.ReconcilerHandlerDuration.WithLabelValues(chainLabel, name.String()).Observe(time.Since(start).Seconds())
		metrics.ReconcilerEventsHandled.WithLabelValues(chainLabel, name.String(), resultLabel(outcome, err)).Inc()
	}()

	switch e := ev.(type) {
	case event.SupportReceived:
		outcome, err = r.HandleSupportReceived(ctx, e)
	case event.FeeCollectorChanged:
		outcome, err = r.HandleFeeCollectorChanged(ctx, e)
	case event.TokenAdded:
		outcome, err = r.HandleTokenAdded(ctx, e)
	case event.TokenRemoved:
		outcome, err = r.HandleTokenRemoved(ctx, e)
	default:
		err = fmt.Errorf("%w: %T", evm.ErrUnknownEvent, ev)
	}

	var ce *ConsistencyError
	if errors.As(err, &ce) {
		metrics.ReconcilerConsistencyErrors.WithLabelValues(chainLabel, name.String(), ce.Entity).Inc()
		r.alertConsistency(ctx, name, meta, ce)
	}
	return outcome, err
}

func resultLabel(outcome Outcome, err error) string {
	if err == nil {
		return outcome.String()
	}
	var ce *ConsistencyError
	var de *evm.DecodeError
	switch {
	case errors.As(err, &ce):
		return "consistency_error"
	case errors.As(err, &de):
		return "decode_error"
	default:
		return "error"
	}
}

func (r *Reconciler) alertConsistency(ctx context.Context, name event.Name, meta event.Meta, ce *ConsistencyError) {
	a := alert.Alert{
		Type:    alert.AlertTypeConsistency,
		ChainID: ce.ChainID,
		Title:   fmt.Sprintf("%s references missing %s", name, ce.Entity),
		Message: ce.Error(),
		Fields: map[string]string{
			"event":     name.String(),
			"tx_hash":   meta.TxHash,
			"log_index": strconv.FormatUint(uint64(meta.LogIndex), 10),
			"block":     strconv.FormatUint(meta.BlockNumber, 10),
		},
	}
	if ce.Address != "" {
		a.Fields["address"] = ce.Address
	}
	if err := r.alerter.Send(ctx, a); err != nil {
		r.logger.Warn("consistency alert failed", "error", err)
	}
}

// activeChain resolves a chain by its external id. Absent or soft-deleted
// chains are a ConsistencyError.
func (r *Reconciler) activeChain(ctx context.Context, chainID int64) (*model.Chain, error) {
	c, err := r.repos.Chain.FindByChainID(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("find chain %d: %w", chainID, err)
	}
	if !c.IsActive() {
		return nil, consistencyError(EntityChain, chainID, "")
	}
	return c, nil
}
