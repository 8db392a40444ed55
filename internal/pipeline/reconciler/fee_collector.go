package reconciler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

// HandleFeeCollectorChanged retires the previous collector and activates
// the new one. Retirement runs first inside the same transaction so the
// chain never has two active collectors.
func (r *Reconciler) HandleFeeCollectorChanged(ctx context.Context, e event.FeeCollectorChanged) (Outcome, error) {
	logger := r.logger.With(
		"event", e.EventName().String(),
		"chain_id", e.ChainID,
		"tx_hash", e.TxHash,
		"log_index", e.LogIndex,
		"prev_collector", e.PrevCollector,
		"new_collector", e.NewCollector,
	)

	chain, err := r.activeChain(ctx, e.ChainID)
	if err != nil {
		logger.Error("fee collector change references unknown chain", "error", err)
		return "", err
	}

	var prev, next *model.FeeCollector
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := r.repos.FeeCollector.FindByAddress(gctx, chain.ID, e.PrevCollector)
		if err != nil {
			return fmt.Errorf("find previous collector %s: %w", e.PrevCollector, err)
		}
		prev = f
		return nil
	})
	g.Go(func() error {
		f, err := r.repos.FeeCollector.FindByAddress(gctx, chain.ID, e.NewCollector)
		if err != nil {
			return fmt.Errorf("find new collector %s: %w", e.NewCollector, err)
		}
		next = f
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("fee collector lookup failed", "error", err)
		return "", err
	}

	tx, err := r.repos.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, r.logger)

	changed := false
	keepID := uuid.Nil
	if next != nil {
		keepID = next.ID
	}

	switch {
	case prev == nil:
		logger.Info("previous collector not recorded, nothing to retire")
	case !prev.IsActive():
		logger.Info("previous collector already retired")
	case prev.ID == keepID:
		logger.Info("previous and new collector are the same")
	default:
		if err := r.repos.FeeCollector.SoftDeleteTx(ctx, tx, prev.ID); err != nil {
			return "", fmt.Errorf("retire collector %s: %w", prev.Address, err)
		}
		changed = true
	}

	retired, err := r.repos.FeeCollector.SoftDeleteActiveExceptTx(ctx, tx, chain.ID, keepID)
	if err != nil {
		return "", fmt.Errorf("retire other collectors: %w", err)
	}
	if retired > 0 {
		logger.Warn("retired active collectors not named by the event", "count", retired)
		changed = true
	}

	switch {
	case next == nil:
		if _, err := r.repos.FeeCollector.CreateTx(ctx, tx, chain.ID, e.NewCollector); err != nil {
			return "", fmt.Errorf("create collector %s: %w", e.NewCollector, err)
		}
		changed = true
	case !next.IsActive():
		if err := r.repos.FeeCollector.RestoreTx(ctx, tx, next.ID); err != nil {
			return "", fmt.Errorf("restore collector %s: %w", e.NewCollector, err)
		}
		changed = true
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit fee collector change: %w", err)
	}

	if !changed {
		logger.Info("fee collector already current")
		return OutcomeNoop, nil
	}
	logger.Info("fee collector changed")
	return OutcomeApplied, nil
}
