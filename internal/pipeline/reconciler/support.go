package reconciler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
	"github.com/oyen-dev/streamfund-backend/internal/notify"
	"github.com/oyen-dev/streamfund-backend/internal/pricing"
)

// supportParties holds every row a support touches.
type supportParties struct {
	streamer     *model.User
	viewer       *model.User
	token        *model.Token
	collector    *model.FeeCollector
	topSupport   *model.TopSupport
	topSupporter *model.TopSupport
}

// HandleSupportReceived records one support and bumps every aggregate it
// contributes to in a single transaction. A support already recorded for
// the same (chain, tx hash, log index) is a duplicate and changes nothing.
func (r *Reconciler) HandleSupportReceived(ctx context.Context, e event.SupportReceived) (Outcome, error) {
	logger := r.logger.With(
		"event", e.EventName().String(),
		"chain_id", e.ChainID,
		"tx_hash", e.TxHash,
		"log_index", e.LogIndex,
		"streamer", e.Streamer,
		"viewer", e.Viewer,
		"token", e.Token,
	)

	msg, err := evm.DecodeSupportMessage(e.Data)
	if err != nil {
		logger.Error("support message decode failed, dropping event", "error", err)
		return "", err
	}

	// Replays end here without touching users or the price API.
	recorded, err := r.repos.Support.FindByEventKey(ctx, sourceChainID(e.Meta, e.ChainID), e.TxHash, e.LogIndex)
	if err != nil {
		return "", fmt.Errorf("find support: %w", err)
	}
	if recorded != nil {
		logger.Info("support already recorded, skipping", "support_id", recorded.ID)
		return OutcomeDuplicate, nil
	}

	chain, err := r.activeChain(ctx, e.ChainID)
	if err != nil {
		logger.Error("support references unknown chain", "error", err)
		return "", err
	}

	parties, err := r.resolveSupportParties(ctx, chain, e)
	if err != nil {
		logger.Error("resolve support parties failed", "error", err)
		return "", err
	}

	usd, priced := r.usdValue(ctx, e.Amount, parties.token)
	fee := r.feeShare(usd)
	if !priced {
		metrics.ReconcilerUnpricedSupports.WithLabelValues(strconv.FormatInt(e.ChainID, 10)).Inc()
		logger.Warn("price unknown, recording support with zero usd value",
			"price_oracle_id", parties.token.PriceOracleID,
			"price", pricing.Sentinel.String(),
		)
	}

	sup := &model.Support{
		SourceChainID:  sourceChainID(e.Meta, e.ChainID),
		TxHash:         e.TxHash,
		LogIndex:       e.LogIndex,
		BlockNumber:    e.BlockNumber,
		UsdAmount:      usd,
		TokenAmount:    decimal.NewFromBigInt(e.Amount, 0),
		PriceUnknown:   !priced,
		Username:       msg.Username,
		Message:        msg.Message,
		Data:           msg.Raw(),
		ViewerID:       parties.viewer.ID,
		StreamerID:     parties.streamer.ID,
		TokenID:        parties.token.ID,
		FeeCollectorID: parties.collector.ID,
	}

	inserted, err := r.applySupport(ctx, sup, parties, usd, fee)
	if err != nil {
		logger.Error("apply support failed", "error", err)
		return "", err
	}
	if !inserted {
		logger.Info("support already recorded, skipping")
		return OutcomeDuplicate, nil
	}

	metrics.ReconcilerSupportUSD.WithLabelValues(strconv.FormatInt(e.ChainID, 10)).Add(usd.InexactFloat64())
	logger.Info("support applied",
		"support_id", sup.ID,
		"usd_amount", usd.String(),
		"fee", fee.String(),
		"username", msg.Username,
	)

	err = r.publisher.Publish(ctx, notify.SupportNotification{
		SupportID:    sup.ID.String(),
		ChainID:      e.ChainID,
		TxHash:       e.TxHash,
		LogIndex:     e.LogIndex,
		Streamer:     e.Streamer,
		Viewer:       e.Viewer,
		Username:     msg.Username,
		Message:      msg.Message,
		Token:        e.Token,
		TokenAmount:  sup.TokenAmount,
		UsdAmount:    usd,
		PriceUnknown: !priced,
		CreatedAt:    sup.CreatedAt,
	})
	if err != nil {
		logger.Warn("support notification failed", "error", err)
	}
	return OutcomeApplied, nil
}

// resolveSupportParties ensures the users and leaderboard rows exist and
// loads the token and active collector. Token and collector are never
// created here.
func (r *Reconciler) resolveSupportParties(ctx context.Context, chain *model.Chain, e event.SupportReceived) (*supportParties, error) {
	p := &supportParties{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := r.repos.User.Ensure(gctx, e.Streamer)
		if err != nil {
			return fmt.Errorf("ensure streamer %s: %w", e.Streamer, err)
		}
		p.streamer = u
		return nil
	})
	g.Go(func() error {
		u, err := r.repos.User.Ensure(gctx, e.Viewer)
		if err != nil {
			return fmt.Errorf("ensure viewer %s: %w", e.Viewer, err)
		}
		p.viewer = u
		return nil
	})
	g.Go(func() error {
		t, err := r.repos.Token.FindByAddress(gctx, chain.ID, e.Token)
		if err != nil {
			return fmt.Errorf("find token %s: %w", e.Token, err)
		}
		p.token = t
		return nil
	})
	g.Go(func() error {
		f, err := r.repos.FeeCollector.FindActive(gctx, chain.ID)
		if err != nil {
			return fmt.Errorf("find active fee collector: %w", err)
		}
		p.collector = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !p.token.IsActive() {
		return nil, consistencyError(EntityToken, e.ChainID, e.Token)
	}
	if !p.collector.IsActive() {
		return nil, consistencyError(EntityFeeCollector, e.ChainID, "")
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		ts, err := r.repos.TopSupport.Ensure(gctx, p.streamer.ID, p.viewer.ID)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", r.repos.TopSupport.Kind(), err)
		}
		p.topSupport = ts
		return nil
	})
	g.Go(func() error {
		ts, err := r.repos.TopSupporter.Ensure(gctx, p.streamer.ID, p.viewer.ID)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", r.repos.TopSupporter.Kind(), err)
		}
		p.topSupporter = ts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// applySupport inserts the support and, when it is new, every aggregate
// increment in one transaction. It reports false for a duplicate.
func (r *Reconciler) applySupport(ctx context.Context, sup *model.Support, p *supportParties, usd, fee decimal.Decimal) (bool, error) {
	tx, err := r.repos.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, r.logger)

	inserted, err := r.repos.Support.InsertTx(ctx, tx, sup)
	if err != nil {
		return false, fmt.Errorf("insert support: %w", err)
	}
	if !inserted {
		return false, nil
	}

	if err := r.repos.FeeCollector.IncrementTotalTx(ctx, tx, p.collector.ID, fee); err != nil {
		return false, fmt.Errorf("increment fee collector total: %w", err)
	}
	if err := r.repos.User.IncrementGivenTx(ctx, tx, p.viewer.ID, usd); err != nil {
		return false, fmt.Errorf("increment viewer given: %w", err)
	}
	if err := r.repos.User.IncrementReceivedTx(ctx, tx, p.streamer.ID, usd); err != nil {
		return false, fmt.Errorf("increment streamer received: %w", err)
	}
	if err := r.repos.TopSupport.IncrementTx(ctx, tx, p.topSupport.ID, usd); err != nil {
		return false, fmt.Errorf("increment %s: %w", r.repos.TopSupport.Kind(), err)
	}
	if err := r.repos.TopSupporter.IncrementTx(ctx, tx, p.topSupporter.ID, usd); err != nil {
		return false, fmt.Errorf("increment %s: %w", r.repos.TopSupporter.Kind(), err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit support: %w", err)
	}
	return true, nil
}

// usdValue converts raw token units to USD. When the oracle cannot price
// the token the value is zero and priced is false.
func (r *Reconciler) usdValue(ctx context.Context, amount *big.Int, token *model.Token) (usd decimal.Decimal, priced bool) {
	price, ok := r.prices.Price(ctx, token.PriceOracleID)
	if !ok {
		return decimal.Zero, false
	}
	units := decimal.NewFromBigInt(amount, -int32(token.Decimals))
	return units.Mul(price).Round(usdScale), true
}

// feeShare is the protocol's cut of usd, rounded to 18 places.
func (r *Reconciler) feeShare(usd decimal.Decimal) decimal.Decimal {
	return usd.Mul(r.feeBps).DivRound(decimal.NewFromInt(bpsDenominator), usdScale)
}

// sourceChainID keys a support by the chain its log was observed on.
func sourceChainID(meta event.Meta, payloadChainID int64) int64 {
	if meta.ObservedChainID != 0 {
		return meta.ObservedChainID
	}
	return payloadChainID
}

func rollback(tx *sql.Tx, logger *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Warn("rollback failed", "error", err)
	}
}
