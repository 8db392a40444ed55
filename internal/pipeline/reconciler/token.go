package reconciler

import (
	"context"
	"fmt"

	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

// HandleTokenAdded creates the token, or refreshes the metadata of an
// existing one and reactivates it if it was removed. created_at is never
// rewritten.
func (r *Reconciler) HandleTokenAdded(ctx context.Context, e event.TokenAdded) (Outcome, error) {
	logger := r.logger.With(
		"event", e.EventName().String(),
		"chain_id", e.ChainID,
		"tx_hash", e.TxHash,
		"log_index", e.LogIndex,
		"token", e.Token,
	)

	meta, err := evm.DecodeTokenAddedPayload(e.Data)
	if err != nil {
		logger.Error("token metadata decode failed, dropping event", "error", err)
		return "", err
	}

	chain, err := r.activeChain(ctx, e.ChainID)
	if err != nil {
		logger.Error("token added on unknown chain", "error", err)
		return "", err
	}

	existing, err := r.repos.Token.FindByAddress(ctx, chain.ID, e.Token)
	if err != nil {
		return "", fmt.Errorf("find token %s: %w", e.Token, err)
	}

	want := model.Token{
		ChainRef:      chain.ID,
		Address:       e.Token,
		Name:          meta.Name,
		Symbol:        meta.Symbol,
		Decimals:      int(e.Decimals),
		PriceOracleID: meta.PriceOracleID,
		ImageURI:      meta.ImageURI,
	}

	if existing == nil {
		created, err := r.repos.Token.Create(ctx, &want)
		if err != nil {
			return "", fmt.Errorf("create token %s: %w", e.Token, err)
		}
		logger.Info("token created", "token_id", created.ID, "symbol", want.Symbol)
		return OutcomeApplied, nil
	}

	if existing.IsActive() && sameMetadata(existing, &want) {
		logger.Info("token already active with same metadata")
		return OutcomeNoop, nil
	}

	want.ID = existing.ID
	if err := r.repos.Token.Refresh(ctx, &want); err != nil {
		return "", fmt.Errorf("refresh token %s: %w", e.Token, err)
	}
	if existing.IsActive() {
		logger.Info("token metadata refreshed", "token_id", existing.ID, "symbol", want.Symbol)
	} else {
		logger.Info("token reactivated", "token_id", existing.ID, "symbol", want.Symbol)
	}
	return OutcomeApplied, nil
}

// HandleTokenRemoved soft-deletes an active token.
func (r *Reconciler) HandleTokenRemoved(ctx context.Context, e event.TokenRemoved) (Outcome, error) {
	logger := r.logger.With(
		"event", e.EventName().String(),
		"chain_id", e.ChainID,
		"tx_hash", e.TxHash,
		"log_index", e.LogIndex,
		"token", e.Token,
	)

	chain, err := r.activeChain(ctx, e.ChainID)
	if err != nil {
		logger.Error("token removed on unknown chain", "error", err)
		return "", err
	}

	existing, err := r.repos.Token.FindByAddress(ctx, chain.ID, e.Token)
	if err != nil {
		return "", fmt.Errorf("find token %s: %w", e.Token, err)
	}
	if existing == nil {
		logger.Info("token not recorded, nothing to remove")
		return OutcomeNoop, nil
	}
	if !existing.IsActive() {
		logger.Info("token already removed")
		return OutcomeNoop, nil
	}

	if err := r.repos.Token.SoftDelete(ctx, existing.ID); err != nil {
		return "", fmt.Errorf("remove token %s: %w", e.Token, err)
	}
	logger.Info("token removed", "token_id", existing.ID)
	return OutcomeApplied, nil
}

func sameMetadata(a, b *model.Token) bool {
	return a.Name == b.Name &&
		a.Symbol == b.Symbol &&
		a.Decimals == b.Decimals &&
		a.PriceOracleID == b.PriceOracleID &&
		a.ImageURI == b.ImageURI
}
