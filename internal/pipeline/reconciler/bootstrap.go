package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oyen-dev/streamfund-backend/internal/alert"
	"github.com/oyen-dev/streamfund-backend/internal/config"
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
)

// Bootstrap ensures every configured chain has an active Chain row, an
// active native Token and an active FeeCollector. Chains are processed in
// order; the first error aborts the run.
func (r *Reconciler) Bootstrap(ctx context.Context, chains []config.ChainDescriptor) error {
	for _, desc := range chains {
		if err := r.bootstrapChain(ctx, desc); err != nil {
			err = fmt.Errorf("bootstrap chain %d: %w", desc.ChainID, err)
			a := alert.Alert{
				Type:    alert.AlertTypeBootstrapFailed,
				ChainID: desc.ChainID,
				Chain:   desc.Name,
				Title:   "Bootstrap failed",
				Message: err.Error(),
			}
			if alertErr := r.alerter.Send(ctx, a); alertErr != nil {
				r.logger.Warn("bootstrap alert failed", "error", alertErr)
			}
			return err
		}
	}
	r.logger.Info("bootstrap complete", "chains", len(chains))
	return nil
}

func (r *Reconciler) bootstrapChain(ctx context.Context, desc config.ChainDescriptor) error {
	logger := r.logger.With("chain_id", desc.ChainID, "chain_name", desc.Name)

	chain, outcome, err := r.ensureChain(ctx, desc)
	if err != nil {
		return err
	}
	recordBootstrap(logger, EntityChain, outcome, "chain_ref", chain.ID)

	outcome, err = r.ensureNativeToken(ctx, chain, desc.NativeAsset)
	if err != nil {
		return err
	}
	recordBootstrap(logger, EntityToken, outcome, "symbol", desc.NativeAsset.Symbol)

	outcome, err = r.ensureFeeCollector(ctx, chain, desc.FeeCollectorAddress, logger)
	if err != nil {
		return err
	}
	recordBootstrap(logger, EntityFeeCollector, outcome, "address", desc.FeeCollectorAddress)
	return nil
}

func recordBootstrap(logger *slog.Logger, entity string, outcome model.EnsureOutcome, args ...any) {
	metrics.BootstrapEntities.WithLabelValues(entity, outcome.String()).Inc()
	logger.Info("bootstrap ensure", append([]any{"entity", entity, "outcome", outcome.String()}, args...)...)
}

func (r *Reconciler) ensureChain(ctx context.Context, desc config.ChainDescriptor) (*model.Chain, model.EnsureOutcome, error) {
	want := &model.Chain{
		ChainID:  desc.ChainID,
		Name:     desc.Name,
		Explorer: desc.BlockExplorerURL,
		Image:    desc.Image,
	}

	existing, err := r.repos.Chain.FindByChainID(ctx, desc.ChainID)
	if err != nil {
		return nil, "", fmt.Errorf("find chain: %w", err)
	}
	if existing == nil {
		created, err := r.repos.Chain.Create(ctx, want)
		if err != nil {
			return nil, "", fmt.Errorf("create chain: %w", err)
		}
		return created, model.EnsureCreated, nil
	}

	outcome := model.EnsureExisting
	if !existing.IsActive() {
		if err := r.repos.Chain.Restore(ctx, existing.ID); err != nil {
			return nil, "", fmt.Errorf("restore chain: %w", err)
		}
		existing.DeletedAt = nil
		outcome = model.EnsureRestored
	}

	want.ID = existing.ID
	if err := r.repos.Chain.UpdateMetadata(ctx, want); err != nil {
		return nil, "", fmt.Errorf("update chain metadata: %w", err)
	}
	return existing, outcome, nil
}

func (r *Reconciler) ensureNativeToken(ctx context.Context, chain *model.Chain, asset config.NativeAsset) (model.EnsureOutcome, error) {
	address := asset.Address
	if address == "" {
		address = model.NativeTokenAddress
	}

	existing, err := r.repos.Token.FindByAddress(ctx, chain.ID, address)
	if err != nil {
		return "", fmt.Errorf("find native token: %w", err)
	}
	if existing == nil {
		_, err := r.repos.Token.Create(ctx, &model.Token{
			ChainRef:      chain.ID,
			Address:       address,
			Name:          asset.Symbol,
			Symbol:        asset.Symbol,
			Decimals:      asset.Decimals,
			PriceOracleID: asset.PriceOracleID,
			ImageURI:      asset.ImageURI,
		})
		if err != nil {
			return "", fmt.Errorf("create native token: %w", err)
		}
		return model.EnsureCreated, nil
	}
	if !existing.IsActive() {
		if err := r.repos.Token.Restore(ctx, existing.ID); err != nil {
			return "", fmt.Errorf("restore native token: %w", err)
		}
		return model.EnsureRestored, nil
	}
	return model.EnsureExisting, nil
}

// ensureFeeCollector activates the configured collector unless another
// collector is already active on the chain, in which case the on-chain
// state wins and the configured one is left untouched.
func (r *Reconciler) ensureFeeCollector(ctx context.Context, chain *model.Chain, address string, logger *slog.Logger) (model.EnsureOutcome, error) {
	existing, err := r.repos.FeeCollector.FindByAddress(ctx, chain.ID, address)
	if err != nil {
		return "", fmt.Errorf("find fee collector: %w", err)
	}
	if existing.IsActive() {
		return model.EnsureExisting, nil
	}

	active, err := r.repos.FeeCollector.FindActive(ctx, chain.ID)
	if err != nil {
		return "", fmt.Errorf("find active fee collector: %w", err)
	}
	if active != nil {
		logger.Warn("another fee collector is active, leaving configured collector untouched",
			"configured", address,
			"active", active.Address,
		)
		return model.EnsureSkipped, nil
	}

	tx, err := r.repos.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, r.logger)

	outcome := model.EnsureCreated
	if existing == nil {
		if _, err := r.repos.FeeCollector.CreateTx(ctx, tx, chain.ID, address); err != nil {
			return "", fmt.Errorf("create fee collector: %w", err)
		}
	} else {
		if err := r.repos.FeeCollector.RestoreTx(ctx, tx, existing.ID); err != nil {
			return "", fmt.Errorf("restore fee collector: %w", err)
		}
		outcome = model.EnsureRestored
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit fee collector: %w", err)
	}
	return outcome, nil
}
