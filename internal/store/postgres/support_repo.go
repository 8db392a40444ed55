package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

type SupportRepo struct {
	db *DB
}

func NewSupportRepo(db *DB) *SupportRepo {
	return &SupportRepo{db: db}
}

// InsertTx fills s.ID and s.CreatedAt when the row is new.
func (r *SupportRepo) InsertTx(ctx context.Context, tx *sql.Tx, s *model.Support) (bool, error) {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO supports (
			source_chain_id, tx_hash, log_index, block_number,
			usd_amount, token_amount, price_unknown,
			username, message, data,
			viewer_id, streamer_id, token_id, fee_collector_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source_chain_id, tx_hash, log_index) DO NOTHING
		RETURNING id, created_at
	`,
		s.SourceChainID, s.TxHash, int64(s.LogIndex), int64(s.BlockNumber),
		s.UsdAmount, s.TokenAmount, s.PriceUnknown,
		s.Username, s.Message, s.Data,
		s.ViewerID, s.StreamerID, s.TokenID, s.FeeCollectorID,
	).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert support %s#%d: %w", s.TxHash, s.LogIndex, err)
	}
	return true, nil
}

func (r *SupportRepo) FindByEventKey(ctx context.Context, chainID int64, txHash string, logIndex uint) (*model.Support, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var (
		s           model.Support
		idx, blockN int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source_chain_id, tx_hash, log_index, block_number,
		       usd_amount, token_amount, price_unknown, username, message, data,
		       viewer_id, streamer_id, token_id, fee_collector_id, created_at
		FROM supports
		WHERE source_chain_id = $1 AND tx_hash = $2 AND log_index = $3
	`, chainID, txHash, int64(logIndex)).Scan(
		&s.ID, &s.SourceChainID, &s.TxHash, &idx, &blockN,
		&s.UsdAmount, &s.TokenAmount, &s.PriceUnknown, &s.Username, &s.Message, &s.Data,
		&s.ViewerID, &s.StreamerID, &s.TokenID, &s.FeeCollectorID, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find support %s#%d: %w", txHash, logIndex, err)
	}
	s.LogIndex = uint(idx)
	s.BlockNumber = uint64(blockN)
	return &s, nil
}
