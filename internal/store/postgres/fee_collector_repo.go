package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

const feeCollectorColumns = `id, chain_ref, address, usd_total, created_at, updated_at, deleted_at`

type FeeCollectorRepo struct {
	db *DB
}

func NewFeeCollectorRepo(db *DB) *FeeCollectorRepo {
	return &FeeCollectorRepo{db: db}
}

func scanFeeCollector(row rowScanner) (*model.FeeCollector, error) {
	var f model.FeeCollector
	if err := row.Scan(&f.ID, &f.ChainRef, &f.Address, &f.UsdTotal, &f.CreatedAt, &f.UpdatedAt, &f.DeletedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeeCollectorRepo) FindByAddress(ctx context.Context, chainRef uuid.UUID, address string) (*model.FeeCollector, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	f, err := scanFeeCollector(r.db.QueryRowContext(ctx,
		`SELECT `+feeCollectorColumns+` FROM fee_collectors WHERE chain_ref = $1 AND address = $2`, chainRef, address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find fee collector %s: %w", address, err)
	}
	return f, nil
}

func (r *FeeCollectorRepo) FindActive(ctx context.Context, chainRef uuid.UUID) (*model.FeeCollector, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	f, err := scanFeeCollector(r.db.QueryRowContext(ctx,
		`SELECT `+feeCollectorColumns+` FROM fee_collectors WHERE chain_ref = $1 AND deleted_at IS NULL`, chainRef))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active fee collector: %w", err)
	}
	return f, nil
}

// CreateTx inserts an active collector. An existing (chain, address) row is
// returned unchanged.
func (r *FeeCollectorRepo) CreateTx(ctx context.Context, tx *sql.Tx, chainRef uuid.UUID, address string) (*model.FeeCollector, error) {
	f, err := scanFeeCollector(tx.QueryRowContext(ctx, `
		INSERT INTO fee_collectors (chain_ref, address)
		VALUES ($1, $2)
		ON CONFLICT (chain_ref, address) DO UPDATE SET address = fee_collectors.address
		RETURNING `+feeCollectorColumns,
		chainRef, address))
	if err != nil {
		return nil, fmt.Errorf("create fee collector %s: %w", address, err)
	}
	return f, nil
}

func (r *FeeCollectorRepo) RestoreTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE fee_collectors SET deleted_at = NULL, updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("restore fee collector %s: %w", id, err)
	}
	return nil
}

func (r *FeeCollectorRepo) SoftDeleteTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE fee_collectors SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return fmt.Errorf("soft delete fee collector %s: %w", id, err)
	}
	return nil
}

func (r *FeeCollectorRepo) SoftDeleteActiveExceptTx(ctx context.Context, tx *sql.Tx, chainRef, keepID uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE fee_collectors SET deleted_at = now(), updated_at = now()
		WHERE chain_ref = $1 AND id <> $2 AND deleted_at IS NULL
	`, chainRef, keepID)
	if err != nil {
		return 0, fmt.Errorf("retire fee collectors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retire fee collectors: rows affected: %w", err)
	}
	return n, nil
}

func (r *FeeCollectorRepo) IncrementTotalTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE fee_collectors SET usd_total = usd_total + $2, updated_at = now() WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("increment fee collector %s: %w", id, err)
	}
	return requireOneRow(res, "increment fee collector", id)
}
