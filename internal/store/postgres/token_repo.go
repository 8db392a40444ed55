package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

const tokenColumns = `id, chain_ref, address, name, symbol, decimals, price_oracle_id, image_uri, created_at, updated_at, deleted_at`

type TokenRepo struct {
	db *DB
}

func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func scanToken(row rowScanner) (*model.Token, error) {
	var t model.Token
	if err := row.Scan(&t.ID, &t.ChainRef, &t.Address, &t.Name, &t.Symbol, &t.Decimals,
		&t.PriceOracleID, &t.ImageURI, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepo) FindByAddress(ctx context.Context, chainRef uuid.UUID, address string) (*model.Token, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	t, err := scanToken(r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE chain_ref = $1 AND address = $2`, chainRef, address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find token %s: %w", address, err)
	}
	return t, nil
}

func (r *TokenRepo) Create(ctx context.Context, t *model.Token) (*model.Token, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	created, err := scanToken(r.db.QueryRowContext(ctx, `
		INSERT INTO tokens (chain_ref, address, name, symbol, decimals, price_oracle_id, image_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chain_ref, address) DO NOTHING
		RETURNING `+tokenColumns,
		t.ChainRef, t.Address, t.Name, t.Symbol, t.Decimals, t.PriceOracleID, t.ImageURI))
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindByAddress(ctx, t.ChainRef, t.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("create token %s: %w", t.Address, err)
	}
	return created, nil
}

func (r *TokenRepo) Restore(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET deleted_at = NULL, updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("restore token %s: %w", id, err)
	}
	return nil
}

func (r *TokenRepo) Refresh(ctx context.Context, t *model.Token) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE tokens SET
			name = $2,
			symbol = $3,
			decimals = $4,
			price_oracle_id = $5,
			image_uri = $6,
			deleted_at = NULL,
			updated_at = now()
		WHERE id = $1
	`, t.ID, t.Name, t.Symbol, t.Decimals, t.PriceOracleID, t.ImageURI)
	if err != nil {
		return fmt.Errorf("refresh token %s: %w", t.ID, err)
	}
	return requireOneRow(res, "refresh token", t.ID)
}

func (r *TokenRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return fmt.Errorf("soft delete token %s: %w", id, err)
	}
	return nil
}
