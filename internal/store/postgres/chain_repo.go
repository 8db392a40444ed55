package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

const chainColumns = `id, chain_id, name, block_explorer_url, image, created_at, updated_at, deleted_at`

type ChainRepo struct {
	db *DB
}

func NewChainRepo(db *DB) *ChainRepo {
	return &ChainRepo{db: db}
}

func scanChain(row rowScanner) (*model.Chain, error) {
	var c model.Chain
	if err := row.Scan(&c.ID, &c.ChainID, &c.Name, &c.Explorer, &c.Image, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChainRepo) FindByChainID(ctx context.Context, chainID int64) (*model.Chain, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	c, err := scanChain(r.db.QueryRowContext(ctx,
		`SELECT `+chainColumns+` FROM chains WHERE chain_id = $1`, chainID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find chain %d: %w", chainID, err)
	}
	return c, nil
}

func (r *ChainRepo) Create(ctx context.Context, c *model.Chain) (*model.Chain, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	created, err := scanChain(r.db.QueryRowContext(ctx, `
		INSERT INTO chains (chain_id, name, block_explorer_url, image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id) DO NOTHING
		RETURNING `+chainColumns,
		c.ChainID, c.Name, c.Explorer, c.Image))
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindByChainID(ctx, c.ChainID)
	}
	if err != nil {
		return nil, fmt.Errorf("create chain %d: %w", c.ChainID, err)
	}
	return created, nil
}

func (r *ChainRepo) Restore(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx,
		`UPDATE chains SET deleted_at = NULL, updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("restore chain %s: %w", id, err)
	}
	return nil
}

func (r *ChainRepo) UpdateMetadata(ctx context.Context, c *model.Chain) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		UPDATE chains SET name = $2, block_explorer_url = $3, image = $4, updated_at = now()
		WHERE id = $1 AND (name, block_explorer_url, image) IS DISTINCT FROM ($2, $3, $4)
	`, c.ID, c.Name, c.Explorer, c.Image); err != nil {
		return fmt.Errorf("update chain %s: %w", c.ID, err)
	}
	return nil
}
