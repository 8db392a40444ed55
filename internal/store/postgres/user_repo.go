package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

const userColumns = `id, address, usd_total_given, usd_total_received, created_at, updated_at, deleted_at`

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Ensure relies on the no-op DO UPDATE so RETURNING yields the existing row
// on conflict, including a soft-deleted one.
func (r *UserRepo) Ensure(ctx context.Context, address string) (*model.User, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var u model.User
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (address)
		VALUES ($1)
		ON CONFLICT (address) DO UPDATE SET address = users.address
		RETURNING `+userColumns,
		address,
	).Scan(&u.ID, &u.Address, &u.UsdTotalGiven, &u.UsdTotalReceived, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", address, err)
	}
	return &u, nil
}

func (r *UserRepo) IncrementGivenTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET usd_total_given = usd_total_given + $2, updated_at = now() WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("increment user given %s: %w", id, err)
	}
	return requireOneRow(res, "increment user given", id)
}

func (r *UserRepo) IncrementReceivedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET usd_total_received = usd_total_received + $2, updated_at = now() WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("increment user received %s: %w", id, err)
	}
	return requireOneRow(res, "increment user received", id)
}
