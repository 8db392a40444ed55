package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

// TxBeginner abstracts the ability to begin a database transaction.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Lookups return (nil, nil) when no row matches. Unless stated otherwise
// they see soft-deleted rows too; callers check IsActive.

type ChainRepository interface {
	FindByChainID(ctx context.Context, chainID int64) (*model.Chain, error)
	// Create inserts c, or returns the row that already holds c.ChainID.
	Create(ctx context.Context, c *model.Chain) (*model.Chain, error)
	Restore(ctx context.Context, id uuid.UUID) error
	UpdateMetadata(ctx context.Context, c *model.Chain) error
}

type TokenRepository interface {
	FindByAddress(ctx context.Context, chainRef uuid.UUID, address string) (*model.Token, error)
	// Create inserts t, or returns the row that already holds (chain, address).
	Create(ctx context.Context, t *model.Token) (*model.Token, error)
	Restore(ctx context.Context, id uuid.UUID) error
	// Refresh overwrites the mutable metadata of t.ID and clears its
	// soft-delete marker. created_at is left alone.
	Refresh(ctx context.Context, t *model.Token) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type FeeCollectorRepository interface {
	FindByAddress(ctx context.Context, chainRef uuid.UUID, address string) (*model.FeeCollector, error)
	// FindActive returns the single non-deleted collector of the chain.
	FindActive(ctx context.Context, chainRef uuid.UUID) (*model.FeeCollector, error)
	CreateTx(ctx context.Context, tx *sql.Tx, chainRef uuid.UUID, address string) (*model.FeeCollector, error)
	RestoreTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	SoftDeleteTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	// SoftDeleteActiveExceptTx retires every active collector of the chain
	// other than keepID and reports how many rows it touched.
	SoftDeleteActiveExceptTx(ctx context.Context, tx *sql.Tx, chainRef, keepID uuid.UUID) (int64, error)
	IncrementTotalTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error
}

type UserRepository interface {
	// Ensure returns the user holding address, creating it with zero totals
	// on first contact. Concurrent callers get the same row.
	Ensure(ctx context.Context, address string) (*model.User, error)
	IncrementGivenTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error
	IncrementReceivedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error
}

// TopSupportRepository serves one leaderboard kind.
type TopSupportRepository interface {
	Kind() model.LeaderboardKind
	Ensure(ctx context.Context, streamerID, viewerID uuid.UUID) (*model.TopSupport, error)
	// IncrementTx adds value and bumps count by one.
	IncrementTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, value decimal.Decimal) error
}

type SupportRepository interface {
	// InsertTx reports false when a support with the same
	// (source chain, tx hash, log index) already exists.
	InsertTx(ctx context.Context, tx *sql.Tx, s *model.Support) (bool, error)
	FindByEventKey(ctx context.Context, chainID int64, txHash string, logIndex uint) (*model.Support, error)
}

// Repos bundles the ledger repositories behind one transaction source.
type Repos struct {
	DB           TxBeginner
	Chain        ChainRepository
	Token        TokenRepository
	FeeCollector FeeCollectorRepository
	User         UserRepository
	TopSupport   TopSupportRepository
	TopSupporter TopSupportRepository
	Support      SupportRepository
}
