package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeCollector receives the protocol fee share on a chain. At most one
// collector per chain has a nil DeletedAt.
type FeeCollector struct {
	ID        uuid.UUID       `db:"id"`
	ChainRef  uuid.UUID       `db:"chain_ref"`
	Address   string          `db:"address"`
	UsdTotal  decimal.Decimal `db:"usd_total"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
	DeletedAt *time.Time      `db:"deleted_at"`
}

func (f *FeeCollector) IsActive() bool {
	return f != nil && f.DeletedAt == nil
}
