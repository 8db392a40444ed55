package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is an on-chain address acting as viewer (payer), streamer (payee)
// or both.
type User struct {
	ID               uuid.UUID       `db:"id"`
	Address          string          `db:"address"`
	UsdTotalGiven    decimal.Decimal `db:"usd_total_given"`
	UsdTotalReceived decimal.Decimal `db:"usd_total_received"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
	DeletedAt        *time.Time      `db:"deleted_at"`
}
