package model

import (
	"time"

	"github.com/google/uuid"
)

type Token struct {
	ID            uuid.UUID  `db:"id"`
	ChainRef      uuid.UUID  `db:"chain_ref"`
	Address       string     `db:"address"`
	Name          string     `db:"name"`
	Symbol        string     `db:"symbol"`
	Decimals      int        `db:"decimals"`
	PriceOracleID string     `db:"price_oracle_id"`
	ImageURI      string     `db:"image_uri"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (t *Token) IsActive() bool {
	return t != nil && t.DeletedAt == nil
}

// NativeTokenAddress is the placeholder address the contract uses for the
// chain's native asset.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
