package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Support is the append-only record of one SupportReceived log.
// (SourceChainID, TxHash, LogIndex) is unique.
type Support struct {
	ID             uuid.UUID       `db:"id"`
	SourceChainID  int64           `db:"source_chain_id"`
	TxHash         string          `db:"tx_hash"`
	LogIndex       uint            `db:"log_index"`
	BlockNumber    uint64          `db:"block_number"`
	UsdAmount      decimal.Decimal `db:"usd_amount"`
	TokenAmount    decimal.Decimal `db:"token_amount"`
	PriceUnknown   bool            `db:"price_unknown"`
	Username       string          `db:"username"`
	Message        string          `db:"message"`
	Data           string          `db:"data"`
	ViewerID       uuid.UUID       `db:"viewer_id"`
	StreamerID     uuid.UUID       `db:"streamer_id"`
	TokenID        uuid.UUID       `db:"token_id"`
	FeeCollectorID uuid.UUID       `db:"fee_collector_id"`
	CreatedAt      time.Time       `db:"created_at"`
}

// LeaderboardKind selects one of the two per-pair aggregates.
type LeaderboardKind string

const (
	// LeaderboardTopSupport ranks a viewer's support of a streamer.
	LeaderboardTopSupport LeaderboardKind = "top_support"
	// LeaderboardTopSupporter ranks supporters per streamer.
	LeaderboardTopSupporter LeaderboardKind = "top_supporter"
)

func (k LeaderboardKind) String() string {
	return string(k)
}

// TopSupport is a cumulative (value, count) aggregate for one
// (streamer, viewer) pair. Rows are only ever incremented.
type TopSupport struct {
	ID         uuid.UUID       `db:"id"`
	Kind       LeaderboardKind `db:"-"`
	StreamerID uuid.UUID       `db:"streamer_id"`
	ViewerID   uuid.UUID       `db:"viewer_id"`
	Value      decimal.Decimal `db:"value"`
	Count      int64           `db:"count"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
	DeletedAt  *time.Time      `db:"deleted_at"`
}
