package model

import (
	"time"

	"github.com/google/uuid"
)

// Chain is a monitored EVM network. ChainID is the external numeric id
// (84532 for Base Sepolia); ID is the internal row id.
type Chain struct {
	ID        uuid.UUID  `db:"id"`
	ChainID   int64      `db:"chain_id"`
	Name      string     `db:"name"`
	Explorer  string     `db:"block_explorer_url"`
	Image     string     `db:"image"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (c *Chain) IsActive() bool {
	return c != nil && c.DeletedAt == nil
}

// EnsureOutcome reports what an idempotent ensure step did to a row.
type EnsureOutcome string

const (
	EnsureCreated  EnsureOutcome = "created"
	EnsureRestored EnsureOutcome = "restored"
	EnsureExisting EnsureOutcome = "existing"
	EnsureSkipped  EnsureOutcome = "skipped"
)

func (o EnsureOutcome) String() string {
	return string(o)
}
