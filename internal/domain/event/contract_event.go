package event

import (
	"math/big"
)

// Name identifies one of the contract events the indexer consumes.
type Name string

const (
	NameSupportReceived     Name = "SupportReceived"
	NameFeeCollectorChanged Name = "FeeCollectorChanged"
	NameTokenAdded          Name = "TokenAdded"
	NameTokenRemoved        Name = "TokenRemoved"
)

func (n Name) String() string {
	return string(n)
}

// Meta locates a decoded log on the chain it was observed on.
type Meta struct {
	ObservedChainID int64 // chain id of the watcher that received the log
	TxHash          string
	LogIndex        uint
	BlockNumber     uint64
	BlockHash       string
}

// ContractEvent is implemented by every decoded contract event.
type ContractEvent interface {
	EventName() Name
	Metadata() Meta
}

// SupportReceived is emitted when a viewer tips a streamer.
type SupportReceived struct {
	Meta
	Streamer string   // payee
	Viewer   string   // payer ("from")
	Token    string   // token contract, or the native placeholder
	ChainID  int64    // chain id carried in the event payload
	Amount   *big.Int // raw token units
	Data     []byte   // ABI-encoded "username,message" string
}

func (SupportReceived) EventName() Name  { return NameSupportReceived }
func (e SupportReceived) Metadata() Meta { return e.Meta }

// FeeCollectorChanged is emitted when the protocol fee recipient changes.
type FeeCollectorChanged struct {
	Meta
	PrevCollector string
	NewCollector  string
	ChainID       int64
}

func (FeeCollectorChanged) EventName() Name  { return NameFeeCollectorChanged }
func (e FeeCollectorChanged) Metadata() Meta { return e.Meta }

// TokenAdded is emitted when a token is accepted for support payments.
type TokenAdded struct {
	Meta
	Token    string
	ChainID  int64
	Decimals uint8
	Data     []byte // ABI-encoded token metadata tuple
}

func (TokenAdded) EventName() Name  { return NameTokenAdded }
func (e TokenAdded) Metadata() Meta { return e.Meta }

// TokenRemoved is emitted when a token is no longer accepted.
type TokenRemoved struct {
	Meta
	Token   string
	ChainID int64
}

func (TokenRemoved) EventName() Name  { return NameTokenRemoved }
func (e TokenRemoved) Metadata() Meta { return e.Meta }
