package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
)

// Decoder turns raw contract logs into typed events. It holds no state
// beyond the parsed ABI and is safe for concurrent use.
type Decoder struct {
	abi abi.ABI
}

func NewDecoder() *Decoder {
	return &Decoder{abi: ContractABI}
}

type supportReceivedData struct {
	Chain  *big.Int
	Amount *big.Int
	Data   []byte
}

type feeCollectorChangedData struct {
	Chain *big.Int
}

type tokenAddedData struct {
	Chain    *big.Int
	Decimals uint8
	Data     []byte
}

type tokenRemovedData struct {
	Chain *big.Int
}

// DecodeLog decodes lg into one of the event types in the event package.
// observedChainID is the chain the log was received on.
func (d *Decoder) DecodeLog(lg types.Log, observedChainID int64) (event.ContractEvent, error) {
	if len(lg.Topics) == 0 {
		return nil, &DecodeError{Payload: "log", Err: fmt.Errorf("log has no topics")}
	}
	abiEvent, err := d.abi.EventByID(lg.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: topic0=%s", ErrUnknownEvent, lg.Topics[0].Hex())
	}

	meta := event.Meta{
		ObservedChainID: observedChainID,
		TxHash:          lg.TxHash.Hex(),
		LogIndex:        lg.Index,
		BlockNumber:     lg.BlockNumber,
		BlockHash:       lg.BlockHash.Hex(),
	}

	switch event.Name(abiEvent.Name) {
	case event.NameSupportReceived:
		if err := requireTopics(lg, 4); err != nil {
			return nil, err
		}
		var data supportReceivedData
		if err := d.abi.UnpackIntoInterface(&data, abiEvent.Name, lg.Data); err != nil {
			return nil, &DecodeError{Payload: abiEvent.Name, Err: err}
		}
		chainID, err := chainIDFrom(data.Chain)
		if err != nil {
			return nil, err
		}
		if data.Amount == nil {
			return nil, &DecodeError{Payload: abiEvent.Name, Err: fmt.Errorf("missing amount")}
		}
		return event.SupportReceived{
			Meta:     meta,
			Streamer: topicAddress(lg.Topics[1]),
			Viewer:   topicAddress(lg.Topics[2]),
			Token:    topicAddress(lg.Topics[3]),
			ChainID:  chainID,
			Amount:   data.Amount,
			Data:     data.Data,
		}, nil

	case event.NameFeeCollectorChanged:
		if err := requireTopics(lg, 3); err != nil {
			return nil, err
		}
		var data feeCollectorChangedData
		if err := d.abi.UnpackIntoInterface(&data, abiEvent.Name, lg.Data); err != nil {
			return nil, &DecodeError{Payload: abiEvent.Name, Err: err}
		}
		chainID, err := chainIDFrom(data.Chain)
		if err != nil {
			return nil, err
		}
		return event.FeeCollectorChanged{
			Meta:          meta,
			PrevCollector: topicAddress(lg.Topics[1]),
			NewCollector:  topicAddress(lg.Topics[2]),
			ChainID:       chainID,
		}, nil

	case event.NameTokenAdded:
		if err := requireTopics(lg, 2); err != nil {
			return nil, err
		}
		var data tokenAddedData
		if err := d.abi.UnpackIntoInterface(&data, abiEvent.Name, lg.Data); err != nil {
			return nil, &DecodeError{Payload: abiEvent.Name, Err: err}
		}
		chainID, err := chainIDFrom(data.Chain)
		if err != nil {
			return nil, err
		}
		return event.TokenAdded{
			Meta:     meta,
			Token:    topicAddress(lg.Topics[1]),
			ChainID:  chainID,
			Decimals: data.Decimals,
			Data:     data.Data,
		}, nil

	case event.NameTokenRemoved:
		if err := requireTopics(lg, 2); err != nil {
			return nil, err
		}
		var data tokenRemovedData
		if err := d.abi.UnpackIntoInterface(&data, abiEvent.Name, lg.Data); err != nil {
			return nil, &DecodeError{Payload: abiEvent.Name, Err: err}
		}
		chainID, err := chainIDFrom(data.Chain)
		if err != nil {
			return nil, err
		}
		return event.TokenRemoved{
			Meta:    meta,
			Token:   topicAddress(lg.Topics[1]),
			ChainID: chainID,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, abiEvent.Name)
}

func requireTopics(lg types.Log, n int) error {
	if len(lg.Topics) != n {
		return &DecodeError{Payload: "log", Err: fmt.Errorf("expected %d topics, got %d", n, len(lg.Topics))}
	}
	return nil
}

func topicAddress(topic common.Hash) string {
	return common.BytesToAddress(topic.Bytes()).Hex()
}

func chainIDFrom(v *big.Int) (int64, error) {
	if v == nil || v.Sign() <= 0 || !v.IsInt64() {
		return 0, &DecodeError{Payload: "chain", Err: fmt.Errorf("chain id %v out of range", v)}
	}
	return v.Int64(), nil
}
