package evm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// LogClient is the subset of *ethclient.Client the watcher uses.
type LogClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	Close()
}

// Dialer opens a fresh LogClient. Watchers redial after a dropped
// subscription.
type Dialer func(ctx context.Context) (LogClient, error)

// NewDialer returns a Dialer for rpcURL backed by go-ethereum's ethclient.
func NewDialer(rpcURL string) Dialer {
	return func(ctx context.Context) (LogClient, error) {
		client, err := ethclient.DialContext(ctx, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("dial rpc: %w", err)
		}
		return client, nil
	}
}

// SupportsSubscriptions reports whether rpcURL speaks a transport that
// carries eth_subscribe notifications.
func SupportsSubscriptions(rpcURL string) bool {
	lower := strings.ToLower(strings.TrimSpace(rpcURL))
	return strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://") ||
		strings.HasSuffix(lower, ".ipc")
}
