package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
)

var contract = common.HexToAddress("0x5D8cF6Ab5F5bc0B3D5f8bA8F2f0dC6b7A6c1E2d3")

type fakeSub struct {
	ch     chan<- types.Log
	errCh  chan error
	closed atomic.Bool
}

func (s *fakeSub) Err() <-chan error { return s.errCh }
func (s *fakeSub) Unsubscribe()      { s.closed.Store(true) }

// fakeChain is shared by every client the test dialer hands out, so state
// survives reconnects the way a real node's does.
type fakeChain struct {
	mu      sync.Mutex
	head    uint64
	logs    []types.Log
	queries []ethereum.FilterQuery
	subs    []*fakeSub
	closed  int
}

func (c *fakeChain) setHead(head uint64, logs ...types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = head
	c.logs = append(c.logs, logs...)
}

func (c *fakeChain) lastSub() *fakeSub {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return nil
	}
	return c.subs[len(c.subs)-1]
}

func (c *fakeChain) subCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

func (c *fakeChain) filterQueries() []ethereum.FilterQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ethereum.FilterQuery(nil), c.queries...)
}

type fakeClient struct {
	chain *fakeChain
}

func (f *fakeClient) BlockNumber(context.Context) (uint64, error) {
	f.chain.mu.Lock()
	defer f.chain.mu.Unlock()
	return f.chain.head, nil
}

func (f *fakeClient) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.chain.mu.Lock()
	defer f.chain.mu.Unlock()
	f.chain.queries = append(f.chain.queries, q)
	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	var out []types.Log
	for _, lg := range f.chain.logs {
		if lg.BlockNumber >= from && lg.BlockNumber <= to {
			out = append(out, lg)
		}
	}
	return out, nil
}

func (f *fakeClient) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.chain.mu.Lock()
	defer f.chain.mu.Unlock()
	sub := &fakeSub{ch: ch, errCh: make(chan error, 1)}
	f.chain.subs = append(f.chain.subs, sub)
	return sub, nil
}

func (f *fakeClient) Close() {
	f.chain.mu.Lock()
	defer f.chain.mu.Unlock()
	f.chain.closed++
}

func dialerFor(chain *fakeChain) evm.Dialer {
	return func(context.Context) (evm.LogClient, error) {
		return &fakeClient{chain: chain}, nil
	}
}

type collector struct {
	mu   sync.Mutex
	logs []types.Log
}

func (c *collector) sink(_ context.Context, logs []types.Log) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, logs...)
	return nil
}

func (c *collector) blocks() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, 0, len(c.logs))
	for _, lg := range c.logs {
		out = append(out, lg.BlockNumber)
	}
	return out
}

func logAt(block uint64, index uint) types.Log {
	return types.Log{
		Address:     contract,
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
		Index:       index,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, w *Watcher, sink Sink) (cancel func()) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, sink) }()
	return func() {
		cancelFn()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestPollingScansNewBlocksInChunks(t *testing.T) {
	chain := &fakeChain{head: 100}
	var c collector
	w := New(Config{
		ChainID:       84532,
		Contract:      contract,
		PollInterval:  5 * time.Millisecond,
		MaxBlockRange: 10,
	}, dialerFor(chain), testLogger())

	stop := startWatcher(t, w, c.sink)
	defer stop()

	require.Eventually(t, func() bool { return w.LastBlock() == 100 }, time.Second, time.Millisecond)

	removed := logAt(110, 0)
	removed.Removed = true
	chain.setHead(125, logAt(101, 0), logAt(105, 1), removed, logAt(118, 0), logAt(125, 3))

	require.Eventually(t, func() bool { return w.LastBlock() == 125 }, time.Second, time.Millisecond)
	assert.Equal(t, []uint64{101, 105, 118, 125}, c.blocks())

	queries := chain.filterQueries()
	require.Len(t, queries, 3)
	assert.Equal(t, uint64(101), queries[0].FromBlock.Uint64())
	assert.Equal(t, uint64(110), queries[0].ToBlock.Uint64())
	assert.Equal(t, uint64(111), queries[1].FromBlock.Uint64())
	assert.Equal(t, uint64(120), queries[1].ToBlock.Uint64())
	assert.Equal(t, uint64(121), queries[2].FromBlock.Uint64())
	assert.Equal(t, uint64(125), queries[2].ToBlock.Uint64())

	assert.Equal(t, []common.Address{contract}, queries[0].Addresses)
	require.Len(t, queries[0].Topics, 1)
	assert.ElementsMatch(t, evm.EventTopics(), queries[0].Topics[0])
}

func TestPollingDoesNotBackfillBeforeStartHead(t *testing.T) {
	chain := &fakeChain{head: 500}
	chain.logs = []types.Log{logAt(499, 0), logAt(500, 0)}
	var c collector
	w := New(Config{ChainID: 84532, Contract: contract, PollInterval: 2 * time.Millisecond}, dialerFor(chain), testLogger())

	stop := startWatcher(t, w, c.sink)
	require.Eventually(t, func() bool { return w.LastBlock() == 500 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stop()

	assert.Empty(t, c.blocks())
	assert.Empty(t, chain.filterQueries())
}

func TestSubscriptionBatchesAndReconnectFillsGap(t *testing.T) {
	chain := &fakeChain{head: 50}
	var c collector
	var sessionErrors, connects atomic.Int32
	w := New(Config{
		ChainID:             84532,
		Contract:            contract,
		Subscribe:           true,
		MaxBlockRange:       100,
		ReconnectBackoff:    time.Millisecond,
		ReconnectBackoffMax: 5 * time.Millisecond,
	}, dialerFor(chain), testLogger(),
		WithErrorHook(func(error) { sessionErrors.Add(1) }),
		WithConnectHook(func() { connects.Add(1) }),
	)

	stop := startWatcher(t, w, c.sink)
	defer stop()

	require.Eventually(t, func() bool { return connects.Load() == 1 }, time.Second, time.Millisecond)

	first := logAt(51, 0)
	chain.setHead(51, first)
	chain.lastSub().ch <- first
	require.Eventually(t, func() bool { return w.LastBlock() == 51 }, time.Second, time.Millisecond)

	// Logs emitted while the connection is down only show up via the gap fill.
	chain.setHead(60, logAt(55, 0), logAt(60, 2))
	sub := chain.lastSub()
	sub.errCh <- errors.New("websocket: close 1006")

	require.Eventually(t, func() bool { return chain.subCount() == 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return w.LastBlock() == 60 }, time.Second, time.Millisecond)

	assert.True(t, sub.closed.Load())
	assert.Equal(t, int32(1), sessionErrors.Load())
	// Block 51 is replayed by the gap fill; handlers absorb the duplicate.
	assert.Equal(t, []uint64{51, 51, 55, 60}, c.blocks())

	queries := chain.filterQueries()
	require.Len(t, queries, 1)
	assert.Equal(t, uint64(51), queries[0].FromBlock.Uint64())
	assert.Equal(t, uint64(60), queries[0].ToBlock.Uint64())
}

// subscribeHookClient runs beforeSubscribe inside SubscribeFilterLogs, i.e.
// while the node is mining but the subscription is not yet live.
type subscribeHookClient struct {
	*fakeClient
	beforeSubscribe func()
}

func (h *subscribeHookClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if h.beforeSubscribe != nil {
		h.beforeSubscribe()
	}
	return h.fakeClient.SubscribeFilterLogs(ctx, q, ch)
}

func TestReconnectCoversBlocksMinedWhileSubscribing(t *testing.T) {
	chain := &fakeChain{head: 10}
	var dials, connects atomic.Int32
	dial := func(context.Context) (evm.LogClient, error) {
		client := &subscribeHookClient{fakeClient: &fakeClient{chain: chain}}
		if dials.Add(1) == 2 {
			client.beforeSubscribe = func() { chain.setHead(12, logAt(12, 0)) }
		}
		return client, nil
	}
	var c collector
	w := New(Config{
		ChainID:             84532,
		Contract:            contract,
		Subscribe:           true,
		ReconnectBackoff:    time.Millisecond,
		ReconnectBackoffMax: 2 * time.Millisecond,
	}, dial, testLogger(), WithConnectHook(func() { connects.Add(1) }))

	stop := startWatcher(t, w, c.sink)
	defer stop()

	require.Eventually(t, func() bool { return connects.Load() == 1 }, time.Second, time.Millisecond)
	chain.setHead(11, logAt(11, 0))
	chain.lastSub().ch <- logAt(11, 0)
	require.Eventually(t, func() bool { return w.LastBlock() == 11 }, time.Second, time.Millisecond)

	chain.lastSub().errCh <- errors.New("websocket: close 1006")
	require.Eventually(t, func() bool { return connects.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, uint64(12), w.LastBlock())

	chain.setHead(13, logAt(13, 0))
	chain.lastSub().ch <- logAt(13, 0)
	require.Eventually(t, func() bool { return w.LastBlock() == 13 }, time.Second, time.Millisecond)

	assert.Equal(t, []uint64{11, 11, 12, 13}, c.blocks())
}

func TestSubscriptionSkipsRemovedLogs(t *testing.T) {
	chain := &fakeChain{head: 10}
	var c collector
	w := New(Config{ChainID: 84532, Contract: contract, Subscribe: true}, dialerFor(chain), testLogger())

	stop := startWatcher(t, w, c.sink)
	defer stop()

	require.Eventually(t, func() bool { return chain.subCount() == 1 }, time.Second, time.Millisecond)
	removed := logAt(11, 0)
	removed.Removed = true
	chain.lastSub().ch <- removed
	chain.lastSub().ch <- logAt(12, 0)

	require.Eventually(t, func() bool { return w.LastBlock() == 12 }, time.Second, time.Millisecond)
	assert.Equal(t, []uint64{12}, c.blocks())
}

func TestDialFailuresAreRetried(t *testing.T) {
	chain := &fakeChain{head: 7}
	var dials atomic.Int32
	var sessionErrors atomic.Int32
	dial := func(ctx context.Context) (evm.LogClient, error) {
		if dials.Add(1) <= 2 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return &fakeClient{chain: chain}, nil
	}
	var c collector
	w := New(Config{
		ChainID:             84532,
		Contract:            contract,
		PollInterval:        time.Millisecond,
		ReconnectBackoff:    time.Millisecond,
		ReconnectBackoffMax: 2 * time.Millisecond,
	}, dial, testLogger(), WithErrorHook(func(error) { sessionErrors.Add(1) }))

	stop := startWatcher(t, w, c.sink)
	defer stop()

	require.Eventually(t, func() bool { return w.LastBlock() == 7 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(3), dials.Load())
	assert.Equal(t, int32(2), sessionErrors.Load())
}

func TestProgressHookSeesMonotonicBlocks(t *testing.T) {
	chain := &fakeChain{head: 20}
	var mu sync.Mutex
	var seen []uint64
	w := New(Config{ChainID: 84532, Contract: contract, PollInterval: time.Millisecond, MaxBlockRange: 3}, dialerFor(chain), testLogger(),
		WithProgressHook(func(b uint64) {
			mu.Lock()
			seen = append(seen, b)
			mu.Unlock()
		}))
	var c collector

	stop := startWatcher(t, w, c.sink)
	defer stop()
	require.Eventually(t, func() bool { return w.LastBlock() == 20 }, time.Second, time.Millisecond)
	chain.setHead(27)
	require.Eventually(t, func() bool { return w.LastBlock() == 27 }, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{20, 23, 26, 27}, seen)
}

func TestRunReturnsOnCancelWhileSinkBlocks(t *testing.T) {
	chain := &fakeChain{head: 1}
	w := New(Config{ChainID: 84532, Contract: contract, Subscribe: true}, dialerFor(chain), testLogger())

	entered := make(chan struct{})
	sink := func(ctx context.Context, _ []types.Log) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}
	stop := startWatcher(t, w, sink)

	require.Eventually(t, func() bool { return chain.subCount() == 1 }, time.Second, time.Millisecond)
	chain.lastSub().ch <- logAt(2, 0)
	<-entered
	stop()

	assert.Equal(t, uint64(1), w.LastBlock())
}
