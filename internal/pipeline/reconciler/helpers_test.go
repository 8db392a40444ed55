package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/oyen-dev/streamfund-backend/internal/alert"
	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/config"
	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/notify"
	"github.com/oyen-dev/streamfund-backend/internal/store/memory"
)

const (
	testChainID    int64 = 84532
	streamerAddr         = "0x1111111111111111111111111111111111111111"
	viewerAddr           = "0x2222222222222222222222222222222222222222"
	collectorAddr        = "0x3333333333333333333333333333333333333333"
	otherCollector       = "0x4444444444444444444444444444444444444444"
	usdcAddr             = "0x5555555555555555555555555555555555555555"
)

var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type fakeOracle struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	calls  int
}

func newFakeOracle(prices map[string]string) *fakeOracle {
	o := &fakeOracle{prices: make(map[string]decimal.Decimal)}
	for id, p := range prices {
		o.prices[id] = decimal.RequireFromString(p)
	}
	return o
}

func (o *fakeOracle) Price(_ context.Context, id string) (decimal.Decimal, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	p, ok := o.prices[id]
	return p, ok
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.SupportNotification
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.SupportNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) Name() string { return "recording" }
func (p *recordingPublisher) Close() error { return nil }

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, notify.SupportNotification) error {
	return errors.New("broker unavailable")
}

func (failingPublisher) Name() string { return "failing" }
func (failingPublisher) Close() error { return nil }

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (a *recordingAlerter) Send(_ context.Context, al alert.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, al)
	return nil
}

func (a *recordingAlerter) Alerts() []alert.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]alert.Alert(nil), a.alerts...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDescriptor() config.ChainDescriptor {
	return config.ChainDescriptor{
		ChainID:             testChainID,
		Name:                "Base Sepolia",
		BlockExplorerURL:    "https://sepolia.basescan.org",
		ContractAddress:     "0x6666666666666666666666666666666666666666",
		RPCURL:              "wss://base-sepolia.example",
		FeeCollectorAddress: collectorAddr,
		NativeAsset: config.NativeAsset{
			Symbol:        "ETH",
			Decimals:      18,
			Address:       model.NativeTokenAddress,
			PriceOracleID: "ethereum",
		},
	}
}

type harness struct {
	rec       *Reconciler
	store     *memory.Store
	oracle    *fakeOracle
	publisher *recordingPublisher
	alerter   *recordingAlerter
}

func newHarness(t *testing.T, prices map[string]string) *harness {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })

	h := &harness{
		store:     st,
		oracle:    newFakeOracle(prices),
		publisher: &recordingPublisher{},
		alerter:   &recordingAlerter{},
	}
	h.rec = New(st.Repos(), h.oracle, testLogger(),
		WithProtocolFeeBps(250),
		WithPublisher(h.publisher),
		WithAlerter(h.alerter),
	)
	return h
}

func (h *harness) bootstrap(t *testing.T) *model.Chain {
	t.Helper()
	require.NoError(t, h.rec.Bootstrap(context.Background(), []config.ChainDescriptor{testDescriptor()}))
	return h.chain(t)
}

func (h *harness) chain(t *testing.T) *model.Chain {
	t.Helper()
	c, err := h.store.Repos().Chain.FindByChainID(context.Background(), testChainID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func (h *harness) activeCollectors(chainRef uuid.UUID) []model.FeeCollector {
	var out []model.FeeCollector
	for _, f := range h.store.FeeCollectors(chainRef) {
		if f.IsActive() {
			out = append(out, f)
		}
	}
	return out
}

func (h *harness) pair(t *testing.T, kind model.LeaderboardKind) *model.TopSupport {
	t.Helper()
	streamer := h.store.UserByAddress(streamerAddr)
	viewer := h.store.UserByAddress(viewerAddr)
	require.NotNil(t, streamer)
	require.NotNil(t, viewer)

	ts := h.store.TopSupport(kind, streamer.ID, viewer.ID)
	require.NotNil(t, ts)
	return ts
}

func meta(txHash string, logIndex uint) event.Meta {
	return event.Meta{
		ObservedChainID: testChainID,
		TxHash:          txHash,
		LogIndex:        logIndex,
		BlockNumber:     1000,
		BlockHash:       common.HexToHash("0xb10c").Hex(),
	}
}

func txHash(n int) string {
	return common.BigToHash(big.NewInt(int64(n))).Hex()
}

func supportEvent(t *testing.T, tx string, logIndex uint, amount *big.Int, raw string) event.SupportReceived {
	t.Helper()
	data, err := evm.EncodeSupportMessage(raw)
	require.NoError(t, err)
	return event.SupportReceived{
		Meta:     meta(tx, logIndex),
		Streamer: streamerAddr,
		Viewer:   viewerAddr,
		Token:    model.NativeTokenAddress,
		ChainID:  testChainID,
		Amount:   amount,
		Data:     data,
	}
}

func tokenAddedEvent(t *testing.T, tx string, m evm.TokenMetadata) event.TokenAdded {
	t.Helper()
	data, err := evm.EncodeTokenAddedPayload(m)
	require.NoError(t, err)
	return event.TokenAdded{
		Meta:     meta(tx, 0),
		Token:    m.Token,
		ChainID:  testChainID,
		Decimals: m.Decimals,
		Data:     data,
	}
}

func collectorChanged(tx, prev, next string) event.FeeCollectorChanged {
	return event.FeeCollectorChanged{
		Meta:          meta(tx, 0),
		PrevCollector: prev,
		NewCollector:  next,
		ChainID:       testChainID,
	}
}

func usdcMetadata() evm.TokenMetadata {
	return evm.TokenMetadata{
		Token:         usdcAddr,
		Name:          "USD Coin",
		Symbol:        "USDC",
		Decimals:      6,
		PriceOracleID: "usd-coin",
		ImageURI:      "https://x/usdc.png",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
