package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyen-dev/streamfund-backend/internal/circuitbreaker"
	"github.com/oyen-dev/streamfund-backend/internal/config"
)

func testConfig(baseURL string) config.PriceConfig {
	return config.PriceConfig{
		BaseURL:            baseURL,
		Timeout:            2 * time.Second,
		MaxRedirects:       2,
		RetryAttempts:      2,
		CacheTTL:           time.Minute,
		CacheSize:          16,
		BreakerFailures:    3,
		BreakerOpenTimeout: time.Minute,
	}
}

func newTestClient(t *testing.T, cfg config.PriceConfig, shared SharedCache) *Client {
	t.Helper()
	c := NewClient(cfg, shared, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.backoff = time.Millisecond
	return c
}

type memShared struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	getErr error
}

func (m *memShared) Get(_ context.Context, id string) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return decimal.Zero, false, m.getErr
	}
	p, ok := m.prices[id]
	return p, ok, nil
}

func (m *memShared) Set(_ context.Context, id string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prices == nil {
		m.prices = make(map[string]decimal.Decimal)
	}
	m.prices[id] = price
	return nil
}

func TestPrice_Success(t *testing.T) {
	var gotPath, gotKey, gotIDs, gotVs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get(apiKeyHeader)
		gotIDs = r.URL.Query().Get("ids")
		gotVs = r.URL.Query().Get("vs_currencies")
		fmt.Fprint(w, `{"ethereum":{"usd":2000.55}}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = "demo-key"
	c := newTestClient(t, cfg, nil)

	price, ok := c.Price(context.Background(), "ethereum")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("2000.55")))
	assert.Equal(t, "/simple/price", gotPath)
	assert.Equal(t, "demo-key", gotKey)
	assert.Equal(t, "ethereum", gotIDs)
	assert.Equal(t, "usd", gotVs)
}

func TestPrice_CachesSuccessfulPrices(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"ethereum":{"usd":1}}`)
	}))
	defer srv.Close()

	shared := &memShared{}
	c := newTestClient(t, testConfig(srv.URL), shared)

	for i := 0; i < 3; i++ {
		_, ok := c.Price(context.Background(), "ethereum")
		require.True(t, ok)
	}
	assert.Equal(t, int32(1), calls.Load())

	p, ok, err := shared.Get(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.Equal(decimal.NewFromInt(1)))
}

func TestPrice_SharedCacheHit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	shared := &memShared{prices: map[string]decimal.Decimal{"usd-coin": decimal.RequireFromString("0.9998")}}
	c := newTestClient(t, testConfig(srv.URL), shared)

	price, ok := c.Price(context.Background(), "usd-coin")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("0.9998")))
	assert.Zero(t, calls.Load())
}

func TestPrice_SharedCacheErrorFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":3}}`)
	}))
	defer srv.Close()

	shared := &memShared{getErr: errors.New("redis down")}
	c := newTestClient(t, testConfig(srv.URL), shared)

	price, ok := c.Price(context.Background(), "ethereum")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(3)))
}

func TestPrice_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{}`},
		{"missing usd", `{"ethereum":{"eur":1}}`},
		{"zero", `{"ethereum":{"usd":0}}`},
		{"negative", `{"ethereum":{"usd":-1}}`},
		{"malformed", `{"ethereum":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			c := newTestClient(t, testConfig(srv.URL), nil)

			price, ok := c.Price(context.Background(), "ethereum")
			assert.False(t, ok)
			assert.True(t, price.IsZero())

			// failures are never cached
			_, ok = c.Price(context.Background(), "ethereum")
			assert.False(t, ok)
			assert.GreaterOrEqual(t, calls.Load(), int32(2))
		})
	}
}

func TestPrice_EmptyOracleID(t *testing.T) {
	c := newTestClient(t, testConfig("http://127.0.0.1:1"), nil)
	_, ok := c.Price(context.Background(), "")
	assert.False(t, ok)
}

func TestPrice_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ethereum":{"usd":2000}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL), nil)

	price, ok := c.Price(context.Background(), "ethereum")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPrice_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL), nil)

	_, ok := c.Price(context.Background(), "ethereum")
	assert.False(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPrice_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryAttempts = 0
	cfg.BreakerFailures = 2
	c := newTestClient(t, cfg, nil)

	for i := 0; i < 2; i++ {
		_, ok := c.Price(context.Background(), "ethereum")
		assert.False(t, ok)
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.breaker.GetState())

	_, ok := c.Price(context.Background(), "ethereum")
	assert.False(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPrice_UnknownIDAndCancelDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryAttempts = 0
	cfg.BreakerFailures = 1
	c := newTestClient(t, cfg, nil)

	for i := 0; i < 3; i++ {
		_, ok := c.Price(context.Background(), "not-a-coin")
		assert.False(t, ok)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := c.Price(ctx, "ethereum")
	assert.False(t, ok)

	assert.Equal(t, circuitbreaker.StateClosed, c.breaker.GetState())
}

func TestPrice_RedirectCap(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Redirect(w, r, srv.URL+"/simple/price?ids=ethereum&vs_currencies=usd", http.StatusFound)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryAttempts = 0
	c := newTestClient(t, cfg, nil)

	_, ok := c.Price(context.Background(), "ethereum")
	assert.False(t, ok)
	// net/http counts the original request in via
	assert.Equal(t, int32(2), calls.Load())
}

func TestPrice_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":1}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := c.Price(ctx, "ethereum")
	assert.False(t, ok)
	assert.Equal(t, circuitbreaker.StateClosed, c.breaker.GetState())
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&statusError{code: 429}))
	assert.True(t, retryable(&statusError{code: 503}))
	assert.False(t, retryable(&statusError{code: 400}))
	assert.False(t, retryable(fmt.Errorf("x: %w", errNoPrice)))
	assert.False(t, retryable(context.Canceled))
}
