package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/cache"
	"github.com/oyen-dev/streamfund-backend/internal/circuitbreaker"
	"github.com/oyen-dev/streamfund-backend/internal/config"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/retry"
	"github.com/oyen-dev/streamfund-backend/internal/ratelimit"
)

const (
	apiKeyHeader   = "x-cg-demo-api-key"
	limiterTarget  = "coingecko"
	defaultBackoff = 250 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// Sentinel is the value logged in place of a price the oracle could not
// resolve.
var Sentinel = decimal.NewFromInt(-1)

var errNoPrice = errors.New("price missing or non-positive")

// Oracle resolves the USD price of one unit of an asset. ok=false means the
// price is unknown; it never returns an error.
type Oracle interface {
	Price(ctx context.Context, oracleID string) (price decimal.Decimal, ok bool)
}

// SharedCache is a cross-process cache tier, such as redis.
type SharedCache interface {
	Get(ctx context.Context, oracleID string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, oracleID string, price decimal.Decimal) error
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("price api returned status %d", e.code)
}

func (e *statusError) HTTPStatus() int {
	return e.code
}

// Client is a CoinGecko simple-price client.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	attempts int
	backoff  time.Duration

	local   *cache.LRU[string, decimal.Decimal]
	shared  SharedCache
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

// NewClient builds a client. shared may be nil.
func NewClient(cfg config.PriceConfig, shared SharedCache, logger *slog.Logger) *Client {
	maxRedirects := cfg.MaxRedirects
	logger = logger.With("component", "price_oracle")

	c := &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		attempts: 1 + max(cfg.RetryAttempts, 0),
		backoff:  defaultBackoff,
		local:    cache.NewLRU[string, decimal.Decimal](cfg.CacheSize, cfg.CacheTTL),
		shared:   shared,
		limiter:  ratelimit.New(cfg.RPS, cfg.Burst, limiterTarget),
		logger:   logger,
		http: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
	c.breaker = circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			metrics.PriceBreakerState.Set(float64(to))
			logger.Warn("price oracle circuit breaker state changed", "from", from.String(), "to", to.String())
		},
		IsFailure: upstreamFailure,
	})
	return c
}

func (c *Client) Price(ctx context.Context, oracleID string) (decimal.Decimal, bool) {
	if oracleID == "" {
		metrics.PriceRequests.WithLabelValues("invalid").Inc()
		return decimal.Zero, false
	}

	if price, ok := c.local.Get(oracleID); ok {
		metrics.PriceRequests.WithLabelValues("cache_hit").Inc()
		return price, true
	}

	if c.shared != nil {
		price, ok, err := c.shared.Get(ctx, oracleID)
		if err != nil {
			c.logger.Warn("shared price cache read failed", "oracle_id", oracleID, "error", err)
		} else if ok {
			c.local.Put(oracleID, price)
			metrics.PriceRequests.WithLabelValues("shared_hit").Inc()
			return price, true
		}
	}

	var price decimal.Decimal
	err := c.breaker.Execute(func() error {
		var err error
		price, err = c.fetchWithRetry(ctx, oracleID)
		return err
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			outcome = "breaker_open"
		}
		metrics.PriceRequests.WithLabelValues(outcome).Inc()
		c.logger.Warn("price unavailable", "oracle_id", oracleID, "price", Sentinel.String(), "error", err)
		return decimal.Zero, false
	}

	c.local.Put(oracleID, price)
	if c.shared != nil {
		if err := c.shared.Set(ctx, oracleID, price); err != nil {
			c.logger.Warn("shared price cache write failed", "oracle_id", oracleID, "error", err)
		}
	}
	metrics.PriceRequests.WithLabelValues("ok").Inc()
	return price, true
}

func (c *Client) fetchWithRetry(ctx context.Context, oracleID string) (decimal.Decimal, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			if err := retry.Sleep(ctx, retry.Backoff(attempt-1, c.backoff, maxBackoff)); err != nil {
				return decimal.Zero, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return decimal.Zero, err
		}

		price, err := c.fetch(ctx, oracleID)
		ratelimit.RecordCall(limiterTarget, "simple_price", err)
		if err == nil {
			return price, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return decimal.Zero, lastErr
}

func (c *Client) fetch(ctx context.Context, oracleID string) (decimal.Decimal, error) {
	start := time.Now()
	defer func() {
		metrics.PriceRequestDuration.Observe(time.Since(start).Seconds())
	}()

	q := url.Values{}
	q.Set("ids", oracleID)
	q.Set("vs_currencies", "usd")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return decimal.Zero, &statusError{code: resp.StatusCode}
	}

	var body map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode price response: %w", err)
	}
	raw, ok := body[oracleID]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", oracleID, errNoPrice)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s=%s: %w", oracleID, price, errNoPrice)
	}
	return price, nil
}

// upstreamFailure reports whether err says the API is unhealthy. An unknown
// id or a caller giving up says nothing about the upstream.
func upstreamFailure(err error) bool {
	return !errors.Is(err, errNoPrice) && !errors.Is(err, context.Canceled)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	if errors.Is(err, errNoPrice) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return retry.Classify(err).IsTransient()
}
