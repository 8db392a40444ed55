package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/oyen-dev/streamfund-backend/internal/metrics"
)

// Limiter is a token bucket in front of one upstream, such as a chain RPC
// endpoint or the price API. A non-positive rps disables limiting.
type Limiter struct {
	limiter *rate.Limiter
	target  string
}

func New(rps float64, burst int, target string) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		target:  target,
	}
}

// Wait blocks until one token is available or ctx is done. Exactly one
// token is consumed per successful call.
func (l *Limiter) Wait(ctx context.Context) error {
	r := l.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate limiter %s: cannot reserve token", l.target)
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	metrics.RPCRateLimitWaits.WithLabelValues(l.target).Inc()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// RecordCall counts one upstream call under its classified status.
func RecordCall(target, method string, err error) {
	metrics.RPCCallsTotal.WithLabelValues(target, method, ClassifyError(err)).Inc()
}

// ClassifyError buckets an upstream error for metrics labelling.
func ClassifyError(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.StatusCode)
	}
	var statusErr interface{ HTTPStatus() int }
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.HTTPStatus())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network_error"
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout"):
		return "timeout"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return "rate_limited"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "broken pipe") || strings.Contains(lower, "eof"):
		return "network_error"
	default:
		return "client_error"
	}
}

func classifyStatus(code int) string {
	switch {
	case code == 429:
		return "rate_limited"
	case code >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
