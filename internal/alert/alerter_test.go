package alert

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyen-dev/streamfund-backend/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAlert() Alert {
	return Alert{
		Type:    AlertTypeConsistency,
		ChainID: 84532,
		Chain:   "Base Sepolia",
		Title:   "token missing",
		Message: "SupportReceived references unknown token",
		Fields: map[string]string{
			"tx_hash": "0xabc",
			"token":   "0x0000000000000000000000000000000000000001",
		},
	}
}

func countingServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &n
}

func TestMultiAlerter_Send_AllChannels(t *testing.T) {
	slackSrv, slackN := countingServer(t, http.StatusOK)
	hookSrv, hookN := countingServer(t, http.StatusOK)

	multi := NewMultiAlerter(time.Hour, testLogger(), NewSlackAlerter(slackSrv.URL), NewWebhookAlerter(hookSrv.URL))
	require.NoError(t, multi.Send(context.Background(), testAlert()))

	assert.Equal(t, int32(1), slackN.Load())
	assert.Equal(t, int32(1), hookN.Load())
}

func TestMultiAlerter_Cooldown(t *testing.T) {
	srv, n := countingServer(t, http.StatusOK)
	multi := NewMultiAlerter(time.Minute, testLogger(), NewWebhookAlerter(srv.URL))
	now := time.Unix(1_700_000_000, 0)
	multi.nowFn = func() time.Time { return now }

	a := testAlert()
	require.NoError(t, multi.Send(context.Background(), a))
	require.NoError(t, multi.Send(context.Background(), a))
	assert.Equal(t, int32(1), n.Load(), "second send inside cooldown is suppressed")

	other := a
	other.ChainID = 11155111
	require.NoError(t, multi.Send(context.Background(), other))
	assert.Equal(t, int32(2), n.Load(), "different chain has its own cooldown")

	now = now.Add(time.Minute)
	require.NoError(t, multi.Send(context.Background(), a))
	assert.Equal(t, int32(3), n.Load(), "cooldown expired")
}

func TestMultiAlerter_PartialFailure(t *testing.T) {
	failSrv, _ := countingServer(t, http.StatusInternalServerError)
	goodSrv, goodN := countingServer(t, http.StatusOK)

	multi := NewMultiAlerter(time.Hour, testLogger(), NewWebhookAlerter(failSrv.URL), NewWebhookAlerter(goodSrv.URL))
	err := multi.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(1), goodN.Load())
}

func TestSlackAlerter_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewSlackAlerter(srv.URL).Send(context.Background(), testAlert()))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	text := payload["text"]
	assert.True(t, strings.HasPrefix(text, ":scales:"))
	assert.Contains(t, text, "[CONSISTENCY]")
	assert.Contains(t, text, "Base Sepolia (84532)")
	assert.Contains(t, text, "token missing")
	assert.Less(t, strings.Index(text, "*token*"), strings.Index(text, "*tx_hash*"), "fields are sorted")
}

func TestSlackEmoji(t *testing.T) {
	assert.Equal(t, ":warning:", slackEmoji(AlertTypeUnhealthy))
	assert.Equal(t, ":white_check_mark:", slackEmoji(AlertTypeRecovery))
	assert.Equal(t, ":scales:", slackEmoji(AlertTypeConsistency))
	assert.Equal(t, ":rotating_light:", slackEmoji(AlertTypeBootstrapFailed))
}

func TestWebhookAlerter_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhookAlerter(srv.URL).Send(context.Background(), testAlert()))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "CONSISTENCY", payload["type"])
	assert.Equal(t, float64(84532), payload["chain_id"])
	assert.Equal(t, "Base Sepolia", payload["chain"])
	fields, ok := payload["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0xabc", fields["tx_hash"])
	ts, ok := payload["time"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestFromConfig(t *testing.T) {
	m := FromConfig(config.AlertConfig{Cooldown: time.Minute}, testLogger())
	require.Len(t, m.alerters, 1)
	assert.Equal(t, "noop", alerterName(m.alerters[0]))
	assert.NoError(t, m.Send(context.Background(), testAlert()))

	m = FromConfig(config.AlertConfig{SlackWebhookURL: "http://a", WebhookURL: "http://b"}, testLogger())
	require.Len(t, m.alerters, 2)
	assert.Equal(t, "slack", alerterName(m.alerters[0]))
	assert.Equal(t, "webhook", alerterName(m.alerters[1]))
}
