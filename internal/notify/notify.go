package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oyen-dev/streamfund-backend/internal/config"
	"github.com/oyen-dev/streamfund-backend/internal/metrics"
	redisstore "github.com/oyen-dev/streamfund-backend/internal/store/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// SupportNotification is the feed entry emitted for every committed support.
type SupportNotification struct {
	SupportID    string          `json:"support_id"`
	ChainID      int64           `json:"chain_id"`
	TxHash       string          `json:"tx_hash"`
	LogIndex     uint            `json:"log_index"`
	Streamer     string          `json:"streamer"`
	Viewer       string          `json:"viewer"`
	Username     string          `json:"username"`
	Message      string          `json:"message"`
	Token        string          `json:"token"`
	TokenAmount  decimal.Decimal `json:"token_amount"`
	UsdAmount    decimal.Decimal `json:"usd_amount"`
	PriceUnknown bool            `json:"price_unknown"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Publisher delivers support notifications to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, n SupportNotification) error
	Name() string
	Close() error
}

// NoopPublisher discards notifications.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, SupportNotification) error { return nil }
func (NoopPublisher) Name() string                                       { return config.NotifyBackendNone }
func (NoopPublisher) Close() error                                       { return nil }

type streamAppender interface {
	Publish(ctx context.Context, key string, payload []byte) (string, error)
}

// RedisPublisher appends notifications to a capped Redis stream.
type RedisPublisher struct {
	stream streamAppender
}

func NewRedisPublisher(client goredis.Cmdable, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{stream: redisstore.NewStream(client, stream, maxLen)}
}

func (p *RedisPublisher) Publish(ctx context.Context, n SupportNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if _, err := p.stream.Publish(ctx, n.Streamer, payload); err != nil {
		return err
	}
	return nil
}

func (p *RedisPublisher) Name() string { return config.NotifyBackendRedis }

// Close is a no-op; the redis client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes notifications keyed by streamer address so that one
// streamer's feed stays ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n SupportNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.Streamer),
		Value: payload,
		Time:  n.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Name() string { return config.NotifyBackendKafka }

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Instrumented counts publish results and swallows errors after logging them.
// A failed notification never affects the ledger.
type Instrumented struct {
	next   Publisher
	logger *slog.Logger
}

func NewInstrumented(next Publisher, logger *slog.Logger) *Instrumented {
	return &Instrumented{next: next, logger: logger.With("component", "notify", "backend", next.Name())}
}

func (p *Instrumented) Publish(ctx context.Context, n SupportNotification) error {
	if err := p.next.Publish(ctx, n); err != nil {
		metrics.NotificationsPublished.WithLabelValues(p.next.Name(), "error").Inc()
		p.logger.Warn("publish support notification failed",
			"support_id", n.SupportID,
			"chain_id", n.ChainID,
			"tx_hash", n.TxHash,
			"error", err,
		)
		return nil
	}
	metrics.NotificationsPublished.WithLabelValues(p.next.Name(), "ok").Inc()
	return nil
}

func (p *Instrumented) Name() string { return p.next.Name() }

func (p *Instrumented) Close() error { return p.next.Close() }

// FromConfig builds the configured backend. redisClient may be nil unless the
// redis backend is selected.
func FromConfig(cfg *config.Config, redisClient goredis.Cmdable, logger *slog.Logger) (Publisher, error) {
	var next Publisher
	switch cfg.Notify.Backend {
	case "", config.NotifyBackendNone:
		next = NoopPublisher{}
	case config.NotifyBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("notify backend redis requires REDIS_URL")
		}
		next = NewRedisPublisher(redisClient, cfg.Notify.RedisStream, cfg.Notify.RedisStreamLen)
	case config.NotifyBackendKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("notify backend kafka requires KAFKA_BROKERS")
		}
		next = NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.SupportTopic)
	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Notify.Backend)
	}
	return NewInstrumented(next, logger), nil
}
