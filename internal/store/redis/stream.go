package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Stream appends entries to a capped Redis stream.
type Stream struct {
	client redis.Cmdable
	name   string
	maxLen int64
}

// NewStream binds a stream name. maxLen <= 0 leaves the stream uncapped.
func NewStream(client redis.Cmdable, name string, maxLen int64) *Stream {
	return &Stream{client: client, name: name, maxLen: maxLen}
}

func (s *Stream) Name() string {
	return s.name
}

// Publish appends one entry and returns the id Redis assigned to it.
func (s *Stream) Publish(ctx context.Context, key string, payload []byte) (string, error) {
	id, err := s.client.XAdd(ctx, s.addArgs(key, payload)).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.name, err)
	}
	return id, nil
}

func (s *Stream) addArgs(key string, payload []byte) *redis.XAddArgs {
	args := &redis.XAddArgs{
		Stream: s.name,
		Values: map[string]any{
			"key":     key,
			"payload": string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return args
}
