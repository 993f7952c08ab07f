package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/trekker/logger"
)

// Marker remembers processed submission ids across restarts, so a
// re-delivered exchange id is not run through the pipeline twice.
// Optional: when disabled every id reads as unprocessed and the
// freshness check alone handles duplicates.
type Marker struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
}

func NewMarker(config *Config) (*Marker, error) {
	if !config.Marker.Enabled {
		return &Marker{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Marker.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	keyTemplate := config.Marker.KeyTemplate
	if keyTemplate == "" {
		keyTemplate = "graded:{id}"
	}

	return &Marker{
		enabled:     true,
		redis:       client,
		keyTemplate: keyTemplate,
	}, nil
}

func (m *Marker) Close() error {
	if m.redis != nil {
		return m.redis.Close()
	}
	return nil
}

func (m *Marker) key(id string) string {
	return strings.NewReplacer("{id}", id).Replace(m.keyTemplate)
}

func (m *Marker) IsProcessed(ctx context.Context, id string) (bool, error) {
	if !m.enabled {
		return false, nil
	}

	n, err := m.redis.Exists(ctx, m.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}

func (m *Marker) MarkProcessed(ctx context.Context, id string) error {
	if !m.enabled {
		return nil
	}

	if err := m.redis.Set(ctx, m.key(id), 1, 0).Err(); err != nil {
		return fmt.Errorf("failed to mark submission %s as processed: %w", id, err)
	}
	logger.Debug.Printf("Submission %q was marked as processed.", id)
	return nil
}
