package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"newspulse/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a Redis client with connection pooling and verifies
// the connection before returning.
func NewRedisClient(address, password string, db, poolSize int, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         address,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.Infow("connected to Redis",
			"address", address,
			"db", db,
			"pool_size", poolSize,
		)
	}

	return client, nil
}

// TrendingPublisher periodically pushes trending snapshots to a Redis pub/sub
// channel so external consumers (feed rankers, dashboards) can follow the
// in-memory state. Publishing is best effort: the in-process ranker remains
// the source of truth and a failed publish only logs a warning.
type TrendingPublisher struct {
	client   *redis.Client
	ranker   ports.TrendRanker
	channel  string
	interval time.Duration
	topN     int
	logger   *zap.SugaredLogger
}

func NewTrendingPublisher(client *redis.Client, ranker ports.TrendRanker, channel string, interval time.Duration, logger *zap.SugaredLogger) *TrendingPublisher {
	return &TrendingPublisher{
		client:   client,
		ranker:   ranker,
		channel:  channel,
		interval: interval,
		topN:     10,
		logger:   logger,
	}
}

// Start runs the publish loop until ctx is cancelled.
func (p *TrendingPublisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Infow("trending publisher started",
		"channel", p.channel,
		"interval", p.interval,
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("trending publisher stopped")
			return
		case <-ticker.C:
			p.publishOnce(ctx)
		}
	}
}

func (p *TrendingPublisher) publishOnce(ctx context.Context) {
	snapshots := p.ranker.TrendingNews(ports.TrendQuery{Limit: p.topN})
	if len(snapshots) == 0 {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"trending":    snapshots,
		"publishedAt": time.Now().UTC(),
	})
	if err != nil {
		p.logger.Errorw("failed to marshal trending payload", "error", err)
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warnw("failed to publish trending snapshot",
			"channel", p.channel,
			"error", err,
		)
		return
	}

	p.logger.Debugw("published trending snapshot",
		"channel", p.channel,
		"entries", len(snapshots),
	)
}
