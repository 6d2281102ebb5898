package main

import (
	"context"
	"fmt"
	"log/slog"

	"voicegate/internal/platform/config"
	"voicegate/internal/platform/database"
	"voicegate/internal/platform/health"
	"voicegate/internal/platform/redis"
	"voicegate/internal/voiceauth/ports"
	profilestore "voicegate/internal/voiceauth/store/profile"
)

// backend is the selected profile store plus whatever must be closed on shutdown.
type backend struct {
	kind  string
	store ports.ProfileStore
	redis *redis.Client
	close func()
}

// openStore prefers Postgres, then Redis, then the in-memory store.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (*backend, error) {
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pool != nil {
		if err := pool.Migrate(ctx); err != nil {
			pool.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Info("profile store: postgres")
		return &backend{
			kind:  "postgres",
			store: profilestore.NewPostgres(pool.DB()),
			close: func() {
				if err := pool.Close(); err != nil {
					log.Error("close postgres", "error", err)
				}
			},
		}, nil
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		log.Info("profile store: redis", "key_prefix", client.KeyPrefix)
		return &backend{
			kind:  "redis",
			store: profilestore.NewRedis(client.Client, client.KeyPrefix),
			redis: client,
			close: func() {
				if err := client.Close(); err != nil {
					log.Error("close redis", "error", err)
				}
			},
		}, nil
	}

	log.Warn("profile store: memory; profiles are lost on restart")
	return &backend{kind: "memory", store: profilestore.NewInMemory(), close: func() {}}, nil
}

// pinger is implemented by every profile store backend.
type pinger interface {
	Ping(ctx context.Context) error
}

func (b *backend) registerChecks(h *health.Handler) {
	if p, ok := b.store.(pinger); ok {
		h.RegisterCheck("profile_store", p.Ping)
	}
}
