package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/config"
	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
	bandredis "github.com/Nixie-Tech-LLC/bandroom/internal/redis"
)

// Backend is the document store together with the bus its changes travel on.
type Backend struct {
	Store   *db.Store
	Bus     realtime.Bus
	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// InitBackend picks the change bus (Redis when configured, in-process
// otherwise) and the store: in memory without DATABASE_URL, else PostgreSQL
// fronted by a local mirror that keeps serving when writes fail.
func InitBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	if cfg.RedisAddress != "" {
		client, err := bandredis.InitRedis(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.Bus = realtime.NewRedisBus(client, realtime.DefaultChannel)
		b.closers = append(b.closers, bandredis.Close)
	} else {
		b.Bus = realtime.NewLocalBus()
	}

	if cfg.MemoryMode() {
		log.Warn().Msg("DATABASE_URL not set, keeping documents in memory only")
		b.Store = db.NewMemoryStore(b.Bus)
		return b, nil
	}

	conn, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("db init: %w", err)
	}
	b.closers = append(b.closers, func() { conn.Close() })

	if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
		b.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	origin := uuid.NewString()
	store, mirror := db.NewMirror(db.NewPostgresStore(conn, b.Bus, origin), origin)
	if err := mirror.Sync(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}
	if err := mirror.Watch(ctx, b.Bus); err != nil {
		b.Close()
		return nil, fmt.Errorf("watch changes: %w", err)
	}
	b.closers = append(b.closers, mirror.Close)
	b.Store = store
	return b, nil
}
