package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

// InitRedis connects the shared client and checks the server answers.
func InitRedis(ctx context.Context, redisAddress, redisUsername, redisPassword string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", redisAddress, err)
	}
	Rdb = client
	log.Info().Str("address", redisAddress).Msg("[redis] connected")
	return client, nil
}

func Close() {
	if Rdb == nil {
		return
	}
	if err := Rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("[redis] close failed")
	}
	Rdb = nil
}
