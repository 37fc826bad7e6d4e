package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-backend/config/common"
	"chat-backend/config/logger"
)

func NewRedis(cfg *common.Config, log *logger.AppLogger) *redis.Client {
	addr, password, db := cfg.GetRedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Store.Error.Error().Err(err).Msg("failed to ping redis")
		panic("failed to connect redis")
	}

	log.Store.Info.Info().Msg("Connection opened to redis")
	return client
}
