package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat-backend/config/common"
	"chat-backend/config/logger"
)

type MongoConfig struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongo(cfg *common.Config, log *logger.AppLogger) *MongoConfig {
	uri, dbName := cfg.GetMongoConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Store.Error.Error().Err(err).Msg("failed to connect to mongo")
		panic("failed to connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Store.Error.Error().Err(err).Msg("failed to ping mongo")
		panic("failed to ping mongo")
	}

	db := client.Database(dbName)
	ensureIndexes(ctx, db, log)

	log.Store.Info.Info().Msg("Connection opened to mongo")
	return &MongoConfig{Client: client, Database: db}
}

// ensureIndexes backs the hot message queries: the page scan per chat and
// the reconciler's recency scan.
func ensureIndexes(ctx context.Context, db *mongo.Database, log *logger.AppLogger) {
	_, err := db.Collection("messages").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "sentAt", Value: -1}}},
		{Keys: bson.D{{Key: "sentAt", Value: 1}}},
	})
	if err != nil {
		log.Store.Warning.Warn().Err(err).Msg("failed to create message indexes")
	}
}
