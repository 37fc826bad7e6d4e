package config

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"chat-backend/broadcast"
	"chat-backend/config/common"
	"chat-backend/config/logger"
	"chat-backend/handler"
	"chat-backend/middleware"
	"chat-backend/repository"
	"chat-backend/routes"
	"chat-backend/security"
	"chat-backend/usecase"
)

type AppConfig struct {
	*fiber.App
	*common.Config
	*validator.Validate
	*logrus.Logger
	*DBConfig
	*MongoConfig
	Redis *redis.Client
	*security.JWT
	*middleware.Middleware
}

func RunServer() {
	newConfig := common.NewViper()
	app := NewFiber(newConfig)
	log := NewLogger()
	fileLog := logger.NewLogger()
	newDB := NewDB(newConfig, fileLog)
	newMongo := NewMongo(newConfig, fileLog)
	newRedis := NewRedis(newConfig, fileLog)
	newValidator := NewValidator()
	newJWT := security.NewJWT(newConfig)
	newMiddleware := middleware.NewMiddleware(newConfig, newJWT, log)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:8080",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	App(&AppConfig{
		App:         app,
		Config:      newConfig,
		Validate:    newValidator,
		Logger:      log,
		DBConfig:    newDB,
		MongoConfig: newMongo,
		Redis:       newRedis,
		JWT:         newJWT,
		Middleware:  newMiddleware,
	})

	if err := app.Listen(":" + newConfig.GetServerPort()); err != nil {
		log.WithError(err).Errorf("Failed to start server: %v", err)
	}
}

func App(aC *AppConfig) {
	newUserRepository := repository.NewUserRepository(aC.GetDB())
	newChatRepository := repository.NewChatRepository(aC.GetDB())
	newMetadataRepository := repository.NewMetadataRepository(aC.GetDB())
	newMessageRepository := repository.NewMessageRepository(aC.MongoConfig.Database)
	newPresenceRepository := repository.NewPresenceRepository(aC.Redis, aC.Config.GetTypingTTL())

	hub := broadcast.NewHub(aC.Logger)

	newAuthUsecase := usecase.NewAuthUsecase(newUserRepository, aC.Validate, aC.Logger, aC.JWT)
	newChatUsecase := usecase.NewChatUsecase(newChatRepository, newMessageRepository, newMetadataRepository, newUserRepository, aC.Validate, aC.Logger)
	newMessageUsecase := usecase.NewMessageUsecase(
		newChatRepository,
		newMessageRepository,
		newMetadataRepository,
		newPresenceRepository,
		newUserRepository,
		hub,
		aC.Validate,
		aC.Logger,
		aC.Config.GetStoreTimeout(),
	)

	reconciler := usecase.NewReconciler(newMessageRepository, newMetadataRepository, aC.Logger, aC.Config.GetReconcileWindow(), 0)
	go reconciler.Run(context.Background(), aC.Config.GetReconcileInterval())

	newAuthHandler := handler.NewAuthHandler(newAuthUsecase, aC.Logger)
	newChatHandler := handler.NewChatHandler(newChatUsecase, aC.Logger)
	newMessageHandler := handler.NewMessageHandler(newMessageUsecase, aC.Logger, aC.Config.GetPageSize())

	wsHandler := handler.NewWebSocketHandler(hub, aC.JWT, newChatUsecase, newMessageUsecase, aC.Logger)

	route := routes.ConfigRoute{
		App:            aC.App,
		Middleware:     aC.Middleware,
		AuthHandler:    newAuthHandler,
		ChatHandler:    newChatHandler,
		MessageHandler: newMessageHandler,
	}
	route.GetRoute()
	route.GetWebSocketRoute(wsHandler)
}
