package main

import (
	"cascade"
	"cascade/internal/api/handler/endpoints"
	"cascade/internal/api/models"
	"cascade/internal/api/service"
	"cascade/internal/outbox"
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	cascade.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if cascade.GetConfig().Mode == "dev" {
		if err := cascade.DB.AutoMigrate(
			&models.User{},
			&models.Workflow{},
			&models.Node{},
			&models.Edge{},
			&models.NodeExecutionRecord{},
			&models.EvaluationHistory{},
			&models.Alert{},
			&models.IngestionSubmission{},
			&models.Framework{},
			&models.Variable{},
			&models.SchemaDefinition{},
			&models.ApiKey{},
		); err != nil {
			cascade.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		cascade.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(cascade.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	events, err := outbox.NewPublisher(
		cascade.GetConfig().NatsConfig.URL,
		cascade.GetConfig().CascadeConfig.OutboxSubjectPrefix,
		cascade.Logger,
	)
	if err != nil {
		cascade.Logger.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	events.Start()
	defer events.Stop()
	cascade.Logger.Info().Msg("Outbound event queue started")

	cascadeService := service.NewCascadeService(events)
	initAPI(router, cascadeService)

	cascade.Logger.Debug().Msgf("Starting CASCADE API on port %s", cascade.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cascade.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func initAPI(router *graceful.Graceful, cascadeService *service.CascadeService) {
	endpoints.AuthHandler(router)
	endpoints.CascadeHandler(router, cascadeService)
	endpoints.AlertHandler(router)
}
