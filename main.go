// main.go
package main

import (
	"context"
	"log"

	"cinema-reservation/cmd"
	"cinema-reservation/internal/data/cache"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/queue"
	"cinema-reservation/internal/reservation"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/internal/wire"
	"cinema-reservation/pkg/database"
	"cinema-reservation/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Redis-backed seat map cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	defer rdb.Close()

	seatCache := cache.NewSeatMapCache(rdb, config.Redis.CacheTTL, logger)

	// Message broker. Without one the lifecycle events go nowhere,
	// which is fine for local development.
	var publisher queue.Publisher = queue.NopPublisher{}
	if config.Queue.URL != "" {
		publisher = queue.NewAMQPPublisher(config.Queue.URL, logger)
	}

	// Reservation engine
	clock := reservation.NewClock()
	inventory := reservation.NewInventory(logger)
	registry := reservation.NewRegistry(inventory, clock, config.Hold.TTL, logger)
	coordinator := reservation.NewCoordinator(
		reservation.NewSimulatedProvider(),
		registry,
		config.Payment.ProviderTimeout,
		clock,
		logger,
	)

	service := usecase.NewService(repos, inventory, registry, coordinator, seatCache, publisher, logger)

	// Wire all dependencies
	app := wire.Wiring(service, config, logger)

	// Surface late payment successes to operators
	if config.Queue.URL != "" {
		consumer := queue.NewReconciliationConsumer(config.Queue.URL, logger)
		go consumer.Start(context.Background())
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
