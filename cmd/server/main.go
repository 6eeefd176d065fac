package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/app"
	"fleet/internal/clock"
	"fleet/internal/config"
	"fleet/internal/handler"
	internalRedis "fleet/internal/redis"
	"fleet/internal/repository/postgres"
	"fleet/internal/service"
	"fleet/internal/sweeper"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, sweepers := wireServer(db, redisClient, nrApp, cfg)

	// Background sweeps run until shutdown.
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	for _, s := range sweepers {
		go sweeper.NewRunner(s, cfg.Sweep.Interval, nrApp).Run(sweepCtx)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSweeps()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// background sweepers.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, []sweeper.Sweeper) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	localityRepo := postgres.NewLocalityRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)

	// Initialize services.
	clk := clock.NewSystem()
	notificationService := service.NewNotificationService()
	psp := service.NewMockPSP()
	paymentService := service.NewPaymentService(psp)
	allocator := service.NewAllocatorService(vehicleRepo, tripRepo, localityRepo, lockStore, cfg.Allocator)
	fleetService := service.NewFleetService(vehicleRepo, tripRepo, localityRepo, cacheStore)
	tripService := service.NewTripService(db, tripRepo, vehicleRepo, ticketRepo, allocator, paymentService, notificationService, cacheStore, clk)
	ticketService := service.NewTicketService(db, tripRepo, ticketRepo, lockStore, paymentService, notificationService, cacheStore, clk, cfg.Ticket.HoldTTL)

	// Initialize sweepers.
	sweepers := []sweeper.Sweeper{
		sweeper.NewTripSweeper(tripRepo, vehicleRepo, cacheStore, clk, cfg.Sweep.BatchSize),
		sweeper.NewDowntimeSweeper(vehicleRepo, cacheStore, clk, cfg.Sweep.BatchSize),
		sweeper.NewHoldSweeper(tripRepo, ticketRepo, cacheStore, clk, cfg.Sweep.BatchSize),
	}

	// Initialize handlers.
	localityHandler := handler.NewLocalityHandler(localityRepo)
	vehicleHandler := handler.NewVehicleHandler(fleetService)
	tripHandler := handler.NewTripHandler(tripService)
	ticketHandler := handler.NewTicketHandler(ticketService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		LocalityHandler: localityHandler,
		VehicleHandler:  vehicleHandler,
		TripHandler:     tripHandler,
		TicketHandler:   ticketHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweepers
}
