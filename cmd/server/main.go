package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "vehicle-rental-backend/internal/api/http"
	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/jobs"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/repository/memory"
	"vehicle-rental-backend/internal/repository/postgres"
	"vehicle-rental-backend/internal/scheduler"
	"vehicle-rental-backend/internal/security"
	"vehicle-rental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.example.yaml", "Path to configuration file")
	withScheduler := flag.Bool("scheduler", true, "Run the nightly jobs inside the server process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vehicle Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "storage", cfg.Storage.Type)

	st, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// Initialize Services
	discountSvc := service.NewDiscountService(cfg.Loyalty.Tiers)
	availabilitySvc := service.NewAvailabilityService(st.Assets(), st.Reservations())
	reservationSvc := service.NewReservationService(st, discountSvc, cfg.Pricing.TaxRate, cfg.Reservation.RequestTimeout())
	calendarSvc := service.NewCalendarService(st.Assets(), st.Reservations())

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	handler := httpapi.NewReservationHandler(availabilitySvc, reservationSvc, calendarSvc)
	router := httpapi.NewRouter(handler, st, tokenManager)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	if *withScheduler {
		cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(reservationSvc, cfg))
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// openStore connects the configured backend. The returned func releases it.
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Storage.Type == config.StorageMemory {
		logger.Info("Using in-memory storage", "seed_demo_data", cfg.Storage.SeedDemoData)
		mem := memory.NewStore()
		if cfg.Storage.SeedDemoData {
			seedDemoData(mem)
		}
		return mem, func() {}, nil
	}

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	if err := postgres.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

// seedDemoData loads a small fleet for local development against the memory store.
func seedDemoData(mem *memory.Store) {
	mem.AddAsset(domain.Asset{Name: "Compact Camper", DailyRateCents: 8900, Location: "Depot North"})
	mem.AddAsset(domain.Asset{Name: "Family Motorhome", DailyRateCents: 15900, Location: "Depot North"})
	mem.AddAsset(domain.Asset{Name: "4x4 Rooftop Tent", DailyRateCents: 11900, Location: "Depot South"})
	mem.AddAsset(domain.Asset{Name: "Vintage Van", DailyRateCents: 12900, Location: "Depot South", Status: domain.AssetStatusMaintenance})

	mem.AddCustomer(domain.Customer{Name: "Demo Customer", Email: "demo@example.com"})

	mem.AddEquipment(domain.Equipment{Name: "Bike rack", PricePerDayCents: 900})
	mem.AddEquipment(domain.Equipment{Name: "Camping chairs (set of 4)", PricePerDayCents: 500})
	mem.AddEquipment(domain.Equipment{Name: "Portable grill", PricePerDayCents: 700})

	mem.AddActivity(domain.Activity{Name: "Guided hike", PricePerParticipantCents: 4500})
	mem.AddActivity(domain.Activity{Name: "Kayak tour", PricePerParticipantCents: 6500})
	logger.Info("Seeded demo data")
}
