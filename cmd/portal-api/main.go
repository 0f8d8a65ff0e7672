package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"brickfolio/listing-portal/listing-portal-backend/internal/access"
	"brickfolio/listing-portal/listing-portal-backend/internal/auth"
	"brickfolio/listing-portal/listing-portal-backend/internal/clock"
	"brickfolio/listing-portal/listing-portal-backend/internal/config"
	"brickfolio/listing-portal/listing-portal-backend/internal/directory"
	"brickfolio/listing-portal/listing-portal-backend/internal/journal"
	"brickfolio/listing-portal/listing-portal-backend/internal/ledger"
	"brickfolio/listing-portal/listing-portal-backend/internal/ledger/stellar"
	"brickfolio/listing-portal/listing-portal-backend/internal/listing"
	"brickfolio/listing-portal/listing-portal-backend/internal/monitoring"
	"brickfolio/listing-portal/listing-portal-backend/internal/notifications"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load local env for development
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Optional audit database. The escrow engines are ledger-resident; a
	// missing database disables the journal and catalog, nothing else.
	var journalRecorder listing.Recorder
	if db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL()); err != nil {
		logger.Warn("Journal database unavailable, audit journal disabled", zap.Error(err))
	} else {
		defer db.Close()
		journalRecorder = journal.NewRecorder(journal.NewRepository(db))
	}

	var directoryRepo directory.Repository
	if gdb, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{}); err != nil {
		logger.Warn("Catalog database unavailable, listing records disabled", zap.Error(err))
	} else {
		if err := gdb.AutoMigrate(&directory.ListingRecord{}); err != nil {
			logger.Warn("Catalog migration failed", zap.Error(err))
		}
		directoryRepo = directory.NewRepository(gdb)
	}

	// In-memory ledgers
	store := ledger.NewStore()
	fundingToken, err := store.CreateToken(
		cfg.Platform.FundingTokenName,
		cfg.Platform.FundingTokenSymbol,
		cfg.Platform.FundingTokenSupply,
		cfg.Platform.AdminAddress,
	)
	if err != nil {
		logger.Fatal("Failed to create funding token", zap.Error(err))
	}

	// Capability table
	roles := access.NewStore()
	roles.AddAdmin(cfg.Platform.AdminAddress)

	// Optional Stellar issuance mirror
	var unitFactory listing.UnitLedgerFactory = store
	if cfg.Stellar.Enabled {
		client, err := stellar.NewClient(cfg.Stellar.Client)
		if err != nil {
			logger.Warn("Stellar mirror disabled", zap.Error(err))
		} else {
			unitFactory = stellar.NewMirroringFactory(store, client, logger)
		}
	}

	// Websocket event hub
	hub := notifications.NewHub(logger)
	defer hub.Close()

	// Directory and escrow services
	registry := directory.NewRegistry()
	if err := registry.Register(directory.DefaultTemplateSet()); err != nil {
		logger.Fatal("Failed to register template set", zap.Error(err))
	}
	deps := listing.Deps{
		Clock:       clock.Real{},
		Access:      roles,
		UnitFactory: unitFactory,
	}
	directoryService := directory.NewService(registry, fundingToken, deps, roles, directoryRepo, hub, logger)
	listingService := listing.NewService(directoryService, store.Titles(), journalRecorder, hub, logger)

	// Auth
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Handlers
	directoryHandler := directory.NewHandler(directoryService, roles, logger)
	listingHandler := listing.NewHandler(listingService, logger)
	ledgerHandler := ledger.NewHandler(store, roles, logger)
	authHandler := auth.NewHandler(authService)

	// Status snapshots
	snapshotter := monitoring.NewSnapshotter(directoryService, logger)
	if err := snapshotter.Start(cfg.Monitoring.SnapshotCron); err != nil {
		logger.Warn("Status snapshots disabled", zap.Error(err))
	} else {
		defer snapshotter.Stop()
	}

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	authGroup := router.Group("/auth")
	authHandler.RegisterRoutes(authGroup)

	api := router.Group("/api/v1")
	api.Use(auth.Middleware(authService))
	{
		directoryHandler.RegisterRoutes(api)
		listingHandler.RegisterRoutes(api)
		ledgerHandler.RegisterRoutes(api)
	}

	router.GET("/ws", hub.Handler)

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
