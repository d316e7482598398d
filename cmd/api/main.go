package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventnest/internal/cache"
	"github.com/joshua-takyi/eventnest/internal/chain"
	"github.com/joshua-takyi/eventnest/internal/config"
	"github.com/joshua-takyi/eventnest/internal/connect"
	"github.com/joshua-takyi/eventnest/internal/container"
	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/routes"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting EventNest API server", "environment", cfg.Environment)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := connect.MongoDBConnect(ctx, cfg.MongoDBURI, cfg.MongoDBPassword)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	repo := models.MongodbNewRepo(mongoClient, cfg.MongoDBName)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	gemini := external.NewGeminiClient(external.GeminiConfig{
		BaseURL: cfg.GeminiURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GatewayTimeout,
	})
	gateways := container.Gateways{
		Exchange: external.NewSideShiftClient(external.SideShiftConfig{
			BaseURL:     cfg.SideShiftURL,
			Secret:      cfg.SideShiftSecret,
			AffiliateID: cfg.SideShiftAffiliateID,
			Timeout:     cfg.GatewayTimeout,
		}),
		Pinner: external.NewPinataClient(external.PinataConfig{
			BaseURL:    cfg.PinataURL,
			JWT:        cfg.PinataJWT,
			APIKey:     cfg.PinataAPIKey,
			SecretKey:  cfg.PinataSecretKey,
			GatewayURL: cfg.PinataGateway,
			Timeout:    cfg.GatewayTimeout,
		}),
		Describer: gemini,
		Generator: gemini,
	}

	// Redis is optional; search runs uncached without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connect.RedisConnect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, search cache disabled", "error", err)
		} else {
			gateways.FilterCache = cache.NewFilterCache(redisClient, cfg.CacheTTL, logger)
			logger.Info("Connected to Redis successfully")
		}
	}

	if cfg.ContractAddress != "" {
		ethClient, err := connect.EthereumConnect(ctx, cfg.ChainRPC, cfg.ChainID)
		if err != nil {
			logger.Warn("Chain RPC unavailable, minting disabled", "error", err)
		} else {
			defer ethClient.Close()
			contract, err := chain.NewTicketContract(ethClient, cfg.ContractAddress, cfg.ChainID, cfg.MinterPrivateKey)
			if err != nil {
				logger.Error("Failed to bind ticket contract", "error", err)
				os.Exit(1)
			}
			gateways.Resolver = contract
			if contract.CanMint() {
				gateways.Minter = contract
			}
			logger.Info("Ticket contract bound", "address", contract.Address(), "minting", contract.CanMint())
		}
	}

	appContainer := container.NewContainer(logger, cfg,
		container.Stores{Events: repo, Users: repo, Purchases: repo},
		gateways,
	)
	router := routes.SetupRoutes(appContainer)

	appContainer.RateLimiter.StartCleanup(ctx, 5*time.Minute)
	if err := appContainer.PaymentPoller.Start(ctx); err != nil {
		logger.Error("Failed to start payment poller", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	appContainer.PaymentPoller.Stop(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis", "error", err)
		}
	}
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
