package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/freelance-market/internal/broker"
	"github.com/Baaaki/freelance-market/internal/config"
	"github.com/Baaaki/freelance-market/internal/database"
	"github.com/Baaaki/freelance-market/internal/handler"
	"github.com/Baaaki/freelance-market/internal/middleware"
	"github.com/Baaaki/freelance-market/internal/outbox"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/Baaaki/freelance-market/internal/wal"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	outboxRetryInterval    = 30 * time.Second
	subscribeRetryInterval = 5 * time.Second
	shutdownTimeout        = 10 * time.Second
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Log.Info("Config loaded", zap.String("environment", cfg.Environment))

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	proposalRepo := repository.NewProposalRepository(db)

	// Workflow events: journal, publish to Redis, push over WebSocket.
	// Events are journaled even while Redis is down and go out on replay.
	eventBroker, err := broker.NewRedisEventBroker(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
	}
	defer eventBroker.Close()
	if err := eventBroker.Ping(ctx); err != nil {
		logger.Log.Warn("Redis unavailable, events stay journaled until it is reachable", zap.Error(err))
	}

	journal, err := wal.NewWAL(cfg.EventJournalPath)
	if err != nil {
		logger.Log.Fatal("Failed to open event journal", zap.String("path", cfg.EventJournalPath), zap.Error(err))
	}
	defer journal.Close()

	notifier := outbox.NewNotifier(journal, eventBroker)
	if n, err := notifier.Replay(ctx); err != nil {
		logger.Log.Warn("Event replay incomplete", zap.Int("replayed", n), zap.Error(err))
	}
	go notifier.Run(ctx, outboxRetryInterval)

	wsHandler := handler.NewWebSocketHandler(cfg.CORSOrigins)
	go wsHandler.Consume(ctx, eventBroker, subscribeRetryInterval)

	// Initialize services
	authService := service.NewAuthService(db, userRepo, roleRepo, tokenRepo, service.AuthConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshTTL:    cfg.RefreshTokenExpiry,
		Environment:   cfg.Environment,
	})
	projectService := service.NewProjectService(db, projectRepo, proposalRepo, userRepo, notifier)
	proposalService := service.NewProposalService(db, proposalRepo, projectRepo, notifier)
	roleService := service.NewRoleService(roleRepo)
	userService := service.NewUserService(db, userRepo, roleRepo, tokenRepo)

	sweeper, err := service.NewTokenSweeper(tokenRepo, cfg.TokenSweepSchedule)
	if err != nil {
		logger.Log.Fatal("Invalid token sweep schedule", zap.String("schedule", cfg.TokenSweepSchedule), zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.Recovery(cfg.IsProduction()),
		middleware.RequestLogger(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(cfg.IsProduction()),
	)

	router.GET("/health", healthCheck(db))

	handler.RegisterRoutes(router.Group("/api"), handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Project:   handler.NewProjectHandler(projectService),
		Proposal:  handler.NewProposalHandler(proposalService),
		Role:      handler.NewRoleHandler(roleService),
		User:      handler.NewUserHandler(userService),
		WebSocket: wsHandler,
	}, authService)

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Database unreachable", "data": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "OK", "data": nil})
	}
}
