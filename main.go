package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notevault/config"
	"notevault/config/database"
	authRepo "notevault/internal/auth/repository"
	authService "notevault/internal/auth/service"
	"notevault/internal/document/model"
	docRepo "notevault/internal/document/repository"
	docService "notevault/internal/document/service"
	"notevault/internal/session"
	"notevault/middleware"
	"notevault/pkg/logger"
	"notevault/pkg/password"
	"notevault/router"
	"notevault/socket"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	if !dotenv {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users authService.UserStore
		docs  docService.DocumentStore
		db    *sql.DB
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Sugar.Warn("Using in-memory storage; data is lost on restart")
		users = authRepo.NewMemoryUserRepository()
		docs = docRepo.NewMemoryDocumentRepository()
	default:
		db, err = database.Connect(ctx, cfg.DSN())
		if err != nil {
			logger.Sugar.Fatalf("Database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			logger.Sugar.Fatalf("Database: %v", err)
		}
		users = authRepo.NewUserRepository(db)
		docs = docRepo.NewDocumentRepository(db)
	}

	var limiter middleware.Counter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Sugar.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Sugar.Warnf("Redis unreachable, login rate limiting will fail open: %v", err)
		}
		limiter = middleware.NewRedisCounter(rdb)
		logger.Sugar.Infof("Login rate limit: %d per %s", cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	scope := model.ScopeTitleContent
	if cfg.SearchScope == config.SearchTitle {
		scope = model.ScopeTitle
	}

	loc := cfg.Location()
	hub := socket.NewHub(loc)
	go hub.Run(ctx)

	issuer := session.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	deps := router.Deps{
		Auth:            authService.NewAuthService(users, password.Default(), issuer),
		Documents:       docService.NewDocumentService(docs, hub, scope),
		Tokens:          issuer,
		Hub:             hub,
		Location:        loc,
		AllowedOrigins:  cfg.AllowedOrigins,
		LoginLimiter:    limiter,
		LoginRateLimit:  int64(cfg.LoginRateLimit),
		LoginRateWindow: cfg.LoginRateWindow,
	}
	if db != nil {
		deps.DB = db
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Sugar.Errorf("Shutdown: %v", err)
		}
	}()

	logger.Sugar.Infof("notevault listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}
