package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/freshcart/freshcart/internal/auth"
	"github.com/freshcart/freshcart/internal/config"
	"github.com/freshcart/freshcart/internal/database"
	"github.com/freshcart/freshcart/internal/logging"
	"github.com/freshcart/freshcart/internal/mail"
	"github.com/freshcart/freshcart/internal/ratelimit"
	"github.com/freshcart/freshcart/internal/session"
	"github.com/freshcart/freshcart/internal/token"
	"github.com/freshcart/freshcart/internal/user"
	"github.com/freshcart/freshcart/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	sqlDB, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db := database.NewBunDB(sqlDB)

	// Initialize Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	// Initialize repositories and stores
	userRepo := user.NewRepository(db)
	sessionStore := session.NewRedisStore(redisClient, cfg.Auth.SessionDuration)
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize activation token codec
	codec, err := token.NewCodec(cfg.Auth.TokenKey, cfg.Auth.ActivationTokenDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	// Initialize mailer and dispatcher
	mailer := mail.NewMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromName,
		cfg.Server.BaseURL,
	)

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()

	dispatcher := mail.NewDispatcher(cfg.Email.Workers, mailer, logger)
	dispatcher.Start(dispatcherCtx)

	// Initialize auth service
	authService := auth.NewService(userRepo, codec, dispatcher, logger)

	// Initialize renderer, handlers and access gate
	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	handler := web.NewHandler(
		authService,
		sessionStore,
		rateLimiter,
		renderer,
		!cfg.Server.IsDevelopment(), // isProduction
		cfg.Auth.SessionDuration,
		cfg.Auth.RememberCookieDuration,
	)
	gate := web.NewGate(sessionStore)

	// Initialize router and HTTP server
	router := web.NewRouter(cfg, handler, gate, logger)

	server := web.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
