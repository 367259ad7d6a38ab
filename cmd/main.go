/*
Package main is the entry point for the chatlink server.

It loads configuration, initializes logging, opens the Postgres pool (running migrations),
connects object storage and the optional NATS relay, starts the realtime gateway and the
HTTP server, and shuts everything down in order on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"chatlink/internal/app/chat"
	"chatlink/internal/app/db"
	"chatlink/internal/app/relay"
	"chatlink/internal/app/storage"
	"chatlink/internal/configs"
	"chatlink/internal/handler"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/logx"
)

// tokenSweepInterval is how often expired refresh tokens are purged.
const tokenSweepInterval = time.Hour

func main() {
	if err := configs.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("node_id", cfg.NodeID).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("store_timeout", cfg.StoreTimeout).
		Bool("relay", cfg.NatsURL != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Database initialization failed")
	}
	defer pool.Close()

	queries := db.New(pool)

	storageService, err := storage.NewStorageService(ctx, storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:     cfg.S3PublicBaseURL,
	})
	if err != nil {
		logx.Fatal(err, "Storage initialization failed")
	}

	opts := []chat.Option{
		chat.WithStoreTimeout(cfg.StoreTimeout),
		chat.WithMeter(otel.Meter("chatlink/chat")),
	}

	var natsRelay *relay.NATS
	if cfg.NatsURL != "" {
		natsRelay, err = relay.Connect(ctx, cfg.NatsURL, cfg.NodeID)
		if err != nil {
			logx.Fatal(err, "Relay connection failed", "nats_url", cfg.NatsURL)
		}
		defer natsRelay.Close()

		opts = append(opts, chat.WithRelay(natsRelay))
	}

	gateway := chat.NewGateway(queries, jwt.NewVerifier(cfg.JWTSecret), opts...)

	if natsRelay != nil {
		if err := natsRelay.Subscribe(gateway.DeliverLocal); err != nil {
			logx.Fatal(err, "Relay subscription failed")
		}
	}

	go sweepRefreshTokens(ctx, queries)

	router, stopLimiters := handler.Router(&handler.AppDeps{
		Gateway:        gateway,
		Config:         cfg,
		StorageService: storageService,
		DB:             queries,
	})
	defer stopLimiters()

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("chatlink server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Hijacked WebSocket connections are not tracked by Shutdown; close them first.
	gateway.Shutdown(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}

// sweepRefreshTokens deletes expired refresh tokens until ctx ends.
func sweepRefreshTokens(ctx context.Context, queries *db.Queries) {
	ticker := time.NewTicker(tokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := queries.DeleteExpiredRefreshTokens(sweepCtx, time.Now())
			cancel()

			if err != nil {
				logx.Warn("Refresh token sweep failed", "error", err.Error())
				continue
			}
			if n > 0 {
				logx.Debug("Expired refresh tokens removed", "count", n)
			}
		}
	}
}
