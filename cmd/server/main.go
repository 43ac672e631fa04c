package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platesplit/platesplit/internal/auth"
	"github.com/platesplit/platesplit/internal/rewards"
	"github.com/platesplit/platesplit/internal/server"
	"github.com/platesplit/platesplit/internal/service"
	"github.com/platesplit/platesplit/internal/storage/memory"
	"github.com/platesplit/platesplit/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration, using fallback", "key", key, "value", value, "fallback", fallback)
	}
	return fallback
}

func main() {
	logging.Setup()

	port := getEnv("PORT", "8080")
	tokenSecret := getEnv("TOKEN_SECRET", "")
	tokenTTL := getEnvDuration("TOKEN_TTL", 12*time.Hour)
	sessionTTL := getEnvDuration("SESSION_TTL", 6*time.Hour)
	rewardsURL := getEnv("REWARDS_URL", "https://n8n-1306.zeabur.app/webhook/sushiro-tools")

	if tokenSecret == "" {
		slog.Error("TOKEN_SECRET is required")
		os.Exit(1)
	}

	store := memory.New()
	defer store.Close()

	tokens := auth.NewTokenManager(tokenSecret, tokenTTL)
	rewardsClient := rewards.NewClient(rewardsURL, 10*time.Second)
	svc := service.NewLedgerService(store, rewardsClient)
	api := server.New(svc, tokens)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: api.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sweep abandoned sessions so the in-memory store doesn't grow forever.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := store.PurgeIdle(ctx, time.Now().Add(-sessionTTL))
				if err != nil {
					slog.Error("Idle session sweep failed", "error", err)
				} else if purged > 0 {
					slog.Info("Idle sessions purged", "count", purged)
				}
			}
		}
	}()

	go func() {
		slog.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
