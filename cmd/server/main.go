package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"studyhall-backend/internal/config"
	"studyhall-backend/internal/handlers"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/router"
	"studyhall-backend/internal/services"
	"studyhall-backend/internal/signal"
	"studyhall-backend/internal/store"
)

func main() {
	log.Println("🚀 Starting StudyHall Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Connect to Redis ────
	redisStore, err := store.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisStore.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Seed Demo Data ────
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Seed(ctx, redisStore); err != nil {
		cancel()
		log.Fatalf("✗ Seeding failed: %v", err)
	}
	cancel()
	log.Println("✓ Demo data seeded")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	subscriptionService := services.NewSubscriptionService(redisStore)
	accountService := services.NewAccountService(redisStore, subscriptionService, jwtAuth)
	catalogService := services.NewCatalogService(redisStore, subscriptionService, accountService)
	progressService := services.NewProgressService(redisStore)

	// ──── Step 4: Start WebSocket Signaling Hub ────
	hub := signal.NewHub(cfg.JWTSecret)
	log.Println("✓ Signaling hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(accountService)
	sessionHandler := handlers.NewSessionHandler(catalogService)
	progressHandler := handlers.NewProgressHandler(progressService)
	roomHandler := handlers.NewRoomHandler(hub, time.Second)
	rtcHandler := handlers.NewRTCHandler(hub, cfg.ICEServers, cfg.ICEGatherTimeout)
	backupHandler := handlers.NewBackupHandler(redisStore)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		sessionHandler,
		progressHandler,
		roomHandler,
		rtcHandler,
		backupHandler,
		hub,
		cfg.FrontendURL,
		cfg.AuthRateLimit,
		cfg.AuthRateWindow,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		roomHandler.StopAll()
		rtcHandler.TeardownAll()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyHall Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
