package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-accounts-api/internal/application/account"
	"github.com/go-accounts-api/internal/config"
	"github.com/go-accounts-api/internal/infrastructure/google"
	"github.com/go-accounts-api/internal/infrastructure/postgres"
	redisinfra "github.com/go-accounts-api/internal/infrastructure/redis"
	"github.com/go-accounts-api/internal/infrastructure/smtp"
	"github.com/go-accounts-api/internal/sweeper"
	transporthttp "github.com/go-accounts-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Postgres pool plus embedded schema migrations.
	if err := postgres.RunMigrations(ctx, cfg.DatabaseDSN); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// Redis backs OTPs, sessions and the profile cache.
	rdb, err := redisinfra.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	identityRepo := postgres.NewIdentityRepo(pool)
	profileRepo := postgres.NewProfileRepo(pool)
	profileCache := redisinfra.NewProfileCache(rdb)

	// One account service serves both the router and the purge sweeper.
	accountSvc := account.NewService(account.ServiceDeps{
		ProfileRepo:  profileRepo,
		IdentityRepo: identityRepo,
		ProfileCache: profileCache,
	})

	deps := &transporthttp.Deps{
		IdentityRepo:   identityRepo,
		ProfileRepo:    profileRepo,
		OTPStore:       redisinfra.NewOTPStore(rdb),
		SessionStore:   redisinfra.NewSessionStore(rdb),
		ProfileCache:   profileCache,
		Mailer:         smtp.NewMailer(cfg),
		GoogleVerifier: google.NewVerifier(cfg.GoogleClientID),
		AccountService: accountSvc,
	}

	// Background purge of deactivated accounts past the retention window.
	purge := sweeper.New(accountSvc, time.Duration(cfg.PurgeIntervalHours)*time.Hour, cfg.RetentionDays)
	purge.Start(ctx)
	defer purge.Stop()

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
