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

	"github.com/hotwellkz/course-api/internal/config"
	"github.com/hotwellkz/course-api/internal/infrastructure/dynamo"
	"github.com/hotwellkz/course-api/internal/infrastructure/google"
	jwtinfra "github.com/hotwellkz/course-api/internal/infrastructure/jwt"
	"github.com/hotwellkz/course-api/internal/infrastructure/redisdb"
	"github.com/hotwellkz/course-api/internal/infrastructure/smtp"
	transporthttp "github.com/hotwellkz/course-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Redis backs the verification resend limiter.
	redisClient, err := redisdb.NewClient(context.Background(), cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	mailer := smtp.NewMailer(cfg)
	googleVerifier := google.NewVerifier(cfg.GoogleClientID)

	deps := &transporthttp.Deps{
		AccountRepo:      dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
		ProfileRepo:      dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles),
		CompletionRepo:   dynamo.NewCompletionRepo(dynamoClient, cfg.DynamoTables.Completions),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		Mailer:           mailer,
		JWTProvider:      jwtProvider,
		GoogleVerifier:   googleVerifier,
		Redis:            redisClient,
	}

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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
