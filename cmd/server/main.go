package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labelscan/backend/config"
	httpDelivery "github.com/labelscan/backend/internal/delivery/http"
	"github.com/labelscan/backend/internal/domain"
	"github.com/labelscan/backend/internal/infrastructure/jobstore"
	"github.com/labelscan/backend/internal/infrastructure/llm"
	"github.com/labelscan/backend/internal/infrastructure/postgres"
	"github.com/labelscan/backend/internal/infrastructure/storage"
	"github.com/labelscan/backend/internal/scheduler"
	"github.com/labelscan/backend/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting LabelScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Job store: %s (ttl %s, workers %d)", cfg.Jobs.Store, cfg.Jobs.TTL, cfg.Jobs.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := cfg.Server.Environment == "development"

	// Initialize infrastructure dependencies
	pool, err := postgres.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Printf("Database schema ready")
	}
	products := postgres.NewProductRepository(pool)

	var jobs domain.JobStore
	var sweep *scheduler.Scheduler
	switch cfg.Jobs.Store {
	case "redis":
		rdb, err := jobstore.NewRedisClient(ctx, cfg.Jobs.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		jobs = jobstore.NewRedisStore(rdb)
	default:
		memory := jobstore.NewMemoryStore()
		jobs = memory
		sweep = scheduler.New(memory, cfg.Jobs.SweepSchedule)
	}

	llmClient := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, llm.Options{
		Model:             cfg.OpenAI.Model,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		Timeout:           cfg.OpenAI.Timeout,
		RequestsPerMinute: cfg.RateLimit.LLM,
	})

	// Enable debug mode in development environment
	if debug {
		llmClient.SetDebug(true)
		log.Printf("LLM client debug mode enabled")
	}
	log.Printf("LLM configured: %s (model %s, key: %s...)", cfg.OpenAI.BaseURL, cfg.OpenAI.Model, keyPrefix(cfg.OpenAI.APIKey))

	var images domain.ImageStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3Store(ctx, storage.Options{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Prefix:    cfg.Storage.Prefix,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Fatalf("Failed to configure image storage: %v", err)
		}
		images = s3Store
		log.Printf("Archiving label images to s3://%s/%s", cfg.Storage.Bucket, cfg.Storage.Prefix)
	}

	// Initialize usecase layer
	scanService := usecase.NewScanService(jobs, llmClient, products, images, usecase.ScanServiceConfig{
		JobTTL:             cfg.Jobs.TTL,
		Workers:            cfg.Jobs.Workers,
		AnalysisTimeout:    cfg.OpenAI.Timeout * 4,
		EnableDebugLogging: debug,
	})

	if sweep != nil {
		if err := sweep.Start(ctx); err != nil {
			log.Fatalf("Failed to start job sweeper: %v", err)
		}
		defer sweep.Stop()
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(scanService, httpDelivery.HandlerOptions{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		PollInterval:   cfg.Jobs.PollInterval,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := scanService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Scan jobs still running at shutdown: %v", err)
	}
	log.Printf("Server stopped")
}

func keyPrefix(key string) string {
	if len(key) < 8 {
		return "****"
	}
	return key[:8]
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
