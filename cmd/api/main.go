package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/ticket-assist/internal/application"
	appai "github.com/bryanwahyu/ticket-assist/internal/application/ai"
	appanalysis "github.com/bryanwahyu/ticket-assist/internal/application/analysis"
	apptickets "github.com/bryanwahyu/ticket-assist/internal/application/tickets"
	"github.com/bryanwahyu/ticket-assist/internal/config"
	"github.com/bryanwahyu/ticket-assist/internal/domain/ai"
	"github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
	anthropicai "github.com/bryanwahyu/ticket-assist/internal/infra/ai/anthropic"
	openaiai "github.com/bryanwahyu/ticket-assist/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/ticket-assist/internal/infra/db/mysql"
	"github.com/bryanwahyu/ticket-assist/internal/infra/db/postgres"
	"github.com/bryanwahyu/ticket-assist/internal/infra/db/sqlite"
	"github.com/bryanwahyu/ticket-assist/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/ticket-assist/internal/infra/storage"
	"github.com/bryanwahyu/ticket-assist/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	db, ticketRepo, runRepo, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%s connect error: %v", cfg.Database.Driver, err)
	}
	defer db.Close()

	analysisSvc := &appanalysis.Service{
		Tickets:     ticketRepo,
		Runs:        runRepo,
		Classifier:  appai.NewClassifier(newAIClient(cfg), cfg.AI.Timeout, middleware.RecordDegradedClassification),
		Clock:       application.SystemClock{},
		Concurrency: cfg.Analysis.Concurrency,
		OnFinished:  middleware.RecordAnalysisRun,
	}

	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		analysisSvc.Archive = store
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Tickets:  &apptickets.Service{Repo: ticketRepo},
		Analysis: analysisSvc,
		Checkers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
		CORSOrigins:      cfg.Server.CORSOrigins,
		AnalyzePerMinute: cfg.Analysis.RatePerMinute,
	})

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// one analyze call may wait on an LLM per ticket
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s driver=%s provider=%s", addr, cfg.Database.Driver, cfg.AI.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openStore connects the configured driver and makes sure the schema exists
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, tickets.Repository, analysis.Repository, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, sqlite.NewTicketRepository(db), sqlite.NewAnalysisRepository(db), nil

	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db, mysqlp.NewTicketRepository(db), mysqlp.NewAnalysisRepository(db), nil

	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db, postgres.NewTicketRepository(db), postgres.NewAnalysisRepository(db), nil
	}
	return nil, nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// newAIClient returns nil when no key is configured; classification then
// runs on keywords only.
func newAIClient(cfg *config.Config) ai.Client {
	key := cfg.APIKey()
	if key == "" {
		log.Printf("no %s api key configured, using keyword classification", cfg.AI.Provider)
		return nil
	}
	switch cfg.AI.Provider {
	case "anthropic":
		return anthropicai.NewClient(key, cfg.AI.Model, cfg.AI.BaseURL, *cfg.AI.Temperature)
	default:
		return openaiai.NewClient(key, cfg.AI.Model, cfg.AI.BaseURL, float32(*cfg.AI.Temperature))
	}
}
