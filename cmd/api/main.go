package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rob190501/iWalk/internal/api"
	"github.com/Rob190501/iWalk/internal/auth"
	"github.com/Rob190501/iWalk/internal/coach"
	"github.com/Rob190501/iWalk/internal/config"
	"github.com/Rob190501/iWalk/internal/events"
	"github.com/Rob190501/iWalk/internal/healthsource"
	"github.com/Rob190501/iWalk/internal/modelstore"
	persistence "github.com/Rob190501/iWalk/internal/persistence/postgres"
	httptransport "github.com/Rob190501/iWalk/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	var source healthsource.Source = healthsource.NewStoreSource(repo, nil)
	if cfg.HealthSource == "fit" {
		source = healthsource.NewFITSource(cfg.FITDir, nil)
	}

	modelWriter := events.NewModelWriter(cfg.KafkaBrokers, cfg.ModelTopic)
	defer modelWriter.Close()

	opts := []coach.Option{coach.WithPublisher(events.NewModelPublisher(modelWriter, cfg.PublishTimeout))}
	if cfg.Seed != 0 {
		opts = append(opts, coach.WithSeed(cfg.Seed))
	}
	service := coach.NewService(source, modelstore.NewFileStore(cfg.ModelDir), coach.Config{
		DatasetPath: cfg.DatasetPath,
		Features:    cfg.Features,
		Defaults: coach.FetchOptions{
			Years:          cfg.HistoryYears,
			OutlierMethod:  cfg.OutlierMethod,
			Tolerance:      cfg.Tolerance,
			MinCalories:    cfg.MinCalories,
			SyntheticRatio: cfg.SyntheticRatio,
		},
	}, opts...)
	if err := service.Restore(ctx); err != nil {
		log.Printf("starting without a model: %v", err)
	}

	handler := api.NewHandler(service, repo)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	requestLogger := log.New(log.Writer(), "[http] ", log.LstdFlags)

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.Chain(mux,
			httptransport.RequestLogger(requestLogger),
			httptransport.CORS(cfg.CORSOrigin),
			authMiddleware.Wrap,
		))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("step-coach api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
