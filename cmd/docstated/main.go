package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/docuflow/docstate/internal/batch"
	"github.com/docuflow/docstate/internal/dispatch"
	"github.com/docuflow/docstate/internal/kv"
	"github.com/docuflow/docstate/internal/metrics"
	docnats "github.com/docuflow/docstate/internal/nats"
	"github.com/docuflow/docstate/internal/reconcile"
	"github.com/docuflow/docstate/internal/scheduler"
	"github.com/docuflow/docstate/internal/server"
	"github.com/docuflow/docstate/internal/store"
)

const version = "1.2.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		slog.Error("failed to connect to NATS", "url", cfg.NatsURL, "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		slog.Error("failed to create JetStream context", "error", err)
		os.Exit(1)
	}

	setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := docnats.SetupJetStream(setupCtx, js); err != nil {
		slog.Error("failed to set up JetStream resources", "error", err)
		os.Exit(1)
	}

	recordsKV, err := js.KeyValue(setupCtx, docnats.BucketRecords)
	if err != nil {
		slog.Error("failed to open records bucket", "bucket", docnats.BucketRecords, "error", err)
		os.Exit(1)
	}

	queue, err := docnats.NewUploadQueue(setupCtx, js)
	if err != nil {
		slog.Error("failed to open upload queue", "error", err)
		os.Exit(1)
	}

	slog.Info("connected to NATS", "url", cfg.NatsURL)

	// Explicitly constructed dependencies, injected once at startup;
	// lifecycle is the process lifetime.
	documents := store.NewDocumentStore(kv.NewStore(recordsKV))
	schedClient := batch.NewClient(cfg.SchedulerURL, cfg.SchedulerAPIKey, slog.Default())

	dispatcher := dispatch.New(queue, schedClient, documents, dispatch.Config{
		JobQueue:      cfg.JobQueue,
		JobDefinition: cfg.JobDefinition,
		RecordsBucket: docnats.BucketRecords,
		BatchSize:     cfg.BatchSize,
	}, slog.Default())

	reconciler := reconcile.New(documents, schedClient, cfg.StaleAfter, slog.Default())

	metrics.Init(version)

	sched, err := scheduler.New(dispatcher, reconciler, cfg.PollInterval, cfg.ReconcileInterval, slog.Default())
	if err != nil {
		slog.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.NewRouter(documents),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		slog.Info("docstate server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
