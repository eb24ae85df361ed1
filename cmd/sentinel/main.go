package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shadegov/sentinel/internal/adapter/agentapi"
	sghttp "github.com/shadegov/sentinel/internal/adapter/http"
	"github.com/shadegov/sentinel/internal/adapter/litellm"
	"github.com/shadegov/sentinel/internal/adapter/memstore"
	sgnats "github.com/shadegov/sentinel/internal/adapter/nats"
	"github.com/shadegov/sentinel/internal/adapter/nearrpc"
	"github.com/shadegov/sentinel/internal/adapter/otel"
	"github.com/shadegov/sentinel/internal/adapter/relay"
	"github.com/shadegov/sentinel/internal/adapter/ristretto"
	"github.com/shadegov/sentinel/internal/adapter/stream"
	"github.com/shadegov/sentinel/internal/adapter/ws"
	"github.com/shadegov/sentinel/internal/config"
	"github.com/shadegov/sentinel/internal/logger"
	"github.com/shadegov/sentinel/internal/port/executor"
	"github.com/shadegov/sentinel/internal/port/ledger"
	"github.com/shadegov/sentinel/internal/resilience"
	"github.com/shadegov/sentinel/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLogger := logger.New(cfg.Logging)
	defer closeLogger.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"voting_contract", cfg.Ledger.VotingContract,
		"executor_mode", cfg.Executor.Mode,
		"autonomous", cfg.Autonomous(),
	)

	ctx := context.Background()

	// --- Observability ---
	shutdownOTel, err := otel.Setup(ctx, cfg.OTel.Endpoint, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(shutdownCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Ledger access ---
	rpc := nearrpc.NewClient(cfg.Ledger.RPCURL, cfg.Ledger.VotingContract, cfg.Ledger.AgentContract)
	rpc.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	var fetcher ledger.Fetcher
	fetcher, err = ristretto.New(rpc, cfg.Cache.MaxSizeMB<<20, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("fetch cache: %w", err)
	}

	// --- Judgment provider ---
	llm := litellm.NewClient(cfg.Judge.URL, cfg.Judge.APIKey)
	llm.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	judge := litellm.NewJudge(llm, cfg.Judge.Model)

	// --- Execution path ---
	var exec executor.Executor
	switch cfg.Executor.Mode {
	case "relay":
		receiver := cfg.Ledger.AgentContract
		if receiver == "" {
			receiver = cfg.Ledger.VotingContract
		}
		r := relay.New(cfg.Executor.RelayURL, cfg.Executor.SignerID, receiver)
		r.SetTimeout(cfg.Executor.Timeout)
		r.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		exec = r
	default:
		a := agentapi.New(cfg.Executor.AgentURL)
		a.SetTimeout(cfg.Executor.Timeout)
		a.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		exec = a
	}

	// --- Services ---
	hub := ws.NewHub()
	st := memstore.New()
	tracker := service.NewTracker(st)
	decision := service.NewDecisionService(cfg.Lists.Allow, cfg.Lists.Deny, judge).
		WithTimeout(cfg.Judge.Timeout)

	screening := service.NewScreeningService(decision, tracker, st, exec, cfg.Autonomous(), log).
		WithNotifier(hub).
		WithMetrics(metrics)

	if cfg.NATS.URL != "" {
		publisher, err := sgnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		screening.WithPublisher(publisher)
	}

	// --- Event stream ---
	var listener *stream.Listener
	if cfg.Ledger.StreamURL != "" {
		listener = stream.NewListener(stream.Config{
			Contract:    cfg.Ledger.VotingContract,
			BackoffBase: cfg.Stream.BackoffBase,
			BackoffCap:  cfg.Stream.BackoffCap,
			MaxAttempts: cfg.Stream.MaxAttempts,
			Metrics:     metrics,
			OnStatus: func(st stream.Status) {
				hub.StreamStatusChanged(ctx, st.State(), st.Attempts)
			},
		}, stream.Dial(cfg.Ledger.StreamURL))

		watcher := service.NewWatcher(screening, fetcher, cfg.Stream.Workers, log)

		listener.Start(ctx)
		go func() {
			if err := watcher.Run(ctx, listener.Events()); err != nil && ctx.Err() == nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	// --- HTTP ---
	var streamReporter sghttp.StreamReporter
	if listener != nil {
		streamReporter = listener
	}
	var balance sghttp.BalanceViewer
	if cfg.Ledger.AgentContract != "" {
		balance = rpc
	}

	handlers := sghttp.NewHandlers(screening, cfg.Completeness(), streamReporter, balance)
	if b := llm.Breaker(); b != nil {
		handlers.JudgeBreaker = b
	}
	router := sghttp.NewRouter(handlers, hub, cfg.Server.CORSOrigin)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           otel.HTTPMiddleware(cfg.Logging.Service)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down")

	if listener != nil {
		listener.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
