// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Investor Sync — Service Daemon
//
// Entry point for the sync service. It:
//  1. Loads configuration from config.yaml
//  2. Connects to PostgreSQL and Redis
//  3. Builds an OAuth2 Graph client plus transcript and LLM clients
//  4. Runs the sync pipeline periodically and on manual trigger
//  5. Serves /health and the secret-guarded POST /sync endpoint
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dealtrack/investorsync/internal/calendar"
	"github.com/dealtrack/investorsync/internal/config"
	"github.com/dealtrack/investorsync/internal/contact"
	"github.com/dealtrack/investorsync/internal/insight"
	"github.com/dealtrack/investorsync/internal/llm"
	"github.com/dealtrack/investorsync/internal/mailbox"
	"github.com/dealtrack/investorsync/internal/merge"
	"github.com/dealtrack/investorsync/internal/notes"
	"github.com/dealtrack/investorsync/internal/policy"
	"github.com/dealtrack/investorsync/internal/queue"
	"github.com/dealtrack/investorsync/internal/runlock"
	"github.com/dealtrack/investorsync/internal/selector"
	"github.com/dealtrack/investorsync/internal/syncer"
	"github.com/dealtrack/investorsync/internal/transcript"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// externalCallTimeout bounds each outbound HTTP call so a stuck dependency
// degrades one contact instead of hanging the run.
const externalCallTimeout = 60 * time.Second

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting investor sync service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"principal", cfg.Graph.Principal,
		"lookback", cfg.Lookback,
		"interval", cfg.SyncInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	publisher := queue.NewPublisher(rdb, cfg.RunsQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Contact Store (Postgres) ---
	store, err := contact.NewStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise contact store", "error", err)
		os.Exit(1)
	}

	orch := buildOrchestrator(ctx, cfg, store, rdb, publisher)

	// --- Periodic trigger ---
	runRequests := make(chan struct{}, 1)
	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				requestRun(runRequests)
			case <-runRequests:
				if _, err := orch.Run(ctx); err != nil && err != syncer.ErrRunInProgress {
					slog.Error("scheduled sync run failed", "error", err)
				}
			}
		}
	}()

	// --- HTTP Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := publisher.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		if err := pgPool.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if cfg.SyncSecret == "" || r.Header.Get("X-Sync-Secret") != cfg.SyncSecret {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		summary, err := orch.Run(r.Context())
		if err == syncer.ErrRunInProgress {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // a triggered run completes within the request
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
		pgPool.Close()
	}()

	slog.Info("sync service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("sync service stopped")
}

// requestRun coalesces trigger requests; a pending run request is enough.
func requestRun(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// buildOrchestrator wires the pipeline from config. Each dependency client
// carries its own timeout so one stuck call degrades one contact, not the run.
func buildOrchestrator(ctx context.Context, cfg *config.Config, store *contact.Store, rdb *redis.Client, publisher *queue.Publisher) *syncer.Orchestrator {
	creds := &clientcredentials.Config{
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.Graph.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	graphClient := creds.Client(ctx)
	graphClient.Timeout = externalCallTimeout

	httpClient := &http.Client{Timeout: externalCallTimeout}

	calClient := calendar.NewClient(graphClient, graphBaseURL, cfg.Graph.Principal)
	mbClient := mailbox.NewClient(graphClient, graphBaseURL, cfg.Graph.Principal)
	tsClient := transcript.NewClient(httpClient, cfg.Transcript.Endpoint, cfg.Transcript.APIKey)
	llmClient := llm.NewClient(httpClient, cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Model)

	resolver := notes.NewResolver(
		notes.NewTranscriptSource(tsClient),
		notes.NewRelaySource(mbClient, cfg.Transcript.RelaySender),
		notes.NewSearchSource(mbClient),
	)

	excludedSenders := append([]string{cfg.Transcript.RelaySender}, cfg.ExcludedSenders...)
	exclusion := policy.NewExclusion(cfg.InternalDomains, excludedSenders, cfg.Graph.Principal)

	return syncer.New(syncer.Config{
		Calendar:  calClient,
		Selector:  selector.New(policy.Domain(policy.Normalize(cfg.Graph.Principal))),
		Resolver:  resolver,
		Extractor: insight.NewExtractor(llmClient),
		Merger:    merge.NewMerger(exclusion),
		Store:     store,
		Exclusion: exclusion,
		Lock:      runlock.NewLock(rdb),
		Publisher: publisher,
		Lookback:  cfg.Lookback,
	})
}
