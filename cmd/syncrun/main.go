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

// Investor Sync — One-Shot Run Command
//
// Standalone CLI tool that executes a single sync run and prints the summary.
// Intended for manual reconciliation and cron-style scheduling.
//
// Usage:
//
//	go run ./cmd/syncrun/ [--lookback 1440h]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
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

const externalCallTimeout = 60 * time.Second

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	lookbackFlag := flag.String("lookback", "", "Override the event lookback window (e.g. 720h for 30 days)")
	flag.Parse()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *lookbackFlag != "" {
		d, err := time.ParseDuration(*lookbackFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --lookback duration %q: %v\n", *lookbackFlag, err)
			os.Exit(1)
		}
		cfg.Lookback = d
	}

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

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	publisher := queue.NewPublisher(rdb, cfg.RunsQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	// --- Contact Store (Postgres) ---
	store, err := contact.NewStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise contact store", "error", err)
		os.Exit(1)
	}

	// --- Wire the pipeline ---
	creds := &clientcredentials.Config{
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.Graph.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	graphClient := creds.Client(ctx)
	graphClient.Timeout = externalCallTimeout

	httpClient := &http.Client{Timeout: externalCallTimeout}

	mbClient := mailbox.NewClient(graphClient, graphBaseURL, cfg.Graph.Principal)

	resolver := notes.NewResolver(
		notes.NewTranscriptSource(transcript.NewClient(httpClient, cfg.Transcript.Endpoint, cfg.Transcript.APIKey)),
		notes.NewRelaySource(mbClient, cfg.Transcript.RelaySender),
		notes.NewSearchSource(mbClient),
	)

	excludedSenders := append([]string{cfg.Transcript.RelaySender}, cfg.ExcludedSenders...)
	exclusion := policy.NewExclusion(cfg.InternalDomains, excludedSenders, cfg.Graph.Principal)

	orch := syncer.New(syncer.Config{
		Calendar:  calendar.NewClient(graphClient, graphBaseURL, cfg.Graph.Principal),
		Selector:  selector.New(policy.Domain(policy.Normalize(cfg.Graph.Principal))),
		Resolver:  resolver,
		Extractor: insight.NewExtractor(llm.NewClient(httpClient, cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Model)),
		Merger:    merge.NewMerger(exclusion),
		Store:     store,
		Exclusion: exclusion,
		Lock:      runlock.NewLock(rdb),
		Publisher: publisher,
		Lookback:  cfg.Lookback,
	})

	// --- Run once ---
	summary, err := orch.Run(ctx)
	if err != nil {
		slog.Error("sync run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("run %s complete: %d events, %d contacts, finished %s\n",
		summary.RunID,
		summary.EventsProcessed,
		summary.ContactsProcessed,
		summary.CompletedAt.Format(time.RFC3339),
	)
}
