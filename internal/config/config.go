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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GraphConfig holds credentials for the Microsoft 365 tenant whose calendar
// and mailbox the sync reads.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// Principal is the UPN/email of the mailbox and calendar owner the
	// service acts for. Its own address is always excluded from tracking.
	Principal string `yaml:"principal"`
}

// LLMConfig holds the language-model endpoint settings.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// TranscriptConfig holds the transcript provider settings.
type TranscriptConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	// RelaySender is the address the provider relays recap emails from.
	RelaySender string `yaml:"relay_sender"`
}

// Config holds all configuration for the sync service.
type Config struct {
	Graph      GraphConfig
	LLM        LLMConfig
	Transcript TranscriptConfig

	// Sync behaviour
	Lookback     time.Duration // trailing event window
	SyncInterval time.Duration // periodic trigger interval (syncd only)

	// Exclusion policy
	InternalDomains []string
	ExcludedSenders []string

	// Postgres + Redis
	DatabaseURL string
	RedisURL    string
	RunsQueue   string

	// Server
	Port       int
	SyncSecret string // shared secret for the manual trigger endpoint
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Graph      GraphConfig      `yaml:"graph"`
	LLM        LLMConfig        `yaml:"llm"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Sync       struct {
		LookbackDays int    `yaml:"lookback_days"`
		Interval     string `yaml:"interval"`
	} `yaml:"sync"`
	Exclusions struct {
		InternalDomains []string `yaml:"internal_domains"`
		Senders         []string `yaml:"senders"`
	} `yaml:"exclusions"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Runs string `yaml:"runs"`
		} `yaml:"queues"`
	} `yaml:"redis"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		Graph:           raw.Graph,
		LLM:             raw.LLM,
		Transcript:      raw.Transcript,
		Lookback:        time.Duration(intOrDefault(raw.Sync.LookbackDays, 60)) * 24 * time.Hour,
		SyncInterval:    durationOrDefault(raw.Sync.Interval, envOrDefaultDuration("SYNC_INTERVAL", 6*time.Hour)),
		InternalDomains: raw.Exclusions.InternalDomains,
		ExcludedSenders: raw.Exclusions.Senders,
		DatabaseURL:     firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "")),
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		RunsQueue:       firstNonEmpty(raw.Redis.Queues.Runs, envOrDefault("RUNS_QUEUE", "sync_runs")),
		Port:            envOrDefaultInt("PORT", 8080),
		SyncSecret:      envOrDefault("SYNC_SECRET", ""),
	}

	if cfg.Graph.TenantID == "" || cfg.Graph.ClientID == "" || cfg.Graph.ClientSecret == "" {
		return nil, fmt.Errorf("graph credentials are required; check config.yaml and environment variables")
	}
	if cfg.Graph.Principal == "" {
		return nil, fmt.Errorf("graph.principal is required (calendar/mailbox owner)")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database.url (or DATABASE_URL) is required")
	}
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Transcript.RelaySender == "" {
		cfg.Transcript.RelaySender = "fred@fireflies.ai"
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOrDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func durationOrDefault(v string, fallback time.Duration) time.Duration {
	if v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
