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

// Package queue publishes run summaries to Redis for the dashboard.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dealtrack/investorsync/internal/models"
)

// historyCap bounds the run-history list the dashboard reads.
const historyCap = 100

// Publisher sends run summaries to a Redis list.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a publisher targeting the specified list.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// envelope wraps a summary for transport.
type envelope struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Payload models.RunSummary `json:"payload"`
}

// PublishRunSummary pushes a completed run's summary onto the history list
// and trims the list to its cap.
func (p *Publisher) PublishRunSummary(ctx context.Context, summary models.RunSummary) error {
	msg := envelope{
		ID:      uuid.New().String(),
		Type:    "sync.run.completed",
		Payload: summary,
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.LPush(ctx, p.queueName, string(msgJSON))
	pipe.LTrim(ctx, p.queueName, 0, historyCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published run summary",
		"run_id", summary.RunID,
		"events", summary.EventsProcessed,
		"contacts", summary.ContactsProcessed,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
