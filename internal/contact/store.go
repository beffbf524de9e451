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

// Package contact provides the Postgres-backed contact store and the sync
// run completion marker.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealtrack/investorsync/internal/models"
)

// Store provides whole-range read/write access to the contact directory.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a contact store backed by the given Postgres pool.
// It ensures the schema exists on creation.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure contact schema: %w", err)
	}
	slog.Info("contact store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contacts (
			id           BIGSERIAL PRIMARY KEY,
			email        TEXT NOT NULL UNIQUE,
			name         TEXT DEFAULT '',
			status       TEXT DEFAULT '',
			next_step    TEXT DEFAULT '',
			notes        TEXT DEFAULT '',
			last_meeting TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_contacts_last_meeting ON contacts(last_meeting);
		CREATE TABLE IF NOT EXISTS sync_runs (
			id                 BIGSERIAL PRIMARY KEY,
			run_id             TEXT NOT NULL,
			events_processed   INT NOT NULL,
			contacts_processed INT NOT NULL,
			completed_at       TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sync_runs_completed ON sync_runs(completed_at);
	`)
	return err
}

// ReadAll returns every contact in the store.
func (s *Store) ReadAll(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email, name, status, next_step, notes, last_meeting, created_at
		FROM contacts
		ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		var lastMeeting *time.Time
		if err := rows.Scan(
			&c.Email, &c.Name, &c.Status, &c.NextStep, &c.Notes,
			&lastMeeting, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		if lastMeeting != nil {
			c.LastMeeting = *lastMeeting
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// WriteAll persists the merged contact set in a single transaction. Upserts
// are keyed on email; created_at is written only on first insert and never
// overwritten afterwards.
func (s *Store) WriteAll(ctx context.Context, contacts []models.Contact) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin write transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range contacts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO contacts (email, name, status, next_step, notes, last_meeting, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (email) DO UPDATE SET
				name         = EXCLUDED.name,
				status       = EXCLUDED.status,
				next_step    = EXCLUDED.next_step,
				notes        = EXCLUDED.notes,
				last_meeting = GREATEST(contacts.last_meeting, EXCLUDED.last_meeting),
				updated_at   = NOW()
		`, c.Email, c.Name, c.Status, c.NextStep, c.Notes, nullableTime(c.LastMeeting), c.CreatedAt); err != nil {
			return fmt.Errorf("upsert contact %s: %w", c.Email, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit contacts: %w", err)
	}

	slog.Info("contacts persisted", "count", len(contacts))
	return nil
}

// RecordCompletion writes the run's durable completion marker.
func (s *Store) RecordCompletion(ctx context.Context, summary models.RunSummary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_runs (run_id, events_processed, contacts_processed, completed_at)
		VALUES ($1, $2, $3, $4)
	`, summary.RunID, summary.EventsProcessed, summary.ContactsProcessed, summary.CompletedAt)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// LastCompletion returns the most recent run completion time, or nil when no
// run has completed yet.
func (s *Store) LastCompletion(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT completed_at FROM sync_runs ORDER BY completed_at DESC LIMIT 1
	`).Scan(&t)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last completion: %w", err)
	}
	return &t, nil
}

// nullableTime maps the zero time to NULL so "never met" isn't stored as epoch.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
