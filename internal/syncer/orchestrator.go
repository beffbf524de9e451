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

// Package syncer drives one end-to-end sync run: fetch events, resolve notes
// and extract insights per attendee, merge into the contact store, record
// completion. Per-contact failures degrade to default insights; event-fetch
// and store failures abort the run.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealtrack/investorsync/internal/merge"
	"github.com/dealtrack/investorsync/internal/models"
	"github.com/dealtrack/investorsync/internal/policy"
	"github.com/dealtrack/investorsync/internal/selector"
)

// State names the steps of a run, in order. A run either completes linearly
// or fails; there is no internal retry.
type State string

const (
	StateIdle                State = "idle"
	StateAuthorizing         State = "authorizing"
	StateFetchingEvents      State = "fetching_events"
	StateProcessingContacts  State = "processing_contacts"
	StatePersisting          State = "persisting"
	StateRecordingCompletion State = "recording_completion"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// CalendarService lists events in a time window.
type CalendarService interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]models.Event, error)
}

// NotesResolver retrieves meeting notes for a contact, or nil.
type NotesResolver interface {
	Resolve(ctx context.Context, contactEmail string, meetingTime time.Time, meetingTitle string) *models.NotesResult
}

// InsightExtractor derives an insight from note content; never fails.
type InsightExtractor interface {
	Extract(ctx context.Context, content, contactName string, source models.NoteSource) models.Insight
}

// ContactStore is the persistent contact directory.
type ContactStore interface {
	ReadAll(ctx context.Context) ([]models.Contact, error)
	WriteAll(ctx context.Context, contacts []models.Contact) error
	RecordCompletion(ctx context.Context, summary models.RunSummary) error
}

// RunLock guards against concurrent runs. Optional.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// SummaryPublisher reports completed runs to the dashboard. Optional;
// publish failures never fail a run.
type SummaryPublisher interface {
	PublishRunSummary(ctx context.Context, summary models.RunSummary) error
}

// ErrRunInProgress is returned when another run holds the lock.
var ErrRunInProgress = fmt.Errorf("sync run already in progress")

// Orchestrator owns one run's worth of wiring. All dependencies are injected
// at construction; a run carries no ambient state.
type Orchestrator struct {
	calendar  CalendarService
	selector  *selector.Selector
	resolver  NotesResolver
	extractor InsightExtractor
	merger    *merge.Merger
	store     ContactStore
	exclusion *policy.Exclusion
	lock      RunLock          // may be nil
	publisher SummaryPublisher // may be nil
	lookback  time.Duration
	now       func() time.Time
}

// Config holds the orchestrator's dependencies.
type Config struct {
	Calendar  CalendarService
	Selector  *selector.Selector
	Resolver  NotesResolver
	Extractor InsightExtractor
	Merger    *merge.Merger
	Store     ContactStore
	Exclusion *policy.Exclusion
	Lock      RunLock
	Publisher SummaryPublisher
	Lookback  time.Duration
	Now       func() time.Time // defaults to time.Now
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	lookback := cfg.Lookback
	if lookback == 0 {
		lookback = 60 * 24 * time.Hour
	}
	return &Orchestrator{
		calendar:  cfg.Calendar,
		selector:  cfg.Selector,
		resolver:  cfg.Resolver,
		extractor: cfg.Extractor,
		merger:    cfg.Merger,
		store:     cfg.Store,
		exclusion: cfg.Exclusion,
		lock:      cfg.Lock,
		publisher: cfg.Publisher,
		lookback:  lookback,
		now:       now,
	}
}

// Run executes one sync over the lookback window and returns its summary.
// Fatal failures (event fetch, store read/write, completion marker) abort
// the run with an error; per-contact notes/extraction problems degrade that
// contact's insight to defaults and continue.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunSummary, error) {
	runID := uuid.New().String()
	log := slog.With("run_id", runID)

	log.Info("sync run starting", "state", StateAuthorizing)

	if o.lock != nil {
		ok, err := o.lock.Acquire(ctx)
		if err != nil {
			return nil, o.fail(log, fmt.Errorf("acquire run lock: %w", err))
		}
		if !ok {
			return nil, o.fail(log, ErrRunInProgress)
		}
		defer func() {
			if err := o.lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("run lock release failed", "error", err)
			}
		}()
	}

	// Fetch and select events.
	log.Info("run state", "state", StateFetchingEvents)
	end := o.now()
	start := end.Add(-o.lookback)

	events, err := o.calendar.ListEvents(ctx, start, end)
	if err != nil {
		return nil, o.fail(log, fmt.Errorf("fetch calendar events: %w", err))
	}

	selected := o.selector.Select(events)
	log.Info("events selected", "fetched", len(events), "selected", len(selected))

	// Read the store up front; merge is a whole-range read-merge-write cycle.
	existing, err := o.store.ReadAll(ctx)
	if err != nil {
		return nil, o.fail(log, fmt.Errorf("read contact store: %w", err))
	}

	// Process events in ascending start order so last-write-wins semantics
	// favour the most recent meeting's insight.
	log.Info("run state", "state", StateProcessingContacts)
	facts := o.processEvents(ctx, log, selected)

	merged := o.merger.Merge(existing, facts, o.now())

	log.Info("run state", "state", StatePersisting)
	if err := o.store.WriteAll(ctx, merged); err != nil {
		return nil, o.fail(log, fmt.Errorf("write contact store: %w", err))
	}

	summary := &models.RunSummary{
		RunID:             runID,
		EventsProcessed:   len(selected),
		ContactsProcessed: countProcessed(facts),
		CompletedAt:       o.now(),
	}

	log.Info("run state", "state", StateRecordingCompletion)
	if err := o.store.RecordCompletion(ctx, *summary); err != nil {
		return nil, o.fail(log, fmt.Errorf("record run completion: %w", err))
	}

	if o.publisher != nil {
		if err := o.publisher.PublishRunSummary(ctx, *summary); err != nil {
			log.Warn("run summary publish failed", "error", err)
		}
	}

	log.Info("sync run complete",
		"state", StateDone,
		"events", summary.EventsProcessed,
		"contacts", summary.ContactsProcessed,
	)

	return summary, nil
}

// processEvents walks events and attendees sequentially, producing one fact
// per attendee sighting. Notes resolution and insight extraction are both
// non-fatal here: the extractor degrades to defaults on empty or failed input.
func (o *Orchestrator) processEvents(ctx context.Context, log *slog.Logger, events []models.Event) []merge.Fact {
	var facts []merge.Fact

	for _, ev := range events {
		for _, attendee := range ev.Attendees {
			addr := policy.Normalize(attendee)
			if o.exclusion.Excluded(addr) {
				continue
			}

			var content string
			var source models.NoteSource
			if result := o.resolver.Resolve(ctx, addr, ev.Start, ev.Subject); result != nil {
				content = result.Content
				source = result.Source
			}

			in := o.extractor.Extract(ctx, content, displayName(addr), source)

			facts = append(facts, merge.Fact{
				Email:       addr,
				MeetingTime: ev.Start,
				Insight:     &in,
			})
		}
	}

	log.Info("attendees processed", "facts", len(facts))
	return facts
}

// countProcessed counts distinct contacts touched by the run.
func countProcessed(facts []merge.Fact) int {
	seen := make(map[string]bool, len(facts))
	for _, f := range facts {
		seen[f.Email] = true
	}
	return len(seen)
}

// displayName gives the extractor a human-ish name for the prompt.
func displayName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// fail logs the terminal failure state and returns the error unchanged.
func (o *Orchestrator) fail(log *slog.Logger, err error) error {
	log.Error("sync run failed", "state", StateFailed, "error", err)
	return err
}
