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

package selector

import (
	"testing"
	"time"

	"github.com/dealtrack/investorsync/internal/models"
)

func TestRelevant_InternalStandupExcluded(t *testing.T) {
	s := New("internalteam.com")

	ev := models.Event{
		Subject:   "Weekly Team Standup",
		Organizer: "lead@internalteam.com",
		Attendees: []string{"a@internalteam.com", "b@internalteam.com"},
	}

	if s.Relevant(ev) {
		t.Error("all-internal standup with no keywords should be excluded")
	}
}

func TestRelevant_VentureAttendeeIncluded(t *testing.T) {
	s := New("internalteam.com")

	ev := models.Event{
		Subject:   "Intro call with Acme Ventures",
		Attendees: []string{"jane@acmeventures.com"},
	}

	if !s.Relevant(ev) {
		t.Error("event with venture-pattern title and attendee should be included")
	}
}

func TestRelevant_KeywordOnlyNoAttendees(t *testing.T) {
	s := New("internalteam.com")

	ev := models.Event{Subject: "Series A pitch rehearsal"}
	if !s.Relevant(ev) {
		t.Error("keyword-matched event without attendees should be included")
	}

	ev = models.Event{Subject: "Dentist appointment"}
	if s.Relevant(ev) {
		t.Error("unmatched event without attendees should be excluded")
	}
}

func TestRelevant_DotVCDomain(t *testing.T) {
	s := New("internalteam.com")

	ev := models.Event{
		Subject:   "Coffee",
		Attendees: []string{"partner@sequoia.vc"},
	}
	if !s.Relevant(ev) {
		t.Error(".vc attendee domain should be included")
	}
}

func TestRelevant_BusinessCounterparty(t *testing.T) {
	s := New("internalteam.com")

	// External business domain, no keywords anywhere.
	ev := models.Event{
		Subject:   "Catch up",
		Attendees: []string{"ceo@bigcorp.io"},
	}
	if !s.Relevant(ev) {
		t.Error("external business attendee alone should be enough (high-recall policy)")
	}

	// Consumer mail domain doesn't qualify as a business counterparty.
	ev = models.Event{
		Subject:   "Catch up",
		Attendees: []string{"friend@gmail.com"},
	}
	if s.Relevant(ev) {
		t.Error("consumer-mail attendee should not qualify on its own")
	}
}

func TestSelect_ChronologicalOrder(t *testing.T) {
	s := New("internalteam.com")
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	events := []models.Event{
		{Subject: "Investor update", Start: t0.Add(48 * time.Hour)},
		{Subject: "Pitch practice", Start: t0},
		{Subject: "Dentist", Start: t0.Add(time.Hour)}, // irrelevant, dropped
		{Subject: "Fund intro", Start: t0.Add(24 * time.Hour)},
	}

	got := s.Select(events)
	if len(got) != 3 {
		t.Fatalf("selected %d events, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start.Before(got[i-1].Start) {
			t.Errorf("events out of order at %d: %v before %v", i, got[i].Start, got[i-1].Start)
		}
	}
	if got[0].Subject != "Pitch practice" {
		t.Errorf("first event = %q, want Pitch practice", got[0].Subject)
	}
}
