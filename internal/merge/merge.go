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

// Package merge combines contact facts derived during a run with the existing
// contact store: one record per normalised email, monotone last-meeting
// advancement, last-write-within-run wins for insight fields.
package merge

import (
	"sort"
	"strings"
	"time"

	"github.com/dealtrack/investorsync/internal/models"
	"github.com/dealtrack/investorsync/internal/policy"
)

// Fact is one observation of a contact during a run: an attendee sighting on
// an event, optionally with an extracted insight. Facts must be applied in
// event order so later meetings supersede earlier ones.
type Fact struct {
	Email       string
	MeetingTime time.Time
	Insight     *models.Insight
}

// Merger applies run facts to store contents under the exclusion policy.
type Merger struct {
	exclusion *policy.Exclusion
}

// NewMerger creates a merger.
func NewMerger(exclusion *policy.Exclusion) *Merger {
	return &Merger{exclusion: exclusion}
}

// Merge produces the final contact set to persist. Existing contacts are
// carried forward untouched unless a fact updates them; excluded emails are
// dropped on both sides; output is one contact per email, sorted by email
// for deterministic persistence.
func (m *Merger) Merge(existing []models.Contact, facts []Fact, now time.Time) []models.Contact {
	byEmail := make(map[string]*models.Contact, len(existing))
	for _, c := range existing {
		addr := policy.Normalize(c.Email)
		if addr == "" || m.exclusion.Excluded(addr) {
			continue
		}
		cc := c
		cc.Email = addr
		byEmail[addr] = &cc
	}

	for _, f := range facts {
		addr := policy.Normalize(f.Email)
		if addr == "" || m.exclusion.Excluded(addr) {
			continue
		}

		c, ok := byEmail[addr]
		if !ok {
			c = &models.Contact{
				Email:     addr,
				Name:      deriveName(addr),
				Status:    models.StatusNewContact,
				NextStep:  "Initial outreach",
				CreatedAt: now,
			}
			byEmail[addr] = c
		}

		if f.MeetingTime.After(c.LastMeeting) {
			c.LastMeeting = f.MeetingTime
		}

		// Insight output always wins over a stale prior value, including
		// manual-review defaults produced on extraction failure.
		if f.Insight != nil {
			c.Status = f.Insight.Status
			c.NextStep = f.Insight.NextStep
			c.Notes = f.Insight.Notes
		}
	}

	out := make([]models.Contact, 0, len(byEmail))
	for _, c := range byEmail {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// deriveName builds a display name from the local part of an address,
// e.g. "jane.doe@acme.vc" -> "Jane Doe".
func deriveName(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	name := strings.Join(parts, " ")
	if name == "" {
		return email
	}
	return name
}
