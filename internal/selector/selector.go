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

// Package selector filters calendar events down to those likely relevant to
// investor relations. The policy is deliberately permissive — downstream
// stages (notes resolution, insight extraction) further filter signal.
package selector

import (
	"sort"
	"strings"

	"github.com/dealtrack/investorsync/internal/models"
	"github.com/dealtrack/investorsync/internal/policy"
)

// investmentKeywords admit an event when any appears in its title or body.
var investmentKeywords = []string{
	"investor", "pitch", "funding", "vc", "capital",
	"ventures", "fund", "demo", "meeting", "call",
}

// venturePatterns admit an event when any appears in its title, body,
// organizer address, or an attendee address.
var venturePatterns = []string{
	"ventures", "capital", "fund", "partners", "investments",
}

// freeMailDomains are consumer providers that don't indicate a business
// counterparty on their own.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"outlook.com":    true,
	"hotmail.com":    true,
	"live.com":       true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"proton.me":      true,
	"protonmail.com": true,
}

// Selector judges event relevance for a given home domain.
type Selector struct {
	orgDomain string
}

// New creates a selector. orgDomain is the organization's own email domain;
// attendees outside it (and outside consumer mail providers) look like
// business counterparties.
func New(orgDomain string) *Selector {
	return &Selector{orgDomain: strings.ToLower(orgDomain)}
}

// Select returns the relevant events in chronological ascending order by
// start time. Events are not deduplicated — each is processed once per run.
func (s *Selector) Select(events []models.Event) []models.Event {
	var out []models.Event
	for _, ev := range events {
		if s.Relevant(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Relevant reports whether any inclusion rule holds for the event:
//  1. title/body contains an investment keyword,
//  2. title, body, organizer, or an attendee matches a venture naming pattern,
//  3. at least one attendee looks like an external business counterparty.
//
// Events with no attendees pass only via rules 1 and 2; all-internal events
// are excluded unless keyword-matched.
func (s *Selector) Relevant(ev models.Event) bool {
	text := strings.ToLower(ev.Subject + " " + ev.Body)

	for _, kw := range investmentKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	if matchesVenturePattern(text) || matchesVenturePattern(strings.ToLower(ev.Organizer)) {
		return true
	}
	for _, a := range ev.Attendees {
		if matchesVenturePattern(strings.ToLower(a)) {
			return true
		}
	}

	for _, a := range ev.Attendees {
		if s.businessCounterparty(a) {
			return true
		}
	}

	return false
}

// matchesVenturePattern checks for venture/investment naming, including the
// .vc top-level domain.
func matchesVenturePattern(text string) bool {
	for _, p := range venturePatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return strings.Contains(text, ".vc")
}

// businessCounterparty reports whether the attendee's domain is external to
// the organization and not a consumer mail provider.
func (s *Selector) businessCounterparty(email string) bool {
	domain := policy.Domain(policy.Normalize(email))
	if domain == "" {
		return false
	}
	if domain == s.orgDomain {
		return false
	}
	return !freeMailDomains[domain]
}
