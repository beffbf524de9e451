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

package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealtrack/investorsync/internal/mailbox"
	"github.com/dealtrack/investorsync/internal/models"
	"github.com/dealtrack/investorsync/internal/policy"
)

// Mailbox is the slice of the mailbox client the email-backed sources need.
type Mailbox interface {
	Search(ctx context.Context, filter string) ([]mailbox.MessageSummary, error)
	GetMessage(ctx context.Context, messageID string) (*mailbox.Message, error)
}

// recapKeywords mark a message as a meeting recap.
var recapKeywords = []string{
	"recap", "summary", "overview", "transcript", "action items", "notes",
}

// genericTitleTerms are stripped from meeting titles before keyword narrowing.
var genericTitleTerms = map[string]bool{
	"meeting": true, "call": true, "sync": true, "intro": true,
	"with": true, "and": true, "weekly": true, "catch": true,
}

// Email search windows around the meeting: relays and recaps land shortly
// after the meeting, occasionally the day before for pre-reads.
const (
	emailWindowBefore = 24 * time.Hour
	emailWindowAfter  = 48 * time.Hour
)

// RelaySource resolves notes from transcript emails relayed by the provider's
// notetaker bot into the principal's mailbox.
type RelaySource struct {
	mb          Mailbox
	relaySender string
}

// NewRelaySource creates the second-priority notes source.
func NewRelaySource(mb Mailbox, relaySender string) *RelaySource {
	return &RelaySource{
		mb:          mb,
		relaySender: policy.Normalize(relaySender),
	}
}

// Name implements Source.
func (s *RelaySource) Name() string { return string(models.SourceRelayEmail) }

// Resolve searches for relayed recap emails around the meeting, narrows by
// meeting-title keywords when possible, verifies the sender, and returns the
// cleaned body of the best match.
func (s *RelaySource) Resolve(ctx context.Context, contactEmail string, meetingTime time.Time, meetingTitle string) (*models.NotesResult, error) {
	if s.relaySender == "" {
		return nil, nil
	}

	filter := fmt.Sprintf(
		"receivedDateTime ge %s and receivedDateTime le %s and from/emailAddress/address eq '%s'",
		meetingTime.Add(-emailWindowBefore).UTC().Format(time.RFC3339),
		meetingTime.Add(emailWindowAfter).UTC().Format(time.RFC3339),
		s.relaySender,
	)

	summaries, err := s.mb.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search relay messages: %w", err)
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	// Narrow by meeting-title keywords when any subject matches one.
	candidates := summaries
	if kws := titleKeywords(meetingTitle); len(kws) > 0 {
		var narrowed []mailbox.MessageSummary
		for _, m := range summaries {
			if containsAny(strings.ToLower(m.Subject), kws) {
				narrowed = append(narrowed, m)
			}
		}
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	for _, m := range candidates {
		msg, err := s.mb.GetMessage(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch relay message %s: %w", m.ID, err)
		}
		if msg == nil {
			continue
		}

		// Verify sender identity — the listing filter is advisory only.
		if policy.Normalize(msg.From) != s.relaySender {
			continue
		}

		if !containsAny(strings.ToLower(msg.Subject), recapKeywords) &&
			!containsAny(strings.ToLower(msg.Body), recapKeywords) {
			continue
		}

		content := Clean(msg.Body)
		if content == "" {
			continue
		}

		return &models.NotesResult{
			Content: content,
			Source:  models.SourceRelayEmail,
		}, nil
	}

	return nil, nil
}

// titleKeywords extracts distinctive words (>3 chars, non-generic) from a
// meeting title for narrowing relay matches.
func titleKeywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?()[]\"'")
		if len(w) <= 3 || genericTitleTerms[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// containsAny reports whether s contains any of the needles.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
