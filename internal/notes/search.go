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

	"github.com/dealtrack/investorsync/internal/models"
	"github.com/dealtrack/investorsync/internal/policy"
)

// searchKeywords mark a generic correspondence message as recap-style.
var searchKeywords = []string{
	"recap", "summary", "notes", "action items", "follow-up", "next steps",
}

// SearchSource resolves notes from generic correspondence with the contact —
// the last-resort source when no transcript or relay email exists.
type SearchSource struct {
	mb Mailbox
}

// NewSearchSource creates the lowest-priority notes source.
func NewSearchSource(mb Mailbox) *SearchSource {
	return &SearchSource{mb: mb}
}

// Name implements Source.
func (s *SearchSource) Name() string { return string(models.SourceEmailSearch) }

// Resolve searches messages to or from the contact around the meeting and
// accepts the first whose subject looks like a recap or whose sender is the
// contact, provided it carries recap-style keywords.
func (s *SearchSource) Resolve(ctx context.Context, contactEmail string, meetingTime time.Time, _ string) (*models.NotesResult, error) {
	addr := policy.Normalize(contactEmail)

	filter := fmt.Sprintf(
		"receivedDateTime ge %s and receivedDateTime le %s and (from/emailAddress/address eq '%s' or toRecipients/any(r:r/emailAddress/address eq '%s'))",
		meetingTime.Add(-emailWindowBefore).UTC().Format(time.RFC3339),
		meetingTime.Add(emailWindowAfter).UTC().Format(time.RFC3339),
		addr, addr,
	)

	summaries, err := s.mb.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search contact messages: %w", err)
	}

	for _, m := range summaries {
		subjectRecap := containsAny(strings.ToLower(m.Subject), searchKeywords)
		fromContact := policy.Normalize(m.From) == addr
		if !subjectRecap && !fromContact {
			continue
		}

		msg, err := s.mb.GetMessage(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch message %s: %w", m.ID, err)
		}
		if msg == nil {
			continue
		}

		if !subjectRecap && !containsAny(strings.ToLower(msg.Body), searchKeywords) {
			continue
		}

		content := Clean(msg.Body)
		if content == "" {
			continue
		}

		return &models.NotesResult{
			Content: content,
			Source:  models.SourceEmailSearch,
		}, nil
	}

	return nil, nil
}
