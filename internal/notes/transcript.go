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
	"time"

	"github.com/dealtrack/investorsync/internal/models"
)

// TranscriptFinder is the slice of the transcript provider client this
// source needs.
type TranscriptFinder interface {
	FindTranscript(ctx context.Context, participantEmail string, around time.Time) (string, error)
}

// TranscriptSource resolves notes from the primary transcript provider.
type TranscriptSource struct {
	finder TranscriptFinder
}

// NewTranscriptSource creates the highest-priority notes source.
func NewTranscriptSource(finder TranscriptFinder) *TranscriptSource {
	return &TranscriptSource{finder: finder}
}

// Name implements Source.
func (s *TranscriptSource) Name() string { return string(models.SourceTranscript) }

// Resolve looks for a transcript within ±1 day of the meeting whose
// participants include the contact.
func (s *TranscriptSource) Resolve(ctx context.Context, contactEmail string, meetingTime time.Time, _ string) (*models.NotesResult, error) {
	raw, err := s.finder.FindTranscript(ctx, contactEmail, meetingTime)
	if err != nil {
		return nil, err
	}

	content := Clean(raw)
	if content == "" {
		return nil, nil
	}

	return &models.NotesResult{
		Content: content,
		Source:  models.SourceTranscript,
	}, nil
}
