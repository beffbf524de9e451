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

// Package notes retrieves meeting notes for a contact through an ordered
// fallback chain of sources: transcript provider, relayed transcript email,
// then generic email search. The first usable result wins; sources are never
// combined.
package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/dealtrack/investorsync/internal/models"
)

// Source is one strategy in the resolver's fallback chain. A nil result with
// a nil error means the source found nothing; errors are non-fatal and simply
// advance the chain.
type Source interface {
	Name() string
	Resolve(ctx context.Context, contactEmail string, meetingTime time.Time, meetingTitle string) (*models.NotesResult, error)
}

// Resolver tries each source in priority order and returns the first success.
type Resolver struct {
	sources []Source
}

// NewResolver creates a resolver over the given sources, in priority order.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve returns at most one NotesResult for the contact and meeting, or nil
// when every source fails or comes up empty.
func (r *Resolver) Resolve(ctx context.Context, contactEmail string, meetingTime time.Time, meetingTitle string) *models.NotesResult {
	for _, src := range r.sources {
		result, err := src.Resolve(ctx, contactEmail, meetingTime, meetingTitle)
		if err != nil {
			slog.Warn("notes source failed, trying next",
				"source", src.Name(),
				"contact", contactEmail,
				"error", err,
			)
			continue
		}
		if result == nil || result.Content == "" {
			continue
		}
		slog.Info("notes resolved",
			"source", src.Name(),
			"contact", contactEmail,
			"chars", len(result.Content),
		)
		return result
	}

	slog.Debug("no notes found", "contact", contactEmail, "meeting", meetingTitle)
	return nil
}
