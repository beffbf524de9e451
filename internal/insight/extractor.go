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

// Package insight derives a structured {status, nextStep, notes} record from
// free-text meeting notes via a language-model call. Extraction never fails:
// any error degrades to safe defaults flagged for manual review.
package insight

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dealtrack/investorsync/internal/models"
)

const (
	// minContentLength short-circuits extraction without an LLM call.
	minContentLength = 20

	// maxPromptContent bounds note text embedded in the prompt.
	maxPromptContent = 6000

	// maxNotesLength bounds the notes field written to the store.
	maxNotesLength = 600

	defaultNextStep = "Manual review required"
)

// Completer is the slice of the language-model client the extractor needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor turns note text into an Insight.
type Extractor struct {
	llm Completer
}

// NewExtractor creates an insight extractor.
func NewExtractor(llm Completer) *Extractor {
	return &Extractor{llm: llm}
}

// Extract returns an Insight for the given note content. On empty or
// too-short content it returns the insufficient-content default without
// calling the model; on model or parse failure it returns the manual-review
// default. It never returns an error.
func (e *Extractor) Extract(ctx context.Context, content, contactName string, source models.NoteSource) models.Insight {
	content = strings.TrimSpace(content)
	if len(content) < minContentLength {
		return models.Insight{
			Status:   models.StatusUnderReview,
			NextStep: defaultNextStep,
			Notes:    "Insufficient meeting notes for automated analysis.",
		}
	}

	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	prompt := buildPrompt(content, contactName, source)

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("insight extraction failed, using defaults",
			"contact", contactName,
			"source", source,
			"error", err,
		)
		return failureInsight("Automated analysis failed; review meeting notes manually.")
	}

	parsed, err := parseInsight(raw)
	if err != nil {
		slog.Warn("unparseable model output, using defaults",
			"contact", contactName,
			"source", source,
			"error", err,
		)
		return failureInsight("Model returned unparseable output; review meeting notes manually.")
	}

	return sanitizeInsight(parsed)
}

func failureInsight(reason string) models.Insight {
	return models.Insight{
		Status:   models.StatusManualReview,
		NextStep: defaultNextStep,
		Notes:    reason,
	}
}

// buildPrompt constructs the extraction instruction. Transcript-backed
// sources get the richer structured ask; generic email gets a lighter
// summary ask. Both demand a single JSON object with exactly three fields.
func buildPrompt(content, contactName string, source models.NoteSource) string {
	var sb strings.Builder

	sb.WriteString("You are analysing notes from an investor-relations meeting with ")
	sb.WriteString(contactName)
	sb.WriteString(".\n\n")

	switch source {
	case models.SourceTranscript, models.SourceRelayEmail:
		sb.WriteString("The text below is a meeting transcript. Assess the investor's sentiment, ")
		sb.WriteString("any commitments or concerns they voiced, and any timeline or amounts discussed, ")
		sb.WriteString("and merge that assessment into the notes field.\n\n")
	default:
		sb.WriteString("The text below is email correspondence. Summarise the state of the ")
		sb.WriteString("relationship briefly in the notes field.\n\n")
	}

	sb.WriteString("Respond with a single JSON object and nothing else, with exactly these fields:\n")
	sb.WriteString(`  "status": one of "Interested", "Follow-up", "Meeting Scheduled", "Rejected", "Under Review"` + "\n")
	sb.WriteString(`  "nextStep": a single recommended action` + "\n")
	sb.WriteString(`  "notes": a summary of at most 500 characters` + "\n\n")
	sb.WriteString("Notes:\n")
	sb.WriteString(content)

	return sb.String()
}

// sanitizeInsight substitutes defaults for any missing field rather than
// failing the whole extraction, and bounds the notes length.
func sanitizeInsight(in models.Insight) models.Insight {
	if strings.TrimSpace(in.Status) == "" {
		in.Status = models.StatusUnderReview
	}
	if strings.TrimSpace(in.NextStep) == "" {
		in.NextStep = defaultNextStep
	}
	if strings.TrimSpace(in.Notes) == "" {
		in.Notes = "No summary produced."
	}
	if len(in.Notes) > maxNotesLength {
		in.Notes = in.Notes[:maxNotesLength]
	}
	return in
}
