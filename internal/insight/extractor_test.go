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

package insight

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dealtrack/investorsync/internal/models"
)

// stubLLM counts calls and returns a canned response or error.
type stubLLM struct {
	calls    int
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

const sampleNotes = "Jane: We really like the traction you showed. Let's talk terms next week."

func TestExtract_ShortContentSkipsModel(t *testing.T) {
	stub := &stubLLM{response: `{"status":"Interested"}`}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), "too short", "Jane", models.SourceTranscript)

	if stub.calls != 0 {
		t.Errorf("model called %d times for short content, want 0", stub.calls)
	}
	if got.Status != models.StatusUnderReview {
		t.Errorf("status = %q, want %q", got.Status, models.StatusUnderReview)
	}
	if got.NextStep != defaultNextStep {
		t.Errorf("nextStep = %q, want %q", got.NextStep, defaultNextStep)
	}
}

func TestExtract_EmptyContentSkipsModel(t *testing.T) {
	stub := &stubLLM{}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), "", "Jane", models.SourceEmailSearch)
	if stub.calls != 0 {
		t.Errorf("model called %d times for empty content, want 0", stub.calls)
	}
	if got.Status != models.StatusUnderReview {
		t.Errorf("status = %q, want %q", got.Status, models.StatusUnderReview)
	}
}

func TestExtract_ParsesWellFormedResponse(t *testing.T) {
	stub := &stubLLM{response: `{"status":"Interested","nextStep":"Schedule follow-up","notes":"Positive call"}`}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceTranscript)

	if stub.calls != 1 {
		t.Fatalf("model called %d times, want 1", stub.calls)
	}
	if got.Status != models.StatusInterested || got.NextStep != "Schedule follow-up" || got.Notes != "Positive call" {
		t.Errorf("insight = %+v", got)
	}
}

func TestExtract_RecoversEmbeddedObject(t *testing.T) {
	stub := &stubLLM{
		response: `blah blah {"status":"Interested","nextStep":"Schedule follow-up","notes":"Positive"} trailing`,
	}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceTranscript)

	if got.Status != models.StatusInterested {
		t.Errorf("status = %q, want recovered %q", got.Status, models.StatusInterested)
	}
	if got.NextStep != "Schedule follow-up" {
		t.Errorf("nextStep = %q, want Schedule follow-up", got.NextStep)
	}
}

func TestExtract_UnparseableFallsBack(t *testing.T) {
	stub := &stubLLM{response: "I am sorry, I cannot help with that."}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceTranscript)

	if got.Status != models.StatusManualReview {
		t.Errorf("status = %q, want %q", got.Status, models.StatusManualReview)
	}
	if got.NextStep != defaultNextStep {
		t.Errorf("nextStep = %q, want %q", got.NextStep, defaultNextStep)
	}
}

func TestExtract_ModelErrorFallsBack(t *testing.T) {
	stub := &stubLLM{err: fmt.Errorf("llm API returned HTTP 500")}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceRelayEmail)

	if got.Status != models.StatusManualReview {
		t.Errorf("status = %q, want %q", got.Status, models.StatusManualReview)
	}
}

func TestExtract_MissingFieldsGetDefaults(t *testing.T) {
	stub := &stubLLM{response: `{"status":"Interested"}`}
	e := NewExtractor(stub)

	got := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceEmailSearch)

	if got.Status != models.StatusInterested {
		t.Errorf("status = %q, want Interested", got.Status)
	}
	if got.NextStep != defaultNextStep {
		t.Errorf("nextStep = %q, want substituted default", got.NextStep)
	}
	if got.Notes == "" {
		t.Error("notes empty, want substituted default")
	}
}

func TestExtract_PromptVariesBySource(t *testing.T) {
	stub := &stubLLM{response: `{"status":"Interested","nextStep":"x","notes":"y"}`}
	e := NewExtractor(stub)

	e.Extract(context.Background(), sampleNotes, "Jane", models.SourceTranscript)
	e.Extract(context.Background(), sampleNotes, "Jane", models.SourceEmailSearch)

	if len(stub.prompts) != 2 {
		t.Fatalf("captured %d prompts, want 2", len(stub.prompts))
	}
	if !strings.Contains(stub.prompts[0], "transcript") {
		t.Error("transcript prompt should ask for transcript analysis")
	}
	if !strings.Contains(stub.prompts[1], "correspondence") {
		t.Error("email prompt should ask for a lighter correspondence summary")
	}
}

func TestExtract_TruncatesLongContent(t *testing.T) {
	stub := &stubLLM{response: `{"status":"Interested","nextStep":"x","notes":"y"}`}
	e := NewExtractor(stub)

	long := strings.Repeat("word ", 3000) // ~15k chars
	e.Extract(context.Background(), long, "Jane", models.SourceTranscript)

	if len(stub.prompts) != 1 {
		t.Fatalf("captured %d prompts, want 1", len(stub.prompts))
	}
	// Prompt = instructions + content; content must be bounded.
	if len(stub.prompts[0]) > maxPromptContent+2000 {
		t.Errorf("prompt length %d exceeds content bound", len(stub.prompts[0]))
	}
}

func TestExtract_Deterministic(t *testing.T) {
	stub := &stubLLM{response: `{"status":"Interested","nextStep":"Schedule follow-up","notes":"Positive"}`}
	e := NewExtractor(stub)

	a := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceTranscript)
	b := e.Extract(context.Background(), sampleNotes, "Jane", models.SourceTranscript)
	if a != b {
		t.Errorf("same input produced different insights: %+v vs %+v", a, b)
	}
}
