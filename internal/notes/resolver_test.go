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
	"testing"
	"time"

	"github.com/dealtrack/investorsync/internal/models"
)

// fakeSource is a scriptable Source for chain tests.
type fakeSource struct {
	name   string
	result *models.NotesResult
	err    error
	calls  int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Resolve(_ context.Context, _ string, _ time.Time, _ string) (*models.NotesResult, error) {
	f.calls++
	return f.result, f.err
}

var meetingTime = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func TestResolver_FirstSuccessWins(t *testing.T) {
	first := &fakeSource{name: "a", result: &models.NotesResult{Content: "transcript text", Source: models.SourceTranscript}}
	second := &fakeSource{name: "b", result: &models.NotesResult{Content: "relay text", Source: models.SourceRelayEmail}}

	r := NewResolver(first, second)
	got := r.Resolve(context.Background(), "jane@acme.vc", meetingTime, "Intro call")

	if got == nil || got.Content != "transcript text" {
		t.Fatalf("result = %+v, want first source's", got)
	}
	if second.calls != 0 {
		t.Errorf("second source called %d times after first succeeded, want 0", second.calls)
	}
}

func TestResolver_ErrorAdvancesChain(t *testing.T) {
	first := &fakeSource{name: "a", err: fmt.Errorf("no credentials")}
	second := &fakeSource{name: "b", result: nil} // no match
	third := &fakeSource{name: "c", result: &models.NotesResult{Content: "email body", Source: models.SourceEmailSearch}}

	r := NewResolver(first, second, third)
	got := r.Resolve(context.Background(), "jane@acme.vc", meetingTime, "Intro call")

	if got == nil || got.Source != models.SourceEmailSearch {
		t.Fatalf("result = %+v, want third source's", got)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("call counts = %d/%d/%d, want 1/1/1", first.calls, second.calls, third.calls)
	}
}

func TestResolver_ExhaustionReturnsNil(t *testing.T) {
	r := NewResolver(
		&fakeSource{name: "a", err: fmt.Errorf("API error")},
		&fakeSource{name: "b"},
	)

	if got := r.Resolve(context.Background(), "jane@acme.vc", meetingTime, "Intro call"); got != nil {
		t.Errorf("result = %+v, want nil on exhaustion", got)
	}
}

func TestResolver_EmptyContentNotASuccess(t *testing.T) {
	first := &fakeSource{name: "a", result: &models.NotesResult{Content: "", Source: models.SourceTranscript}}
	second := &fakeSource{name: "b", result: &models.NotesResult{Content: "real notes", Source: models.SourceRelayEmail}}

	r := NewResolver(first, second)
	got := r.Resolve(context.Background(), "jane@acme.vc", meetingTime, "Intro call")

	if got == nil || got.Source != models.SourceRelayEmail {
		t.Fatalf("result = %+v, want second source after empty first", got)
	}
}

func TestTitleKeywords(t *testing.T) {
	got := titleKeywords("Intro call with Acme Ventures sync")
	want := map[string]bool{"acme": true, "ventures": true}

	if len(got) != len(want) {
		t.Fatalf("titleKeywords = %v, want acme + ventures only", got)
	}
	for _, kw := range got {
		if !want[kw] {
			t.Errorf("unexpected keyword %q", kw)
		}
	}
}
