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

import "testing"

func TestParseInsight_Strict(t *testing.T) {
	in, err := parseInsight(`{"status":"Interested","nextStep":"Call","notes":"ok"}`)
	if err != nil {
		t.Fatalf("parseInsight failed: %v", err)
	}
	if in.Status != "Interested" {
		t.Errorf("status = %q", in.Status)
	}
}

func TestParseInsight_CodeFence(t *testing.T) {
	raw := "```json\n{\"status\":\"Follow-up\",\"nextStep\":\"Send deck\",\"notes\":\"asked for materials\"}\n```"
	in, err := parseInsight(raw)
	if err != nil {
		t.Fatalf("parseInsight failed: %v", err)
	}
	if in.Status != "Follow-up" || in.NextStep != "Send deck" {
		t.Errorf("insight = %+v", in)
	}
}

func TestParseInsight_SkipsBrokenBraces(t *testing.T) {
	// A stray '{' before the real object must not defeat recovery.
	raw := `the answer is {not json} but {"status":"Rejected","nextStep":"Archive","notes":"passed"}`
	in, err := parseInsight(raw)
	if err != nil {
		t.Fatalf("parseInsight failed: %v", err)
	}
	if in.Status != "Rejected" {
		t.Errorf("status = %q, want Rejected", in.Status)
	}
}

func TestParseInsight_NoObject(t *testing.T) {
	if _, err := parseInsight("no json here at all"); err == nil {
		t.Error("expected error for output without a JSON object")
	}
}
