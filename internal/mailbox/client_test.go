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

package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearch_Pagination(t *testing.T) {
	var server *httptest.Server
	page := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/users/founder@internalteam.com/messages") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case 0:
			if got := r.URL.Query().Get("$filter"); got != "from/emailAddress/address eq 'fred@fireflies.ai'" {
				t.Errorf("filter = %q", got)
			}
			page++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]interface{}{
					{
						"id":      "m1",
						"subject": "Recap: Acme intro",
						"from": map[string]interface{}{
							"emailAddress": map[string]string{"address": "fred@fireflies.ai"},
						},
						"receivedDateTime": "2026-03-10T16:00:00Z",
					},
				},
				"@odata.nextLink": fmt.Sprintf("%s/users/founder@internalteam.com/messages?page=2", server.URL),
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]interface{}{
					{
						"id":      "m2",
						"subject": "Recap: follow-up",
						"from": map[string]interface{}{
							"emailAddress": map[string]string{"address": "fred@fireflies.ai"},
						},
						"receivedDateTime": "2026-03-11T09:00:00Z",
					},
				},
			})
		}
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "founder@internalteam.com")
	got, err := c.Search(context.Background(), "from/emailAddress/address eq 'fred@fireflies.ai'")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2 across pages", len(got))
	}
	if got[0].ID != "m1" || got[0].From != "fred@fireflies.ai" {
		t.Errorf("first summary = %+v", got[0])
	}
	if got[1].ID != "m2" {
		t.Errorf("second summary = %+v", got[1])
	}
}

func TestSearch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "founder@internalteam.com")
	if _, err := c.Search(context.Background(), "subject eq 'x'"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestGetMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/founder@internalteam.com/messages/m1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Prefer"); got != `outlook.body-content-type="text"` {
			t.Errorf("Prefer header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "m1",
			"subject": "Recap: Acme intro",
			"from": map[string]interface{}{
				"emailAddress": map[string]string{"address": "fred@fireflies.ai", "name": "Fred"},
			},
			"toRecipients": []map[string]interface{}{
				{"emailAddress": map[string]string{"address": "founder@internalteam.com"}},
			},
			"receivedDateTime": "2026-03-10T16:00:00Z",
			"body": map[string]string{
				"contentType": "text",
				"content":     "Summary of the meeting with Jane.",
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "founder@internalteam.com")
	msg, err := c.GetMessage(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.From != "fred@fireflies.ai" || msg.FromName != "Fred" {
		t.Errorf("from = %q (%q)", msg.From, msg.FromName)
	}
	if msg.Body != "Summary of the meeting with Jane." {
		t.Errorf("body = %q", msg.Body)
	}
	if len(msg.To) != 1 || msg.To[0] != "founder@internalteam.com" {
		t.Errorf("to = %v", msg.To)
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "founder@internalteam.com")
	msg, err := c.GetMessage(context.Background(), "gone")
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if msg != nil {
		t.Errorf("msg = %+v, want nil for deleted message", msg)
	}
}
