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

// Package transcript queries a Fireflies-style meeting transcript provider
// over its GraphQL HTTP endpoint.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to the transcript provider's GraphQL endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient creates a transcript provider client.
func NewClient(httpClient *http.Client, endpoint, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

const listQuery = `query($fromDate: DateTime, $toDate: DateTime) {
  transcripts(fromDate: $fromDate, toDate: $toDate) {
    id
    title
    date
    participants
  }
}`

const fetchQuery = `query($id: String!) {
  transcript(id: $id) {
    id
    sentences {
      speaker_name
      text
    }
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type transcriptStub struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         int64    `json:"date"` // epoch milliseconds
	Participants []string `json:"participants"`
}

type sentence struct {
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

// FindTranscript looks for a transcript within ±1 day of the meeting whose
// participant list contains the given email, fetches its full sentence list,
// and flattens it into "speaker: utterance" lines. Returns "" when no
// matching transcript exists.
func (c *Client) FindTranscript(ctx context.Context, participantEmail string, around time.Time) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("transcript provider not configured")
	}

	from := around.Add(-24 * time.Hour)
	to := around.Add(24 * time.Hour)

	var listResult struct {
		Transcripts []transcriptStub `json:"transcripts"`
	}
	if err := c.query(ctx, listQuery, map[string]interface{}{
		"fromDate": from.UTC().Format(time.RFC3339),
		"toDate":   to.UTC().Format(time.RFC3339),
	}, &listResult); err != nil {
		return "", fmt.Errorf("list transcripts: %w", err)
	}

	want := strings.ToLower(strings.TrimSpace(participantEmail))
	var matchID string
	for _, t := range listResult.Transcripts {
		for _, p := range t.Participants {
			if strings.ToLower(strings.TrimSpace(p)) == want {
				matchID = t.ID
				break
			}
		}
		if matchID != "" {
			break
		}
	}

	if matchID == "" {
		return "", nil
	}

	var fetchResult struct {
		Transcript struct {
			ID        string     `json:"id"`
			Sentences []sentence `json:"sentences"`
		} `json:"transcript"`
	}
	if err := c.query(ctx, fetchQuery, map[string]interface{}{"id": matchID}, &fetchResult); err != nil {
		return "", fmt.Errorf("fetch transcript %s: %w", matchID, err)
	}

	var sb strings.Builder
	for _, s := range fetchResult.Transcript.Sentences {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		sb.WriteString(s.SpeakerName)
		sb.WriteString(": ")
		sb.WriteString(s.Text)
		sb.WriteString("\n")
	}

	slog.Debug("transcript resolved",
		"transcript_id", matchID,
		"participant", want,
		"sentences", len(fetchResult.Transcript.Sentences),
	)

	return sb.String(), nil
}

// query executes a GraphQL request and decodes the "data" payload into out.
func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post graphql: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		slog.Error("transcript API error", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("transcript API returned HTTP %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}
