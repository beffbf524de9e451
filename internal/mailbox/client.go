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

// Package mailbox searches and fetches mail messages from the Microsoft
// Graph API for the sync principal's mailbox.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// MessageSummary is a listing-level view of a message.
type MessageSummary struct {
	ID         string
	Subject    string
	From       string
	ReceivedAt time.Time
}

// Message is a fully fetched message with its body.
type Message struct {
	ID          string
	Subject     string
	From        string
	FromName    string
	To          []string
	ContentType string
	Body        string
	ReceivedAt  time.Time
}

// Client searches and fetches messages for a single mailbox via the Graph API.
type Client struct {
	httpClient   *http.Client
	graphBaseURL string
	userID       string
}

// NewClient creates a Graph mailbox client for the given user.
func NewClient(httpClient *http.Client, graphBaseURL, userID string) *Client {
	return &Client{
		httpClient:   httpClient,
		graphBaseURL: graphBaseURL,
		userID:       userID,
	}
}

// messagesResponse represents a page of the /messages list response.
type messagesResponse struct {
	Value    []graphMessageSummary `json:"value"`
	NextLink string                `json:"@odata.nextLink"`
}

type graphMessageSummary struct {
	ID               string       `json:"id"`
	Subject          string       `json:"subject"`
	From             graphAddress `json:"from"`
	ReceivedDateTime time.Time    `json:"receivedDateTime"`
}

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	} `json:"emailAddress"`
}

// Search lists messages matching an OData $filter expression, following
// pagination. Callers build the filter; this keeps provider-specific query
// syntax out of the notes sources' decision logic.
func (c *Client) Search(ctx context.Context, filter string) ([]MessageSummary, error) {
	params := url.Values{}
	params.Set("$filter", filter)
	params.Set("$select", "id,subject,from,receivedDateTime")
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$top", "25")

	listURL := fmt.Sprintf("%s/users/%s/messages?%s", c.graphBaseURL, c.userID, params.Encode())

	var out []MessageSummary
	for nextURL := listURL; nextURL != ""; {
		page, err := c.fetchPage(ctx, nextURL)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Value {
			out = append(out, MessageSummary{
				ID:         m.ID,
				Subject:    m.Subject,
				From:       m.From.EmailAddress.Address,
				ReceivedAt: m.ReceivedDateTime,
			})
		}
		nextURL = page.NextLink
	}

	slog.Debug("mailbox search complete", "filter", filter, "matches", len(out))
	return out, nil
}

// fetchPage retrieves a single page of messages from the list endpoint.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*messagesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("messages list error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("messages list returned HTTP %d", resp.StatusCode)
	}

	var page messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}

	return &page, nil
}

// graphMessage represents the relevant fields of a full message response.
type graphMessage struct {
	ID               string         `json:"id"`
	Subject          string         `json:"subject"`
	From             graphAddress   `json:"from"`
	ToRecipients     []graphAddress `json:"toRecipients"`
	ReceivedDateTime time.Time      `json:"receivedDateTime"`
	Body             struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

// GetMessage retrieves the full content of a message. The Prefer header asks
// Graph for a plain-text body where possible; HTML bodies are still handled
// by the notes sanitiser. Returns nil without error on 404 (message deleted
// between listing and fetch).
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	msgURL := fmt.Sprintf("%s/users/%s/messages/%s?$select=id,subject,from,toRecipients,receivedDateTime,body",
		c.graphBaseURL, c.userID, messageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, msgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.body-content-type="text"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Warn("message not found (may have been deleted)",
			"user_id", c.userID,
			"message_id", messageID,
		)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph API returned HTTP %d for message %s", resp.StatusCode, messageID)
	}

	var msg graphMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode graph message: %w", err)
	}

	to := make([]string, 0, len(msg.ToRecipients))
	for _, r := range msg.ToRecipients {
		to = append(to, r.EmailAddress.Address)
	}

	return &Message{
		ID:          msg.ID,
		Subject:     msg.Subject,
		From:        msg.From.EmailAddress.Address,
		FromName:    msg.From.EmailAddress.Name,
		To:          to,
		ContentType: msg.Body.ContentType,
		Body:        msg.Body.Content,
		ReceivedAt:  msg.ReceivedDateTime,
	}, nil
}
