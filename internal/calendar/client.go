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

// Package calendar lists calendar events from the Microsoft Graph API
// calendarView endpoint for a trailing time window.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dealtrack/investorsync/internal/models"
)

// Client lists calendar events for a single user via the Graph API.
type Client struct {
	httpClient   *http.Client
	graphBaseURL string
	userID       string
}

// NewClient creates a Graph calendar client for the given user.
func NewClient(httpClient *http.Client, graphBaseURL, userID string) *Client {
	return &Client{
		httpClient:   httpClient,
		graphBaseURL: graphBaseURL,
		userID:       userID,
	}
}

// eventsResponse represents a page of the /calendarView response.
type eventsResponse struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

// graphEvent represents the relevant fields of a Graph calendar event.
type graphEvent struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	BodyPreview string `json:"bodyPreview"`
	Start       struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"start"`
	Organizer struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"organizer"`
	Attendees []struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"attendees"`
}

// ListEvents returns all events with a start time in [timeMin, timeMax],
// following pagination. Events are returned in the order Graph yields them;
// the selector applies chronological ordering.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]models.Event, error) {
	params := url.Values{}
	params.Set("startDateTime", timeMin.UTC().Format(time.RFC3339))
	params.Set("endDateTime", timeMax.UTC().Format(time.RFC3339))
	params.Set("$select", "id,subject,bodyPreview,start,organizer,attendees")
	params.Set("$top", "100")

	listURL := fmt.Sprintf("%s/users/%s/calendarView?%s", c.graphBaseURL, c.userID, params.Encode())

	var events []models.Event
	pageCount := 0

	for nextURL := listURL; nextURL != ""; {
		page, err := c.fetchPage(ctx, nextURL)
		if err != nil {
			return nil, fmt.Errorf("calendar page %d: %w", pageCount, err)
		}
		pageCount++

		for _, ge := range page.Value {
			ev, err := convertEvent(ge)
			if err != nil {
				slog.Warn("skipping unparseable calendar event",
					"event_id", ge.ID,
					"error", err,
				)
				continue
			}
			events = append(events, ev)
		}

		nextURL = page.NextLink
	}

	slog.Info("calendar events fetched",
		"user", c.userID,
		"count", len(events),
		"pages", pageCount,
	)

	return events, nil
}

// fetchPage retrieves a single page of the calendarView response.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*eventsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("calendarView error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("calendarView returned HTTP %d", resp.StatusCode)
	}

	var page eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode calendar response: %w", err)
	}

	return &page, nil
}

// convertEvent maps a Graph event into the canonical Event model.
func convertEvent(ge graphEvent) (models.Event, error) {
	start, err := parseGraphTime(ge.Start.DateTime)
	if err != nil {
		return models.Event{}, fmt.Errorf("parse start time %q: %w", ge.Start.DateTime, err)
	}

	attendees := make([]string, 0, len(ge.Attendees))
	for _, a := range ge.Attendees {
		if a.EmailAddress.Address != "" {
			attendees = append(attendees, a.EmailAddress.Address)
		}
	}

	return models.Event{
		ID:        ge.ID,
		Subject:   ge.Subject,
		Body:      ge.BodyPreview,
		Organizer: ge.Organizer.EmailAddress.Address,
		Attendees: attendees,
		Start:     start,
	}, nil
}

// parseGraphTime parses Graph's dateTime format. With the UTC Prefer header
// Graph returns e.g. "2026-03-14T15:00:00.0000000"; fractional seconds and
// the trailing Z are both optional.
func parseGraphTime(s string) (time.Time, error) {
	s = strings.TrimSuffix(s, "Z")
	if dot := strings.Index(s, "."); dot >= 0 {
		s = s[:dot]
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
