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

// Package models defines the data structures shared across the sync service.
package models

import "time"

// Conventional status values produced by the pipeline. The status field
// tolerates free text, but these are what the extractor and merger emit.
const (
	StatusInterested       = "Interested"
	StatusFollowUp         = "Follow-up"
	StatusMeetingScheduled = "Meeting Scheduled"
	StatusRejected         = "Rejected"
	StatusUnderReview      = "Under Review"
	StatusManualReview     = "Manual Review Needed"
	StatusNewContact       = "New Contact"
)

// Contact is the unit of state the system maintains — one record per
// lowercase-normalised email address.
type Contact struct {
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	NextStep    string    `json:"next_step"`
	Notes       string    `json:"notes"`
	LastMeeting time.Time `json:"last_meeting"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is a calendar meeting fetched fresh each run. Transient — never
// persisted by this service.
type Event struct {
	ID        string
	Subject   string
	Body      string
	Organizer string
	Attendees []string
	Start     time.Time
}

// NoteSource identifies which source in the resolver chain produced a result.
type NoteSource string

const (
	SourceTranscript  NoteSource = "transcript"
	SourceRelayEmail  NoteSource = "relay_email"
	SourceEmailSearch NoteSource = "email_search"
)

// NotesResult is the text retrieved for one contact+meeting, together with
// the source that produced it.
type NotesResult struct {
	Content string
	Source  NoteSource
}

// Insight is the structured output derived from note text. Always populated:
// extraction failures degrade to safe defaults rather than erroring.
type Insight struct {
	Status   string `json:"status"`
	NextStep string `json:"nextStep"`
	Notes    string `json:"notes"`
}

// RunSummary reports one completed sync run.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	EventsProcessed   int       `json:"events_processed"`
	ContactsProcessed int       `json:"contacts_processed"`
	CompletedAt       time.Time `json:"completed_at"`
}
