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

// Package policy decides which email addresses are never tracked as contacts:
// internal/team domains, known automation senders, and the sync principal's
// own address.
package policy

import "strings"

// Exclusion is a predicate over email addresses. Excluded addresses are never
// read from or written to the contact store.
type Exclusion struct {
	internalDomains map[string]bool
	excludedSenders map[string]bool
	principal       string
}

// NewExclusion builds the exclusion predicate from config.
func NewExclusion(internalDomains, excludedSenders []string, principal string) *Exclusion {
	e := &Exclusion{
		internalDomains: make(map[string]bool, len(internalDomains)),
		excludedSenders: make(map[string]bool, len(excludedSenders)),
		principal:       Normalize(principal),
	}
	for _, d := range internalDomains {
		e.internalDomains[strings.ToLower(strings.TrimSpace(d))] = true
	}
	for _, s := range excludedSenders {
		e.excludedSenders[Normalize(s)] = true
	}
	return e
}

// Excluded reports whether the address must never become a contact.
func (e *Exclusion) Excluded(email string) bool {
	addr := Normalize(email)
	if addr == "" {
		return true
	}
	if addr == e.principal {
		return true
	}
	if e.excludedSenders[addr] {
		return true
	}
	return e.internalDomains[Domain(addr)]
}

// Normalize lowercases and trims an email address. All contact keys go
// through this before lookup or storage.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Domain returns the domain part of an address, or "" if it has none.
func Domain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
