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
	"html"
	"regexp"
	"strings"
)

// maxNoteChars bounds the content handed to the insight extractor.
const maxNoteChars = 8000

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	spaceRunRe    = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean normalises note content before extraction: strips HTML when the body
// is rich text, normalises line endings, collapses repeated blank lines and
// space runs, and truncates to maxNoteChars.
func Clean(content string) string {
	s := strings.ReplaceAll(content, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if strings.Contains(s, "<") && tagRe.MatchString(s) {
		s = scriptStyleRe.ReplaceAllString(s, " ")
		s = tagRe.ReplaceAllString(s, " ")
		s = html.UnescapeString(s)
	}

	s = spaceRunRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if len(s) > maxNoteChars {
		s = s[:maxNoteChars]
	}
	return s
}
