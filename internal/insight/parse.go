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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dealtrack/investorsync/internal/models"
)

// parseInsight parses model output as a JSON object. Models wrap JSON in
// prose or code fences often enough that strict parsing falls back to
// recovering the first well-formed object embedded in the text.
func parseInsight(raw string) (models.Insight, error) {
	raw = strings.TrimSpace(raw)

	var in models.Insight
	if err := json.Unmarshal([]byte(raw), &in); err == nil {
		return in, nil
	}

	recovered, ok := firstJSONObject(raw)
	if !ok {
		return models.Insight{}, fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(recovered), &in); err != nil {
		return models.Insight{}, fmt.Errorf("recovered object invalid: %w", err)
	}
	return in, nil
}

// firstJSONObject scans for the first position where a well-formed JSON
// object can be decoded, and returns that object's text.
func firstJSONObject(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		end := i + int(dec.InputOffset())
		return s[i:end], true
	}
	return "", false
}
