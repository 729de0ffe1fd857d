/*
Copyright 2025, 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ingest

import (
	"strings"

	"github.com/calico-social/calico/cfg"
)

// containsProhibitedWords matches the instance word filter against every
// user-visible text field of a note: content warning, body, poll choices
// and attachment descriptions.
func containsProhibitedWords(config *cfg.Config, fields ...string) bool {
	if len(config.ProhibitedWords) == 0 && config.CompiledProhibitedWords == nil {
		return false
	}

	for _, field := range fields {
		if field == "" {
			continue
		}

		lower := strings.ToLower(field)
		for _, word := range config.ProhibitedWords {
			if strings.Contains(lower, strings.ToLower(word)) {
				return true
			}
		}

		if config.CompiledProhibitedWords != nil && config.CompiledProhibitedWords.MatchString(field) {
			return true
		}
	}

	return false
}
