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

package ap

import (
	"encoding/json"
	"time"
)

// timeLayouts are tried in order: RFC3339 first, then the colon-less zone
// offset some servers (Threads) produce.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// Time is a time.Time that tolerates the timestamp formats seen in the
// wild.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	var err error
	for _, layout := range timeLayouts {
		if t.Time, err = time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return err
}
