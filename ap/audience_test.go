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
	"testing"
)

func TestAudienceMarshal_Dedup(t *testing.T) {
	to := Audience{}
	to.Add("x")
	to.Add("y")
	to.Add("y")

	if j, err := json.Marshal(struct {
		ID string   `json:"id"`
		To Audience `json:"to,omitzero"`
	}{
		ID: "a",
		To: to,
	}); err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	} else if string(j) != `{"id":"a","to":["x","y"]}` {
		t.Fatalf("Unexpected result: %s", string(j))
	}
}

func TestAudienceUnmarshal_Array(t *testing.T) {
	var to Audience
	if err := json.Unmarshal([]byte(`["x","y","x"]`), &to); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if !to.Contains("x") || !to.Contains("y") {
		t.Fatalf("Unexpected result: %v", to.CollectKeys())
	}
	if len(to.OrderedMap) != 2 {
		t.Fatalf("Unexpected length: %d", len(to.OrderedMap))
	}
}

func TestAudienceUnmarshal_String(t *testing.T) {
	var to Audience
	if err := json.Unmarshal([]byte(`"https://a.b/users/x"`), &to); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if !to.Contains("https://a.b/users/x") {
		t.Fatalf("Unexpected result: %v", to.CollectKeys())
	}
}

func TestAudienceUnmarshal_Empty(t *testing.T) {
	var to Audience
	if err := json.Unmarshal([]byte(`[]`), &to); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if len(to.OrderedMap) != 0 {
		t.Fatalf("Unexpected length: %d", len(to.OrderedMap))
	}
}
