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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeUnmarshal_RFC3339(t *testing.T) {
	var o struct {
		Published Time `json:"published"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"published":"2025-12-19T16:05:27Z"}`), &o))
	assert.Equal(t, Time{Time: time.Date(2025, time.December, 19, 16, 5, 27, 0, time.UTC)}, o.Published)
}

func TestTimeUnmarshal_Threads(t *testing.T) {
	var o struct {
		Published Time `json:"published"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"published":"2025-12-23T22:25:02-0800"}`), &o))
	assert.Equal(t, Time{Time: time.Date(2025, time.December, 23, 22, 25, 2, 0, time.FixedZone("", -8*60*60))}, o.Published)
}

func TestTimeUnmarshal_Missing(t *testing.T) {
	var o struct {
		Published Time `json:"published"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{}`), &o))
	assert.True(t, o.Published.IsZero())
}

func TestTimeUnmarshal_Garbage(t *testing.T) {
	var o struct {
		Published Time `json:"published"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"published":"yesterday"}`), &o))
}
