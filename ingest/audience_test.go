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
	"testing"

	"github.com/calico-social/calico/ap"
	"github.com/stretchr/testify/assert"
)

func TestNoteVisibility_Public(t *testing.T) {
	var note ap.Object
	note.To.Add(ap.Public)

	assert.Equal(t, VisibilityPublic, noteVisibility(&note, &ap.Actor{}, false))
}

func TestNoteVisibility_Unlisted(t *testing.T) {
	var note ap.Object
	note.To.Add("https://a.b/users/bob/followers")
	note.CC.Add(ap.Public)

	assert.Equal(t, VisibilityUnlisted, noteVisibility(&note, &ap.Actor{}, false))
}

func TestNoteVisibility_Followers(t *testing.T) {
	author := ap.Actor{
		ID:        "https://a.b/users/bob",
		Followers: "https://a.b/users/bob/followers",
	}

	var note ap.Object
	note.To.Add(author.Followers)

	assert.Equal(t, VisibilityFollowers, noteVisibility(&note, &author, false))
}

func TestNoteVisibility_Specified(t *testing.T) {
	var note ap.Object
	note.To.Add("https://c.d/users/carol")

	assert.Equal(t, VisibilitySpecified, noteVisibility(&note, &ap.Actor{}, false))
}

func TestNoteVisibility_EmptyAudience(t *testing.T) {
	var note ap.Object

	// fetched by URI: world-readable, so public
	assert.Equal(t, VisibilityPublic, noteVisibility(&note, &ap.Actor{}, true))

	// pushed to us: the author addressed nobody, so direct
	assert.Equal(t, VisibilitySpecified, noteVisibility(&note, &ap.Actor{}, false))
}
