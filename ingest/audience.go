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

import "github.com/calico-social/calico/ap"

// Visibility is the derived audience class of a note.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityUnlisted  Visibility = "unlisted"
	VisibilityFollowers Visibility = "followers"
	VisibilitySpecified Visibility = "specified"
)

// noteVisibility derives visibility from the to and cc audiences.
//
// A note with an empty audience is direct by default: a pushed payload
// chose to address nobody. Only when we fetched the note ourselves, by
// dereferencing a URI we were merely pointed at, is an empty audience
// read as public, because the note was world-readable to begin with.
func noteVisibility(note *ap.Object, author *ap.Actor, fetched bool) Visibility {
	if note.To.Contains(ap.Public) {
		return VisibilityPublic
	}
	if note.CC.Contains(ap.Public) {
		return VisibilityUnlisted
	}
	if author.Followers != "" && (note.To.Contains(author.Followers) || note.CC.Contains(author.Followers)) {
		return VisibilityFollowers
	}
	if len(note.To.OrderedMap) == 0 && len(note.CC.OrderedMap) == 0 && fetched {
		return VisibilityPublic
	}
	return VisibilitySpecified
}
