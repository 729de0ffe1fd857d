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

// PollOption is one oneOf/anyOf option of a Question.
type PollOption struct {
	Name    string `json:"name"`
	Replies struct {
		TotalItems *int64 `json:"totalItems"`
	} `json:"replies,omitzero"`

	// vote count extension predating replies.totalItems
	MisskeyVotes *int64 `json:"_misskey_votes,omitempty"`
}

// Votes returns the option's vote count: replies.totalItems when present,
// else the vendor extension, else 0.
func (o *PollOption) Votes() int64 {
	if o.Replies.TotalItems != nil {
		return *o.Replies.TotalItems
	}

	if o.MisskeyVotes != nil {
		return *o.MisskeyVotes
	}

	return 0
}
