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

import "encoding/json"

// Link is a URL, expressed either as a bare string or as a Link object.
// "url" properties in the wild carry both forms, sometimes mixed in one
// array.
type Link struct {
	Type      string `json:"type,omitempty"`
	Href      string `json:"href,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	Rel       string `json:"rel,omitempty"`
}

type linkObject Link

func (l *Link) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Link{Href: s}
		return nil
	}

	var o linkObject
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}

	*l = Link(o)
	return nil
}

func (l Link) MarshalJSON() ([]byte, error) {
	if l.Type == "" && l.MediaType == "" && l.Rel == "" {
		return json.Marshal(l.Href)
	}

	return json.Marshal(linkObject(l))
}
