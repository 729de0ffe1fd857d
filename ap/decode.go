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
	"errors"
	"fmt"
)

// ErrUnhandledType is returned by [Decode] for vocabulary this server does
// not understand. Unknown types are a loud error, never a silent no-op:
// vocabulary we fail to recognize is vocabulary we fail to validate.
var ErrUnhandledType = errors.New("unhandled object type")

type envelope struct {
	Context any    `json:"@context"`
	ID      string `json:"id"`
	Type    string `json:"type"`
}

// Envelope is the part of a document shared by every ActivityPub type.
type Envelope struct {
	Context any
	ID      string
	Type    string
}

// Peek decodes only the fields shared by every ActivityPub type.
func Peek(raw []byte) (Envelope, error) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, err
	}
	return Envelope(e), nil
}

// Decode parses a document into the closed set of types this server
// handles: *[Actor], *[Activity], *[CollectionObject] or *[Object].
func Decode(raw []byte) (any, error) {
	e, err := Peek(raw)
	if err != nil {
		return nil, err
	}

	switch {
	case e.Type == "":
		return nil, errors.New("object has no type")

	case e.Type == string(Person) || e.Type == string(Group) || e.Type == string(Application) || e.Type == string(Service):
		var actor Actor
		if err := json.Unmarshal(raw, &actor); err != nil {
			return nil, err
		}
		return &actor, nil

	case e.Type == string(Collection) || e.Type == string(OrderedCollection):
		var collection CollectionObject
		if err := json.Unmarshal(raw, &collection); err != nil {
			return nil, err
		}
		return &collection, nil

	case e.Type == string(Create) || e.Type == string(Update) || e.Type == string(Follow) || e.Type == string(Accept) || e.Type == string(Undo) || e.Type == string(Delete) || e.Type == string(Announce) || e.Type == string(LikeActivity):
		var activity Activity
		if err := json.Unmarshal(raw, &activity); err != nil {
			return nil, err
		}
		return &activity, nil

	case e.Type == string(Note) || e.Type == string(Page) || e.Type == string(Article) || e.Type == string(Question) || e.Type == string(Tombstone):
		var object Object
		if err := json.Unmarshal(raw, &object); err != nil {
			return nil, err
		}
		return &object, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledType, e.Type)
	}
}
