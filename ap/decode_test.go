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
	"errors"
	"testing"
)

func TestDecode_Actor(t *testing.T) {
	decoded, err := Decode([]byte(`{"@context":"https://www.w3.org/ns/activitystreams","id":"https://a.b/users/x","type":"Person","preferredUsername":"x"}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	actor, ok := decoded.(*Actor)
	if !ok {
		t.Fatalf("Unexpected type: %T", decoded)
	}
	if actor.ID != "https://a.b/users/x" {
		t.Fatalf("Unexpected ID: %s", actor.ID)
	}
}

func TestDecode_Note(t *testing.T) {
	decoded, err := Decode([]byte(`{"@context":"https://www.w3.org/ns/activitystreams","id":"https://a.b/notes/1","type":"Note","content":"hi"}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	note, ok := decoded.(*Object)
	if !ok {
		t.Fatalf("Unexpected type: %T", decoded)
	}
	if note.Content != "hi" {
		t.Fatalf("Unexpected content: %s", note.Content)
	}
}

func TestDecode_Question(t *testing.T) {
	decoded, err := Decode([]byte(`{"@context":"https://www.w3.org/ns/activitystreams","id":"https://a.b/notes/1","type":"Question","oneOf":[{"name":"yes","replies":{"totalItems":2}}]}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	q, ok := decoded.(*Object)
	if !ok {
		t.Fatalf("Unexpected type: %T", decoded)
	}
	if len(q.OneOf) != 1 || q.OneOf[0].Votes() != 2 {
		t.Fatalf("Unexpected options: %v", q.OneOf)
	}
}

func TestDecode_Activity(t *testing.T) {
	decoded, err := Decode([]byte(`{"@context":"https://www.w3.org/ns/activitystreams","id":"https://a.b/create/1","type":"Create","actor":"https://a.b/users/x","object":{"id":"https://a.b/notes/1","type":"Note"}}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	create, ok := decoded.(*Activity)
	if !ok {
		t.Fatalf("Unexpected type: %T", decoded)
	}
	if create.Type != Create {
		t.Fatalf("Unexpected type: %s", create.Type)
	}

	note, ok := create.Object.(*Object)
	if !ok {
		t.Fatalf("Unexpected object type: %T", create.Object)
	}
	if note.ID != "https://a.b/notes/1" {
		t.Fatalf("Unexpected object ID: %s", note.ID)
	}
}

func TestDecode_Collection(t *testing.T) {
	decoded, err := Decode([]byte(`{"@context":"https://www.w3.org/ns/activitystreams","id":"https://a.b/outbox","type":"OrderedCollection","totalItems":3,"orderedItems":["https://a.b/notes/1"]}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	collection, ok := decoded.(*CollectionObject)
	if !ok {
		t.Fatalf("Unexpected type: %T", decoded)
	}
	if collection.TotalItems == nil || *collection.TotalItems != 3 {
		t.Fatalf("Unexpected totalItems: %v", collection.TotalItems)
	}
}

func TestDecode_UnhandledType(t *testing.T) {
	if _, err := Decode([]byte(`{"@context":"https://www.w3.org/ns/activitystreams","id":"https://a.b/things/1","type":"Event"}`)); !errors.Is(err, ErrUnhandledType) {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestPeek_Envelope(t *testing.T) {
	envelope, err := Peek([]byte(`{"@context":["https://www.w3.org/ns/activitystreams",{"x":"y"}],"id":"https://a.b/notes/1","type":"Note","content":"ignored"}`))
	if err != nil {
		t.Fatalf("Failed to peek: %v", err)
	}

	if envelope.ID != "https://a.b/notes/1" {
		t.Fatalf("Unexpected ID: %s", envelope.ID)
	}
	if !HasContext(envelope.Context) {
		t.Fatalf("Expected context in %v", envelope.Context)
	}
}

func TestHasContext_Missing(t *testing.T) {
	envelope, err := Peek([]byte(`{"id":"https://a.b/notes/1","type":"Note"}`))
	if err != nil {
		t.Fatalf("Failed to peek: %v", err)
	}

	if HasContext(envelope.Context) {
		t.Fatalf("Unexpected context in %v", envelope.Context)
	}
}
