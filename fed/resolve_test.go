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

package fed

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/cfg"
	"github.com/calico-social/calico/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

type testResponse struct {
	Response *http.Response
	Error    error
}

type testClient struct {
	sync.Mutex
	Data map[string]testResponse
}

func newTestResponse(statusCode int, contentType, body string) *http.Response {
	buf := []byte(body)
	return &http.Response{
		StatusCode:    statusCode,
		ContentLength: int64(len(buf)),
		Header:        http.Header{"Content-Type": {contentType}},
		Body:          io.NopCloser(bytes.NewReader(buf)),
	}
}

func (c *testClient) Do(r *http.Request) (*http.Response, error) {
	url := r.URL.String()
	c.Lock()
	resp, ok := c.Data[url]
	if !ok {
		panic("No response for " + url)
	}
	delete(c.Data, url)
	c.Unlock()
	return resp.Response, resp.Error
}

func newTestResolver(t *testing.T, config *cfg.Config, responses map[string]testResponse) (*Resolver, *testClient, *sql.DB) {
	config.FillDefaults()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "calico.sqlite3")+"?"+config.DatabaseOptions)
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.NoError(t, store.Init(context.Background(), db))

	policy, err := NewPolicy(config)
	assert.NoError(t, err)
	t.Cleanup(policy.Close)

	client := &testClient{Data: responses}
	return NewResolver(policy, "localhost.localdomain", config, client, db), client, db
}

func TestResolve_LocalNote(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, client, db := newTestResolver(t, &config, map[string]testResponse{})

	note := ap.Object{
		ID:           "https://localhost.localdomain/notes/1",
		Type:         ap.Note,
		AttributedTo: "https://localhost.localdomain/users/alice",
		Content:      "hello",
	}
	note.To.Add(ap.Public)
	assert.NoError(store.InsertNote(context.Background(), db, &note, true, ""))

	resolved, err := resolver.Resolve(context.Background(), resolver.NewContext(), note.ID)
	assert.NoError(err)
	assert.Empty(client.Data)

	object, ok := resolved.(*ap.Object)
	assert.True(ok)
	assert.Equal(note.ID, object.ID)
	assert.Equal("hello", object.Content)
	assert.Equal(ap.Context, object.Context)
}

func TestResolve_LocalNoteDoesNotExist(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://localhost.localdomain/notes/doesnotexist")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestResolve_LocalNotePortedDomain(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	config.FillDefaults()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "calico.sqlite3")+"?"+config.DatabaseOptions)
	assert.NoError(err)
	t.Cleanup(func() { db.Close() })

	assert.NoError(store.Init(context.Background(), db))

	policy, err := NewPolicy(&config)
	assert.NoError(err)
	t.Cleanup(policy.Close)

	client := &testClient{Data: map[string]testResponse{}}
	resolver := NewResolver(policy, "localhost.localdomain:8443", &config, client, db)

	note := ap.Object{
		ID:           "https://localhost.localdomain:8443/notes/1",
		Type:         ap.Note,
		AttributedTo: "https://localhost.localdomain:8443/users/alice",
		Content:      "hello",
	}
	note.To.Add(ap.Public)
	assert.NoError(store.InsertNote(context.Background(), db, &note, true, ""))

	resolved, err := resolver.Resolve(context.Background(), resolver.NewContext(), note.ID)
	assert.NoError(err)
	assert.Empty(client.Data)

	object, ok := resolved.(*ap.Object)
	assert.True(ok)
	assert.Equal(note.ID, object.ID)
}

func TestResolve_InlineObject(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{})

	note := &ap.Object{ID: "https://social.example.com/notes/1", Type: ap.Note}
	resolved, err := resolver.Resolve(context.Background(), resolver.NewContext(), note)
	assert.NoError(err)
	assert.Same(note, resolved)
}

func TestResolve_FederatedActor(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, client, db := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/users/bob": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/users/bob","type":"Person","preferredUsername":"bob"}`),
		},
	})

	resolved, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/users/bob")
	assert.NoError(err)
	assert.Empty(client.Data)

	actor, ok := resolved.(*ap.Actor)
	assert.True(ok)
	assert.Equal("https://social.example.com/users/bob", actor.ID)

	// the actor must land in the persons table
	person, err := store.PersonByID(context.Background(), db, actor.ID)
	assert.NoError(err)
	assert.Equal("social.example.com", person.Host)

	// and the next resolution must hit the cache, not the network
	resolved, err = resolver.Resolve(context.Background(), resolver.NewContext(), actor.ID)
	assert.NoError(err)
	assert.Equal(actor.ID, resolved.(*ap.Actor).ID)
}

func TestResolve_Fragment(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/users/bob#main-key")
	assert.True(t, errors.Is(err, ErrFragmentID))
}

func TestResolve_Cycle(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/notes/1","type":"Note"}`),
		},
	})

	rctx := resolver.NewContext()

	_, err := resolver.Resolve(context.Background(), rctx, "https://social.example.com/notes/1")
	assert.NoError(err)

	_, err = resolver.Resolve(context.Background(), rctx, "https://social.example.com/notes/1")
	assert.True(errors.Is(err, ErrCycle))
}

func TestResolve_RecursionLimit(t *testing.T) {
	assert := assert.New(t)

	config := cfg.Config{RecursionLimit: 1}
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/notes/1","type":"Note"}`),
		},
		"https://social.example.com/notes/2": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/notes/2","type":"Note"}`),
		},
	})

	rctx := resolver.NewContext()

	_, err := resolver.Resolve(context.Background(), rctx, "https://social.example.com/notes/1")
	assert.NoError(err)

	_, err = resolver.Resolve(context.Background(), rctx, "https://social.example.com/notes/2")
	assert.NoError(err)

	_, err = resolver.Resolve(context.Background(), rctx, "https://social.example.com/notes/3")
	assert.True(errors.Is(err, ErrRecursionLimit))
}

func TestResolve_BlockedHost(t *testing.T) {
	config := cfg.Config{BlockedHosts: []string{"spam.example"}}
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://a.spam.example/notes/1")
	assert.True(t, errors.Is(err, ErrBlockedDomain))
}

func TestResolve_MissingContext(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"id":"https://social.example.com/notes/1","type":"Note"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(t, errors.Is(err, ErrMissingContext))
}

func TestResolve_MissingID(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","type":"Note"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(t, errors.Is(err, ErrMissingID))
}

func TestResolve_SameAuthorityRedirect(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://www.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://example.com/notes/1","type":"Note"}`),
		},
	})

	resolved, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://www.example.com/notes/1")
	assert.NoError(err)
	assert.Equal("https://example.com/notes/1", resolved.(*ap.Object).ID)
}

func TestResolve_CrossAuthorityRedirect(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://evil.example/notes/1","type":"Note"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(t, errors.Is(err, ErrAuthorityMismatch))
}

func TestResolve_RedirectIntoBlockedHost(t *testing.T) {
	config := cfg.Config{BlockedHosts: []string{"media.example.com"}}
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://media.example.com/notes/1","type":"Note"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://example.com/notes/1")
	assert.True(t, errors.Is(err, ErrBlockedDomain))
}

func TestResolve_InvalidContentType(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `text/html; charset=utf-8`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/notes/1","type":"Note"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(errors.Is(err, ErrInvalidContentType))
	assert.False(IsRetryable(err))
}

func TestResolve_LDJSONContentType(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/notes/1","type":"Note"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.NoError(err)
}

func TestResolve_Gone(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusGone, `application/activity+json`, ``),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(errors.Is(err, ErrRemoteGone))
	assert.False(IsRetryable(err))
}

func TestResolve_ServerError(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusInternalServerError, `application/activity+json`, ``),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(t, IsRetryable(err))
}

func TestResolve_UnhandledType(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/things/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/things/1","type":"Event"}`),
		},
	})

	_, err := resolver.Resolve(context.Background(), resolver.NewContext(), "https://social.example.com/things/1")
	assert.True(t, errors.Is(err, ap.ErrUnhandledType))
}

func TestResolveCollection_Collection(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/users/bob/outbox": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/users/bob/outbox","type":"OrderedCollection","totalItems":1,"orderedItems":["https://social.example.com/notes/1"]}`),
		},
	})

	collection, err := resolver.ResolveCollection(context.Background(), resolver.NewContext(), "https://social.example.com/users/bob/outbox")
	assert.NoError(err)
	assert.Equal([]string{"https://social.example.com/notes/1"}, []string(collection.OrderedItems))
}

func TestResolveCollection_NotCollection(t *testing.T) {
	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{
		"https://social.example.com/notes/1": {
			Response: newTestResponse(http.StatusOK, `application/activity+json`, `{"@context":"https://www.w3.org/ns/activitystreams","id":"https://social.example.com/notes/1","type":"Note"}`),
		},
	})

	_, err := resolver.ResolveCollection(context.Background(), resolver.NewContext(), "https://social.example.com/notes/1")
	assert.True(t, errors.Is(err, ErrNotCollection))
}
