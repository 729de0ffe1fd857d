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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calico-social/calico/ap"
)

// ErrNotFound is returned by lookups when no record matches.
var ErrNotFound = errors.New("no such record")

// Person is a locally known actor: either a local user or a cached remote
// one.
type Person struct {
	ID        string
	Actor     ap.Actor
	Host      string
	Suspended bool
	PrivKey   sql.NullString
	Inserted  int64
	Updated   int64
}

// Note is a locally known post.
type Note struct {
	ID       string
	Author   string
	Object   ap.Object
	Public   bool
	Error    sql.NullString
	Inserted int64
	Updated  int64
}

// Poll is the choices/votes projection of a Question note.
// Votes[i] is the tally for Choices[i].
type Poll struct {
	Note     string
	Multiple bool
	Expires  sql.NullInt64
	Choices  []string
	Votes    []int64
}

// Reaction is a Like on a note.
type Reaction struct {
	ID     string
	Note   string
	Author string
	Name   string
}

// FollowRequest is a follow relationship, possibly not accepted yet.
type FollowRequest struct {
	ID       string
	Follower string
	Followed string
	Accepted sql.NullInt64
}

// PersonByID returns the person whose actor ID is id.
func PersonByID(ctx context.Context, db *sql.DB, id string) (*Person, error) {
	var p Person
	if err := db.QueryRowContext(
		ctx,
		`select id, json(actor), host, suspended, privkey, inserted, updated from persons where id = ?`,
		id,
	).Scan(&p.ID, &p.Actor, &p.Host, &p.Suspended, &p.PrivKey, &p.Inserted, &p.Updated); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch person %s: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch person %s: %w", id, err)
	}

	return &p, nil
}

// PersonByName returns the local person with the given preferred username.
func PersonByName(ctx context.Context, db *sql.DB, domain, name string) (*Person, error) {
	var p Person
	if err := db.QueryRowContext(
		ctx,
		`select id, json(actor), host, suspended, privkey, inserted, updated from persons where host = $1 and actor->>'$.preferredUsername' = $2`,
		domain,
		name,
	).Scan(&p.ID, &p.Actor, &p.Host, &p.Suspended, &p.PrivKey, &p.Inserted, &p.Updated); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch person %s@%s: %w", name, domain, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch person %s@%s: %w", name, domain, err)
	}

	return &p, nil
}

// UpsertPerson caches an actor document.
func UpsertPerson(ctx context.Context, db *sql.DB, actor *ap.Actor, host string) error {
	raw, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", actor.ID, err)
	}

	if _, err := db.ExecContext(
		ctx,
		`insert into persons(id, actor, host, fetched) values($1, jsonb($2), $3, unixepoch()) on conflict(id) do update set actor = jsonb($2), updated = unixepoch(), fetched = unixepoch()`,
		actor.ID,
		string(raw),
		host,
	); err != nil {
		return fmt.Errorf("failed to cache %s: %w", actor.ID, err)
	}

	return nil
}

// NoteByID returns the note whose ID is id.
func NoteByID(ctx context.Context, db *sql.DB, id string) (*Note, error) {
	var n Note
	if err := db.QueryRowContext(
		ctx,
		`select id, author, json(object), public, error, inserted, updated from notes where id = ?`,
		id,
	).Scan(&n.ID, &n.Author, &n.Object, &n.Public, &n.Error, &n.Inserted, &n.Updated); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch note %s: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch note %s: %w", id, err)
	}

	return &n, nil
}

// InsertNote persists a note. A uniqueness conflict propagates; use
// [IsConflict] to detect a concurrent insertion of the same ID and re-fetch
// the winning record.
func InsertNote(ctx context.Context, db *sql.DB, note *ap.Object, public bool, processingError string) error {
	raw, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note %s: %w", note.ID, err)
	}

	var noteError sql.NullString
	if processingError != "" {
		noteError = sql.NullString{Valid: true, String: processingError}
	}

	if _, err := db.ExecContext(
		ctx,
		`insert into notes(id, author, object, public, error) values($1, $2, jsonb($3), $4, $5)`,
		note.ID,
		note.AttributedTo,
		string(raw),
		public,
		noteError,
	); err != nil {
		return fmt.Errorf("failed to insert note %s: %w", note.ID, err)
	}

	return tagNote(ctx, db, note)
}

// tagNote replaces a note's hashtag rows with the Hashtag tags attached
// to its object. Names are deduplicated case-insensitively, keeping the
// first spelling.
func tagNote(ctx context.Context, db *sql.DB, note *ap.Object) error {
	if _, err := db.ExecContext(ctx, `delete from hashtags where note = ?`, note.ID); err != nil {
		return fmt.Errorf("failed to untag note %s: %w", note.ID, err)
	}

	seen := map[string]struct{}{}
	for _, tag := range note.Tag {
		if tag.Type != ap.Hashtag || tag.Name == "" {
			continue
		}

		name := strings.TrimPrefix(tag.Name, "#")
		if name == "" {
			continue
		}

		lower := strings.ToLower(name)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		if _, err := db.ExecContext(ctx, `insert into hashtags(note, hashtag) values($1, $2)`, note.ID, name); err != nil {
			return fmt.Errorf("failed to tag note %s: %w", note.ID, err)
		}
	}

	return nil
}

// UpdateNote replaces a note's object.
func UpdateNote(ctx context.Context, db *sql.DB, note *ap.Object) error {
	raw, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note %s: %w", note.ID, err)
	}

	if _, err := db.ExecContext(
		ctx,
		`update notes set object = jsonb($1), public = $2, updated = unixepoch() where id = $3`,
		string(raw),
		note.IsPublic(),
		note.ID,
	); err != nil {
		return fmt.Errorf("failed to update note %s: %w", note.ID, err)
	}

	return tagNote(ctx, db, note)
}

// PollByNote returns the poll backing a Question note.
func PollByNote(ctx context.Context, db *sql.DB, noteID string) (*Poll, error) {
	var p Poll
	var choices, votes string
	if err := db.QueryRowContext(
		ctx,
		`select note, multiple, expires, json(choices), json(votes) from polls where note = ?`,
		noteID,
	).Scan(&p.Note, &p.Multiple, &p.Expires, &choices, &votes); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch poll %s: %w", noteID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch poll %s: %w", noteID, err)
	}

	if err := json.Unmarshal([]byte(choices), &p.Choices); err != nil {
		return nil, fmt.Errorf("failed to fetch poll %s: %w", noteID, err)
	}
	if err := json.Unmarshal([]byte(votes), &p.Votes); err != nil {
		return nil, fmt.Errorf("failed to fetch poll %s: %w", noteID, err)
	}

	return &p, nil
}

// UpsertPoll persists a poll projection.
func UpsertPoll(ctx context.Context, db *sql.DB, p *Poll) error {
	choices, err := json.Marshal(p.Choices)
	if err != nil {
		return fmt.Errorf("failed to save poll %s: %w", p.Note, err)
	}

	votes, err := json.Marshal(p.Votes)
	if err != nil {
		return fmt.Errorf("failed to save poll %s: %w", p.Note, err)
	}

	if _, err := db.ExecContext(
		ctx,
		`insert into polls(note, multiple, expires, choices, votes) values($1, $2, $3, jsonb($4), jsonb($5)) on conflict(note) do update set multiple = $2, expires = $3, choices = jsonb($4), votes = jsonb($5)`,
		p.Note,
		p.Multiple,
		p.Expires,
		string(choices),
		string(votes),
	); err != nil {
		return fmt.Errorf("failed to save poll %s: %w", p.Note, err)
	}

	return nil
}

// InsertPollVote records a vote by voter for choice index choice.
func InsertPollVote(ctx context.Context, db *sql.DB, pollID, voter string, choice int) error {
	if _, err := db.ExecContext(
		ctx,
		`insert into pollvotes(poll, voter, choice) values($1, $2, $3) on conflict(poll, voter, choice) do nothing`,
		pollID,
		voter,
		choice,
	); err != nil {
		return fmt.Errorf("failed to record vote on %s by %s: %w", pollID, voter, err)
	}

	return nil
}

// EnqueueActivity queues an activity for delivery by sender.
func EnqueueActivity(ctx context.Context, db *sql.DB, activity *ap.Activity, sender string) error {
	raw, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to queue %s: %w", activity.ID, err)
	}

	if _, err := db.ExecContext(
		ctx,
		`insert into outbox(activity, sender) values(jsonb($1), $2)`,
		string(raw),
		sender,
	); err != nil {
		return fmt.Errorf("failed to queue %s: %w", activity.ID, err)
	}

	return nil
}

// ReactionByID returns the reaction whose ID is id.
func ReactionByID(ctx context.Context, db *sql.DB, id string) (*Reaction, error) {
	var r Reaction
	var name sql.NullString
	if err := db.QueryRowContext(
		ctx,
		`select id, note, author, name from reactions where id = ?`,
		id,
	).Scan(&r.ID, &r.Note, &r.Author, &name); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch reaction %s: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch reaction %s: %w", id, err)
	}

	r.Name = name.String
	return &r, nil
}

// FollowRequestByID returns the follow request whose ID is id.
func FollowRequestByID(ctx context.Context, db *sql.DB, id string) (*FollowRequest, error) {
	var f FollowRequest
	if err := db.QueryRowContext(
		ctx,
		`select id, follower, followed, accepted from follows where id = ?`,
		id,
	).Scan(&f.ID, &f.Follower, &f.Followed, &f.Accepted); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch follow %s: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch follow %s: %w", id, err)
	}

	return &f, nil
}

// Expired reports whether a poll is closed as of now.
func (p *Poll) Expired(now time.Time) bool {
	return p.Expires.Valid && now.Unix() >= p.Expires.Int64
}
