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

// Package ingest validates and persists remote posts and the actors,
// parents, quotes and polls they reference.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/cfg"
	"github.com/calico-social/calico/fed"
	"github.com/calico-social/calico/lock"
	"github.com/calico-social/calico/store"
	"github.com/calico-social/calico/text/plain"
)

// Notes ingests remote posts.
type Notes struct {
	Domain   string
	Config   *cfg.Config
	DB       *sql.DB
	Resolver *fed.Resolver
	Actors   ActorResolver
	locks    *lock.Keyed
}

// NewNotes returns a new [Notes].
func NewNotes(domain string, config *cfg.Config, db *sql.DB, resolver *fed.Resolver, actors ActorResolver) *Notes {
	return &Notes{
		Domain:   domain,
		Config:   config,
		DB:       db,
		Resolver: resolver,
		Actors:   actors,
		locks:    lock.NewKeyed(config.MaxResolverRequests),
	}
}

// ResolveNote returns the note with the given ID, ingesting it first if
// it's a remote note we haven't seen.
func (n *Notes) ResolveNote(ctx context.Context, rctx *fed.ResolutionContext, uri string) (*store.Note, error) {
	if local, err := fed.IsURILocal(n.Domain, uri); err != nil {
		return nil, err
	} else if local {
		return store.NoteByID(ctx, n.DB, uri)
	}

	note, err := store.NoteByID(ctx, n.DB, uri)
	if err == nil {
		return note, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return n.CreateNote(ctx, rctx, uri, nil)
}

// CreateNote validates and persists one remote post, resolving the actors
// and posts it references on the way. value is either a URI we chose to
// dereference or a payload pushed to us; actor, if not nil, is the
// authenticated actor that delivered the payload and must match the post's
// attribution.
//
// A poll vote is recorded and not persisted as a note, so CreateNote can
// return (nil, nil).
func (n *Notes) CreateNote(ctx context.Context, rctx *fed.ResolutionContext, value any, actor *store.Person) (*store.Note, error) {
	_, fetched := value.(string)

	resolved, err := n.Resolver.Resolve(ctx, rctx, value)
	if err != nil {
		return nil, err
	}

	obj, ok := resolved.(*ap.Object)
	if !ok {
		return nil, reject(CodeInvalidNote, "%T is not a post", resolved)
	}

	switch obj.Type {
	case ap.Note, ap.Page, ap.Article, ap.Question:
	default:
		return nil, reject(CodeInvalidNote, "%s is a %s", obj.ID, obj.Type)
	}

	if uri, ok := value.(string); ok && uri != obj.ID {
		if err := fed.AssertIDMatchesURLAuthority(obj.ID, uri, n.Config.MultiTenantSuffixes); err != nil {
			return nil, err
		}
	}

	if obj.AttributedTo == "" {
		return nil, reject(CodeInvalidNote, "%s has no author", obj.ID)
	}

	if same, err := fed.HaveSameAuthority(obj.ID, obj.AttributedTo, n.Config.MultiTenantSuffixes); err != nil {
		return nil, err
	} else if !same {
		return nil, reject(CodeInvalidNote, "%s is attributed outside its authority, to %s", obj.ID, obj.AttributedTo)
	}

	if actor != nil && actor.ID != obj.AttributedTo {
		return nil, reject(CodeInvalidNote, "%s delivered a post attributed to %s", actor.ID, obj.AttributedTo)
	}

	if !obj.Published.IsZero() && (obj.Published.Year() < 0 || obj.Published.Year() > 9999) {
		return nil, reject(CodeInvalidNote, "%s has an unrepresentable publication time", obj.ID)
	}

	author, err := n.Actors.ResolveActor(ctx, rctx, obj.AttributedTo)
	if err != nil {
		return nil, err
	}
	if author.Suspended {
		return nil, reject(CodeActorSuspended, "%s is suspended", author.ID)
	}

	n.resolveMentions(ctx, rctx, obj)

	var poll *store.Poll
	if obj.Type == ap.Question {
		if poll, err = extractPoll(obj); err != nil {
			slog.Warn("Failed to extract poll, keeping post without it", "post", obj.ID, "error", err)
			poll = nil
		}
	}

	if err := n.checkProhibitedWords(obj, poll); err != nil {
		return nil, err
	}

	visibility := noteVisibility(obj, &author.Actor, fetched)

	var parent *store.Note
	if obj.InReplyTo != "" {
		if parent, err = n.ResolveNote(ctx, rctx, obj.InReplyTo); err != nil {
			if visibility == VisibilitySpecified || RejectionCode(err) == CodeActorSuspended || errors.Is(err, fed.ErrBlockedDomain) {
				return nil, fmt.Errorf("failed to resolve parent of %s: %w", obj.ID, err)
			}

			slog.Warn("Failed to resolve parent, keeping post without it", "post", obj.ID, "parent", obj.InReplyTo, "error", err)
			parent = nil
		}
	}

	// a bare name replying to an open poll is a vote, not a post
	if parent != nil && poll == nil && obj.Name != "" && obj.Content == "" {
		if voted, err := n.recordPollVote(ctx, obj, parent); err != nil {
			return nil, err
		} else if voted {
			return nil, nil
		}
	}

	var processingError string
	if candidates := obj.QuoteCandidates(); len(candidates) > 0 {
		var quote *store.Note
		var lastErr error
		transient := false

		for _, candidate := range candidates {
			if quote, lastErr = n.ResolveNote(ctx, rctx, candidate); lastErr == nil {
				break
			}
			quote = nil
			if fed.IsRetryable(lastErr) {
				transient = true
			}
		}

		if quote != nil {
			obj.Quote = quote.ID
		} else if transient {
			return nil, fed.Retryable(fmt.Errorf("failed to resolve quote of %s: %w", obj.ID, lastErr))
		} else {
			slog.Warn("Failed to resolve quote, keeping post without it", "post", obj.ID, "error", lastErr)
			processingError = CodeQuoteUnavailable
		}
	}

	// resolving parents and quotes can take a while; re-check suspension
	// before anything is written
	if author, err = n.Actors.ResolveActor(ctx, rctx, obj.AttributedTo); err != nil {
		return nil, err
	}
	if author.Suspended {
		return nil, reject(CodeActorSuspended, "%s is suspended", author.ID)
	}

	unlock, err := n.locks.Lock(ctx, obj.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	note, err := store.NoteByID(ctx, n.DB, obj.ID)
	if err == nil {
		return note, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	public := visibility == VisibilityPublic || visibility == VisibilityUnlisted
	if err := store.InsertNote(ctx, n.DB, obj, public, processingError); err != nil {
		// lost a race on another stripe; the winner's record is canonical
		if store.IsConflict(err) {
			return store.NoteByID(ctx, n.DB, obj.ID)
		}
		return nil, err
	}

	if poll != nil {
		if err := store.UpsertPoll(ctx, n.DB, poll); err != nil {
			return nil, err
		}
	}

	return store.NoteByID(ctx, n.DB, obj.ID)
}

// UpdateNote folds a remote edit into a previously ingested post.
func (n *Notes) UpdateNote(ctx context.Context, rctx *fed.ResolutionContext, value any, actor *store.Person) (*store.Note, error) {
	resolved, err := n.Resolver.Resolve(ctx, rctx, value)
	if err != nil {
		return nil, err
	}

	obj, ok := resolved.(*ap.Object)
	if !ok {
		return nil, reject(CodeInvalidNote, "%T is not a post", resolved)
	}

	// our posts are edited here, not by whoever echoes them back
	if local, err := fed.IsURILocal(n.Domain, obj.ID); err != nil {
		return nil, err
	} else if local {
		return nil, reject(CodeInvalidNote, "%s is local", obj.ID)
	}

	switch obj.Type {
	case ap.Note, ap.Page, ap.Article, ap.Question:
	default:
		return nil, reject(CodeInvalidNote, "%s is a %s", obj.ID, obj.Type)
	}

	note, err := store.NoteByID(ctx, n.DB, obj.ID)
	if err != nil {
		return nil, err
	}

	if obj.AttributedTo != note.Author {
		return nil, reject(CodeInvalidNote, "%s is attributed to %s, not %s", obj.ID, obj.AttributedTo, note.Author)
	}
	if actor != nil && actor.ID != note.Author {
		return nil, reject(CodeInvalidNote, "%s cannot edit %s", actor.ID, obj.ID)
	}

	var poll *store.Poll
	if obj.Type == ap.Question {
		if poll, err = extractPoll(obj); err != nil {
			slog.Warn("Failed to extract poll, keeping post without it", "post", obj.ID, "error", err)
			poll = nil
		}
	}

	if err := n.checkProhibitedWords(obj, poll); err != nil {
		return nil, err
	}

	if err := store.UpdateNote(ctx, n.DB, obj); err != nil {
		return nil, err
	}

	if poll != nil {
		old, err := store.PollByNote(ctx, n.DB, obj.ID)
		if err == nil {
			if mergePollCounts(old, poll) {
				err = store.UpsertPoll(ctx, n.DB, old)
			}
		} else if errors.Is(err, store.ErrNotFound) {
			err = store.UpsertPoll(ctx, n.DB, poll)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	return store.NoteByID(ctx, n.DB, obj.ID)
}

// resolveMentions caches the actors a post mentions, so later references
// to them resolve locally. A mention that cannot be resolved doesn't block
// the post.
func (n *Notes) resolveMentions(ctx context.Context, rctx *fed.ResolutionContext, obj *ap.Object) {
	for _, tag := range obj.Tag {
		if tag.Type != ap.Mention || tag.Href == "" || tag.Href == obj.AttributedTo {
			continue
		}

		if _, err := n.Actors.ResolveActor(ctx, rctx, tag.Href); err != nil {
			slog.Warn("Failed to resolve mention", "post", obj.ID, "mention", tag.Href, "error", err)
		}
	}
}

// checkProhibitedWords runs the instance word filter over everything a
// reader would see.
func (n *Notes) checkProhibitedWords(obj *ap.Object, poll *store.Poll) error {
	text := obj.Content
	if obj.Source != nil && obj.Source.Content != "" {
		text = obj.Source.Content
	} else if obj.MisskeyContent != "" {
		text = obj.MisskeyContent
	} else if obj.Content != "" {
		text, _ = plain.FromHTML(obj.Content)
	}

	fields := []string{obj.Summary, obj.Name, text}
	if poll != nil {
		fields = append(fields, poll.Choices...)
	}
	for _, attachment := range obj.Attachment {
		fields = append(fields, attachment.Name)
	}

	if containsProhibitedWords(n.Config, fields...) {
		return reject(CodeProhibitedWords, "%s contains prohibited words", obj.ID)
	}

	return nil
}

// recordPollVote records a vote on parent's poll, if it has one and obj
// names one of its choices. For a local poll, the bumped tally is fanned
// out to other servers as an Update.
func (n *Notes) recordPollVote(ctx context.Context, obj *ap.Object, parent *store.Note) (bool, error) {
	poll, err := store.PollByNote(ctx, n.DB, parent.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	choice := slices.Index(poll.Choices, obj.Name)
	if choice == -1 {
		return false, nil
	}

	if poll.Expired(time.Now()) {
		slog.Debug("Dropping late vote", "poll", poll.Note, "voter", obj.AttributedTo)
		return true, nil
	}

	if !poll.Multiple {
		var votes int
		if err := n.DB.QueryRowContext(
			ctx,
			`select count(*) from pollvotes where poll = ? and voter = ?`,
			poll.Note,
			obj.AttributedTo,
		).Scan(&votes); err != nil {
			return false, fmt.Errorf("failed to count votes on %s by %s: %w", poll.Note, obj.AttributedTo, err)
		}
		if votes > 0 {
			slog.Debug("Dropping duplicate vote", "poll", poll.Note, "voter", obj.AttributedTo)
			return true, nil
		}
	}

	if err := store.InsertPollVote(ctx, n.DB, poll.Note, obj.AttributedTo, choice); err != nil {
		return false, err
	}

	if local, err := fed.IsURILocal(n.Domain, parent.ID); err != nil || !local {
		return true, err
	}

	// the tally is ours to publish
	poll.Votes[choice]++
	if err := store.UpsertPoll(ctx, n.DB, poll); err != nil {
		return false, err
	}

	id, err := newID(n.Domain, "updates")
	if err != nil {
		return false, err
	}

	update := &ap.Activity{
		Context: ap.Context,
		ID:      id,
		Type:    ap.Update,
		Actor:   parent.Author,
		Object:  fed.RenderQuestion(&parent.Object, poll),
		To:      parent.Object.To,
		CC:      parent.Object.CC,
	}
	if err := store.EnqueueActivity(ctx, n.DB, update, parent.Author); err != nil {
		return false, err
	}

	return true, nil
}
