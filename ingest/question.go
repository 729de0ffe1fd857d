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
	"context"
	"database/sql"
	"log/slog"

	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/fed"
	"github.com/calico-social/calico/store"
)

// extractPoll projects a Question into its poll: choices in advertised
// order and the current tally per choice.
func extractPoll(q *ap.Object) (*store.Poll, error) {
	if q.Type != ap.Question {
		return nil, reject(CodeInvalidQuestion, "%s is a %s, not a Question", q.ID, q.Type)
	}

	if len(q.OneOf) > 0 && len(q.AnyOf) > 0 {
		return nil, reject(CodeInvalidQuestion, "%s has both oneOf and anyOf", q.ID)
	}

	multiple := len(q.AnyOf) > 0
	options := q.OneOf
	if multiple {
		options = q.AnyOf
	}
	if len(options) == 0 {
		return nil, reject(CodeInvalidQuestion, "%s has no options", q.ID)
	}

	poll := store.Poll{
		Note:     q.ID,
		Multiple: multiple,
		Expires:  pollExpiry(q),
	}
	for _, option := range options {
		if option.Name == "" {
			continue
		}
		poll.Choices = append(poll.Choices, option.Name)
		poll.Votes = append(poll.Votes, option.Votes())
	}

	if len(poll.Choices) == 0 {
		return nil, reject(CodeInvalidQuestion, "%s has no options", q.ID)
	}

	return &poll, nil
}

// ExtractPollFromQuestion resolves a Question and projects it into its
// poll. value is either a URI or an inline Question document.
func (n *Notes) ExtractPollFromQuestion(ctx context.Context, rctx *fed.ResolutionContext, value any) (*store.Poll, error) {
	resolved, err := n.Resolver.Resolve(ctx, rctx, value)
	if err != nil {
		return nil, err
	}

	q, ok := resolved.(*ap.Object)
	if !ok {
		return nil, reject(CodeInvalidQuestion, "%T is not a Question", resolved)
	}

	return extractPoll(q)
}

func pollExpiry(q *ap.Object) sql.NullInt64 {
	if !q.EndTime.IsZero() {
		return sql.NullInt64{Valid: true, Int64: q.EndTime.Unix()}
	}
	if !q.Closed.IsZero() {
		return sql.NullInt64{Valid: true, Int64: q.Closed.Unix()}
	}
	return sql.NullInt64{}
}

// UpdateQuestion folds a fresh copy of a Question into a previously
// ingested poll and reports whether any tally moved.
//
// Remote tallies only ever grow, so a count below the stored one is a
// stale or lying document and the stored count wins. Counts for choices
// the fresh document no longer lists are kept as-is.
func (n *Notes) UpdateQuestion(ctx context.Context, rctx *fed.ResolutionContext, value any, actor *store.Person) (bool, error) {
	resolved, err := n.Resolver.Resolve(ctx, rctx, value)
	if err != nil {
		return false, err
	}

	q, ok := resolved.(*ap.Object)
	if !ok {
		return false, reject(CodeInvalidQuestion, "not an object")
	}

	note, err := store.NoteByID(ctx, n.DB, q.ID)
	if err != nil {
		return false, err
	}

	poll, err := store.PollByNote(ctx, n.DB, note.ID)
	if err != nil {
		return false, err
	}

	if q.AttributedTo != note.Author {
		return false, reject(CodeInvalidQuestion, "%s is attributed to %s, not %s", q.ID, q.AttributedTo, note.Author)
	}
	if actor != nil && actor.ID != note.Author {
		return false, reject(CodeInvalidQuestion, "%s cannot update %s", actor.ID, q.ID)
	}

	fresh, err := extractPoll(q)
	if err != nil {
		return false, err
	}

	if !mergePollCounts(poll, fresh) {
		return false, nil
	}

	if err := store.UpsertPoll(ctx, n.DB, poll); err != nil {
		return false, err
	}

	return true, nil
}

// mergePollCounts folds fresh tallies into poll and reports whether
// anything moved. A fresh count below the stored one is ignored.
func mergePollCounts(poll, fresh *store.Poll) bool {
	counts := make(map[string]int64, len(fresh.Choices))
	for i, choice := range fresh.Choices {
		counts[choice] = fresh.Votes[i]
	}

	changed := false
	for i, choice := range poll.Choices {
		count, listed := counts[choice]
		if !listed {
			slog.Debug("Poll option disappeared", "poll", poll.Note, "choice", choice)
			continue
		}
		if count <= poll.Votes[i] {
			continue
		}
		poll.Votes[i] = count
		changed = true
	}

	if fresh.Expires.Valid && fresh.Expires != poll.Expires {
		poll.Expires = fresh.Expires
		changed = true
	}

	return changed
}
