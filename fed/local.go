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
	"context"
	"crypto/ed25519"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/data"
	"github.com/calico-social/calico/httpsig"
	"github.com/calico-social/calico/proof"
	"github.com/calico-social/calico/store"
)

// resolveLocal serves an object this instance is authoritative for,
// straight from local records. Local IDs are never fetched over the
// network: a fetch would trust the transport for objects we already hold
// the truth about.
func (r *Resolver) resolveLocal(ctx context.Context, uri string) (any, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, ErrUnhandledLocalType)
	}

	switch parts[0] {
	case "notes":
		noteID := fmt.Sprintf("https://%s/notes/%s", r.Domain, parts[1])

		note, err := store.NoteByID(ctx, r.db, noteID)
		if err != nil {
			return nil, err
		}

		if len(parts) == 3 && parts[2] == "activity" {
			return r.renderCreate(ctx, &note.Object)
		} else if len(parts) != 2 {
			return nil, fmt.Errorf("cannot resolve %s: %w", uri, ErrUnhandledLocalType)
		}

		object := note.Object
		object.Context = ap.Context
		return &object, nil

	case "users":
		person, err := store.PersonByID(ctx, r.db, uri)
		if err != nil {
			return nil, err
		}

		actor := person.Actor
		actor.Context = ap.Context
		return &actor, nil

	case "questions":
		noteID := fmt.Sprintf("https://%s/notes/%s", r.Domain, parts[1])

		note, err := store.NoteByID(ctx, r.db, noteID)
		if err != nil {
			return nil, err
		}

		poll, err := store.PollByNote(ctx, r.db, noteID)
		if err != nil {
			return nil, err
		}

		return RenderQuestion(&note.Object, poll), nil

	case "likes":
		reaction, err := store.ReactionByID(ctx, r.db, uri)
		if err != nil {
			return nil, err
		}

		return &ap.Activity{
			Context: ap.Context,
			ID:      reaction.ID,
			Type:    ap.LikeActivity,
			Actor:   reaction.Author,
			Object:  reaction.Note,
		}, nil

	case "follows":
		follow, err := store.FollowRequestByID(ctx, r.db, uri)
		if err != nil {
			return nil, err
		}

		// only outbound follow records are served: the follower must be
		// ours and the followee must not be
		if local, err := IsURILocal(r.Domain, follow.Follower); err != nil {
			return nil, err
		} else if !local {
			return nil, fmt.Errorf("cannot resolve %s: follower %s is not local: %w", uri, follow.Follower, ErrInvalidHost)
		}

		if local, err := IsURILocal(r.Domain, follow.Followed); err != nil {
			return nil, err
		} else if local {
			return nil, fmt.Errorf("cannot resolve %s: followee %s is local: %w", uri, follow.Followed, ErrInvalidHost)
		}

		return &ap.Activity{
			Context: ap.Context,
			ID:      follow.ID,
			Type:    ap.Follow,
			Actor:   follow.Follower,
			Object:  follow.Followed,
		}, nil

	default:
		return nil, fmt.Errorf("cannot resolve %s: %s: %w", uri, parts[0], ErrUnhandledLocalType)
	}
}

// renderCreate wraps a local note in its Create activity envelope.
func (r *Resolver) renderCreate(ctx context.Context, note *ap.Object) (*ap.Activity, error) {
	object := *note
	object.Context = nil

	if !r.Config.DisableIntegrityProofs && object.Proof == (ap.Proof{}) {
		if key, err := r.authorKey(ctx, note.AttributedTo); err == nil {
			if object.Proof, err = proof.Create(key, time.Now(), &object); err != nil {
				return nil, fmt.Errorf("failed to render %s: %w", note.ID, err)
			}
		}
	}

	return &ap.Activity{
		Context: ap.Context,
		ID:      note.ID + "/activity",
		Type:    ap.Create,
		Actor:   note.AttributedTo,
		Object:  &object,
		To:      note.To,
		CC:      note.CC,
	}, nil
}

// authorKey loads a local author's ed25519 key for integrity proofs.
func (r *Resolver) authorKey(ctx context.Context, author string) (httpsig.Key, error) {
	person, err := store.PersonByID(ctx, r.db, author)
	if err != nil {
		return httpsig.Key{}, err
	}

	if !person.PrivKey.Valid {
		return httpsig.Key{}, fmt.Errorf("%s has no key", author)
	}

	privateKey, err := data.ParsePrivateKey(person.PrivKey.String)
	if err != nil {
		return httpsig.Key{}, err
	}

	if _, ok := privateKey.(ed25519.PrivateKey); !ok {
		return httpsig.Key{}, fmt.Errorf("%s has no ed25519 key", author)
	}

	return httpsig.Key{ID: person.Actor.PublicKey.ID, PrivateKey: privateKey}, nil
}

// RenderQuestion projects a poll back onto its Question object.
func RenderQuestion(note *ap.Object, poll *store.Poll) *ap.Object {
	object := *note
	object.Context = ap.Context
	object.Type = ap.Question

	options := make([]ap.PollOption, len(poll.Choices))
	for i, choice := range poll.Choices {
		options[i].Name = choice
		votes := poll.Votes[i]
		options[i].Replies.TotalItems = &votes
	}

	if poll.Multiple {
		object.AnyOf = options
		object.OneOf = nil
	} else {
		object.OneOf = options
		object.AnyOf = nil
	}

	if poll.Expires.Valid {
		object.EndTime = ap.Time{Time: time.Unix(poll.Expires.Int64, 0).UTC()}
	}

	return &object
}
