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
	"errors"
	"fmt"

	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/cfg"
	"github.com/calico-social/calico/fed"
	"github.com/calico-social/calico/store"
)

// ActorResolver turns an actor ID into a cached person record. [Notes]
// depends on this interface rather than on [Persons], so the two
// services can be wired in either order.
type ActorResolver interface {
	ResolveActor(ctx context.Context, rctx *fed.ResolutionContext, id string) (*store.Person, error)
}

// Persons materializes remote actors into the persons table.
type Persons struct {
	Domain   string
	Config   *cfg.Config
	DB       *sql.DB
	Resolver *fed.Resolver
}

// ResolveActor returns the person with the given actor ID, fetching and
// caching the actor document if needed.
func (p *Persons) ResolveActor(ctx context.Context, rctx *fed.ResolutionContext, id string) (*store.Person, error) {
	person, err := store.PersonByID(ctx, p.DB, id)
	if err == nil {
		return person, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	resolved, err := p.Resolver.Resolve(ctx, rctx, id)
	if err != nil {
		return nil, err
	}

	actor, ok := resolved.(*ap.Actor)
	if !ok {
		return nil, reject(CodeInvalidNote, "%s is not an actor", id)
	}

	// keep only the icon we would display
	if best := BestIcon(actor.Icon); best != nil {
		actor.Icon = ap.Array[ap.Attachment]{*best}
	}

	host, err := fed.ExtractDBHost(actor.ID)
	if err != nil {
		return nil, err
	}

	if err := store.UpsertPerson(ctx, p.DB, actor, host); err != nil {
		return nil, err
	}

	person, err = store.PersonByID(ctx, p.DB, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to cache %s: %w", actor.ID, err)
	}

	return person, nil
}
