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

// Package fed fetches and validates ActivityPub objects from other
// servers, and serves the trust decisions around doing so: host authority,
// object authenticity and federation policy.
package fed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/cfg"
	"github.com/calico-social/calico/data"
	"github.com/calico-social/calico/httpsig"
	"github.com/calico-social/calico/lock"
	"github.com/calico-social/calico/store"
)

// Resolver retrieves ActivityPub objects by ID and validates that each
// fetched document really belongs to the authority it claims.
type Resolver struct {
	sender
	Policy *Policy
	db     *sql.DB
	cache  *actorCache
	locks  *lock.Keyed
}

// NewResolver returns a new [Resolver].
func NewResolver(policy *Policy, domain string, config *cfg.Config, client Client, db *sql.DB) *Resolver {
	return &Resolver{
		sender: sender{
			Domain: domain,
			Config: config,
			client: client,
		},
		Policy: policy,
		db:     db,
		cache:  newActorCache(config.ActorCacheSize, config.ActorCacheTTL),
		locks:  lock.NewKeyed(config.MaxResolverRequests),
	}
}

// ResolutionContext is the state of one top-level resolution call tree:
// the URIs visited so far and the signing identity, if any. It is owned by
// a single call tree and must not be shared across unrelated requests.
type ResolutionContext struct {
	history   map[string]struct{}
	limit     int
	key       httpsig.Key
	keyLoaded bool
}

// NewContext returns an empty [ResolutionContext] for one top-level
// resolution.
func (r *Resolver) NewContext() *ResolutionContext {
	return &ResolutionContext{
		history: map[string]struct{}{},
		limit:   r.Config.RecursionLimit,
	}
}

// History returns the URIs visited in this context, for diagnostics.
func (rctx *ResolutionContext) History() []string {
	l := make([]string, 0, len(rctx.history))
	for uri := range rctx.history {
		l = append(l, uri)
	}
	return l
}

func (rctx *ResolutionContext) reset(limit int) {
	clear(rctx.history)
	rctx.limit = limit
	rctx.key = httpsig.Key{}
	rctx.keyLoaded = false
}

// signingKey lazily loads the instance actor's key, at most once per
// context.
func (rctx *ResolutionContext) signingKey(ctx context.Context, r *Resolver) httpsig.Key {
	if !r.Config.SignedGets || rctx.keyLoaded {
		return rctx.key
	}

	rctx.keyLoaded = true

	var keyID, privPem string
	if err := r.db.QueryRowContext(
		ctx,
		`select actor->>'$.publicKey.id', privkey from persons where host = $1 and actor->>'$.type' = 'Application' and privkey is not null`,
		r.Domain,
	).Scan(&keyID, &privPem); err != nil {
		slog.Warn("Failed to load instance actor key, fetching anonymously", "error", err)
		return rctx.key
	}

	privateKey, err := data.ParsePrivateKey(privPem)
	if err != nil {
		slog.Warn("Failed to parse instance actor key, fetching anonymously", "key", keyID, "error", err)
		return rctx.key
	}

	rctx.key = httpsig.Key{ID: keyID, PrivateKey: privateKey}
	return rctx.key
}

// Resolve dereferences a URI into a validated object, or returns an inline
// object unchanged: inline objects are trusted only as far as the caller
// already trusted them, callers must not pass untrusted inline objects
// expecting authentication.
func (r *Resolver) Resolve(ctx context.Context, rctx *ResolutionContext, value any) (any, error) {
	uri, ok := value.(string)
	if !ok {
		return value, nil
	}

	return r.resolveURI(ctx, rctx, uri)
}

// ResolveCollection dereferences a URI and fails unless the result is a
// collection.
func (r *Resolver) ResolveCollection(ctx context.Context, rctx *ResolutionContext, value any) (*ap.CollectionObject, error) {
	resolved, err := r.Resolve(ctx, rctx, value)
	if err != nil {
		return nil, err
	}

	collection, ok := resolved.(*ap.CollectionObject)
	if !ok {
		return nil, fmt.Errorf("cannot resolve %v: %w", value, ErrNotCollection)
	}

	return collection, nil
}

func (r *Resolver) resolveURI(ctx context.Context, rctx *ResolutionContext, uri string) (any, error) {
	if uri == "" {
		return nil, errors.New("empty ID")
	}

	// fragments aren't sent over HTTP: fetching one resolves a different
	// resource than the one named
	if strings.Contains(uri, "#") {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, ErrFragmentID)
	}

	if _, visited := rctx.history[uri]; visited {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, ErrCycle)
	}

	if len(rctx.history) > rctx.limit {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, ErrRecursionLimit)
	}

	rctx.history[uri] = struct{}{}

	host, err := ExtractDBHost(uri)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, err)
	}

	if local, err := IsURILocal(r.Domain, uri); err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, err)
	} else if local {
		localResolutionsTotal.Inc()
		return r.resolveLocal(ctx, uri)
	}

	if !r.Policy.IsFederationAllowedHost(host) {
		blockedTotal.Inc()
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, ErrBlockedDomain)
	}

	if actor, cached := r.cache.Get(uri); cached {
		return actor, nil
	}

	unlock, err := r.locks.Lock(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", uri, err)
	}
	defer unlock()

	raw, err := r.get(ctx, rctx.signingKey(ctx, r), uri)
	if err != nil {
		if IsRetryable(err) {
			fetchesTotal.WithLabelValues("transient").Inc()
		} else {
			fetchesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	envelope, err := ap.Peek(raw)
	if err != nil {
		fetchesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("failed to unmarshal %s: %w", uri, err)
	}

	if !ap.HasContext(envelope.Context) {
		fetchesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("cannot accept %s: %w", uri, ErrMissingContext)
	}

	if envelope.ID == "" {
		// redirects make the fetch URL alone untrustworthy, an anonymous
		// object cannot be attributed to any authority
		fetchesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("cannot accept %s: %w", uri, ErrMissingID)
	}

	finalHost, err := ExtractDBHost(envelope.ID)
	if err != nil {
		fetchesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("cannot accept %s: %w", uri, err)
	}

	if finalHost != host {
		// a cross-domain redirect happened: it must stay within one
		// authority and must not bounce into a blocked instance
		if same, err := HaveSameAuthority(envelope.ID, uri, r.Config.MultiTenantSuffixes); err != nil {
			fetchesTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("cannot accept %s: %w", uri, err)
		} else if !same {
			authorityFailuresTotal.Inc()
			fetchesTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("%s redirected to %s: %w", uri, envelope.ID, ErrAuthorityMismatch)
		}

		if !r.Policy.IsFederationAllowedHost(finalHost) {
			blockedTotal.Inc()
			return nil, fmt.Errorf("%s redirected to %s: %w", uri, envelope.ID, ErrBlockedDomain)
		}
	}

	decoded, err := ap.Decode(raw)
	if err != nil {
		fetchesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("failed to unmarshal %s: %w", uri, err)
	}

	if actor, ok := decoded.(*ap.Actor); ok {
		r.cache.Add(actor)

		if err := store.UpsertPerson(ctx, r.db, actor, finalHost); err != nil {
			slog.Warn("Failed to cache actor", "id", actor.ID, "error", err)
		}
	}

	fetchesTotal.WithLabelValues("ok").Inc()
	return decoded, nil
}
