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
	"time"

	"github.com/calico-social/calico/ap"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// actorCache is a bounded, expiring cache of validated remote actor
// documents, in front of the persistent cache in the store. Only actors
// are cached: they are fetched over and over while attributing posts, and
// unlike notes they change rarely. Entries are shared, callers must not
// mutate them.
type actorCache struct {
	lru *expirable.LRU[string, *ap.Actor]
}

func newActorCache(size int, ttl time.Duration) *actorCache {
	return &actorCache{lru: expirable.NewLRU[string, *ap.Actor](size, nil, ttl)}
}

func (c *actorCache) Get(id string) (*ap.Actor, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(id)
}

func (c *actorCache) Add(actor *ap.Actor) {
	if c == nil {
		return
	}
	c.lru.Add(actor.ID, actor)
}
