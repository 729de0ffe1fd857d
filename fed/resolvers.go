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
	"sync"

	"golang.org/x/sync/semaphore"
)

// ContextPool bounds the number of resolution call trees running at once
// and recycles their history maps.
type ContextPool struct {
	pool     sync.Pool
	weighted *semaphore.Weighted
	resolver *Resolver
}

// NewContextPool returns a [ContextPool] allowing up to n concurrent
// resolutions.
func NewContextPool(r *Resolver, n int64) *ContextPool {
	return &ContextPool{
		pool: sync.Pool{
			New: func() any {
				return r.NewContext()
			},
		},
		weighted: semaphore.NewWeighted(n),
		resolver: r,
	}
}

// Borrow acquires a [ResolutionContext], waiting for a slot if too many
// resolutions are in flight.
func (p *ContextPool) Borrow(ctx context.Context) (*ResolutionContext, error) {
	if err := p.weighted.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return p.pool.Get().(*ResolutionContext), nil
}

// Return releases a [ResolutionContext] borrowed with [ContextPool.Borrow].
func (p *ContextPool) Return(rctx *ResolutionContext) {
	rctx.reset(p.resolver.Config.RecursionLimit)
	p.pool.Put(rctx)
	p.weighted.Release(1)
}
