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
	"errors"
	"testing"
	"time"

	"github.com/calico-social/calico/cfg"
	"github.com/stretchr/testify/assert"
)

func TestContextPool_Bounded(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{})

	pool := NewContextPool(resolver, 1)

	rctx, err := pool.Borrow(context.Background())
	assert.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
	defer cancel()

	_, err = pool.Borrow(ctx)
	assert.True(errors.Is(err, context.DeadlineExceeded))

	pool.Return(rctx)

	rctx, err = pool.Borrow(context.Background())
	assert.NoError(err)
	pool.Return(rctx)
}

func TestContextPool_RecycledContextIsClean(t *testing.T) {
	assert := assert.New(t)

	var config cfg.Config
	resolver, _, _ := newTestResolver(t, &config, map[string]testResponse{})

	pool := NewContextPool(resolver, 2)

	rctx, err := pool.Borrow(context.Background())
	assert.NoError(err)

	_, err = resolver.Resolve(context.Background(), rctx, "https://localhost.localdomain/notes/doesnotexist")
	assert.Error(err)
	assert.NotEmpty(rctx.History())

	pool.Return(rctx)

	rctx, err = pool.Borrow(context.Background())
	assert.NoError(err)
	assert.Empty(rctx.History())
	pool.Return(rctx)
}
