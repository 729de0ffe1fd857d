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

package lock

import (
	"context"
	"hash/crc32"
)

// Keyed is a fixed set of locks addressed by string key: two operations on
// the same key always contend on the same lock, while unrelated keys rarely
// do. Used to serialize check-then-create on a canonical object ID across
// concurrent deliveries.
type Keyed struct {
	locks []Lock
}

// NewKeyed returns a [Keyed] with n locks.
func NewKeyed(n int) *Keyed {
	k := Keyed{locks: make([]Lock, n)}
	for i := range k.locks {
		k.locks[i] = New()
	}
	return &k
}

// Lock acquires the lock associated with key and returns its release
// function, or fails if ctx is cancelled first.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	l := k.locks[crc32.ChecksumIEEE([]byte(key))%uint32(len(k.locks))]
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	return l.Unlock, nil
}
