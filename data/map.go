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

// Package data provides collection and key parsing helpers.
package data

import "iter"

type valueAndIndex[TV any] struct {
	value TV
	index int
}

// OrderedMap is a map that maintains insertion order.
type OrderedMap[TK comparable, TV any] map[TK]valueAndIndex[TV]

// Contains determines if the map contains a key.
func (m OrderedMap[TK, TV]) Contains(key TK) bool {
	_, contains := m[key]
	return contains
}

// Store adds a key/value pair to the map if the map doesn't contain it already.
func (m OrderedMap[TK, TV]) Store(key TK, value TV) {
	if _, dup := m[key]; !dup {
		m[key] = valueAndIndex[TV]{value, len(m)}
	}
}

// Keys iterates over keys, in insertion order.
// It allocates a temporary slice to restore ordering.
func (m OrderedMap[TK, TV]) Keys() iter.Seq[TK] {
	return func(yield func(TK) bool) {
		for _, k := range m.CollectKeys() {
			if !yield(k) {
				return
			}
		}
	}
}

// All iterates over key/value pairs, in insertion order.
func (m OrderedMap[TK, TV]) All() iter.Seq2[TK, TV] {
	return func(yield func(TK, TV) bool) {
		for _, k := range m.CollectKeys() {
			if !yield(k, m[k].value) {
				return
			}
		}
	}
}

// CollectKeys returns a list of keys in the map, in insertion order.
func (m OrderedMap[TK, TV]) CollectKeys() []TK {
	l := make([]TK, len(m))

	for k, v := range m {
		l[v.index] = k
	}

	return l
}
