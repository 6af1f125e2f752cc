/*
   Copyright 2025 The DIRPX Authors.

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


// Package chain implements a fixed-size hash table with separate chaining
// and caller-supplied hash and match functions.
//
// The bucket count never changes after construction, which makes bucket
// occupancy a stable property callers can reason about (the type registry
// treats two identities in one bucket as a configuration defect).
//
// Table is not safe for concurrent mutation; callers provide locking.
package chain

// HashFunc maps a key to an unbounded hash value. The table reduces it
// modulo the bucket count.
type HashFunc[K any] func(key K) uint32

// MatchFunc reports whether two keys denote the same entry.
type MatchFunc[K any] func(a, b K) bool

// Cell is one key/value slot in a chain.
type Cell[K, V any] struct {
	Key   K
	Value V
}

// Table is a separate-chaining hash table with a fixed bucket count.
type Table[K, V any] struct {
	hash    HashFunc[K]
	match   MatchFunc[K]
	buckets [][]*Cell[K, V]
	n       int
}

// New creates a table with the given bucket count. A non-positive count
// is treated as 1.
func New[K, V any](buckets int, hash HashFunc[K], match MatchFunc[K]) *Table[K, V] {
	if buckets <= 0 {
		buckets = 1
	}
	return &Table[K, V]{
		hash:    hash,
		match:   match,
		buckets: make([][]*Cell[K, V], buckets),
	}
}

// Bucket returns the bucket index for key.
func (t *Table[K, V]) Bucket(key K) int {
	return int(t.hash(key) % uint32(len(t.buckets)))
}

// Collision returns the bucket index of key if that bucket already holds
// any entry, or -1 if it is empty.
func (t *Table[K, V]) Collision(key K) int {
	i := t.Bucket(key)
	if len(t.buckets[i]) > 0 {
		return i
	}
	return -1
}

// Find returns the cell whose key matches key.
func (t *Table[K, V]) Find(key K) (*Cell[K, V], bool) {
	for _, c := range t.buckets[t.Bucket(key)] {
		if t.match(c.Key, key) {
			return c, true
		}
	}
	return nil, false
}

// Add returns the cell for key, creating an empty one if none matches.
// created reports whether a new cell was inserted.
func (t *Table[K, V]) Add(key K) (cell *Cell[K, V], created bool) {
	i := t.Bucket(key)
	for _, c := range t.buckets[i] {
		if t.match(c.Key, key) {
			return c, false
		}
	}
	c := &Cell[K, V]{Key: key}
	t.buckets[i] = append(t.buckets[i], c)
	t.n++
	return c, true
}

// Chain returns the cells of bucket i. The slice must not be modified.
func (t *Table[K, V]) Chain(i int) []*Cell[K, V] {
	return t.buckets[i]
}

// Len returns the number of cells.
func (t *Table[K, V]) Len() int {
	return t.n
}

// Size returns the bucket count.
func (t *Table[K, V]) Size() int {
	return len(t.buckets)
}

// Each calls fn for every cell until fn returns false. Order follows bucket
// index, then insertion order within a bucket.
func (t *Table[K, V]) Each(fn func(*Cell[K, V]) bool) {
	for _, b := range t.buckets {
		for _, c := range b {
			if !fn(c) {
				return
			}
		}
	}
}
