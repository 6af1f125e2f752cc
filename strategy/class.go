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


package strategy

import (
	"reflect"
	"sync"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/config"
)

// NewClassStrategy creates an apis.Strategy that uses apis.Class.
func NewClassStrategy() apis.Strategy {
	return &classStrategy{}
}

// classStrategy is the zero-cost fast path: if the type declares its own
// ClassID, that identity wins and the chain stops.
type classStrategy struct{}

// Ensure classStrategy implements apis.Strategy.
var _ apis.Strategy = (*classStrategy)(nil)

// classType is the reflect.Type of apis.Class.
var classType = reflect.TypeOf((*apis.Class)(nil)).Elem()

// classCache memoizes per-type results (including misses).
var classCache sync.Map // key: cacheKey, val: classResult

type classResult struct {
	id classid.ID
	ok bool
}

// TryResolve checks if v implements apis.Class and returns its ClassID().
// A nil pointer is resolved through its type, never dereferenced.
func (s *classStrategy) TryResolve(v any, cfg apis.Config) (classid.ID, bool) {
	if v == nil {
		return classid.ID{}, false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		return s.TryResolveType(rv.Type(), cfg)
	}
	if c, ok := v.(apis.Class); ok {
		return c.ClassID(), true
	}
	return classid.ID{}, false
}

// TryResolveType calls ClassID on the zero value of t, following pointers
// up to cfg.MaxUnwrap levels.
func (*classStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (classid.ID, bool) {
	if t == nil {
		return classid.ID{}, false
	}
	maxUnwrap := cfg.MaxUnwrap
	if maxUnwrap <= 0 {
		maxUnwrap = config.DefaultMaxUnwrap
	}
	key := cacheKey{t: t, maxUnwrap: int16(maxUnwrap)}
	if r, ok := classCache.Load(key); ok {
		res := r.(classResult)
		return res.id, res.ok
	}

	base := t
	for i := 0; base.Kind() == reflect.Ptr && i < maxUnwrap; i++ {
		base = base.Elem()
	}

	var res classResult
	switch base.Kind() {
	case reflect.Ptr, reflect.Interface:
		// No usable zero value to call ClassID on.
	default:
		if base.Implements(classType) {
			res = classResult{id: reflect.Zero(base).Interface().(apis.Class).ClassID(), ok: true}
		}
	}
	classCache.Store(key, res)
	return res.id, res.ok
}
