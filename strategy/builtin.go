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
	uref "dirpx.dev/rtt/utils/reflect"
)

// NewBuiltinStrategy creates an apis.Strategy that maps primitive kinds to
// their reserved identities.
func NewBuiltinStrategy() apis.Strategy {
	return builtinStrategy{}
}

// builtinStrategy is the fallback for predeclared types (int, string...).
// It unwraps containers via Normalize, so []float64 resolves like float64.
// Named types declared in a package never resolve here, even when their
// underlying kind is primitive.
type builtinStrategy struct{}

// Ensure builtinStrategy implements apis.Strategy.
var _ apis.Strategy = (*builtinStrategy)(nil)

// cacheKey includes every config field that changes the normalized type.
type cacheKey struct {
	t             reflect.Type
	maxUnwrap     int16
	mapPreferElem bool
}

// builtinCache caches resolved identities by (type, config knobs).
var builtinCache sync.Map // key: cacheKey, val: classResult

// TryResolve resolves the builtin identity of v's type.
func (s builtinStrategy) TryResolve(v any, cfg apis.Config) (classid.ID, bool) {
	if v == nil {
		return classid.ID{}, false
	}
	return s.TryResolveType(reflect.TypeOf(v), cfg)
}

// TryResolveType resolves the builtin identity of t.
func (builtinStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (classid.ID, bool) {
	if t == nil || !cfg.IncludeBuiltins {
		return classid.ID{}, false
	}
	key := cacheKey{
		t:             t,
		maxUnwrap:     int16(cfg.MaxUnwrap),
		mapPreferElem: cfg.MapPreferElem,
	}
	if r, ok := builtinCache.Load(key); ok {
		res := r.(classResult)
		return res.id, res.ok
	}

	var res classResult
	if base, err := uref.Normalize(t, cfg); err == nil && base.PkgPath() == "" {
		res.id, res.ok = classid.Builtin(base.Kind())
	}
	builtinCache.Store(key, res)
	return res.id, res.ok
}
