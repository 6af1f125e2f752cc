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


package rtt

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/builder"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/config"
	"dirpx.dev/rtt/registry"
)

// init publishes the default snapshot.
func init() {
	cfg := config.DefaultConfig()
	b := defaultBuilder()
	reg := b.BuildRegistry(cfg, nil)
	st.Store(&state{
		cfg:  cfg,
		reg:  reg,
		res:  b.BuildResolver(cfg, reg, nil),
		bld:  b,
		dbld: true,
	})
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("rtt: builder returned nil registry")
	// ErrNilResolver is returned when a builder returns a nil resolver.
	ErrNilResolver = errors.New("rtt: builder returned nil resolver")
)

// defaultBuilder returns the builder used until SetBuilder is called.
// Its registries log through the package logger.
func defaultBuilder() apis.Builder {
	return builder.New(registry.WithLogger(Logger().Named("registry")))
}

// ClassOf resolves the class identity of v's type.
func ClassOf(v any) (classid.ID, bool) {
	s := st.Load()
	return s.res.Resolve(v, s.cfg)
}

// ClassOfType resolves the class identity of t.
func ClassOfType(t reflect.Type) (classid.ID, bool) {
	s := st.Load()
	return s.res.ResolveType(t, s.cfg)
}

// IdentityOf returns the class identity of T, or classid.Void if T has none.
// Generic classes use it to build their fingerprint:
//
//	func (Box[T]) ClassID() classid.ID {
//		return classid.Template(500, 0, 1, rtt.IdentityOf[T]())
//	}
func IdentityOf[T any]() classid.ID {
	if id, ok := ClassOfType(reflect.TypeFor[T]()); ok {
		return id
	}
	return classid.Void
}

// Find returns the registry entry for id.
func Find(id classid.ID) (*apis.Entry, bool) {
	return st.Load().reg.Find(id)
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration and rebuilds the non-pinned
// registry and resolver. Registered entries are migrated.
func SetConfig(cfg apis.Config) {
	update(func(s *state) { s.cfg = cfg })
}

// Registry returns the global registry.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry installs reg as the global registry and pins it.
// The resolver is rebuilt over reg unless pinned.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}
	update(func(s *state) {
		s.reg = reg
		s.preg = true
	})
}

// Resolver returns the global resolver.
func Resolver() apis.Resolver {
	return st.Load().res
}

// SetResolver installs res as the global resolver and pins it.
func SetResolver(res apis.Resolver) {
	if res == nil {
		return
	}
	swap(func(s *state) {
		s.res = res
		s.pres = true
	})
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder sets the global builder and rebuilds the non-pinned layers
// with it.
func SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}
	update(func(s *state) {
		s.bld = b
		s.dbld = false
	})
}

// SetAll replaces every component in one step. Nil arguments leave the
// corresponding component unchanged; non-nil reg and res are pinned.
// Mainly used by tests to get a clean deterministic state.
func SetAll(cfg *apis.Config, reg apis.Registry, res apis.Resolver, bld apis.Builder) {
	update(func(s *state) {
		if cfg != nil {
			s.cfg = *cfg
		}
		if bld != nil {
			s.bld = bld
			s.dbld = false
		}
		if reg != nil {
			s.reg = reg
			s.preg = true
		}
		if res != nil {
			s.res = res
			s.pres = true
		}
	})
}

// IsRegistryPinned returns whether the global registry is pinned.
func IsRegistryPinned() bool {
	return st.Load().preg
}

// PinRegistry stops automatic registry rebuilds.
func PinRegistry() {
	swap(func(s *state) { s.preg = true })
}

// UnpinRegistry lets the next reconfiguration rebuild the registry.
func UnpinRegistry() {
	swap(func(s *state) { s.preg = false })
}

// IsResolverPinned returns whether the global resolver is pinned.
func IsResolverPinned() bool {
	return st.Load().pres
}

// PinResolver stops automatic resolver rebuilds.
func PinResolver() {
	swap(func(s *state) { s.pres = true })
}

// UnpinResolver lets the next reconfiguration rebuild the resolver.
func UnpinResolver() {
	swap(func(s *state) { s.pres = false })
}

// buildMu serializes writers (reconfigurations/swaps) so we never publish
// partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global snapshot.
// Immutable once published via st.Store; writers create a new state and
// swap it atomically.
type state struct {
	// cfg is the global configuration.
	cfg apis.Config
	// reg is the global registry.
	reg apis.Registry
	// res is the global resolver.
	res apis.Resolver
	// bld is the global builder.
	bld apis.Builder
	// preg indicates whether reg is pinned.
	preg bool
	// pres indicates whether res is pinned.
	pres bool
	// dbld indicates that bld is the package default and follows SetLogger.
	dbld bool
}

// swap publishes a modified copy of the current state without rebuilding
// any layer.
func swap(mut func(s *state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	next := *st.Load()
	mut(&next)
	st.Store(&next)
}

// update applies mut to a copy of the current state, rebuilds the layers
// that are not pinned, and publishes the result. Setting a layer pins it,
// so layers installed by mut are never rebuilt.
func update(mut func(s *state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := *old
	mut(&next)

	if !next.preg {
		next.reg = next.bld.BuildRegistry(next.cfg, old.reg)
	}
	if !next.pres {
		next.res = next.bld.BuildResolver(next.cfg, next.reg, old.res)
	}

	if next.reg == nil {
		panic(ErrNilRegistry)
	}
	if next.res == nil {
		panic(ErrNilResolver)
	}
	st.Store(&next)
}
