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


package registry

import (
	"errors"
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/config"
	rtterrors "dirpx.dev/rtt/errors"
	"dirpx.dev/rtt/utils/chain"
	uref "dirpx.dev/rtt/utils/reflect"
)

var (
	// ErrNilEntry is returned when a nil entry is provided.
	ErrNilEntry = errors.New("rtt(registry): nil entry provided")
	// ErrNilType is returned when an entry has no Go type.
	ErrNilType = errors.New("rtt(registry): entry without reflect.Type")
)

// FatalFunc receives registry-integrity failures. The process is expected
// not to continue: the default handler logs and panics. A handler that
// returns makes Register report the error instead.
type FatalFunc func(err error)

// Option configures a registry built by New.
type Option func(*registry)

// WithLogger sets the logger used for registration events.
func WithLogger(l *zap.Logger) Option {
	return func(r *registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithFatal replaces the fatal handler.
func WithFatal(fn FatalFunc) Option {
	return func(r *registry) {
		if fn != nil {
			r.fatal = fn
		}
	}
}

// New constructs a Registry with cfg.Buckets buckets.
// Only Buckets, MaxUnwrap and MapPreferElem are used here.
func New(cfg apis.Config, opts ...Option) apis.Registry {
	if cfg.Buckets <= 0 {
		cfg.Buckets = config.DefaultBuckets
	}
	if cfg.MaxUnwrap <= 0 {
		cfg.MaxUnwrap = config.DefaultMaxUnwrap
	}
	r := &registry{
		cfg:   cfg,
		log:   zap.NewNop(),
		table: chain.New[classid.ID, *apis.Entry](cfg.Buckets, hash, match),
		types: make(map[reflect.Type]*apis.Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fatal == nil {
		r.fatal = panicFatal(r.log)
	}
	return r
}

// panicFatal logs err and panics with it.
func panicFatal(l *zap.Logger) FatalFunc {
	return func(err error) {
		l.Error("class registry integrity failure", zap.Error(err))
		panic(err)
	}
}

// hash spreads identities over buckets: family key plus fingerprint.
func hash(id classid.ID) uint32 { return id.Key() + id.Fingerprint }

// match treats identities as equal when they name the same concrete class.
func match(a, b classid.ID) bool { return a.IsSame(b) }

// registry is the chained-hash Registry implementation.
type registry struct {
	// cfg is the configuration used for sizing and type normalization.
	cfg apis.Config
	// log receives registration events.
	log *zap.Logger
	// fatal handles integrity failures.
	fatal FatalFunc

	// mu serializes registration; lookups take the read side.
	mu sync.RWMutex
	// table maps identities to entries.
	table *chain.Table[classid.ID, *apis.Entry]
	// types maps concrete Go types to entries.
	types map[reflect.Type]*apis.Entry
}

// Register inserts e or merges it into the entry already registered for e.ID.
func (r *registry) Register(e *apis.Entry, allowReregister bool) (*apis.Entry, error) {
	if e == nil {
		return nil, ErrNilEntry
	}
	if e.Type == nil {
		return nil, ErrNilType
	}
	if e.Name == "" {
		e.Name = uref.Name(e.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if bucket := r.table.Collision(e.ID); bucket >= 0 {
		cell, found := r.table.Find(e.ID)
		if !found {
			other := r.table.Chain(bucket)[0].Value
			return r.fail(rtterrors.New(rtterrors.PhaseRegister, rtterrors.KindRegistryCollision).
				Class(e.ID).
				GoType(e.Name).
				Detail("bucket %d already holds %s (%s)", bucket, other.ID, other.Name).
				Build())
		}

		existing := cell.Value
		if existing.Type != e.Type {
			return r.fail(rtterrors.New(rtterrors.PhaseRegister, rtterrors.KindRegistryCollision).
				Class(e.ID).
				GoType(e.Name).
				Detail("identity already claimed by %s", existing.Name).
				Build())
		}
		if !allowReregister {
			return r.fail(rtterrors.New(rtterrors.PhaseRegister, rtterrors.KindDuplicateRegistration).
				Class(e.ID).
				GoType(e.Name).
				Detail("class registered twice").
				Build())
		}

		existing.Merge(e)
		r.log.Debug("class merged",
			zap.Stringer("class", e.ID),
			zap.String("type", e.Name),
		)
		return existing, nil
	}

	if prev, ok := r.types[e.Type]; ok {
		return r.fail(rtterrors.New(rtterrors.PhaseRegister, rtterrors.KindDuplicateRegistration).
			Class(e.ID).
			GoType(e.Name).
			Detail("type already registered as %s", prev.ID).
			Build())
	}

	cell, _ := r.table.Add(e.ID)
	cell.Value = e
	r.types[e.Type] = e

	r.log.Debug("class registered",
		zap.Stringer("class", e.ID),
		zap.String("type", e.Name),
		zap.Int("bucket", r.table.Bucket(e.ID)),
		zap.Bool("root", e.IsRoot()),
	)
	return e, nil
}

// fail hands err to the fatal handler and reports it if the handler returns.
func (r *registry) fail(err *rtterrors.Error) (*apis.Entry, error) {
	r.fatal(err)
	return nil, err
}

// Find returns the entry registered for id.
func (r *registry) Find(id classid.ID) (*apis.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.table.Find(id); ok {
		return c.Value, true
	}
	return nil, false
}

// Lookup returns the entry registered for t, or for the nearest named type
// inside t (so *T and []T resolve to T).
func (r *registry) Lookup(t reflect.Type) (*apis.Entry, bool) {
	if t == nil {
		return nil, false
	}

	r.mu.RLock()
	e, ok := r.types[t]
	r.mu.RUnlock()
	if ok {
		return e, true
	}

	nt, err := uref.Normalize(t, r.cfg)
	if err != nil || nt == t {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok = r.types[nt]
	return e, ok
}

// Entries returns a snapshot for diagnostics/docs (order is unspecified).
func (r *registry) Entries() []*apis.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*apis.Entry, 0, r.table.Len())
	r.table.Each(func(c *chain.Cell[classid.ID, *apis.Entry]) bool {
		entries = append(entries, c.Value)
		return true
	})
	return entries
}

// Count returns the number of registered entries.
func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Len()
}

// Migrate registers every entry of src into dst, keeping the entry
// pointers. Failures do not stop the migration; they are combined into
// the returned error, and dst is then missing the failed entries.
func Migrate(dst, src apis.Registry) error {
	var errs error
	for _, e := range src.Entries() {
		if _, err := dst.Register(e, true); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		if r, ok := dst.(*registry); ok {
			r.log.Error("registry migration failed",
				zap.Int("entries", src.Count()),
				zap.Int("failed", len(multierr.Errors(errs))),
				zap.Error(errs),
			)
		}
	}
	return errs
}
