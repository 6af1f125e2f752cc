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


package config

import (
	"dirpx.dev/rtt/apis"
)

const (
	// DefaultBuckets represents the default for Buckets.
	// Discriminants below this value never share a bucket.
	DefaultBuckets = 2048

	// DefaultIncludeBuiltins lets primitive kinds resolve to their reserved
	// module-0 identities.
	DefaultIncludeBuiltins = true

	// DefaultMaxUnwrap bounds pointer and container unwrapping during
	// identity resolution.
	DefaultMaxUnwrap = 8

	// DefaultMapPreferElem makes map[K]V normalize to V rather than K.
	DefaultMapPreferElem = true

	// DefaultRecycle returns destroyed object headers to a pool.
	DefaultRecycle = true
)

// NewConfig applies opts on top of DefaultConfig. Out-of-range values
// fall back to their defaults.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return sanitize(cfg)
}

func sanitize(cfg apis.Config) apis.Config {
	if cfg.Buckets <= 0 {
		cfg.Buckets = DefaultBuckets
	}
	if cfg.MaxUnwrap < 0 {
		cfg.MaxUnwrap = DefaultMaxUnwrap
	}
	return cfg
}

// DefaultConfig returns the configuration the global state starts with.
func DefaultConfig() apis.Config {
	return apis.Config{
		Buckets:         DefaultBuckets,
		IncludeBuiltins: DefaultIncludeBuiltins,
		MaxUnwrap:       DefaultMaxUnwrap,
		MapPreferElem:   DefaultMapPreferElem,
		Recycle:         DefaultRecycle,
	}
}

// Option adjusts one field of an apis.Config.
type Option func(*apis.Config)

// WithBuckets sets the registry bucket count. Non-positive means default.
func WithBuckets(n int) Option {
	return func(c *apis.Config) {
		if n <= 0 {
			c.Buckets = DefaultBuckets
			return
		}
		c.Buckets = n
	}
}

// WithIncludeBuiltins toggles builtin identity resolution.
func WithIncludeBuiltins(include bool) Option {
	return func(c *apis.Config) {
		c.IncludeBuiltins = include
	}
}

// WithMaxUnwrap sets the unwrap depth. Negative means default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		if max < 0 {
			c.MaxUnwrap = DefaultMaxUnwrap
			return
		}
		c.MaxUnwrap = max
	}
}

// WithMapPreferElem chooses the map element over the key when normalizing.
func WithMapPreferElem(prefer bool) Option {
	return func(c *apis.Config) {
		c.MapPreferElem = prefer
	}
}

// WithRecycle toggles header pooling.
func WithRecycle(recycle bool) Option {
	return func(c *apis.Config) {
		c.Recycle = recycle
	}
}
