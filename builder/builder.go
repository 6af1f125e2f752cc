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


package builder

import (
	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/registry"
	"dirpx.dev/rtt/resolver"
	"dirpx.dev/rtt/strategy"
)

// New creates and returns a new instance of an apis.Builder. opts are applied
// to every registry it builds.
func New(opts ...registry.Option) apis.Builder {
	return &builder{opts: opts}
}

// builder carries the registry options used for each build.
type builder struct {
	opts []registry.Option
}

// BuildRegistry builds and returns a new apis.Registry based on the provided
// configuration. Entries of a pre-existing registry are carried over by
// pointer, so live objects keep a valid entry after a rebuild.
//
// If an entry cannot be carried over (for example two identities share a
// bucket under the new bucket count and the fatal handler returns), the
// rebuild is abandoned and preg is returned unchanged.
func (b *builder) BuildRegistry(cfg apis.Config, preg apis.Registry) apis.Registry {
	nreg := registry.New(cfg, b.opts...)
	if preg == nil {
		return nreg
	}
	if err := registry.Migrate(nreg, preg); err != nil {
		return preg
	}
	return nreg
}

// BuildResolver builds the default strategy chain over reg:
// Class -> Registry -> Builtin.
func (b *builder) BuildResolver(_ apis.Config, reg apis.Registry, _ apis.Resolver) apis.Resolver {
	return resolver.New(
		strategy.NewClassStrategy(),
		strategy.NewRegistryStrategy(reg),
		strategy.NewBuiltinStrategy(),
	)
}
