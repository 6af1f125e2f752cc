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


package apis

// Config carries read-only knobs for the registry, identity resolution and
// object headers. It is passed by value and should be treated as immutable
// by implementations.
type Config struct {
	// Buckets is the fixed bucket count of the registry hash table.
	// Distinct identities that land in the same bucket are a fatal collision,
	// so this also bounds how densely discriminants may be packed.
	Buckets int

	// IncludeBuiltins controls whether primitive kinds (int, float64, string...)
	// resolve to their reserved builtin identities. If false, such types
	// have no identity unless registered explicitly.
	IncludeBuiltins bool

	// MaxUnwrap limits container unwrapping depth (ptr/slice/array/chan/map)
	// when resolving the identity of a type.
	// Acts as a safety guard against pathological nesting.
	MaxUnwrap int

	// MapPreferElem controls which side of map[K]V is considered "primary"
	// when searching for a nearest named inner type. If true, prefer V; otherwise K.
	MapPreferElem bool

	// Recycle lets destroyed object headers be reused for new objects.
	// Weak handles stay correct either way (they check a generation).
	Recycle bool
}
