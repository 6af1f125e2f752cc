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


// Package classid defines the numeric class identity used by rtt in place of
// Go reflection for ownership, casting and registry lookups.
//
// An identity is a small comparable value:
//
//	[Version(8b) | Module(8b) | Discriminant(16b)] + Fingerprint(32b)
//
// The discriminant is chosen by the type's author and must be unique within
// its module. The fingerprint is non-zero only for instantiations of generic
// types and combines the identities of up to three type parameters, so that
// Box[A] and Box[B] share a family but are distinct classes.
//
// The package only detects collisions (at registration time, see package
// registry); it never prevents them.
package classid

import (
	"fmt"
	"reflect"
)

// MaxParams is the number of type parameters a fingerprint can combine.
const MaxParams = 3

// ID identifies a concrete class.
type ID struct {
	// Discriminant is the author-chosen 16-bit class number.
	Discriminant uint16
	// Version is the class layout version. Ignored by family comparisons.
	Version uint8
	// Module identifies the library that owns the discriminant space.
	Module uint8
	// Fingerprint combines the identities of generic type parameters.
	Fingerprint uint32
}

var (
	// Any is the universal marker identity. A handle of the Any class
	// accepts every object on cast.
	Any = New(0, 0, 0)

	// Void stands in for an absent type parameter.
	Void = New(0x0001, 0, 0)
)

// New derives the identity of a non-generic class.
func New(discriminant uint16, version, module uint8) ID {
	return ID{Discriminant: discriminant, Version: version, Module: module}
}

// Template derives the identity of a generic instantiation. params are the
// identities of the type parameters in declaration order; at most MaxParams
// are allowed and missing trailing parameters count as Void.
func Template(discriminant uint16, version, module uint8, params ...ID) ID {
	if len(params) == 0 || len(params) > MaxParams {
		panic(fmt.Sprintf("classid: template class %d needs 1..%d parameters, got %d",
			discriminant, MaxParams, len(params)))
	}
	p := [MaxParams]ID{Void, Void, Void}
	copy(p[:], params)
	id := New(discriminant, version, module)
	id.Fingerprint = Fingerprint(p[0], p[1], p[2])
	return id
}

// Fingerprint combines up to three parameter identities into one value.
// Only family keys participate; parameter versions and fingerprints do not.
func Fingerprint(p1, p2, p3 ID) uint32 {
	return p1.Key() | p2.Key()<<16 ^ p3.Key()<<24
}

// Key returns the 24-bit family key (module and discriminant).
func (id ID) Key() uint32 {
	return uint32(id.Module)<<16 | uint32(id.Discriminant)
}

// Full returns the packed 32-bit identity including the version.
func (id ID) Full() uint32 {
	return uint32(id.Version)<<24 | id.Key()
}

// IsSame reports whether id and o name the same concrete class: same family
// and same fingerprint. The version is ignored.
func (id ID) IsSame(o ID) bool {
	return id.Key() == o.Key() && id.Fingerprint == o.Fingerprint
}

// IsSameFamily reports whether id and o share module and discriminant,
// ignoring version and fingerprint.
func (id ID) IsSameFamily(o ID) bool {
	return id.Key() == o.Key()
}

// IsSameFingerprint compares the fingerprint alone.
func (id ID) IsSameFingerprint(fp uint32) bool {
	return id.Fingerprint == fp
}

// IsZero reports whether id is the Any marker without a fingerprint.
func (id ID) IsZero() bool {
	return id == ID{}
}

// IsTemplate reports whether id carries a parameter fingerprint.
func (id ID) IsTemplate() bool {
	return id.Fingerprint != 0
}

// String formats id for logs and error messages.
func (id ID) String() string {
	if id.Fingerprint != 0 {
		return fmt.Sprintf("Class[%d] Module[%d] v%d <%08x>", id.Discriminant, id.Module, id.Version, id.Fingerprint)
	}
	return fmt.Sprintf("Class[%d] Module[%d] v%d", id.Discriminant, id.Module, id.Version)
}

// builtins maps primitive kinds to their reserved identities (module 0).
var builtins = map[reflect.Kind]ID{
	reflect.Uint8:   New(0x0002, 0, 0),
	reflect.Uint16:  New(0x0003, 0, 0),
	reflect.Uint32:  New(0x0004, 0, 0),
	reflect.Uint64:  New(0x0005, 0, 0),
	reflect.Int8:    New(0x0006, 0, 0),
	reflect.Int16:   New(0x0007, 0, 0),
	reflect.Int32:   New(0x0008, 0, 0),
	reflect.Int64:   New(0x0009, 0, 0),
	reflect.Float32: New(0x0010, 0, 0),
	reflect.Float64: New(0x0011, 0, 0),
	reflect.Int:     New(0x0012, 0, 0),
	reflect.Uint:    New(0x0013, 0, 0),
	reflect.Bool:    New(0x0014, 0, 0),
	reflect.String:  New(0x0015, 0, 0),
}

// Builtin returns the reserved identity for a primitive kind.
func Builtin(k reflect.Kind) (ID, bool) {
	id, ok := builtins[k]
	return id, ok
}

// IsBuiltin reports whether id belongs to the reserved builtin range.
func IsBuiltin(id ID) bool {
	return id.Module == 0 && id.Discriminant != 0 && id.Discriminant <= 0x0015
}
