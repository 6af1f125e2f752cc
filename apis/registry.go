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

import (
	"reflect"

	"dirpx.dev/rtt/classid"
)

// Registry maps class identities to their type-erased operation sets.
//
// Entries are never removed: once registered, an *Entry lives for the
// process lifetime and may be referenced by object headers directly.
type Registry interface {
	// Register inserts e keyed by e.ID and returns the canonical entry.
	//
	// A bucket collision with a different identity, or the same identity
	// claimed by a different Go type, is fatal. The same identity again is
	// fatal unless allowReregister is set, in which case non-nil operations
	// of e are merged into the existing entry.
	Register(e *Entry, allowReregister bool) (*Entry, error)

	// Find returns the entry registered for id.
	Find(id classid.ID) (*Entry, bool)

	// Lookup returns the entry registered for a Go type.
	Lookup(t reflect.Type) (*Entry, bool)

	// Entries returns a snapshot for diagnostics/docs (order is unspecified).
	Entries() []*Entry

	// Count returns the number of registered entries.
	Count() int
}

// Entry is the operation set of one concrete class.
//
// Operations work on the payload pointer (*T stored as any). Nil operations
// are "not supported" and are filled in by later merges.
type Entry struct {
	// ID is the class identity.
	ID classid.ID
	// Type is the concrete Go type (the payload is a *Type).
	Type reflect.Type
	// Name is a stable "pkg.Type" label for logs.
	Name string
	// Base is the statically declared base class. Nil or self marks a root.
	Base *Entry

	// Upcast converts a payload pointer of this class to a payload pointer
	// of Base (for example, the address of an embedded struct).
	Upcast func(p any) any
	// Destroy finalizes a payload. It runs exactly once per object.
	Destroy func(p any)
	// Make returns a new default-constructed payload.
	Make func() any
	// Copy returns a new payload that is a shallow copy of p.
	Copy func(p any) any
	// Put serializes a payload. Reserved for the serialization layer.
	Put func(p any) ([]byte, error)
	// Get deserializes data into an existing payload. Reserved for the
	// serialization layer.
	Get func(data []byte, p any) error
}

// IsRoot reports whether e has no base class.
func (e *Entry) IsRoot() bool {
	return e.Base == nil || e.Base == e
}

// IsA reports whether the class of e is, or derives from, the class id.
//
// The walk compares families first; once a family matches, the answer is
// decided by the fingerprint so that Box[A] never passes for Box[B].
func (e *Entry) IsA(id classid.ID) bool {
	for cur := e; cur != nil; cur = cur.Base {
		if cur.ID.IsSameFamily(id) {
			return cur.ID.IsSameFingerprint(id.Fingerprint)
		}
		if cur.IsRoot() {
			return false
		}
	}
	return false
}

// Merge copies the non-nil operations and base link of src into e.
func (e *Entry) Merge(src *Entry) {
	if src.Base != nil && src.Base != src {
		e.Base = src.Base
	}
	if src.Upcast != nil {
		e.Upcast = src.Upcast
	}
	if src.Destroy != nil {
		e.Destroy = src.Destroy
	}
	if src.Make != nil {
		e.Make = src.Make
	}
	if src.Copy != nil {
		e.Copy = src.Copy
	}
	if src.Put != nil {
		e.Put = src.Put
	}
	if src.Get != nil {
		e.Get = src.Get
	}
	if e.Name == "" {
		e.Name = src.Name
	}
}
