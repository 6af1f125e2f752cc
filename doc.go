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


// Package rtt provides reference-counted object ownership with its own
// class identities, for sharing long-lived polymorphic objects across a
// codebase.
//
// # Classes
//
// A class is a concrete Go type with a numeric identity (see package
// classid). The usual way to give a type an identity is to implement
// apis.Class with a value receiver:
//
//	type Shape struct{ Name string }
//
//	func (Shape) ClassID() classid.ID { return classid.New(100, 0, 1) }
//
// Inheritance is expressed with struct embedding plus an explicit base
// declaration, which also tells rtt how to reach the embedded part:
//
//	type Circle struct {
//		Shape
//		R float64
//	}
//
//	func (Circle) ClassID() classid.ID { return classid.New(200, 0, 1) }
//
//	func init() {
//		rtt.Register[Circle](rtt.Extends(func(c *Circle) *Shape { return &c.Shape }))
//	}
//
// Types that cannot declare ClassID are registered with WithID. Predeclared
// types (int, string...) resolve to reserved builtin identities.
//
// Generic classes fold the identities of their type parameters into a
// fingerprint, so that Box[A] and Box[B] are different classes of one
// family:
//
//	func (Box[T]) ClassID() classid.ID {
//		return classid.Template(500, 0, 1, rtt.IdentityOf[T]())
//	}
//
// # Registry
//
// Every class used by a handle has an entry in the global registry
// (apis.Registry) holding its base link and its type-erased operations:
// make, copy, destroy, upcast and the serialization slots filled by
// package serial. Classes not registered explicitly are registered on
// first use. Two identities sharing a registry bucket, two types claiming
// one identity, or one type registered explicitly twice are configuration
// defects: the registry's fatal handler logs them and panics.
//
// # Handles
//
// Shared[T] owns one reference to an object whose class is T or derives
// from T. Make, MakeFrom and MakeAs create objects with a count of one;
// Set and Clone share them; TryCast converts between handle types using
// the registry's is-a walk and yields a null handle when the object is not
// a T. MakeCopy copies the object as its dynamic class, not as T. The
// object is destroyed (Dropper.Drop runs) when the last owner releases it.
//
// Weak[T] refers to an object without owning it. Exists and Lock check a
// header generation, so a weak reference is never fooled by a recycled
// header. Cycles of Shared handles are never collected; break them with
// Weak.
//
// # Global state
//
// Configuration, registry, resolver and builder are published together as
// one immutable snapshot. Reads are lock-free; writers (SetConfig,
// SetBuilder, SetRegistry, SetResolver, SetAll) take a build mutex, rebuild
// the layers that are not pinned, and publish the result. Rebuilt
// registries keep the very same entries, so live objects stay valid.
package rtt
