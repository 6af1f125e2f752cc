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


package rtt_test

import (
	"sync/atomic"

	"dirpx.dev/rtt"
	"dirpx.dev/rtt/classid"
)

// Test classes. All live in module 1 and use discriminants that land in
// distinct buckets of the default registry.
var (
	baseID     = classid.New(100, 0, 1)
	derivedID  = classid.New(200, 0, 1)
	leafID     = classid.New(220, 0, 1)
	otherID    = classid.New(300, 0, 1)
	resourceID = classid.New(400, 0, 1)
	namedID    = classid.New(620, 0, 1)
)

type Base struct {
	Name string
}

func (Base) ClassID() classid.ID { return baseID }

type Derived struct {
	Base
	Extra int
}

func (Derived) ClassID() classid.ID { return derivedID }

type Leaf struct {
	Derived
	Depth int
}

func (Leaf) ClassID() classid.ID { return leafID }

type Other struct {
	Tag string
}

func (Other) ClassID() classid.ID { return otherID }

// Resource counts how many times it was dropped.
type Resource struct {
	drops *atomic.Int32
}

func (Resource) ClassID() classid.ID { return resourceID }

func (r *Resource) Drop() {
	if r.drops != nil {
		r.drops.Add(1)
	}
}

// Box is a generic class; Box[Base] and Box[Other] are distinct classes.
type Box[T any] struct {
	Item T
}

func (Box[T]) ClassID() classid.ID {
	return classid.Template(500, 0, 1, rtt.IdentityOf[T]())
}

// Named has no ClassID method and is registered with an explicit identity.
type Named struct {
	V int
}

// Unidentified has no identity at all.
type Unidentified struct{}

func init() {
	must(rtt.Register[Derived](rtt.Extends(func(d *Derived) *Base { return &d.Base })))
	must(rtt.Register[Leaf](rtt.Extends(func(l *Leaf) *Derived { return &l.Derived })))
	must(rtt.Register[Other](rtt.WithConstructor(func() *Other { return &Other{Tag: "default"} })))
	must(rtt.Register[Named](rtt.WithID[Named](namedID)))
}

func must(_ any, err error) {
	if err != nil {
		panic(err)
	}
}

// newResource returns a handle to a Resource reporting drops to n.
func newResource(n *atomic.Int32) *rtt.Shared[Resource] {
	h := &rtt.Shared[Resource]{}
	if err := h.Make(func(r *Resource) { r.drops = n }); err != nil {
		panic(err)
	}
	return h
}
