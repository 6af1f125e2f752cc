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
	"reflect"
	"sync"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/errors"
	uref "dirpx.dev/rtt/utils/reflect"
)

// Any is the universal marker class. A Shared[Any] or Weak[Any] accepts
// every object on cast and never exposes a typed view.
type Any struct{}

// ClassID implements apis.Class.
func (Any) ClassID() classid.ID { return classid.Any }

// Dropper is implemented by payloads that release resources when their
// object is destroyed. Drop runs exactly once, when the last owning handle
// releases the object.
type Dropper interface {
	Drop()
}

// ClassOption configures the registration of class D.
type ClassOption[D any] func(*classDecl[D])

type classDecl[D any] struct {
	id     classid.ID
	hasID  bool
	base   func() (*apis.Entry, error)
	upcast func(any) any
	ctor   func() *D
	noCopy bool
}

// Extends declares B as the base class of D. up returns the B part of a D,
// usually the address of an embedded field:
//
//	rtt.Register[Circle](rtt.Extends(func(c *Circle) *Shape { return &c.Shape }))
//
// B is registered on demand if it is not yet known.
func Extends[D, B any](up func(*D) *B) ClassOption[D] {
	return func(s *classDecl[D]) {
		s.base = ensure[B]
		s.upcast = func(p any) any { return up(p.(*D)) }
	}
}

// WithConstructor sets the default constructor used by Make and by
// construction from an identity.
func WithConstructor[D any](ctor func() *D) ClassOption[D] {
	return func(s *classDecl[D]) { s.ctor = ctor }
}

// NoCopy registers D without a shallow copy operation.
func NoCopy[D any]() ClassOption[D] {
	return func(s *classDecl[D]) { s.noCopy = true }
}

// WithID registers D under id instead of the identity resolved for it.
// This is how types that cannot declare ClassID take part.
func WithID[D any](id classid.ID) ClassOption[D] {
	return func(s *classDecl[D]) {
		s.id = id
		s.hasID = true
	}
}

// declared records the types registered explicitly through Register.
var declared sync.Map // reflect.Type -> struct{}

// Register adds class D to the global registry and returns its entry.
// Registering the same type explicitly twice is a fatal duplicate; an
// entry created earlier on demand (by Make or Extends) is completed instead.
//
// Classes are normally registered from init functions.
func Register[D any](opts ...ClassOption[D]) (*apis.Entry, error) {
	decl := &classDecl[D]{}
	for _, opt := range opts {
		opt(decl)
	}

	t := reflect.TypeFor[D]()
	e, err := newEntry[D](decl)
	if err != nil {
		return nil, err
	}

	_, dup := declared.LoadOrStore(t, struct{}{})
	return Registry().Register(e, !dup)
}

// ensure returns the entry of T, registering a default one on first use.
func ensure[T any]() (*apis.Entry, error) {
	t := reflect.TypeFor[T]()
	reg := Registry()
	if e, ok := reg.Lookup(t); ok && e.Type == t {
		return e, nil
	}
	e, err := newEntry[T](&classDecl[T]{})
	if err != nil {
		return nil, err
	}
	return reg.Register(e, true)
}

// newEntry builds the operation set of D from decl.
func newEntry[D any](decl *classDecl[D]) (*apis.Entry, error) {
	t := reflect.TypeFor[D]()
	name := uref.Name(t)

	switch t.Kind() {
	case reflect.Ptr, reflect.Interface:
		return nil, errors.New(errors.PhaseRegister, errors.KindNotRegistered).
			GoType(name).
			Detail("class types must be concrete values, not %s", t.Kind()).
			Build()
	}

	id := decl.id
	if !decl.hasID {
		var ok bool
		if id, ok = declaredIdentity(t); !ok {
			return nil, errors.NotRegistered(errors.PhaseRegister, name)
		}
	}
	if id.IsSame(classid.Any) {
		return nil, errors.New(errors.PhaseRegister, errors.KindNotRegistered).
			Class(id).
			GoType(name).
			Detail("the Any marker cannot be instantiated").
			Build()
	}

	e := &apis.Entry{
		ID:      id,
		Type:    t,
		Name:    name,
		Destroy: drop,
		Make:    func() any { return new(D) },
	}
	if decl.ctor != nil {
		ctor := decl.ctor
		e.Make = func() any { return ctor() }
	}
	if !decl.noCopy {
		e.Copy = func(p any) any {
			c := *p.(*D)
			return &c
		}
	}
	if decl.base != nil {
		base, err := decl.base()
		if err != nil {
			return nil, err
		}
		e.Base = base
		e.Upcast = decl.upcast
	}
	return e, nil
}

var classType = reflect.TypeFor[apis.Class]()

// declaredIdentity returns the identity t carries itself: its ClassID, or
// the builtin identity of a predeclared type. Identities of types nested
// in t (elements, keys, pointees) never count, so []T and T stay distinct.
func declaredIdentity(t reflect.Type) (classid.ID, bool) {
	if t.Implements(classType) {
		return reflect.Zero(t).Interface().(apis.Class).ClassID(), true
	}
	if t.Name() != "" && t.PkgPath() == "" && Config().IncludeBuiltins {
		return classid.Builtin(t.Kind())
	}
	return classid.ID{}, false
}

// drop is the destroy operation shared by all classes.
func drop(p any) {
	if d, ok := p.(Dropper); ok {
		d.Drop()
	}
}

// EntryOf returns the registry entry of T, registering T on first use.
func EntryOf[T any]() (*apis.Entry, error) {
	return ensure[T]()
}
