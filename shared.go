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
	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/errors"
)

// Handle is implemented by Shared and Weak. It lets handles of different
// static types be cast and compared.
type Handle interface {
	// IsNull reports whether the handle refers to no object.
	IsNull() bool
	// ClassID returns the runtime class of the referenced object.
	ClassID() classid.ID
	// RefCount returns the number of owning handles of the object.
	RefCount() int32
	// Payload returns the object's payload as its dynamic type (*D).
	Payload() any

	// header returns the referenced header without checking liveness.
	header() *object
	// lease returns the live referenced header, kept alive until done is
	// called, or nil.
	lease() (o *object, done func())
}

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Shared is an owning handle to an object whose class is T or derives
// from T. The zero value is a null handle.
//
// A Shared value must not be copied; use Set or Clone to share ownership.
// Distinct handles may be used from different goroutines, one handle may
// not be mutated concurrently.
type Shared[T any] struct {
	_   noCopy
	obj *object
	ptr *T
}

// Make replaces the held object with a new default-constructed T.
// init functions run in order on the new payload before it is shared.
func (h *Shared[T]) Make(init ...func(*T)) error {
	e, err := ensure[T]()
	if err != nil {
		return err
	}
	p, ok := e.Make().(*T)
	if !ok || p == nil {
		return errors.New(errors.PhaseMake, errors.KindAllocation).
			Class(e.ID).
			GoType(e.Name).
			Detail("constructor returned %T", p).
			Build()
	}
	for _, fn := range init {
		fn(p)
	}
	h.attach(newObject(e, p), p)
	return nil
}

// MakeFrom replaces the held object with a new object holding a copy of v.
func (h *Shared[T]) MakeFrom(v T) error {
	e, err := ensure[T]()
	if err != nil {
		return err
	}
	p := new(T)
	*p = v
	h.attach(newObject(e, p), p)
	return nil
}

// MakeAs replaces the object held by h with a new default-constructed U,
// viewed as T. U must be T or derive from it.
func MakeAs[T, U any](h *Shared[T]) error {
	eu, err := ensure[U]()
	if err != nil {
		h.Release()
		return err
	}
	if !isAny[T]() && !eu.IsA(IdentityOf[T]()) {
		h.Release()
		return errors.New(errors.PhaseMake, errors.KindInvalidCast).
			Class(eu.ID).
			GoType(eu.Name).
			Detail("not derived from %s", IdentityOf[T]()).
			Build()
	}
	var u Shared[U]
	if err := u.Make(); err != nil {
		h.Release()
		return err
	}
	h.TryCast(&u)
	u.Release()
	return nil
}

// New constructs an object of class id through the registry and returns
// an untyped handle to it.
func New(id classid.ID) (*Shared[Any], error) {
	e, ok := Find(id)
	if !ok {
		return nil, errors.New(errors.PhaseMake, errors.KindNotRegistered).
			Class(id).
			Detail("no class registered under this identity").
			Build()
	}
	if e.Make == nil {
		return nil, errors.New(errors.PhaseMake, errors.KindAllocation).
			Class(id).
			GoType(e.Name).
			Detail("class has no make operation").
			Build()
	}
	return &Shared[Any]{obj: newObject(e, e.Make())}, nil
}

// Set makes h share the object held by src. Assigning a handle that already
// refers to the same object leaves the count unchanged.
func (h *Shared[T]) Set(src *Shared[T]) {
	if src == nil {
		h.Release()
		return
	}
	if src.obj == h.obj {
		return
	}
	if src.obj != nil {
		src.obj.retain()
	}
	h.attach(src.obj, src.ptr)
}

// Clone returns a new handle sharing the object held by h.
func (h *Shared[T]) Clone() *Shared[T] {
	c := &Shared[T]{}
	c.Set(h)
	return c
}

// Swap exchanges the objects held by h and o.
func (h *Shared[T]) Swap(o *Shared[T]) {
	h.obj, o.obj = o.obj, h.obj
	h.ptr, o.ptr = o.ptr, h.ptr
}

// TryCast makes h share the object held by src if that object is a T
// (or T is Any) and reports whether h is non-null afterwards. On failure h
// becomes null; the count of src's object is unchanged.
func (h *Shared[T]) TryCast(src Handle) bool {
	if src == nil {
		h.Release()
		return false
	}
	so, done := src.lease()
	defer done()
	if so == h.obj {
		return h.obj != nil
	}

	h.Release()
	if so == nil {
		return false
	}
	p, ok := viewOf[T](so.entry.Load(), so.value)
	if !ok {
		return false
	}
	so.retain()
	h.obj, h.ptr = so, p
	return true
}

// MakeCopy replaces the held object with a shallow copy of itself. The copy
// has the object's dynamic class, not necessarily T.
func (h *Shared[T]) MakeCopy() error {
	if h.obj == nil {
		return errors.NullHandle(errors.PhaseCopy)
	}
	e := h.obj.entry.Load()
	if e.Copy == nil {
		return errors.NotCopyable(e.ID, e.Name)
	}
	return h.adopt(e, e.Copy(h.obj.value))
}

// MakeCopyOf replaces the held object with a shallow copy of the object
// held by src, keeping its dynamic class. src's object must be a T.
func (h *Shared[T]) MakeCopyOf(src Handle) error {
	if src == nil || src.IsNull() {
		return errors.NullHandle(errors.PhaseCopy)
	}
	if !h.TryCast(src) {
		return errors.New(errors.PhaseCopy, errors.KindInvalidCast).
			Class(src.ClassID()).
			Detail("not a %s", IdentityOf[T]()).
			Build()
	}
	return h.MakeCopy()
}

// DeepCopy replaces the held object with an independent copy produced by
// the class's serialization operations.
func (h *Shared[T]) DeepCopy() error {
	if h.obj == nil {
		return errors.NullHandle(errors.PhaseCopy)
	}
	e := h.obj.entry.Load()
	if e.Put == nil || e.Get == nil || e.Make == nil {
		return errors.NotSerializable(errors.PhaseCopy, e.ID, e.Name)
	}
	data, err := e.Put(h.obj.value)
	if err != nil {
		return errors.New(errors.PhaseCopy, errors.KindInvalidData).Class(e.ID).GoType(e.Name).Cause(err).Build()
	}
	p := e.Make()
	if err := e.Get(data, p); err != nil {
		drop(p)
		return errors.New(errors.PhaseCopy, errors.KindInvalidData).Class(e.ID).GoType(e.Name).Cause(err).Build()
	}
	return h.adopt(e, p)
}

// adopt wraps payload p of class e and attaches h to it.
func (h *Shared[T]) adopt(e *apis.Entry, p any) error {
	view, ok := viewOf[T](e, p)
	if !ok {
		return errors.New(errors.PhaseCopy, errors.KindInvalidCast).
			Class(e.ID).
			GoType(e.Name).
			Detail("copy is not a %s", IdentityOf[T]()).
			Build()
	}
	h.attach(newObject(e, p), view)
	return nil
}

// IsA reports whether the held object's class is id or derives from it.
func (h *Shared[T]) IsA(id classid.ID) bool {
	if h.obj == nil {
		return false
	}
	return h.obj.entry.Load().IsA(id)
}

// IsOriginalType reports whether the held object's class is exactly T.
// A null handle reports true.
func (h *Shared[T]) IsOriginalType() bool {
	if h.obj == nil {
		return true
	}
	return h.obj.entry.Load().ID.IsSame(IdentityOf[T]())
}

// ClassID returns the runtime class of the held object, or the zero
// identity for a null handle.
func (h *Shared[T]) ClassID() classid.ID {
	if h.obj == nil {
		return classid.ID{}
	}
	return h.obj.entry.Load().ID
}

// RefCount returns the number of owning handles of the held object.
func (h *Shared[T]) RefCount() int32 {
	if h.obj == nil {
		return 0
	}
	return h.obj.refs.Load()
}

// Get returns the T view of the held object, or nil. Shared[Any] never has
// a typed view; use Payload.
func (h *Shared[T]) Get() *T {
	return h.ptr
}

// Payload returns the held payload as its dynamic type, or nil.
func (h *Shared[T]) Payload() any {
	if h.obj == nil {
		return nil
	}
	return h.obj.value
}

// Equal reports whether h and o refer to the same object.
func (h *Shared[T]) Equal(o Handle) bool {
	if o == nil {
		return h.obj == nil
	}
	return h.obj == o.header()
}

// IsNull reports whether h refers to no object.
func (h *Shared[T]) IsNull() bool {
	return h.obj == nil
}

// Release gives up h's ownership and makes it null.
func (h *Shared[T]) Release() {
	h.attach(nil, nil)
}

func (h *Shared[T]) header() *object {
	if h == nil {
		return nil
	}
	return h.obj
}

func (h *Shared[T]) lease() (*object, func()) {
	return h.header(), func() {}
}

// attach points h at o (already retained for h) and releases the previous
// object afterwards.
func (h *Shared[T]) attach(o *object, p *T) {
	old := h.obj
	h.obj, h.ptr = o, p
	if old != nil {
		old.release()
	}
}

// isAny reports whether T is the Any marker.
func isAny[T any]() bool {
	_, ok := any((*T)(nil)).(*Any)
	return ok
}

// viewOf returns the T view of payload p of class e. It walks the base
// chain from e, upcasting the payload at each step, until it reaches T.
func viewOf[T any](e *apis.Entry, p any) (*T, bool) {
	if isAny[T]() {
		return nil, true
	}
	if v, ok := p.(*T); ok {
		return v, true
	}
	target := IdentityOf[T]()
	for cur := e; cur != nil; cur = cur.Base {
		if cur.ID.IsSame(target) {
			v, ok := p.(*T)
			return v, ok
		}
		if cur.IsRoot() || cur.Upcast == nil {
			return nil, false
		}
		p = cur.Upcast(p)
	}
	return nil, false
}
