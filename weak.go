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
	"dirpx.dev/rtt/classid"
)

// Weak is a non-owning reference to an object whose class is T or derives
// from T. It never keeps the object alive. The zero value is null.
//
// Liveness is tracked by the header generation recorded when the reference
// was taken, so a Weak never mistakes a recycled header for its object.
type Weak[T any] struct {
	obj *object
	gen uint64
	ptr *T
}

// WeakOf returns a weak reference to the object held by h.
func WeakOf[T any](h *Shared[T]) Weak[T] {
	var w Weak[T]
	w.Set(h)
	return w
}

// Set makes w refer to the object held by h.
func (w *Weak[T]) Set(h *Shared[T]) {
	if h == nil || h.obj == nil {
		w.Reset()
		return
	}
	w.obj, w.gen, w.ptr = h.obj, h.obj.gen.Load(), h.ptr
}

// TryCast makes w refer to the object of src if that object is alive and
// is a T (or T is Any), and reports whether it succeeded. On failure w
// becomes null.
func (w *Weak[T]) TryCast(src Handle) bool {
	w.Reset()
	if src == nil {
		return false
	}
	so, done := src.lease()
	defer done()
	if so == nil {
		return false
	}
	p, ok := viewOf[T](so.entry.Load(), so.value)
	if !ok {
		return false
	}
	w.obj, w.gen, w.ptr = so, so.gen.Load(), p
	return true
}

// Exists reports whether the object is still alive and still a T. A dead
// reference makes w null.
func (w *Weak[T]) Exists() bool {
	if w.obj == nil {
		return false
	}
	// The class is checked under a lease so a recycled header cannot
	// swap its entry in between.
	if o, done := w.lease(); o != nil {
		e := o.entry.Load()
		ok := e != nil && (isAny[T]() || e.IsA(IdentityOf[T]()))
		done()
		if ok {
			return true
		}
	}
	w.Reset()
	return false
}

// Lock returns an owning handle to the object, or a null handle if the
// object is gone.
func (w *Weak[T]) Lock() *Shared[T] {
	h := &Shared[T]{}
	if w.obj == nil {
		return h
	}
	if !w.obj.acquire(w.gen) {
		w.Reset()
		return h
	}
	h.obj, h.ptr = w.obj, w.ptr
	return h
}

// Get returns the T view recorded when the reference was taken. It does
// not check liveness; call Exists or use Lock first.
func (w *Weak[T]) Get() *T {
	return w.ptr
}

// Reset makes w null.
func (w *Weak[T]) Reset() {
	w.obj, w.gen, w.ptr = nil, 0, nil
}

// IsNull reports whether w refers to no object. A non-null Weak may still
// refer to a dead object.
func (w *Weak[T]) IsNull() bool {
	return w.obj == nil
}

// ClassID returns the runtime class of the object, or the zero identity if
// it is gone.
func (w *Weak[T]) ClassID() classid.ID {
	o, done := w.lease()
	defer done()
	if o == nil {
		return classid.ID{}
	}
	return o.entry.Load().ID
}

// RefCount returns the number of owning handles, or 0 if the object is gone.
func (w *Weak[T]) RefCount() int32 {
	if w.obj == nil || w.obj.gen.Load() != w.gen {
		return 0
	}
	n := w.obj.refs.Load()
	if n < 0 || w.obj.gen.Load() != w.gen {
		return 0
	}
	return n
}

// Payload returns the payload as its dynamic type, or nil if the object is
// gone.
func (w *Weak[T]) Payload() any {
	o, done := w.lease()
	defer done()
	if o == nil {
		return nil
	}
	return o.value
}

func (w *Weak[T]) header() *object {
	if w == nil {
		return nil
	}
	return w.obj
}

func (w *Weak[T]) lease() (*object, func()) {
	if w == nil || w.obj == nil || !w.obj.acquire(w.gen) {
		return nil, func() {}
	}
	o := w.obj
	return o, o.release
}
