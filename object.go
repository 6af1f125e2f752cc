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
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/errors"
)

// object is the managed header paired with one payload.
//
// refs counts owning handles. gen changes every time the header is
// destroyed, so a weak reference taken at generation g is dead as soon as
// gen != g, even after the header was recycled for a new payload.
type object struct {
	refs  atomic.Int32
	gen   atomic.Uint64
	entry atomic.Pointer[apis.Entry]
	value any
}

// headers recycles destroyed object headers when Config.Recycle is set.
var headers = sync.Pool{New: func() any { return new(object) }}

// newObject wraps payload p of class e with a count of one.
func newObject(e *apis.Entry, p any) *object {
	var o *object
	if Config().Recycle {
		o = headers.Get().(*object)
	} else {
		o = new(object)
	}
	o.value = p
	o.entry.Store(e)
	o.refs.Store(1)
	return o
}

// retain adds one owner.
func (o *object) retain() {
	o.refs.Add(1)
}

// release drops one owner and destroys the object when none remain.
func (o *object) release() {
	n := o.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		err := errors.New(errors.PhaseRelease, errors.KindRefCount).
			Detail("reference count dropped to %d", n).
			Build()
		Logger().Error("object released more often than retained", zap.Error(err))
		panic(err)
	}
	o.destroy()
}

// destroy runs the class destroy operation and retires the header.
func (o *object) destroy() {
	e := o.entry.Load()
	if e != nil && e.Destroy != nil {
		e.Destroy(o.value)
	}
	o.gen.Add(1)
	o.value = nil
	o.entry.Store(nil)
	if Config().Recycle {
		headers.Put(o)
	}
}

// acquire adds one owner if the header is alive and still in generation
// gen. It never resurrects a destroyed object.
func (o *object) acquire(gen uint64) bool {
	for {
		n := o.refs.Load()
		if n <= 0 {
			return false
		}
		if o.refs.CompareAndSwap(n, n+1) {
			break
		}
	}
	if o.gen.Load() != gen {
		// The header was recycled for another payload.
		o.release()
		return false
	}
	return true
}
