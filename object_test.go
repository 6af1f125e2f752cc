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
	"testing"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/errors"
)

// withoutRecycling keeps test headers out of the shared pool.
func withoutRecycling(t *testing.T) {
	t.Helper()
	keepState(t)
	cfg := Config()
	cfg.Recycle = false
	SetConfig(cfg)
}

func gaugeEntry() *apis.Entry {
	return &apis.Entry{ID: classid.New(960, 0, 2), Type: reflect.TypeFor[gauge]()}
}

// A weak reference must not mistake a recycled header for its object.
func TestWeak_RecycledHeaderIsDead(t *testing.T) {
	withoutRecycling(t)
	e := gaugeEntry()
	first := &gauge{N: 1}
	o := newObject(e, first)
	w := Weak[gauge]{obj: o, gen: o.gen.Load(), ptr: first}

	o.release()

	// Reuse the same header for a new payload, as the pool would.
	o.value = &gauge{N: 2}
	o.entry.Store(e)
	o.refs.Store(1)

	if w.Exists() {
		t.Fatal("weak reference must be dead after the header was reused")
	}
	if o.refs.Load() != 1 {
		t.Fatalf("Exists changed the reused header count to %d", o.refs.Load())
	}
	w = Weak[gauge]{obj: o, gen: o.gen.Load() - 1, ptr: first}
	if l := w.Lock(); !l.IsNull() {
		t.Fatal("Lock must not adopt a reused header")
	}
	if o.refs.Load() != 1 {
		t.Fatalf("reused header count = %d, want 1", o.refs.Load())
	}
}

func TestRelease_BelowZeroPanics(t *testing.T) {
	o := &object{}
	o.entry.Store(gaugeEntry())

	defer func() {
		err, ok := recover().(*errors.Error)
		if !ok || err.Kind != errors.KindRefCount {
			t.Fatalf("recovered %v, want refcount error", err)
		}
	}()
	o.release()
	t.Fatal("release below zero must panic")
}

func TestDestroy_BumpsGeneration(t *testing.T) {
	withoutRecycling(t)
	dropped := 0
	e := gaugeEntry()
	e.Destroy = func(any) { dropped++ }

	o := newObject(e, &gauge{})
	gen := o.gen.Load()
	o.retain()
	o.release()
	if dropped != 0 || o.gen.Load() != gen {
		t.Fatal("object destroyed while owned")
	}
	o.release()
	if dropped != 1 || o.gen.Load() != gen+1 {
		t.Fatalf("dropped=%d gen=%d, want 1 and %d", dropped, o.gen.Load(), gen+1)
	}
	if o.acquire(gen) || o.acquire(gen+1) {
		t.Fatal("destroyed header must not be acquired")
	}
}
