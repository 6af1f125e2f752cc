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
	stderrors "errors"
	"reflect"
	"sync/atomic"
	"testing"

	"dirpx.dev/rtt"
	"dirpx.dev/rtt/classid"
	rtterrors "dirpx.dev/rtt/errors"
)

func TestMake_CountIsOne(t *testing.T) {
	var d rtt.Shared[Derived]
	if !d.IsNull() || d.RefCount() != 0 || d.Get() != nil {
		t.Fatal("zero handle must be null")
	}
	if err := d.Make(); err != nil {
		t.Fatalf("Make: %v", err)
	}
	defer d.Release()

	if d.IsNull() || d.Get() == nil {
		t.Fatal("Make must yield a non-null handle")
	}
	if got := d.RefCount(); got != 1 {
		t.Fatalf("RefCount = %d, want 1", got)
	}
	if !d.ClassID().IsSame(derivedID) || !d.IsOriginalType() {
		t.Fatalf("ClassID = %v, want %v", d.ClassID(), derivedID)
	}
}

func TestMake_InitAndConstructor(t *testing.T) {
	var d rtt.Shared[Derived]
	if err := d.Make(func(x *Derived) { x.Name = "n" }, func(x *Derived) { x.Extra = 7 }); err != nil {
		t.Fatalf("Make: %v", err)
	}
	defer d.Release()
	if d.Get().Name != "n" || d.Get().Extra != 7 {
		t.Fatalf("init funcs not applied: %+v", *d.Get())
	}

	var o rtt.Shared[Other]
	if err := o.Make(); err != nil {
		t.Fatalf("Make: %v", err)
	}
	defer o.Release()
	if o.Get().Tag != "default" {
		t.Fatalf("constructor not used: Tag = %q", o.Get().Tag)
	}

	var f rtt.Shared[Other]
	if err := f.MakeFrom(Other{Tag: "copy"}); err != nil {
		t.Fatalf("MakeFrom: %v", err)
	}
	defer f.Release()
	if f.Get().Tag != "copy" {
		t.Fatalf("MakeFrom Tag = %q", f.Get().Tag)
	}
}

func TestMake_Errors(t *testing.T) {
	var u rtt.Shared[Unidentified]
	err := u.Make()
	if !stderrors.Is(err, rtterrors.New(rtterrors.PhaseRegister, rtterrors.KindNotRegistered).Build()) {
		t.Fatalf("Make(Unidentified) err = %v, want not_registered", err)
	}
	if !u.IsNull() {
		t.Fatal("failed Make must leave the handle null")
	}

	var a rtt.Shared[rtt.Any]
	if err := a.Make(); err == nil {
		t.Fatal("the Any marker must not be instantiable")
	}
}

func TestSet_CountsAndSelfAssignment(t *testing.T) {
	var d rtt.Shared[Derived]
	if err := d.Make(); err != nil {
		t.Fatalf("Make: %v", err)
	}
	defer d.Release()

	c := d.Clone()
	if d.RefCount() != 2 || !c.Equal(&d) {
		t.Fatalf("Clone: RefCount = %d, want 2", d.RefCount())
	}

	// Assigning from a handle that already shares the object.
	c.Set(&d)
	d.Set(c)
	d.Set(&d)
	if d.RefCount() != 2 {
		t.Fatalf("self-assignment changed RefCount to %d", d.RefCount())
	}

	c.Release()
	if d.RefCount() != 1 || !c.IsNull() {
		t.Fatalf("after Release RefCount = %d, want 1", d.RefCount())
	}
	c.Release()
	if d.RefCount() != 1 {
		t.Fatal("releasing a null handle must be a no-op")
	}
}

func TestSwap(t *testing.T) {
	var a, b rtt.Shared[Other]
	if err := a.MakeFrom(Other{Tag: "a"}); err != nil {
		t.Fatal(err)
	}
	defer a.Release()
	defer b.Release()

	a.Swap(&b)
	if !a.IsNull() || b.Get().Tag != "a" || b.RefCount() != 1 {
		t.Fatal("Swap must move the object without touching counts")
	}
}

// Derived viewed as Base shares the object and its count.
func TestScenario_UpcastSharesObject(t *testing.T) {
	var d rtt.Shared[Derived]
	if err := d.Make(func(x *Derived) { x.Name = "shared" }); err != nil {
		t.Fatal(err)
	}
	defer d.Release()

	var b rtt.Shared[Base]
	defer b.Release()
	if !b.TryCast(&d) {
		t.Fatal("TryCast Derived -> Base must succeed")
	}
	if b.IsNull() || d.RefCount() != 2 || b.RefCount() != 2 {
		t.Fatalf("RefCount = %d, want 2", d.RefCount())
	}
	if b.Get() != &d.Get().Base {
		t.Fatal("Base view must point at the embedded Base of the same payload")
	}
	if b.Get().Name != "shared" {
		t.Fatalf("Base view Name = %q", b.Get().Name)
	}
	if b.IsOriginalType() {
		t.Fatal("a Base handle to a Derived object is not of its original type")
	}
	if !b.IsA(derivedID) || !b.IsA(baseID) {
		t.Fatal("IsA must follow the dynamic class")
	}
	if _, ok := b.Payload().(*Derived); !ok {
		t.Fatalf("Payload type = %T, want *Derived", b.Payload())
	}
}

// An unrelated cast fails and leaves the source untouched.
func TestScenario_UnrelatedCastFails(t *testing.T) {
	var o rtt.Shared[Other]
	if err := o.Make(); err != nil {
		t.Fatal(err)
	}
	defer o.Release()

	var b2 rtt.Shared[Base]
	if b2.TryCast(&o) {
		t.Fatal("TryCast Other -> Base must fail")
	}
	if !b2.IsNull() {
		t.Fatal("failed cast must yield a null handle")
	}
	if o.RefCount() != 1 {
		t.Fatalf("source RefCount = %d, want 1", o.RefCount())
	}
}

func TestTryCast_FailureReleasesPrevious(t *testing.T) {
	var n atomic.Int32
	r := newResource(&n)

	var o rtt.Shared[Other]
	if err := o.Make(); err != nil {
		t.Fatal(err)
	}
	defer o.Release()

	var a rtt.Shared[rtt.Any]
	if !a.TryCast(r) {
		t.Fatal("Any accepts every object")
	}
	r.Release()
	if n.Load() != 0 {
		t.Fatal("Any handle must keep the object alive")
	}

	var b rtt.Shared[Base]
	b.TryCast(&a) // not a Base: b stays null
	a.TryCast(&b) // null source: a becomes null and releases the Resource
	if !a.IsNull() || n.Load() != 1 {
		t.Fatalf("drops = %d, want 1", n.Load())
	}
}

func TestTryCast_Downcast(t *testing.T) {
	var l rtt.Shared[Leaf]
	if err := l.Make(func(x *Leaf) { x.Depth = 2 }); err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	var b rtt.Shared[Base]
	defer b.Release()
	if !b.TryCast(&l) {
		t.Fatal("Leaf -> Base must succeed through two levels")
	}
	if b.Get() != &l.Get().Derived.Base {
		t.Fatal("two-level upcast must reach the innermost Base")
	}

	var d rtt.Shared[Derived]
	defer d.Release()
	if !d.TryCast(&b) {
		t.Fatal("Base -> Derived must succeed when the object is a Leaf")
	}
	if d.Get() != &l.Get().Derived {
		t.Fatal("downcast view must be the Derived part of the Leaf")
	}
	if l.RefCount() != 3 {
		t.Fatalf("RefCount = %d, want 3", l.RefCount())
	}

	var leafAgain rtt.Shared[Leaf]
	defer leafAgain.Release()
	if !leafAgain.TryCast(&d) || leafAgain.Get() != l.Get() {
		t.Fatal("cast back to the dynamic class must recover the payload")
	}
}

// MakeCopy copies the dynamic class even through a Base handle.
func TestScenario_MakeCopyKeepsDynamicType(t *testing.T) {
	var d rtt.Shared[Derived]
	if err := d.Make(func(x *Derived) { x.Extra = 42 }); err != nil {
		t.Fatal(err)
	}
	defer d.Release()

	var b rtt.Shared[Base]
	defer b.Release()
	b.TryCast(&d)

	if err := b.MakeCopy(); err != nil {
		t.Fatalf("MakeCopy: %v", err)
	}
	if b.Equal(&d) {
		t.Fatal("MakeCopy must produce a new object")
	}
	if !b.IsA(derivedID) {
		t.Fatal("copy must still be a Derived")
	}
	cp, ok := b.Payload().(*Derived)
	if !ok || cp.Extra != 42 {
		t.Fatalf("copy payload = %#v", b.Payload())
	}
	if b.Get() != &cp.Base {
		t.Fatal("Base view must point into the copy")
	}
	if d.RefCount() != 1 || b.RefCount() != 1 {
		t.Fatalf("counts after copy: source %d, copy %d", d.RefCount(), b.RefCount())
	}
}

func TestMakeCopyOf(t *testing.T) {
	var l rtt.Shared[Leaf]
	if err := l.Make(); err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	var b rtt.Shared[Base]
	defer b.Release()
	if err := b.MakeCopyOf(&l); err != nil {
		t.Fatalf("MakeCopyOf: %v", err)
	}
	if b.ClassID() != leafID || b.Equal(&l) || l.RefCount() != 1 {
		t.Fatal("MakeCopyOf must copy the Leaf as a Leaf")
	}

	var o rtt.Shared[Other]
	if err := o.Make(); err != nil {
		t.Fatal(err)
	}
	defer o.Release()
	err := b.MakeCopyOf(&o)
	if !stderrors.Is(err, rtterrors.New(rtterrors.PhaseCopy, rtterrors.KindInvalidCast).Build()) {
		t.Fatalf("MakeCopyOf(Other) err = %v", err)
	}

	var null rtt.Shared[Base]
	if err := null.MakeCopy(); !stderrors.Is(err, rtterrors.NullHandle(rtterrors.PhaseCopy)) {
		t.Fatalf("MakeCopy on null err = %v", err)
	}
}

func TestMakeAs(t *testing.T) {
	var b rtt.Shared[Base]
	defer b.Release()
	if err := rtt.MakeAs[Base, Leaf](&b); err != nil {
		t.Fatalf("MakeAs: %v", err)
	}
	if b.ClassID() != leafID || b.RefCount() != 1 || b.Get() == nil {
		t.Fatalf("MakeAs: class %v count %d", b.ClassID(), b.RefCount())
	}

	err := rtt.MakeAs[Base, Other](&b)
	if !stderrors.Is(err, rtterrors.New(rtterrors.PhaseMake, rtterrors.KindInvalidCast).Build()) {
		t.Fatalf("MakeAs unrelated err = %v", err)
	}
	if !b.IsNull() {
		t.Fatal("failed MakeAs must leave the handle null")
	}
}

func TestNewFromIdentity(t *testing.T) {
	a, err := rtt.New(derivedID)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Release()
	if a.RefCount() != 1 || a.Get() != nil {
		t.Fatal("New must return an untyped handle with one owner")
	}

	var b rtt.Shared[Base]
	defer b.Release()
	if !b.TryCast(a) {
		t.Fatal("object built from identity must cast to its base")
	}

	o, err := rtt.New(otherID)
	if err != nil {
		t.Fatal(err)
	}
	defer o.Release()
	if got := o.Payload().(*Other).Tag; got != "default" {
		t.Fatalf("New must use the registered constructor, Tag = %q", got)
	}

	if _, err := rtt.New(classid.New(4000, 0, 9)); !stderrors.Is(err, rtterrors.New(rtterrors.PhaseMake, rtterrors.KindNotRegistered).Build()) {
		t.Fatalf("New(unknown) err = %v", err)
	}
}

// Releasing the last owner destroys the object exactly once.
func TestDrop_ExactlyOnce(t *testing.T) {
	var n atomic.Int32
	h := newResource(&n)
	c1 := h.Clone()
	c2 := c1.Clone()

	var a rtt.Shared[rtt.Any]
	a.TryCast(h)

	for _, r := range []interface{ Release() }{h, c1, c2} {
		r.Release()
		if n.Load() != 0 {
			t.Fatal("object destroyed while still owned")
		}
	}
	a.Release()
	if n.Load() != 1 {
		t.Fatalf("drops = %d, want 1", n.Load())
	}
	a.Release()
	if n.Load() != 1 {
		t.Fatal("releasing a null handle must not destroy again")
	}
}

func TestGenericFingerprint(t *testing.T) {
	var bb rtt.Shared[Box[Base]]
	if err := bb.Make(); err != nil {
		t.Fatal(err)
	}
	defer bb.Release()
	var bo rtt.Shared[Box[Other]]
	if err := bo.Make(); err != nil {
		t.Fatal(err)
	}
	defer bo.Release()

	if bb.ClassID().IsSame(bo.ClassID()) {
		t.Fatal("Box[Base] and Box[Other] must be distinct classes")
	}
	if !bb.ClassID().IsSameFamily(bo.ClassID()) {
		t.Fatal("Box[Base] and Box[Other] must share a family")
	}

	var wrong rtt.Shared[Box[Base]]
	if wrong.TryCast(&bo) {
		t.Fatal("Box[Other] must not cast to Box[Base]")
	}
	if bo.IsA(bb.ClassID()) {
		t.Fatal("IsA must compare fingerprints within a family")
	}
}

func TestClassOf(t *testing.T) {
	f64, _ := classid.Builtin(reflect.Float64)
	cases := []struct {
		name string
		v    any
		want classid.ID
		ok   bool
	}{
		{"class method", Derived{}, derivedID, true},
		{"pointer", &Leaf{}, leafID, true},
		{"explicit identity", Named{}, namedID, true},
		{"builtin", 3.5, f64, true},
		{"unknown", Unidentified{}, classid.ID{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := rtt.ClassOf(tc.v)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ClassOf(%T) = (%v,%v), want (%v,%v)", tc.v, got, ok, tc.want, tc.ok)
			}
		})
	}
	if rtt.IdentityOf[Unidentified]() != classid.Void {
		t.Fatal("IdentityOf a type without identity must be Void")
	}
}

func TestBuiltinPayload(t *testing.T) {
	var a rtt.Shared[float64]
	if err := a.MakeFrom(2.5); err != nil {
		t.Fatalf("MakeFrom: %v", err)
	}
	defer a.Release()

	want, _ := classid.Builtin(reflect.Float64)
	if a.ClassID() != want || *a.Get() != 2.5 {
		t.Fatalf("class %v value %v", a.ClassID(), *a.Get())
	}
}

func TestNamedPayload(t *testing.T) {
	var h rtt.Shared[Named]
	if err := h.MakeFrom(Named{V: 3}); err != nil {
		t.Fatal(err)
	}
	defer h.Release()
	if h.ClassID() != namedID || h.Get().V != 3 {
		t.Fatalf("class %v payload %+v", h.ClassID(), *h.Get())
	}
}
