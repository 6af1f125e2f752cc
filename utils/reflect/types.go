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


package reflect

import (
	"errors"
	"path"
	"reflect"
	"strings"
	"sync"

	"dirpx.dev/rtt/apis"
	"dirpx.dev/rtt/config"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectTypeNotNamed indicates that the provided type (after unwrapping containers)
	// does not contain a named type (e.g., anonymous struct, func, interface{}).
	ErrReflectTypeNotNamed = errors.New("reflect: type is not named")
)

// Normalize unwraps containers according to config (MaxUnwrap/MapPreferElem)
// and returns the nearest named inner type, or an error if none is found.
// It is how a value like *Circle or []Circle is traced back to the class
// type Circle.
//
// Unwrapping policy:
//   - ptr/slice/array/chan  -> Elem()
//   - map[K]V: the preferred side (Elem if MapPreferElem, otherwise Key)
//     wins if named, then the other side; else continue with Elem().
//   - default: if t.Name() != "", return t; otherwise ErrReflectTypeNotNamed.
//
// If MaxUnwrap <= 0, DefaultMaxUnwrap is used.
func Normalize(t reflect.Type, cfg apis.Config) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	maxUnwrap := cfg.MaxUnwrap
	if maxUnwrap <= 0 {
		maxUnwrap = config.DefaultMaxUnwrap
	}

	for i := 0; t != nil && i < maxUnwrap; i++ {
		switch t.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Chan:
			t = t.Elem()

		case reflect.Map:
			first, second := t.Elem(), t.Key()
			if !cfg.MapPreferElem {
				first, second = second, first
			}
			if first.Name() != "" {
				return first, nil
			}
			if second.Name() != "" {
				return second, nil
			}
			t = t.Elem()

		default:
			if t.Name() != "" {
				return t, nil
			}
			return nil, ErrReflectTypeNotNamed
		}
	}

	// After reaching max depth, ensure we ended on a named type.
	if t != nil && t.Name() != "" {
		return t, nil
	}
	return nil, ErrReflectTypeNotNamed
}

// names caches Name results.
var names sync.Map // reflect.Type -> string

// Name returns a short, stable label "pkg.Type" for t, keeping generic
// arguments ("pkg.Box[int]") so that instantiations stay distinguishable in
// logs. Builtin types return their plain name; unnamed types their literal
// form.
func Name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if v, ok := names.Load(t); ok {
		return v.(string)
	}
	name := t.Name()
	switch {
	case name == "":
		name = t.String()
	case t.PkgPath() != "":
		name = path.Base(t.PkgPath()) + "." + shortenParams(name)
	}
	names.Store(t, name)
	return name
}

// shortenParams rewrites fully qualified type arguments to their last path
// element: "Box[example.com/x/shapes.Circle]" -> "Box[shapes.Circle]".
func shortenParams(s string) string {
	i := strings.IndexByte(s, '[')
	if i < 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(s[:i])
	start := i
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '[', ']', ',', ' ', '*':
			b.WriteString(trimPath(s[start:j]))
			b.WriteByte(s[j])
			start = j + 1
		}
	}
	b.WriteString(trimPath(s[start:]))
	return b.String()
}

func trimPath(seg string) string {
	if k := strings.LastIndexByte(seg, '/'); k >= 0 {
		return seg[k+1:]
	}
	return seg
}
