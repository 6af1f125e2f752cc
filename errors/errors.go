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


package errors

import (
	"fmt"
	"strings"

	"dirpx.dev/rtt/classid"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister  Phase = "register"  // type registry mutation
	PhaseMake      Phase = "make"      // object construction
	PhaseCopy      Phase = "copy"      // shallow or deep copy
	PhaseCast      Phase = "cast"      // handle conversion
	PhaseRelease   Phase = "release"   // reference release / destroy
	PhaseSerialize Phase = "serialize" // stream put/get
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindRegistryCollision     Kind = "registry_collision"
	KindDuplicateRegistration Kind = "duplicate_registration"
	KindInvalidCast           Kind = "invalid_cast"
	KindAllocation            Kind = "allocation"
	KindNullHandle            Kind = "null_handle"
	KindNotRegistered         Kind = "not_registered"
	KindNotCopyable           Kind = "not_copyable"
	KindNotSerializable       Kind = "not_serializable"
	KindRefCount              Kind = "refcount"
	KindInvalidData           Kind = "invalid_data"
)

// IsFatal reports whether errors of kind k indicate a broken process state
// rather than a recoverable condition.
func (k Kind) IsFatal() bool {
	switch k {
	case KindRegistryCollision, KindDuplicateRegistration, KindAllocation, KindRefCount:
		return true
	}
	return false
}

// Error is the structured error type used throughout rtt
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	GoType string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("rtt[")
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Class != "" || e.GoType != "" {
		b.WriteString(": ")
		if e.Class != "" && e.GoType != "" {
			b.WriteString(e.Class)
			b.WriteString(" (")
			b.WriteString(e.GoType)
			b.WriteByte(')')
		} else if e.Class != "" {
			b.WriteString(e.Class)
		} else {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		}
	}

	if e.Detail != "" {
		if e.Class != "" || e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Class sets the class identity involved
func (b *Builder) Class(id classid.ID) *Builder {
	b.err.Class = id.String()
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotRegistered creates an error for a Go type without a class identity
func NotRegistered(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotRegistered,
		GoType: goType,
		Detail: "type has no class identity; implement ClassID or register it",
	}
}

// NullHandle creates an error for an operation on a null handle
func NullHandle(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullHandle,
		Detail: "handle is null",
	}
}

// NotCopyable creates an error for a class without a copy operation
func NotCopyable(id classid.ID, goType string) *Error {
	return &Error{
		Phase:  PhaseCopy,
		Kind:   KindNotCopyable,
		Class:  id.String(),
		GoType: goType,
		Detail: "class has no copy operation",
	}
}

// NotSerializable creates an error for a class without put/get operations
func NotSerializable(phase Phase, id classid.ID, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotSerializable,
		Class:  id.String(),
		GoType: goType,
		Detail: "class has no serialization operations",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
