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


// Package errors provides structured error types for rtt.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the class identity and Go type involved
// plus an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRegister, errors.KindRegistryCollision).
//		Class(id).
//		GoType("shapes.Circle").
//		Detail("bucket %d already holds %s", bucket, other).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotRegistered(errors.PhaseMake, "shapes.Circle")
//
// Kinds split into two groups. Fatal kinds (registry collision, duplicate
// registration, allocation, refcount) describe a broken static configuration
// and are routed to the registry's fatal handler. The remaining kinds are
// ordinary returned errors. A failed cast is never an error value at all:
// it is reported by the null state of the resulting handle.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
