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


package apis

import (
	"reflect"

	"dirpx.dev/rtt/classid"
)

// Strategy is a pluggable resolution step. A Resolver can chain multiple
// strategies in order (e.g., Class -> Registry -> Builtin).
type Strategy interface {
	// TryResolve attempts to resolve the identity of value v according to cfg.
	// It returns (id, true) if handled; otherwise (zero, false) to fall through.
	TryResolve(v any, cfg Config) (id classid.ID, handled bool)

	// TryResolveType attempts to resolve the identity of the reflect.Type t.
	TryResolveType(t reflect.Type, cfg Config) (id classid.ID, handled bool)
}
