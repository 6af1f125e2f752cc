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

import "dirpx.dev/rtt/classid"

// Class is implemented by types that carry their own identity.
//
// The method must have a value receiver and must not depend on the
// receiver's state: it is called on the zero value to identify the type.
//
//	type Shape struct{ Name string }
//
//	func (Shape) ClassID() classid.ID { return classid.New(100, 0, 1) }
//
// A type that embeds another class type must declare its own ClassID,
// otherwise it inherits the embedded one and registration reports a collision.
type Class interface {
	ClassID() classid.ID
}
