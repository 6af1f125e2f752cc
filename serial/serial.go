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


// Package serial stores rtt objects as CBOR.
//
// Enable fills a class's put/get slots, which makes Shared.DeepCopy work
// for it. A Stream holds a sequence of {class, payload} records and
// rebuilds objects as their recorded class, whatever handle type they were
// written from.
package serial

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"dirpx.dev/rtt"
	"dirpx.dev/rtt/apis"
)

// encMode is canonical so equal payloads always encode to equal bytes.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("serial: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Enable installs CBOR put/get operations for class T, registering T on
// first use. Exported fields of T (including promoted fields of embedded
// base classes) are stored.
func Enable[T any]() error {
	e, err := rtt.EntryOf[T]()
	if err != nil {
		return err
	}
	_, err = rtt.Registry().Register(&apis.Entry{
		ID:   e.ID,
		Type: e.Type,
		Name: e.Name,
		Put:  put[T],
		Get:  get[T],
	}, true)
	if err != nil {
		return err
	}
	rtt.Logger().Debug("serialization enabled",
		zap.Stringer("class", e.ID),
		zap.String("type", e.Name),
	)
	return nil
}

func put[T any](p any) ([]byte, error) {
	return encMode.Marshal(p.(*T))
}

func get[T any](data []byte, p any) error {
	return cbor.Unmarshal(data, p.(*T))
}
