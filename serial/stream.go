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


package serial

import (
	"io"

	"github.com/fxamacker/cbor/v2"

	"dirpx.dev/rtt"
	"dirpx.dev/rtt/classid"
	"dirpx.dev/rtt/errors"
)

// record is one stored object. A zero class marks a null handle.
type record struct {
	_           struct{} `cbor:",toarray"`
	Discr       uint16
	Version     uint8
	Module      uint8
	Fingerprint uint32
	Payload     cbor.RawMessage
}

func (r *record) id() classid.ID {
	return classid.ID{
		Discriminant: r.Discr,
		Version:      r.Version,
		Module:       r.Module,
		Fingerprint:  r.Fingerprint,
	}
}

// Stream is an in-memory sequence of object records.
// Writes append; reads consume from the front.
type Stream struct {
	buf []byte
	off int
}

// NewStream returns a stream that reads data.
func NewStream(data []byte) *Stream {
	return &Stream{buf: data}
}

// Put appends the object referenced by h. A null handle is stored as a
// null record.
func (s *Stream) Put(h rtt.Handle) error {
	var rec record
	if h != nil && !h.IsNull() {
		id := h.ClassID()
		e, ok := rtt.Find(id)
		if !ok || e.Put == nil {
			name := ""
			if ok {
				name = e.Name
			}
			return errors.NotSerializable(errors.PhaseSerialize, id, name)
		}
		data, err := e.Put(h.Payload())
		if err != nil {
			return errors.New(errors.PhaseSerialize, errors.KindInvalidData).
				Class(id).
				GoType(e.Name).
				Cause(err).
				Build()
		}
		rec = record{
			Discr:       id.Discriminant,
			Version:     id.Version,
			Module:      id.Module,
			Fingerprint: id.Fingerprint,
			Payload:     data,
		}
	}

	b, err := encMode.Marshal(&rec)
	if err != nil {
		return errors.Wrap(errors.PhaseSerialize, errors.KindInvalidData, err, "encode record")
	}
	s.buf = append(s.buf, b...)
	return nil
}

// Get reads the next record and rebuilds its object as the recorded class.
// It returns io.EOF when the stream is exhausted.
func (s *Stream) Get() (*rtt.Shared[rtt.Any], error) {
	if s.off >= len(s.buf) {
		return nil, io.EOF
	}
	var rec record
	rest, err := cbor.UnmarshalFirst(s.buf[s.off:], &rec)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidData, err, "decode record")
	}
	s.off = len(s.buf) - len(rest)

	id := rec.id()
	if id.IsZero() {
		return &rtt.Shared[rtt.Any]{}, nil
	}
	e, ok := rtt.Find(id)
	if !ok || e.Get == nil {
		name := ""
		if ok {
			name = e.Name
		}
		return nil, errors.NotSerializable(errors.PhaseSerialize, id, name)
	}
	h, err := rtt.New(id)
	if err != nil {
		return nil, err
	}
	if err := e.Get(rec.Payload, h.Payload()); err != nil {
		h.Release()
		return nil, errors.New(errors.PhaseSerialize, errors.KindInvalidData).
			Class(id).
			GoType(e.Name).
			Cause(err).
			Build()
	}
	return h, nil
}

// Bytes returns the unread part of the stream.
func (s *Stream) Bytes() []byte {
	return s.buf[s.off:]
}

// Rewind makes the whole stream readable again.
func (s *Stream) Rewind() {
	s.off = 0
}

// Reset empties the stream.
func (s *Stream) Reset() {
	s.buf = s.buf[:0]
	s.off = 0
}

// Decode reads the next object and casts it to T. A stored object that is
// not a T is released and reported as an invalid cast.
func Decode[T any](s *Stream) (*rtt.Shared[T], error) {
	a, err := s.Get()
	if err != nil {
		return nil, err
	}
	defer a.Release()

	h := &rtt.Shared[T]{}
	if !a.IsNull() && !h.TryCast(a) {
		return nil, errors.New(errors.PhaseSerialize, errors.KindInvalidCast).
			Class(a.ClassID()).
			Detail("stored object is not a %s", rtt.IdentityOf[T]()).
			Build()
	}
	return h, nil
}
