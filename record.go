package bsoncodec

import (
	"encoding/binary"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// sizeCache avoids the reflection cost of binary.Size on every call.
var sizeCache = xsync.NewMap[reflect.Type, int]()

// Record packs a Go struct into the fixed part of a wire record: fields back to back,
// little-endian, no padding. This matches the layout built by NewMessage when the struct
// declares the same fields in the same order.
//
// Constraint: Payload MUST consist of fixed-size fields only. Offset pointers are plain
// integer fields here; their tail data is appended by the caller.
type Record[Payload any] struct {
	Payload Payload
}

// Size returns the packed size of Payload, or -1 if it has variable-size fields.
func (r *Record[Payload]) Size() int { return RecordSize[Payload]() }

// MarshalBinary allocates a record and packs the payload into it.
func (r *Record[Payload]) MarshalBinary() ([]byte, error) {
	size := r.Size()
	if size < 0 {
		return nil, failf(PhaseEncode, KindSchemaMismatch, "%T is not a fixed-size record", r.Payload)
	}
	buf := make([]byte, size)
	if _, err := r.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// MarshalTo packs the payload into p, which must hold at least Size bytes.
func (r *Record[Payload]) MarshalTo(p []byte) (int, error) {
	n, err := binary.Encode(p, Order, &r.Payload)
	if err != nil {
		return n, ErrTruncatedData // binary.Encode only fails when p is too small
	}
	return n, nil
}

// UnmarshalBinary unpacks the fixed part of data. Bytes past Size are the record tail
// and are ignored.
func (r *Record[Payload]) UnmarshalBinary(data []byte) error {
	if _, err := binary.Decode(data, Order, &r.Payload); err != nil {
		return ErrTruncatedData
	}
	return nil
}

// RecordSize returns the packed size of P, computed once per type.
func RecordSize[P any]() int {
	size, _ := sizeCache.LoadOrCompute(reflect.TypeFor[P](), func() (int, bool) {
		var p P
		return binary.Size(&p), false
	})
	return size
}

// MarshalRecord packs p into a new wire record.
func MarshalRecord[P any](p P) ([]byte, error) {
	r := Record[P]{Payload: p}
	return r.MarshalBinary()
}

// UnmarshalRecord unpacks the fixed part of data into p.
func UnmarshalRecord[P any](data []byte, p *P) error {
	r := Record[P]{}
	if err := r.UnmarshalBinary(data); err != nil {
		return err
	}
	*p = r.Payload
	return nil
}
