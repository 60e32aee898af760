package bsoncodec

import (
	"encoding/binary"
	"math"
)

// Order is the byte order of wire records and of the document encoding.
var Order = binary.LittleEndian

// Buffer is a growable wire record. Views into it are index based, so growing the
// buffer never invalidates them.
type Buffer struct {
	B []byte
}

// NewBuffer wraps b without copying.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{B: b}
}

// Bytes returns the current contents.
func (b *Buffer) Bytes() []byte { return b.B }

// Len returns the current length.
func (b *Buffer) Len() int { return len(b.B) }

// Reset truncates the buffer and zero-fills it up to size, keeping the allocation.
func (b *Buffer) Reset(size int) {
	if cap(b.B) < size {
		b.B = make([]byte, size, max(size, 2*cap(b.B)))
		return
	}
	b.B = b.B[:size]
	clear(b.B)
}

// Grow appends n zero bytes and returns the offset of the first one.
func (b *Buffer) Grow(n int) int {
	off := len(b.B)
	b.B = append(b.B, make([]byte, n)...)
	return off
}

// View returns a view starting at off.
func (b *Buffer) View(off int) View {
	return View{buf: b, off: off}
}

// View is a (buffer, offset) pair addressing a sub-region of a Buffer.
type View struct {
	buf *Buffer
	off int
}

// View returns a view shifted by off relative to v.
func (v View) View(off int) View { return View{buf: v.buf, off: v.off + off} }

// Offset returns the absolute offset of v inside its buffer.
func (v View) Offset() int { return v.off }

// Size returns the number of bytes between v and the end of the buffer.
func (v View) Size() int { return len(v.buf.B) - v.off }

// Bytes returns n bytes starting at v. The slice is only valid until the buffer grows.
func (v View) Bytes(n int) []byte { return v.buf.B[v.off : v.off+n] }

// --- Typed accessors ---
//
// Accessors read or write one little-endian value at the start of the view. They do not
// check bounds: callers size the buffer from the message layout, and offset pointers are
// validated before their target is read.

// Uint8 reads one byte.
func (v View) Uint8() uint8 { return v.buf.B[v.off] }

// Uint16 reads a little-endian uint16.
func (v View) Uint16() uint16 { return Order.Uint16(v.buf.B[v.off:]) }

// Uint32 reads a little-endian uint32.
func (v View) Uint32() uint32 { return Order.Uint32(v.buf.B[v.off:]) }

// Uint64 reads a little-endian uint64.
func (v View) Uint64() uint64 { return Order.Uint64(v.buf.B[v.off:]) }

// Signed variants reinterpret the same bits.

func (v View) Int8() int8   { return int8(v.Uint8()) }
func (v View) Int16() int16 { return int16(v.Uint16()) }
func (v View) Int32() int32 { return int32(v.Uint32()) }
func (v View) Int64() int64 { return int64(v.Uint64()) }

// Float64 reads an IEEE 754 double.
func (v View) Float64() float64 { return math.Float64frombits(v.Uint64()) }

// Decimal128 copies the 16 raw bytes of a decimal128 value.
func (v View) Decimal128() (d Decimal128) {
	copy(d[:], v.buf.B[v.off:v.off+len(d)])
	return d
}

// PutUint8 writes one byte.
func (v View) PutUint8(x uint8) { v.buf.B[v.off] = x }

// PutUint16 writes a little-endian uint16.
func (v View) PutUint16(x uint16) { Order.PutUint16(v.buf.B[v.off:], x) }

// PutUint32 writes a little-endian uint32.
func (v View) PutUint32(x uint32) { Order.PutUint32(v.buf.B[v.off:], x) }

// PutUint64 writes a little-endian uint64.
func (v View) PutUint64(x uint64) { Order.PutUint64(v.buf.B[v.off:], x) }

// PutFloat64 writes an IEEE 754 double.
func (v View) PutFloat64(x float64) { v.PutUint64(math.Float64bits(x)) }

// PutDecimal128 writes the 16 raw bytes of d.
func (v View) PutDecimal128(d Decimal128) { copy(v.buf.B[v.off:], d[:]) }

// cstring returns the bytes of s up to the first NUL.
func cstring(s []byte) []byte {
	for i, c := range s {
		if c == 0 {
			return s[:i]
		}
	}
	return s
}
