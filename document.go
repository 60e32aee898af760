package bsoncodec

import (
	"errors"
	"math"
	"slices"
)

// initialDocumentSize is the starting capacity of encode buffers.
const initialDocumentSize = 64 * 1024

var errForeignChild = errors.New("bsoncodec: child builder does not belong to this document")

// docBuffer is the output shared by a root Document and all of its children.
type docBuffer struct {
	b []byte
}

// Document is the native Builder: it writes the encoding directly into a growable
// buffer. Each document keeps the offset of its length prefix (base) and a write cursor
// relative to it (off). Children start at the parent's cursor and the parent advances
// past them when they are finished.
type Document struct {
	out  *docBuffer
	base int
	off  int
}

var _ RootBuilder = (*Document)(nil)

// NewDocument creates an empty document that writes into buf's storage.
func NewDocument(buf []byte) *Document {
	d := &Document{out: &docBuffer{b: buf[:0]}}
	d.Reset()
	return d
}

// Reset implements RootBuilder.
func (d *Document) Reset() {
	d.out.b = d.out.b[:0]
	d.base = 0
	d.off = 4
	d.ensure(0)
}

// ensure makes room for n bytes past the cursor.
func (d *Document) ensure(n int) {
	need := d.base + d.off + n
	if len(d.out.b) < need {
		d.out.b = slices.Grow(d.out.b, need-len(d.out.b))[:need]
	}
}

// tail returns the writable region at the cursor; callers must ensure its size first.
func (d *Document) tail() []byte { return d.out.b[d.base+d.off:] }

func (d *Document) appendKey(tag byte, key string, size int) []byte {
	d.ensure(1 + len(key) + 1 + size)
	b := d.tail()
	b[0] = tag
	copy(b[1:], key)
	b[1+len(key)] = 0
	d.off += 1 + len(key) + 1
	return b[2+len(key):]
}

// AppendInt32 implements Builder.
func (d *Document) AppendInt32(key string, v int32) {
	Order.PutUint32(d.appendKey(tagInt32, key, 4), uint32(v))
	d.off += 4
}

// AppendInt64 implements Builder.
func (d *Document) AppendInt64(key string, v int64) {
	Order.PutUint64(d.appendKey(tagInt64, key, 8), uint64(v))
	d.off += 8
}

// AppendDouble implements Builder.
func (d *Document) AppendDouble(key string, v float64) {
	Order.PutUint64(d.appendKey(tagDouble, key, 8), math.Float64bits(v))
	d.off += 8
}

// AppendDecimal128 implements Builder.
func (d *Document) AppendDecimal128(key string, v Decimal128) {
	copy(d.appendKey(tagDecimal128, key, len(v)), v[:])
	d.off += len(v)
}

// AppendUTF8 implements Builder.
func (d *Document) AppendUTF8(key string, v []byte) {
	b := d.appendKey(tagUTF8, key, 4+len(v)+1)
	Order.PutUint32(b, uint32(len(v)+1))
	copy(b[4:], v)
	b[4+len(v)] = 0
	d.off += 4 + len(v) + 1
}

// AppendBinary implements Builder.
func (d *Document) AppendBinary(key string, v []byte) {
	b := d.appendKey(tagBinary, key, 4+1+len(v))
	Order.PutUint32(b, uint32(len(v)))
	b[4] = binaryGeneric
	copy(b[5:], v)
	d.off += 4 + 1 + len(v)
}

func (d *Document) child(tag byte, key string) *Document {
	d.appendKey(tag, key, 4)
	return &Document{out: d.out, base: d.base + d.off, off: 4}
}

// AppendDocument implements Builder.
func (d *Document) AppendDocument(key string) Builder { return d.child(tagDocument, key) }

// AppendArray implements Builder.
func (d *Document) AppendArray(key string) Builder { return d.child(tagArray, key) }

// FinishDocument implements Builder.
func (d *Document) FinishDocument(child Builder) error {
	c, ok := child.(*Document)
	if !ok || c.out != d.out || c.base != d.base+d.off {
		return errForeignChild
	}
	if err := c.finish(); err != nil {
		return err
	}
	d.off += c.off
	return nil
}

// finish writes the terminating NUL and patches the length prefix.
func (d *Document) finish() error {
	d.ensure(1)
	d.tail()[0] = 0
	d.off++
	if d.off > math.MaxInt32 {
		return errDocumentTooLarge
	}
	Order.PutUint32(d.out.b[d.base:], uint32(d.off))
	return nil
}

var errDocumentTooLarge = errors.New("bsoncodec: document exceeds maximum size")

// Finish implements RootBuilder.
func (d *Document) Finish() ([]byte, error) {
	if err := d.finish(); err != nil {
		return nil, err
	}
	return d.out.b[d.base : d.base+d.off], nil
}
