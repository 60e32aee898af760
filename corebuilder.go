package bsoncodec

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// CoreDocument is the library-backed Builder: every append is delegated to bsoncore.
// Children share the parent's output slice and remember the index of their length
// prefix, which bsoncore patches when the child is finished.
type CoreDocument struct {
	out   *docBuffer
	idx   int32
	array bool
}

var _ RootBuilder = (*CoreDocument)(nil)

// NewCoreDocument creates an empty document that writes into buf's storage.
func NewCoreDocument(buf []byte) *CoreDocument {
	d := &CoreDocument{out: &docBuffer{b: buf[:0]}}
	d.Reset()
	return d
}

// Reset implements RootBuilder.
func (d *CoreDocument) Reset() {
	d.idx, d.out.b = bsoncore.AppendDocumentStart(d.out.b[:0])
}

// AppendInt32 implements Builder.
func (d *CoreDocument) AppendInt32(key string, v int32) {
	d.out.b = bsoncore.AppendInt32Element(d.out.b, key, v)
}

// AppendInt64 implements Builder.
func (d *CoreDocument) AppendInt64(key string, v int64) {
	d.out.b = bsoncore.AppendInt64Element(d.out.b, key, v)
}

// AppendDouble implements Builder.
func (d *CoreDocument) AppendDouble(key string, v float64) {
	d.out.b = bsoncore.AppendDoubleElement(d.out.b, key, v)
}

// AppendDecimal128 implements Builder.
func (d *CoreDocument) AppendDecimal128(key string, v Decimal128) {
	d.out.b = bsoncore.AppendDecimal128Element(d.out.b, key, primitive.NewDecimal128(v.High(), v.Low()))
}

// AppendUTF8 implements Builder.
func (d *CoreDocument) AppendUTF8(key string, v []byte) {
	d.out.b = bsoncore.AppendStringElement(d.out.b, key, string(v))
}

// AppendBinary implements Builder.
func (d *CoreDocument) AppendBinary(key string, v []byte) {
	d.out.b = bsoncore.AppendBinaryElement(d.out.b, key, binaryGeneric, v)
}

// AppendDocument implements Builder.
func (d *CoreDocument) AppendDocument(key string) Builder {
	c := &CoreDocument{out: d.out}
	c.idx, d.out.b = bsoncore.AppendDocumentElementStart(d.out.b, key)
	return c
}

// AppendArray implements Builder.
func (d *CoreDocument) AppendArray(key string) Builder {
	c := &CoreDocument{out: d.out, array: true}
	c.idx, d.out.b = bsoncore.AppendArrayElementStart(d.out.b, key)
	return c
}

// FinishDocument implements Builder.
func (d *CoreDocument) FinishDocument(child Builder) error {
	c, ok := child.(*CoreDocument)
	if !ok || c.out != d.out {
		return errForeignChild
	}
	var err error
	if c.array {
		d.out.b, err = bsoncore.AppendArrayEnd(d.out.b, c.idx)
	} else {
		d.out.b, err = bsoncore.AppendDocumentEnd(d.out.b, c.idx)
	}
	return err
}

// Finish implements RootBuilder.
func (d *CoreDocument) Finish() ([]byte, error) {
	var err error
	if d.out.b, err = bsoncore.AppendDocumentEnd(d.out.b, d.idx); err != nil {
		return nil, err
	}
	return d.out.b, nil
}
