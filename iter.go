package bsoncodec

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Iter walks the elements of one document or array. The zero value is an empty
// iterator; use Init or NewIter to bind it to bytes. Iter does not copy the input.
type Iter struct {
	elems []byte // element list between the length prefix and the terminator
	rest  []byte
	key   string
	val   bsoncore.Value
	err   error
}

// NewIter binds a new iterator to doc.
func NewIter(doc []byte) (*Iter, error) {
	it := &Iter{}
	if err := it.Init(doc); err != nil {
		return nil, err
	}
	return it, nil
}

// Init binds the iterator to doc, checking only the framing. Trailing bytes after the
// declared length are ignored.
func (it *Iter) Init(doc []byte) error {
	*it = Iter{}
	if len(doc) < 5 {
		return failf(PhaseDecode, KindMalformed, "Document too short: %d bytes", len(doc))
	}
	n := int(int32(Order.Uint32(doc)))
	if n < 5 || n > len(doc) {
		return failf(PhaseDecode, KindMalformed, "Invalid document length %d, have %d bytes", n, len(doc))
	}
	if doc[n-1] != 0 {
		return failf(PhaseDecode, KindMalformed, "Document is not NUL terminated")
	}
	it.elems = doc[4 : n-1]
	it.rest = it.elems
	return nil
}

// Reset rewinds the iterator to before the first element.
func (it *Iter) Reset() {
	it.rest = it.elems
	it.key = ""
	it.val = bsoncore.Value{}
	it.err = nil
}

// Next advances to the next element. It returns false at the end of the document or
// on malformed input; check Err to tell them apart.
func (it *Iter) Next() bool {
	if it.err != nil || len(it.rest) == 0 {
		return false
	}
	elem, rest, ok := bsoncore.ReadElement(it.rest)
	if !ok {
		it.err = failf(PhaseDecode, KindMalformed, "Truncated element after key %q", it.key)
		return false
	}
	key, err := elem.KeyErr()
	if err != nil {
		it.err = failf(PhaseDecode, KindMalformed, "Invalid element key: %v", err)
		return false
	}
	val, err := elem.ValueErr()
	if err != nil {
		it.err = failf(PhaseDecode, KindMalformed, "Invalid value for key %q: %v", key, err)
		return false
	}
	it.key, it.val, it.rest = key, val, rest
	return true
}

// Count returns the number of remaining elements without moving the iterator.
func (it *Iter) Count() (int, error) {
	c := *it
	n := 0
	for c.Next() {
		n++
	}
	return n, c.err
}

// Err returns the framing error that stopped iteration, if any.
func (it *Iter) Err() error { return it.err }

// Key returns the key of the current element.
func (it *Iter) Key() string { return it.key }

// Type returns the type of the current element.
func (it *Iter) Type() bsontype.Type { return it.val.Type }

// Value returns the current element value.
func (it *Iter) Value() bsoncore.Value { return it.val }

// Int returns the current value if it is a 32 or 64-bit integer.
func (it *Iter) Int() (int64, bool) {
	switch it.val.Type {
	case bsontype.Int32:
		v, ok := it.val.Int32OK()
		return int64(v), ok
	case bsontype.Int64:
		return it.val.Int64OK()
	}
	return 0, false
}

// Child binds c to the current element's embedded document or array.
func (it *Iter) Child(c *Iter) error {
	switch it.val.Type {
	case bsontype.EmbeddedDocument, bsontype.Array:
		return c.Init(it.val.Data)
	}
	return failf(PhaseDecode, KindTypeMismatch, "Value of %q is not a document: %s", it.key, it.val.Type)
}
