package bsoncodec

import "fmt"

// Document type tags used by both builder backends and the decoder.
const (
	tagDouble     byte = 0x01
	tagUTF8       byte = 0x02
	tagDocument   byte = 0x03
	tagArray      byte = 0x04
	tagBinary     byte = 0x05
	tagInt32      byte = 0x10
	tagInt64      byte = 0x12
	tagDecimal128 byte = 0x13

	binaryGeneric byte = 0x00
)

// Decimal128 is an IEEE 754-2008 128-bit decimal in little-endian byte order, the same
// layout in wire records and in documents.
type Decimal128 [16]byte

// Low returns the low 64 bits.
func (d Decimal128) Low() uint64 { return Order.Uint64(d[:8]) }

// High returns the high 64 bits.
func (d Decimal128) High() uint64 { return Order.Uint64(d[8:]) }

// NewDecimal128 assembles a Decimal128 from its halves.
func NewDecimal128(high, low uint64) (d Decimal128) {
	Order.PutUint64(d[:8], low)
	Order.PutUint64(d[8:], high)
	return d
}

// Builder appends typed key/value pairs to a document. Nested documents and arrays are
// returned as child builders writing to the same output; the parent must not be used
// until the child is passed to FinishDocument.
type Builder interface {
	AppendInt32(key string, v int32)
	AppendInt64(key string, v int64)
	AppendDouble(key string, v float64)
	AppendDecimal128(key string, v Decimal128)
	// AppendUTF8 writes a string element; v must not contain the terminating NUL.
	AppendUTF8(key string, v []byte)
	// AppendBinary writes a binary element with the generic subtype.
	AppendBinary(key string, v []byte)

	AppendDocument(key string) Builder
	AppendArray(key string) Builder
	FinishDocument(child Builder) error
}

// RootBuilder is a Builder for a standalone document that can be reused across calls.
type RootBuilder interface {
	Builder
	// Reset starts a new empty document, reusing the output buffer.
	Reset()
	// Finish terminates the document and returns its bytes. The slice is valid until
	// the next Reset.
	Finish() ([]byte, error)
}

// Backend selects a RootBuilder implementation.
type Backend string

const (
	// BackendNative writes the encoding directly into a growable buffer.
	BackendNative Backend = "native"
	// BackendCore delegates to the mongo-driver bsoncore package.
	BackendCore Backend = "core"
)

// ParseBackend converts a configuration value to a Backend. Empty selects BackendNative.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendNative:
		return BackendNative, nil
	case BackendCore:
		return BackendCore, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// NewRootBuilder returns an empty document builder for backend.
func NewRootBuilder(backend Backend) (RootBuilder, error) {
	switch backend {
	case "", BackendNative:
		return NewDocument(make([]byte, 0, initialDocumentSize)), nil
	case BackendCore:
		return NewCoreDocument(make([]byte, 0, initialDocumentSize)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
