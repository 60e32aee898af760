package bsoncodec

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// FieldType is the wire type of a field.
type FieldType uint8

const (
	TypeInt8 FieldType = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeDouble
	TypeDecimal128
	TypeBytes
	TypeArray
	TypePointer
	TypeMessage
	TypeUnion

	typeCount // number of field types, keep last
)

var typeNames = [...]string{
	TypeInt8:       "int8",
	TypeInt16:      "int16",
	TypeInt32:      "int32",
	TypeInt64:      "int64",
	TypeUInt8:      "uint8",
	TypeUInt16:     "uint16",
	TypeUInt32:     "uint32",
	TypeUInt64:     "uint64",
	TypeDouble:     "double",
	TypeDecimal128: "decimal128",
	TypeBytes:      "bytes",
	TypeArray:      "array",
	TypePointer:    "pointer",
	TypeMessage:    "message",
	TypeUnion:      "union",
}

func (t FieldType) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// fixedSize returns the wire size of scalar types, 0 for composite ones.
func (t FieldType) fixedSize() int {
	switch t {
	case TypeInt8, TypeUInt8:
		return 1
	case TypeInt16, TypeUInt16:
		return 2
	case TypeInt32, TypeUInt32:
		return 4
	case TypeInt64, TypeUInt64, TypeDouble:
		return 8
	case TypeDecimal128:
		return 16
	}
	return 0
}

// SubType refines Bytes and Pointer fields.
type SubType uint8

const (
	SubNone       SubType = iota
	SubByteString         // NUL-terminated string
)

// Field describes one field of a record. Offset is relative to the enclosing record,
// array element or union payload.
type Field struct {
	Name    string
	Type    FieldType
	SubType SubType
	Offset  int
	Size    int

	// Array: Count is the declared maximum, CountPtr the counter and TypeArray the
	// element. Both offsets are relative to the array field.
	Count     int
	CountPtr  *Field
	TypeArray *Field

	// Pointer: TypePtr is the element, PtrVersion the offset pointer layout.
	TypePtr    *Field
	PtrVersion PtrVersion

	TypeMsg   *Message
	TypeUnion *Union
}

// Union describes a tagged union. TypePtr is the discriminant, relative to the union field.
type Union struct {
	Name    string
	TypePtr *Field
	Fields  []*Field
	Size    int
}

// Message describes a fixed-size record. Fields are kept in declaration order.
type Message struct {
	Name   string
	MsgID  int32
	Size   int
	Fields []*Field
}

// Scheme is a read-only set of messages. It is safe for concurrent use.
type Scheme struct {
	Messages []*Message

	byName *xsync.Map[string, *Message]
	byID   *xsync.Map[int32, *Message]
}

// NewScheme indexes messages by name and by non-zero id.
func NewScheme(messages ...*Message) *Scheme {
	s := &Scheme{
		Messages: messages,
		byName:   xsync.NewMap[string, *Message](),
		byID:     xsync.NewMap[int32, *Message](),
	}
	for _, m := range messages {
		s.byName.LoadOrStore(m.Name, m)
		if m.MsgID != 0 {
			s.byID.LoadOrStore(m.MsgID, m)
		}
	}
	return s
}

// Lookup returns the message with the given name or nil.
func (s *Scheme) Lookup(name string) *Message {
	m, _ := s.byName.Load(name)
	return m
}

// LookupID returns the message with the given id or nil.
func (s *Scheme) LookupID(id int32) *Message {
	m, _ := s.byID.Load(id)
	return m
}

// --- Packed layout constructors ---
//
// The constructors below lay fields out back to back without alignment. NewMessage and the
// composite constructors assign offsets, so a field must not be shared between two parents.

// Scalar creates an integer, double or decimal128 field.
func Scalar(name string, t FieldType) *Field {
	size := t.fixedSize()
	if size == 0 {
		panic(fmt.Sprintf("bsoncodec: %s is not a scalar type", t))
	}
	return &Field{Name: name, Type: t, Size: size}
}

// Bytes creates a fixed-size binary field.
func Bytes(name string, size int) *Field {
	return &Field{Name: name, Type: TypeBytes, Size: size}
}

// String creates a fixed-size, NUL-padded string field.
func String(name string, size int) *Field {
	return &Field{Name: name, Type: TypeBytes, SubType: SubByteString, Size: size}
}

// Array creates a fixed-capacity array: a counter of countType followed by count elements.
func Array(name string, count int, countType FieldType, elem *Field) *Field {
	counter := Scalar(name+"_count", countType)
	elem.Offset = counter.Size
	if elem.Name == "" {
		elem.Name = name
	}
	return &Field{
		Name:      name,
		Type:      TypeArray,
		Size:      counter.Size + count*elem.Size,
		Count:     count,
		CountPtr:  counter,
		TypeArray: elem,
	}
}

// Pointer creates a variable-length list stored behind a default offset pointer.
func Pointer(name string, elem *Field) *Field {
	return PointerOf(name, PtrDefault, elem)
}

// PointerOf creates a variable-length list stored behind an offset pointer of version v.
func PointerOf(name string, v PtrVersion, elem *Field) *Field {
	if elem.Name == "" {
		elem.Name = name
	}
	return &Field{Name: name, Type: TypePointer, Size: v.Size(), TypePtr: elem, PtrVersion: v}
}

// StringPointer creates a variable-length NUL-terminated string field.
func StringPointer(name string) *Field {
	f := Pointer(name, Scalar(name, TypeInt8))
	f.SubType = SubByteString
	return f
}

// Nested creates a field holding an embedded message.
func Nested(name string, m *Message) *Field {
	return &Field{Name: name, Type: TypeMessage, Size: m.Size, TypeMsg: m}
}

// UnionOf creates a union: a discriminant of typeType followed by the largest variant.
func UnionOf(name string, typeType FieldType, variants ...*Field) *Field {
	disc := Scalar(name+"_type", typeType)
	u := &Union{Name: name, TypePtr: disc, Fields: variants}
	payload := 0
	for _, v := range variants {
		v.Offset = disc.Size
		payload = max(payload, v.Size)
	}
	u.Size = disc.Size + payload
	return &Field{Name: name, Type: TypeUnion, Size: u.Size, TypeUnion: u}
}

// NewMessage lays fields out sequentially and returns the message.
func NewMessage(name string, id int32, fields ...*Field) *Message {
	m := &Message{Name: name, MsgID: id, Fields: fields}
	for _, f := range fields {
		f.Offset = m.Size
		m.Size += f.Size
	}
	return m
}
