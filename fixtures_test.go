package bsoncodec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Schema and records shared by the tests ---

// innerRec mirrors the Inner message.
type innerRec struct {
	A int16
	S [8]byte
}

// allRec mirrors the fixed part of the All message.
type allRec struct {
	I8       int8
	I16      int16
	I32      int32
	I64      int64
	U8       uint8
	U16      uint16
	U32      uint32
	D        float64
	Dec      [16]byte
	Str      [16]byte
	Bin      [4]byte
	ArrCount uint8
	Arr      [4]int32
	Ptr      [8]byte
	Sptr     [8]byte
	Msg      innerRec
	UType    int8
	UBody    [8]byte
}

type orderRec struct {
	ID  int32
	Qty int32
}

// newTestScheme builds a scheme whose All message covers every field type but uint64,
// which is covered by Wide.
func newTestScheme() *Scheme {
	inner := NewMessage("Inner", 0, Scalar("a", TypeInt16), String("s", 8))
	all := NewMessage("All", 10,
		Scalar("i8", TypeInt8),
		Scalar("i16", TypeInt16),
		Scalar("i32", TypeInt32),
		Scalar("i64", TypeInt64),
		Scalar("u8", TypeUInt8),
		Scalar("u16", TypeUInt16),
		Scalar("u32", TypeUInt32),
		Scalar("d", TypeDouble),
		Scalar("dec", TypeDecimal128),
		String("str", 16),
		Bytes("bin", 4),
		Array("arr", 4, TypeUInt8, Scalar("", TypeInt32)),
		Pointer("ptr", Nested("", inner)),
		StringPointer("sptr"),
		Nested("msg", inner),
		UnionOf("u", TypeInt8, Scalar("i", TypeInt32), String("s", 8)),
	)
	order := NewMessage("Order", 20, Scalar("id", TypeInt32), Scalar("qty", TypeInt32))
	wide := NewMessage("Wide", 30, Scalar("big", TypeUInt64))
	return NewScheme(inner, all, order, wide)
}

// allFields returns a document body for All in encoder output order and types.
func allFields() bson.D {
	return bson.D{
		{"i8", int32(-5)},
		{"i16", int32(-300)},
		{"i32", int32(1 << 20)},
		{"i64", int64(-1 << 40)},
		{"u8", int32(200)},
		{"u16", int32(60000)},
		{"u32", int64(4000000000)},
		{"d", 1.5},
		{"dec", primitive.NewDecimal128(0x3040000000000000, 12345)},
		{"str", "hello"},
		{"bin", primitive.Binary{Data: []byte{1, 2, 3, 4}}},
		{"arr", bson.A{int32(1), int32(-2), int32(3)}},
		{"ptr", bson.A{
			bson.D{{"a", int32(1)}, {"s", "x"}},
			bson.D{{"a", int32(2)}, {"s", "yy"}},
		}},
		{"sptr", "variable"},
		{"msg", bson.D{{"a", int32(7)}, {"s", "inner"}}},
		{"u", bson.D{{"s", "union"}}},
	}
}

// envelope wraps body the way the encoder does for s.
func envelope(s Settings, name string, seq int64, body bson.D) bson.D {
	var doc bson.D
	if s.SeqKey != "" {
		doc = append(doc, bson.E{Key: s.SeqKey, Value: seq})
	}
	if s.Mode == ModeNested {
		return append(doc, bson.E{Key: name, Value: body})
	}
	doc = append(doc, bson.E{Key: s.TypeKey, Value: name})
	return append(doc, body...)
}

func mustMarshal(t testing.TB, v any) []byte {
	t.Helper()
	b, err := bson.Marshal(v)
	require.NoError(t, err)
	return b
}

// decodeBody decodes a bare document into a record of m.
func decodeBody(t testing.TB, m *Message, body bson.D) ([]byte, error) {
	t.Helper()
	it, err := NewIter(mustMarshal(t, body))
	require.NoError(t, err)
	var buf Buffer
	err = Decode(it, m, &buf, nil)
	return buf.Bytes(), err
}

// encodeBody encodes a record of m as a flat document without envelope keys.
func encodeBody(t testing.TB, m *Message, data []byte) ([]byte, error) {
	t.Helper()
	e, err := NewEncoder(BackendNative)
	require.NoError(t, err)
	s := Settings{TypeKey: "_t", Mode: ModeFlat}
	out, err := e.Encode(&s, m, 0, data)
	if err != nil {
		return nil, err
	}
	// Strip the type key by re-marshalling without it.
	var doc bson.D
	require.NoError(t, bson.Unmarshal(out, &doc))
	return mustMarshal(t, doc[1:]), nil
}
