package bsoncodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPointerVersions(t *testing.T) {
	tail := []byte{1, 0, 2, 0, 3, 0}
	tests := []struct {
		version PtrVersion
		header  []byte
	}{
		{PtrDefault, []byte{8, 0, 0, 0, 3, 0, 0, 2}},
		{PtrLegacyShort, []byte{4, 0, 3, 0}},
		{PtrLegacyLong, []byte{8, 0, 0, 0, 3, 0, 2, 0}},
	}
	body := bson.D{{"l", bson.A{int32(1), int32(2), int32(3)}}}
	for _, tt := range tests {
		m := NewMessage("M", 1, PointerOf("l", tt.version, Scalar("", TypeInt16)))
		assert.Equal(t, tt.version.Size(), m.Size)

		rec, err := decodeBody(t, m, body)
		require.NoError(t, err, "version %d", tt.version)
		assert.Equal(t, append(tt.header, tail...), rec, "version %d", tt.version)

		out, err := encodeBody(t, m, rec)
		require.NoError(t, err, "version %d", tt.version)
		assert.Equal(t, mustMarshal(t, body), out, "version %d", tt.version)
	}
}

func TestPointerOffsetIsRelativeToField(t *testing.T) {
	m := NewMessage("M", 1, Scalar("x", TypeInt8), Pointer("l", Scalar("", TypeInt8)))
	rec, err := decodeBody(t, m, bson.D{{"x", int32(9)}, {"l", bson.A{int32(5)}}})
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 0, 0, 0, 1, 0, 0, 1, 5}, rec)
}

func TestPointerExternalEntity(t *testing.T) {
	t.Run("Encode", func(t *testing.T) {
		m := NewMessage("M", 1, Pointer("list", Scalar("", TypeInt32)))
		rec := []byte{
			8, 0, 0, 0, 2, 0, 0, 0xff, // offset 8, size 2, entity in tail
			4, 0, 0, 0,
			5, 0, 0, 0,
			6, 0, 0, 0,
		}
		out, err := encodeBody(t, m, rec)
		require.NoError(t, err)
		assert.Equal(t, mustMarshal(t, bson.D{{"list", bson.A{int32(5), int32(6)}}}), out)
	})

	t.Run("Decode", func(t *testing.T) {
		m := NewMessage("M", 1, Pointer("blobs", Bytes("", 300)))
		body := bson.D{{"blobs", bson.A{primitive.Binary{Data: bytes.Repeat([]byte{7}, 300)}}}}
		rec, err := decodeBody(t, m, body)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 0, 0xff}, rec[4:8])
		assert.Equal(t, uint32(300), Order.Uint32(rec[8:12]))
		assert.Len(t, rec, 8+4+300)

		out, err := encodeBody(t, m, rec)
		require.NoError(t, err)
		assert.Equal(t, mustMarshal(t, body), out)
	})
}

func TestPointerEncodeBounds(t *testing.T) {
	m := NewMessage("M", 1, Pointer("l", Scalar("", TypeInt32)))

	_, err := encodeBody(t, m, []byte{100, 0, 0, 0, 1, 0, 0, 4})
	assert.ErrorIs(t, err, ErrSchemaMismatch, "offset past the record")

	_, err = encodeBody(t, m, []byte{8, 0, 0, 0, 10, 0, 0, 4})
	assert.ErrorIs(t, err, ErrSchemaMismatch, "data past the record")

	_, err = encodeBody(t, m, []byte{8, 0, 0, 0, 1, 0, 0, 0xff})
	assert.ErrorIs(t, err, ErrSchemaMismatch, "external entity past the record")

	_, err = encodeBody(t, m, []byte{8, 0, 0, 0, 1, 0, 0, 0})
	assert.ErrorIs(t, err, ErrSchemaMismatch, "zero entity")

	_, err = encodeBody(t, m, []byte{8, 0, 0, 0, 1, 0, 0, 1, 7})
	assert.ErrorIs(t, err, ErrSchemaMismatch, "entity smaller than the element")

	out, err := encodeBody(t, m, []byte{8, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err, "empty list ignores the entity")
	assert.Equal(t, mustMarshal(t, bson.D{{"l", bson.A{}}}), out)

	str := NewMessage("M", 1, StringPointer("s"))
	_, err = encodeBody(t, str, []byte{8, 0, 0, 0, 5, 0, 0, 0, 'a'})
	assert.ErrorIs(t, err, ErrSchemaMismatch, "string longer than the record")

	out, err = encodeBody(t, str, []byte{8, 0, 0, 0, 3, 0, 0, 0, 'h', 'i', 0})
	require.NoError(t, err, "string size counts bytes whatever the entity")
	assert.Equal(t, mustMarshal(t, bson.D{{"s", "hi"}}), out)
}

func TestPointerInvalidVersion(t *testing.T) {
	m := NewMessage("M", 1, PointerOf("l", PtrVersion(7), Scalar("", TypeInt8)))
	m.Size, m.Fields[0].Size = 8, 8

	_, err := encodeBody(t, m, make([]byte, 8))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = decodeBody(t, m, bson.D{{"l", bson.A{int32(1)}}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestPointerOverflow(t *testing.T) {
	m := NewMessage("M", 1, PointerOf("l", PtrLegacyShort, Scalar("", TypeInt8)))
	big := make(bson.A, 1<<16)
	for i := range big {
		big[i] = int32(0)
	}
	_, err := decodeBody(t, m, bson.D{{"l", big}})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestStringPointer(t *testing.T) {
	m := NewMessage("M", 1, StringPointer("s"))

	rec, err := decodeBody(t, m, bson.D{{"s", "hey"}})
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 0, 0, 0, 4, 0, 0, 1, 'h', 'e', 'y', 0}, rec)

	out, err := encodeBody(t, m, rec)
	require.NoError(t, err)
	assert.Equal(t, mustMarshal(t, bson.D{{"s", "hey"}}), out)

	empty := mustMarshal(t, bson.D{{"s", ""}})
	rec, err = decodeBody(t, m, bson.D{{"s", ""}})
	require.NoError(t, err)
	out, err = encodeBody(t, m, rec)
	require.NoError(t, err)
	assert.Equal(t, empty, out)

	out, err = encodeBody(t, m, make([]byte, 8))
	require.NoError(t, err)
	assert.Equal(t, empty, out, "a zero pointer is an empty string")
}

func TestNestedPointers(t *testing.T) {
	item := NewMessage("Item", 0, StringPointer("name"), Pointer("tags", Scalar("", TypeInt32)))
	m := NewMessage("M", 1, Scalar("n", TypeInt8), Pointer("items", Nested("", item)))
	body := bson.D{
		{"n", int32(2)},
		{"items", bson.A{
			bson.D{{"name", "a"}, {"tags", bson.A{int32(1), int32(2)}}},
			bson.D{{"name", "bc"}, {"tags", bson.A{}}},
		}},
	}
	rec, err := decodeBody(t, m, body)
	require.NoError(t, err)

	out, err := encodeBody(t, m, rec)
	require.NoError(t, err)
	assert.Equal(t, mustMarshal(t, body), out)
}

func TestNestedUnions(t *testing.T) {
	inner := NewMessage("Inner", 0, UnionOf("v", TypeInt8, StringPointer("s"), Pointer("l", Scalar("", TypeInt16))))
	m := NewMessage("M", 1, Pointer("xs", UnionOf("", TypeInt8, Scalar("i", TypeInt8), Nested("m", inner))))
	body := func(last any) bson.D {
		return bson.D{{"xs", bson.A{
			bson.D{{"i", int32(5)}},
			bson.D{{"m", bson.D{{"v", bson.D{{"s", "hi"}}}}}},
			bson.D{{"m", bson.D{{"v", bson.D{{"l", bson.A{int32(1), last}}}}}}},
		}}}
	}

	rec, err := decodeBody(t, m, body(int32(2)))
	require.NoError(t, err)
	// Elements are 10 bytes: discriminant plus the 9 byte inner union.
	assert.Equal(t, []byte{8, 0, 0, 0, 3, 0, 0, 10}, rec[:8])

	out, err := encodeBody(t, m, rec)
	require.NoError(t, err)
	assert.Equal(t, mustMarshal(t, body(int32(2))), out)

	_, err = decodeBody(t, m, body(int32(70000)))
	assert.ErrorIs(t, err, ErrOutOfRange)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "xs[2].m.v.l[1]", e.Path())

	// Third element starts at 28; its inner discriminant sits right after its own.
	rec[29] = 9
	_, err = encodeBody(t, m, rec)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "xs[2].m.v", e.Path())
}
