package bsoncodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestIterWalk(t *testing.T) {
	doc := mustMarshal(t, bson.D{
		{"a", int32(1)},
		{"b", int64(2)},
		{"c", 3.5},
		{"d", bson.A{int32(1), int32(2), int32(3)}},
	})
	it, err := NewIter(doc)
	require.NoError(t, err)

	n, err := it.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys, "Count does not move the iterator")

	it.Reset()
	require.True(t, it.Next())
	v, ok := it.Int()
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	require.True(t, it.Next())
	v, ok = it.Int()
	assert.True(t, ok)
	assert.Equal(t, int64(2), v)

	require.True(t, it.Next())
	assert.Equal(t, bsontype.Double, it.Type())
	_, ok = it.Int()
	assert.False(t, ok)
	var child Iter
	assert.ErrorIs(t, it.Child(&child), ErrTypeMismatch)

	require.True(t, it.Next())
	require.NoError(t, it.Child(&child))
	n, err = child.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, it.Next())
}

func TestIterMalformed(t *testing.T) {
	doc := mustMarshal(t, bson.D{{"a", "text"}, {"b", int32(1)}})

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Short", doc[:3]},
		{"Truncated", doc[:len(doc)-1]},
		{"NegativeLength", []byte{0xff, 0xff, 0xff, 0xff, 0}},
		{"NoTerminator", append(append([]byte(nil), doc[:len(doc)-1]...), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIter(tt.data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	t.Run("CorruptElement", func(t *testing.T) {
		bad := append([]byte(nil), doc...)
		bad[7] = 0x7f // length of "a" far past the end
		it, err := NewIter(bad)
		require.NoError(t, err)
		for it.Next() {
		}
		assert.ErrorIs(t, it.Err(), ErrMalformed)
		_, err = it.Count()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("TrailingBytesIgnored", func(t *testing.T) {
		it, err := NewIter(append(append([]byte(nil), doc...), 0xaa, 0xbb))
		require.NoError(t, err)
		n, err := it.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
