package bsoncodec

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"golang.org/x/exp/constraints"
)

// Decode writes the fields of the document behind it into buf as a record of message m.
// buf is resized to m.Size and zero-filled first; variable-length data is appended
// after the fixed part. When s is not nil, its envelope keys are skipped.
//
// Document keys may come in any order; keys unknown to m are ignored.
func Decode(it *Iter, m *Message, buf *Buffer, s *Settings) error {
	buf.Reset(m.Size)
	return decodeMessage(it, m, buf.View(0), s)
}

// lookup returns the index of the field named key, trying the expected one first.
func lookup(m *Message, expected int, key string) int {
	if expected < len(m.Fields) && m.Fields[expected].Name == key {
		return expected
	}
	for i, f := range m.Fields {
		if f.Name == key {
			return i
		}
	}
	return -1
}

func decodeMessage(it *Iter, m *Message, data View, s *Settings) error {
	next := 0
	for it.Next() {
		key := it.Key()
		if s != nil && (key == s.TypeKey || (s.SeqKey != "" && key == s.SeqKey)) {
			continue
		}
		i := lookup(m, next, key)
		if i < 0 {
			continue
		}
		f := m.Fields[i]
		if err := decodeField(it, f, data.View(f.Offset)); err != nil {
			return failField(err, f)
		}
		next = i + 1
	}
	return it.Err()
}

func typeMismatch(what string, t bsontype.Type) error {
	return failf(PhaseDecode, KindTypeMismatch, "Invalid BSON type for %s: %s", what, t)
}

func decodeInt[T constraints.Integer](it *Iter) (T, error) {
	v, ok := it.Int()
	if !ok {
		return 0, typeMismatch("integer", it.Type())
	}
	if !fits[T](v) {
		switch {
		case v < 0 && ^T(0) > 0:
			return 0, failf(PhaseDecode, KindOutOfRange, "Negative value for unsigned field: %d", v)
		case v < 0:
			return 0, failf(PhaseDecode, KindOutOfRange, "Invalid value: %d too small", v)
		default:
			return 0, failf(PhaseDecode, KindOutOfRange, "Invalid value: %d too large", v)
		}
	}
	return T(v), nil
}

func decodeField(it *Iter, f *Field, data View) error {
	t := it.Type()
	switch f.Type {
	case TypeInt8:
		v, err := decodeInt[int8](it)
		if err != nil {
			return err
		}
		data.PutUint8(uint8(v))
	case TypeInt16:
		v, err := decodeInt[int16](it)
		if err != nil {
			return err
		}
		data.PutUint16(uint16(v))
	case TypeInt32:
		v, err := decodeInt[int32](it)
		if err != nil {
			return err
		}
		data.PutUint32(uint32(v))
	case TypeInt64:
		v, err := decodeInt[int64](it)
		if err != nil {
			return err
		}
		data.PutUint64(uint64(v))
	case TypeUInt8:
		v, err := decodeInt[uint8](it)
		if err != nil {
			return err
		}
		data.PutUint8(v)
	case TypeUInt16:
		v, err := decodeInt[uint16](it)
		if err != nil {
			return err
		}
		data.PutUint16(v)
	case TypeUInt32:
		v, err := decodeInt[uint32](it)
		if err != nil {
			return err
		}
		data.PutUint32(v)
	case TypeUInt64:
		v, err := decodeInt[uint64](it)
		if err != nil {
			return err
		}
		data.PutUint64(v)

	case TypeDouble:
		switch t {
		case bsontype.Double:
			data.PutFloat64(it.Value().Double())
		case bsontype.Int32, bsontype.Int64:
			v, _ := it.Int()
			data.PutFloat64(float64(v))
		default:
			return typeMismatch("double", t)
		}

	case TypeDecimal128:
		d, ok := it.Value().Decimal128OK()
		if !ok {
			return typeMismatch("decimal128", t)
		}
		data.PutDecimal128(NewDecimal128(d.GetBytes()))

	case TypeBytes:
		switch t {
		case bsontype.String:
			s := it.Value().StringValue()
			if len(s) > f.Size {
				return failf(PhaseDecode, KindOutOfRange, "String too long: %d > max %d", len(s), f.Size)
			}
			copy(data.Bytes(f.Size), s)
		case bsontype.Binary:
			if f.SubType == SubByteString {
				return typeMismatch("string", t)
			}
			_, b := it.Value().Binary()
			if len(b) > f.Size {
				return failf(PhaseDecode, KindOutOfRange, "Binary data too long: %d > max %d", len(b), f.Size)
			}
			copy(data.Bytes(f.Size), b)
		default:
			return typeMismatch("bytes", t)
		}

	case TypeArray:
		if t != bsontype.Array {
			return typeMismatch("array", t)
		}
		var child Iter
		if err := it.Child(&child); err != nil {
			return err
		}
		count, err := child.Count()
		if err != nil {
			return err
		}
		if count > f.Count {
			return failf(PhaseDecode, KindSchemaMismatch, "Array size too large: %d > max %d", count, f.Count)
		}
		if err := writeSize(f.CountPtr, data.View(f.CountPtr.Offset), int64(count)); err != nil {
			return err
		}
		af := f.TypeArray
		return decodeList(&child, af, af.Size, data.View(af.Offset))

	case TypePointer:
		if f.SubType == SubByteString {
			if t != bsontype.String {
				return typeMismatch("string", t)
			}
			s := it.Value().StringValue()
			view, err := allocPointer(f, data, len(s)+1, 1)
			if err != nil {
				return err
			}
			copy(view.Bytes(len(s)), s)
			return nil
		}
		if t != bsontype.Array {
			return typeMismatch("array", t)
		}
		var child Iter
		if err := it.Child(&child); err != nil {
			return err
		}
		count, err := child.Count()
		if err != nil {
			return err
		}
		af := f.TypePtr
		view, err := allocPointer(f, data, count, af.Size)
		if err != nil {
			return err
		}
		return decodeList(&child, af, af.Size, view)

	case TypeMessage:
		if t != bsontype.EmbeddedDocument {
			return typeMismatch("message", t)
		}
		var child Iter
		if err := it.Child(&child); err != nil {
			return err
		}
		return decodeMessage(&child, f.TypeMsg, data, nil)

	case TypeUnion:
		if t != bsontype.EmbeddedDocument {
			return typeMismatch("union", t)
		}
		var child Iter
		if err := it.Child(&child); err != nil {
			return err
		}
		u := f.TypeUnion
		for child.Next() {
			key := child.Key()
			for i, uf := range u.Fields {
				if uf.Name != key {
					continue
				}
				if err := writeSize(u.TypePtr, data.View(u.TypePtr.Offset), int64(i)); err != nil {
					return err
				}
				if err := decodeField(&child, uf, data.View(uf.Offset)); err != nil {
					return failField(err, uf)
				}
				return nil
			}
		}
		if err := child.Err(); err != nil {
			return err
		}
		return failf(PhaseDecode, KindSchemaMismatch, "No known fields in union %s", u.Name)

	default:
		return failf(PhaseDecode, KindSchemaMismatch, "Unsupported field type: %s", f.Type)
	}
	return nil
}

func decodeList(it *Iter, f *Field, entity int, data View) error {
	i := 0
	for it.Next() {
		if err := decodeField(it, f, data.View(entity*i)); err != nil {
			return failIndex(err, i)
		}
		i++
	}
	return it.Err()
}
