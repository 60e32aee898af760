package main

import (
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/oy3o/bsoncodec"
)

// renderDocument appends the document or array behind it to dst as JSON, keeping key
// order. Integers and doubles are numbers, binary is base64 and decimal128 is a string.
func renderDocument(dst []byte, it *bsoncodec.Iter, array bool) ([]byte, error) {
	open, end := byte('{'), byte('}')
	if array {
		open, end = '[', ']'
	}
	dst = append(dst, open)
	first := true
	for it.Next() {
		if !first {
			dst = append(dst, ',')
		}
		first = false
		if !array {
			dst = appendString(dst, it.Key())
			dst = append(dst, ':')
		}
		var err error
		if dst, err = renderValue(dst, it); err != nil {
			return dst, err
		}
	}
	if err := it.Err(); err != nil {
		return dst, err
	}
	return append(dst, end), nil
}

func renderValue(dst []byte, it *bsoncodec.Iter) ([]byte, error) {
	v := it.Value()
	switch it.Type() {
	case bsontype.Int32, bsontype.Int64:
		i, _ := it.Int()
		return strconv.AppendInt(dst, i, 10), nil
	case bsontype.Double:
		f := v.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return appendString(dst, strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return strconv.AppendFloat(dst, f, 'g', -1, 64), nil
	case bsontype.String:
		return appendString(dst, v.StringValue()), nil
	case bsontype.Binary:
		_, b := v.Binary()
		return appendJSON(dst, b)
	case bsontype.Decimal128:
		return appendString(dst, v.Decimal128().String()), nil
	case bsontype.Boolean:
		return strconv.AppendBool(dst, v.Boolean()), nil
	case bsontype.Null:
		return append(dst, "null"...), nil
	case bsontype.EmbeddedDocument, bsontype.Array:
		var child bsoncodec.Iter
		if err := it.Child(&child); err != nil {
			return dst, err
		}
		return renderDocument(dst, &child, it.Type() == bsontype.Array)
	}
	return appendString(dst, v.String()), nil
}

func appendString(dst []byte, s string) []byte {
	dst, _ = appendJSON(dst, s)
	return dst
}

func appendJSON(dst []byte, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}
