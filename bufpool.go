package bsoncodec

import (
	"bytes"
	"sync"

	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// encoderPool reuses encoders, and with them their 64KB document buffers, across Marshal
// calls. This keeps the package-level helpers safe for concurrent use.
var encoderPool = sync.Pool{
	New: func() any {
		e, _ := NewEncoder(BackendNative)
		return e
	},
}

// recordPool reuses decode buffers for Unmarshal.
var recordPool = sync.Pool{
	New: func() any {
		return NewBuffer(make([]byte, 0, 4096))
	},
}

// Marshal encodes the record data of message m into a new document.
func Marshal(s Settings, m *Message, seq int64, data []byte) ([]byte, error) {
	e := encoderPool.Get().(*Encoder)
	defer encoderPool.Put(e)
	out, err := e.Encode(&s, m, seq, data)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(out), nil
}

// Unmarshal decodes doc, which must carry message m in the envelope described by s,
// into a new record.
func Unmarshal(s Settings, m *Message, doc []byte) ([]byte, error) {
	var it Iter
	if err := it.Init(doc); err != nil {
		return nil, err
	}
	buf := recordPool.Get().(*Buffer)
	defer recordPool.Put(buf)

	switch s.Mode {
	case ModeFlat:
		if err := checkTypeKey(&it, s.TypeKey, m.Name); err != nil {
			return nil, err
		}
		it.Reset()
		if err := Decode(&it, m, buf, &s); err != nil {
			return nil, err
		}
	case ModeNested:
		var body Iter
		found := false
		for !found && it.Next() {
			if found = it.Key() == m.Name; found {
				if err := it.Child(&body); err != nil {
					return nil, err
				}
			}
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
		if !found {
			return nil, failf(PhaseDecode, KindMissingMetadata, "Message key %s not found", m.Name)
		}
		if err := Decode(&body, m, buf, nil); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidMode
	}
	return bytes.Clone(buf.Bytes()), nil
}

// checkTypeKey fails unless the document's type key names message want.
func checkTypeKey(it *Iter, key, want string) error {
	for it.Next() {
		if it.Key() != key {
			continue
		}
		if it.Type() != bsontype.String {
			return failf(PhaseDecode, KindMissingMetadata, "Non-string type key %s: %s", key, it.Type())
		}
		if name := it.Value().StringValue(); name != want {
			return failf(PhaseDecode, KindMissingMetadata, "Message '%s' does not match %s", name, want)
		}
		return nil
	}
	if err := it.Err(); err != nil {
		return err
	}
	return failf(PhaseDecode, KindMissingMetadata, "Type key %s not found", key)
}
