package bsoncodec

// Encoder converts wire records into documents. It reuses its output buffer, so it
// must not be used concurrently; create one Encoder per goroutine.
type Encoder struct {
	doc RootBuilder
	rec Buffer
}

// NewEncoder returns an Encoder writing through the given backend.
func NewEncoder(backend Backend) (*Encoder, error) {
	doc, err := NewRootBuilder(backend)
	if err != nil {
		return nil, err
	}
	return &Encoder{doc: doc}, nil
}

// Encode writes one standalone document for the record data of message m. The result
// aliases the encoder's buffer and is valid until the next call.
func (e *Encoder) Encode(s *Settings, m *Message, seq int64, data []byte) ([]byte, error) {
	if len(data) < m.Size {
		return nil, failf(PhaseEncode, KindSchemaMismatch, "Record for %s too short: %d < %d", m.Name, len(data), m.Size)
	}
	e.rec.B = data
	defer func() { e.rec.B = nil }()
	view := e.rec.View(0)

	e.doc.Reset()
	if s.SeqKey != "" {
		e.doc.AppendInt64(s.SeqKey, seq)
	}
	switch s.Mode {
	case ModeFlat:
		e.doc.AppendUTF8(s.TypeKey, []byte(m.Name))
		if err := encodeMessage(e.doc, m, view); err != nil {
			return nil, err
		}
	case ModeNested:
		child := e.doc.AppendDocument(m.Name)
		if err := encodeMessage(child, m, view); err != nil {
			return nil, err
		}
		if err := e.doc.FinishDocument(child); err != nil {
			return nil, failf(PhaseEncode, KindMalformed, "Failed to finish nested document: %v", err)
		}
	default:
		return nil, failf(PhaseEncode, KindSchemaMismatch, "Unknown compose mode: %s", s.Mode)
	}
	out, err := e.doc.Finish()
	if err != nil {
		return nil, failf(PhaseEncode, KindMalformed, "Failed to finish document: %v", err)
	}
	return out, nil
}

func encodeMessage(b Builder, m *Message, data View) error {
	for _, f := range m.Fields {
		if err := encodeField(b, f, f.Name, data.View(f.Offset)); err != nil {
			return failField(err, f)
		}
	}
	return nil
}

func encodeField(b Builder, f *Field, key string, data View) error {
	switch f.Type {
	case TypeInt8:
		b.AppendInt32(key, int32(data.Int8()))
	case TypeInt16:
		b.AppendInt32(key, int32(data.Int16()))
	case TypeInt32:
		b.AppendInt32(key, data.Int32())
	case TypeInt64:
		b.AppendInt64(key, data.Int64())
	case TypeUInt8:
		b.AppendInt32(key, int32(data.Uint8()))
	case TypeUInt16:
		b.AppendInt32(key, int32(data.Uint16()))
	case TypeUInt32:
		b.AppendInt64(key, int64(data.Uint32()))
	case TypeUInt64:
		return failf(PhaseEncode, KindSchemaMismatch, "uint64 fields are not supported")
	case TypeDouble:
		b.AppendDouble(key, data.Float64())
	case TypeDecimal128:
		b.AppendDecimal128(key, data.Decimal128())

	case TypeBytes:
		if f.SubType == SubByteString {
			b.AppendUTF8(key, cstring(data.Bytes(f.Size)))
		} else {
			b.AppendBinary(key, data.Bytes(f.Size))
		}

	case TypeArray:
		size, err := readSize(PhaseEncode, f.CountPtr, data.View(f.CountPtr.Offset))
		if err != nil {
			return err
		}
		if size < 0 {
			return failf(PhaseEncode, KindSchemaMismatch, "Negative count: %d", size)
		}
		if size > int64(f.Count) {
			return failf(PhaseEncode, KindSchemaMismatch, "Array size too large: %d > max %d", size, f.Count)
		}
		af := f.TypeArray
		return encodeList(b, af, key, int(size), af.Size, data.View(af.Offset))

	case TypePointer:
		ptr, err := readPointer(PhaseEncode, f, data)
		if err != nil {
			return err
		}
		if data.Size() < ptr.Offset {
			return failf(PhaseEncode, KindSchemaMismatch, "Offset pointer out of bounds: +%d < %d", ptr.Offset, data.Size())
		}
		// String pointers count bytes, the entity is not used.
		if f.SubType == SubByteString {
			if data.Size()-ptr.Offset < ptr.Size {
				return failf(PhaseEncode, KindSchemaMismatch, "Offset pointer data out of bounds: +%d + %d > %d", ptr.Offset, ptr.Size, data.Size())
			}
			if ptr.Size == 0 {
				b.AppendUTF8(key, nil)
			} else {
				b.AppendUTF8(key, data.View(ptr.Offset).Bytes(ptr.Size-1))
			}
			return nil
		}
		if ptr.Size > 0 && ptr.Entity < f.TypePtr.Size {
			return failf(PhaseEncode, KindSchemaMismatch, "Offset pointer entity too small: %d < %d", ptr.Entity, f.TypePtr.Size)
		}
		if data.Size()-ptr.Offset < ptr.Size*ptr.Entity {
			return failf(PhaseEncode, KindSchemaMismatch, "Offset pointer data out of bounds: +%d + %d * %d > %d", ptr.Offset, ptr.Size, ptr.Entity, data.Size())
		}
		return encodeList(b, f.TypePtr, key, ptr.Size, ptr.Entity, data.View(ptr.Offset))

	case TypeMessage:
		child := b.AppendDocument(key)
		if err := encodeMessage(child, f.TypeMsg, data); err != nil {
			return err
		}
		return finishChild(b, child)

	case TypeUnion:
		u := f.TypeUnion
		typ, err := readSize(PhaseEncode, u.TypePtr, data.View(u.TypePtr.Offset))
		if err != nil {
			return err
		}
		if typ < 0 || typ >= int64(len(u.Fields)) {
			return failf(PhaseEncode, KindSchemaMismatch, "Union type out of bounds: %d > max %d", typ, len(u.Fields)-1)
		}
		uf := u.Fields[typ]
		child := b.AppendDocument(key)
		if err := encodeField(child, uf, uf.Name, data.View(uf.Offset)); err != nil {
			return failField(err, uf)
		}
		return finishChild(b, child)

	default:
		return failf(PhaseEncode, KindSchemaMismatch, "Unsupported field type: %s", f.Type)
	}
	return nil
}

func encodeList(b Builder, f *Field, key string, size, entity int, data View) error {
	child := b.AppendArray(key)
	for i := 0; i < size; i++ {
		if err := encodeField(child, f, indexKey(i), data.View(entity*i)); err != nil {
			return failIndex(err, i)
		}
	}
	return finishChild(b, child)
}

func finishChild(b, child Builder) error {
	if err := b.FinishDocument(child); err != nil {
		return failf(PhaseEncode, KindMalformed, "Failed to finish document: %v", err)
	}
	return nil
}
