package bsoncodec

import "math"

// PtrVersion selects the binary layout of an offset pointer.
type PtrVersion uint8

const (
	// PtrDefault: u32 offset, u24 size, u8 entity. Entity 0xff means the real
	// entity is stored as u32 in front of the tail data.
	PtrDefault PtrVersion = iota
	// PtrLegacyShort: u16 offset, u16 size. Entity comes from the element type.
	PtrLegacyShort
	// PtrLegacyLong: u32 offset, u16 size, u16 entity.
	PtrLegacyLong
)

// Size returns the size of the pointer itself, 0 for unknown versions.
func (v PtrVersion) Size() int {
	switch v {
	case PtrDefault, PtrLegacyLong:
		return 8
	case PtrLegacyShort:
		return 4
	}
	return 0
}

const entityExternal = 0xff

// OffsetPtr is a decoded offset pointer. Offset is relative to the pointer field and
// addresses the first element; Size is the element count (bytes including the NUL for
// strings) and Entity the element stride.
type OffsetPtr struct {
	Offset int
	Size   int
	Entity int
}

// readPointer decodes the pointer stored at data.
func readPointer(phase Phase, f *Field, data View) (OffsetPtr, error) {
	switch f.PtrVersion {
	case PtrDefault:
		word := data.View(4).Uint32()
		ptr := OffsetPtr{
			Offset: int(data.Uint32()),
			Size:   int(word & 0xffffff),
			Entity: int(word >> 24),
		}
		if ptr.Entity == entityExternal {
			if ptr.Offset+4 > data.Size() {
				return ptr, failf(phase, KindSchemaMismatch, "Offset pointer out of bounds: +%d < %d", ptr.Offset, data.Size())
			}
			ptr.Entity = int(data.View(ptr.Offset).Uint32())
			ptr.Offset += 4
		}
		return ptr, nil
	case PtrLegacyShort:
		return OffsetPtr{
			Offset: int(data.Uint16()),
			Size:   int(data.View(2).Uint16()),
			Entity: f.TypePtr.Size,
		}, nil
	case PtrLegacyLong:
		return OffsetPtr{
			Offset: int(data.Uint32()),
			Size:   int(data.View(4).Uint16()),
			Entity: int(data.View(6).Uint16()),
		}, nil
	}
	return OffsetPtr{}, failf(phase, KindSchemaMismatch, "Invalid offset ptr version: %d", f.PtrVersion)
}

// allocPointer appends room for size elements of entity bytes at the end of the buffer,
// writes the pointer at data and returns a view of the first element.
func allocPointer(f *Field, data View, size, entity int) (View, error) {
	offset := data.Size()
	switch f.PtrVersion {
	case PtrDefault:
		if size > 0xffffff || uint64(offset) > math.MaxUint32 {
			return View{}, failf(PhaseDecode, KindOutOfRange, "Offset pointer overflow: offset %d, size %d", offset, size)
		}
		data.PutUint32(uint32(offset))
		if entity < entityExternal {
			data.View(4).PutUint32(uint32(size) | uint32(entity)<<24)
			data.buf.Grow(size * entity)
			return data.View(offset), nil
		}
		data.View(4).PutUint32(uint32(size) | entityExternal<<24)
		data.buf.Grow(4 + size*entity)
		data.View(offset).PutUint32(uint32(entity))
		return data.View(offset + 4), nil
	case PtrLegacyShort:
		if size > math.MaxUint16 || offset > math.MaxUint16 {
			return View{}, failf(PhaseDecode, KindOutOfRange, "Offset pointer overflow: offset %d, size %d", offset, size)
		}
		data.PutUint16(uint16(offset))
		data.View(2).PutUint16(uint16(size))
	case PtrLegacyLong:
		if size > math.MaxUint16 || entity > math.MaxUint16 || uint64(offset) > math.MaxUint32 {
			return View{}, failf(PhaseDecode, KindOutOfRange, "Offset pointer overflow: offset %d, size %d, entity %d", offset, size, entity)
		}
		data.PutUint32(uint32(offset))
		data.View(4).PutUint16(uint16(size))
		data.View(6).PutUint16(uint16(entity))
	default:
		return View{}, failf(PhaseDecode, KindSchemaMismatch, "Invalid offset ptr version: %d", f.PtrVersion)
	}
	data.buf.Grow(size * entity)
	return data.View(offset), nil
}

// readSize reads an integer counter or discriminant.
func readSize(phase Phase, f *Field, data View) (int64, error) {
	switch f.Type {
	case TypeInt8:
		return int64(data.Int8()), nil
	case TypeInt16:
		return int64(data.Int16()), nil
	case TypeInt32:
		return int64(data.Int32()), nil
	case TypeInt64:
		return data.Int64(), nil
	case TypeUInt8:
		return int64(data.Uint8()), nil
	case TypeUInt16:
		return int64(data.Uint16()), nil
	case TypeUInt32:
		return int64(data.Uint32()), nil
	case TypeUInt64:
		return int64(data.Uint64()), nil
	}
	return 0, failf(phase, KindSchemaMismatch, "Invalid size field type: %s", f.Type)
}

// writeSize stores v into an integer counter or discriminant.
func writeSize(f *Field, data View, v int64) error {
	var ok bool
	switch f.Type {
	case TypeInt8:
		if ok = fits[int8](v); ok {
			data.PutUint8(uint8(v))
		}
	case TypeInt16:
		if ok = fits[int16](v); ok {
			data.PutUint16(uint16(v))
		}
	case TypeInt32:
		if ok = fits[int32](v); ok {
			data.PutUint32(uint32(v))
		}
	case TypeInt64:
		ok = true
		data.PutUint64(uint64(v))
	case TypeUInt8:
		if ok = fits[uint8](v); ok {
			data.PutUint8(uint8(v))
		}
	case TypeUInt16:
		if ok = fits[uint16](v); ok {
			data.PutUint16(uint16(v))
		}
	case TypeUInt32:
		if ok = fits[uint32](v); ok {
			data.PutUint32(uint32(v))
		}
	case TypeUInt64:
		if ok = v >= 0; ok {
			data.PutUint64(uint64(v))
		}
	default:
		return failf(PhaseDecode, KindSchemaMismatch, "Invalid size field type: %s", f.Type)
	}
	if !ok {
		return failf(PhaseDecode, KindOutOfRange, "Size %d does not fit %s field %s", v, f.Type, f.Name)
	}
	return nil
}
