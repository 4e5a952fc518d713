package horntail

// Property value kind tags (§4.10).
const (
	propNil     = 0x00
	propInt16A  = 0x02
	propInt16B  = 0x0B
	propInt32A  = 0x03
	propInt32B  = 0x13
	propInt64   = 0x14
	propFloat32 = 0x04
	propFloat64 = 0x05
	propString  = 0x08
	propImage   = 0x09
)

// NamedProperty is a single (name, value) pair inside a Property node.
// Children is only ever populated by the plain-text grammar's nested
// '{ ... }' blocks; the binary encoding has no nesting of its own beyond
// the Image primitive kind.
type NamedProperty struct {
	Name     string
	Value    Primitive
	Children []NamedProperty
}

// decodeEncodedProperties reads a standalone, binary-encoded Property node:
// two leading bytes (unconditionally skipped, unlike the builtin/optional
// wrappers below which repurpose them as a presence flag), then the
// property list body.
func decodeEncodedProperties(b *ByteStream, cipher Cipher, e *Entry) ([]NamedProperty, error) {
	if _, err := b.ReadSlice(2); err != nil {
		return nil, err
	}
	return decodePropertiesBody(b, cipher, e)
}

// readBuiltinProperties optionally reads a Property body embedded in
// another node type (Canvas, Video, RawData): the two leading bytes
// are read as a u16 and only treated as a property body if their top byte
// is 1; otherwise no properties are present and nil is returned with no
// error.
func readBuiltinProperties(b *ByteStream, cipher Cipher, e *Entry) ([]NamedProperty, error) {
	marker, err := b.U16()
	if err != nil {
		return nil, err
	}
	if marker>>8 != 1 {
		return nil, nil
	}
	return decodePropertiesBody(b, cipher, e)
}

// readOptionalProperties is the other embedded-property presence check
// used by Sound nodes: two separate bytes, both must equal 1.
func readOptionalProperties(b *ByteStream, cipher Cipher, e *Entry) ([]NamedProperty, error) {
	a, err := b.U8()
	if err != nil {
		return nil, err
	}
	c, err := b.U8()
	if err != nil {
		return nil, err
	}
	if a != 1 || c != 1 {
		return nil, nil
	}
	return decodePropertiesBody(b, cipher, e)
}

func decodePropertiesBody(b *ByteStream, cipher Cipher, e *Entry) ([]NamedProperty, error) {
	count, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	out := make([]NamedProperty, 0, count)
	for i := int32(0); i < count; i++ {
		name, err := ReadPropertyName(b, cipher, e.parentOffset)
		if err != nil {
			return nil, err
		}
		kind, err := b.U8()
		if err != nil {
			return nil, err
		}
		val, err := decodePropertyValue(b, cipher, e, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedProperty{Name: name, Value: val})
	}
	return out, nil
}

func decodePropertyValue(b *ByteStream, cipher Cipher, e *Entry, kind byte) (Primitive, error) {
	switch kind {
	case propNil:
		return Primitive{Kind: PrimitiveNil}, nil
	case propInt16A, propInt16B:
		v, err := b.I16()
		return Primitive{Kind: PrimitiveInt16, Int: int64(v)}, err
	case propInt32A, propInt32B:
		v, err := b.VarInt32()
		return Primitive{Kind: PrimitiveInt32, Int: int64(v)}, err
	case propInt64:
		v, err := b.VarInt64()
		return Primitive{Kind: PrimitiveInt64, Int: v}, err
	case propFloat32:
		v, err := b.VarFloat32()
		return Primitive{Kind: PrimitiveFloat32, Float: float64(v)}, err
	case propFloat64:
		v, err := b.F64()
		return Primitive{Kind: PrimitiveFloat64, Float: v}, err
	case propString:
		s, err := ReadPropertyName(b, cipher, e.parentOffset)
		return Primitive{Kind: PrimitiveString, Str: s}, err
	case propImage:
		imageSize, err := b.I32()
		if err != nil {
			return Primitive{}, err
		}
		imageStart := b.Pos()
		childKind, tag, bodyOffset, err := dispatchImageTag(b, cipher, imageStart)
		if err != nil {
			return Primitive{}, err
		}
		child := e.descendAt(childKind, tag, bodyOffset, imageStart)
		if _, err := b.Seek(imageStart+int(imageSize), SeekStart); err != nil {
			return Primitive{}, err
		}
		return Primitive{Kind: PrimitiveImage, Image: child}, nil
	default:
		return Primitive{}, wrapErr(KindUnexpectedData, "unexpected property kind tag", nil)
	}
}
