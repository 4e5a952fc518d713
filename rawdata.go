package horntail

// RawData is an opaque binary blob alongside an optional property list
// (§4.10).
type RawData struct {
	Properties []NamedProperty
	Data       []byte
}

// decodeRawData reads a RawData node: an optional builtin property body,
// a variable-length size, then that many raw bytes.
func decodeRawData(b *ByteStream, e *Entry) (*RawData, error) {
	props, err := readBuiltinProperties(b, e.reader.cipher, e)
	if err != nil {
		return nil, err
	}
	size, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	data, err := b.CopyToVec(int(size))
	if err != nil {
		return nil, err
	}
	return &RawData{Properties: props, Data: data}, nil
}
