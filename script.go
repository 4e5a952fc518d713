package horntail

// Script is a still-encrypted byte range: its caller is responsible for
// running it through the container's cipher before use (§4.10), so that a
// Script node can be inspected (size, position) without forcing a decrypt
// of payloads the caller may not need.
type Script struct {
	Data []byte
}

// decodeScript reads a Script node: a fixed 0x01 flag byte, a
// variable-length size, then that many encrypted bytes.
func decodeScript(b *ByteStream) (*Script, error) {
	flag, err := b.U8()
	if err != nil {
		return nil, err
	}
	if flag != 0x01 {
		return nil, wrapErr(KindUnexpectedData, "script node missing 0x01 flag", nil)
	}
	size, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	data, err := b.CopyToVec(int(size))
	if err != nil {
		return nil, err
	}
	return &Script{Data: data}, nil
}
