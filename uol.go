package horntail

// UOL is an alias/link node: a path string resolved relative to its
// containing folder by the caller, acting as a symbolic link to another
// node elsewhere in the archive (§4.10, glossary "UOL").
type UOL struct {
	Flag byte
	Path string
}

// decodeUOL reads a UOL node: a single flag byte followed by the link
// target path, itself a back-reference-capable property-style string
// resolved against parentOffset (the UOL image's own start).
func decodeUOL(b *ByteStream, cipher Cipher, parentOffset int) (*UOL, error) {
	flag, err := b.U8()
	if err != nil {
		return nil, err
	}
	path, err := ReadPropertyName(b, cipher, parentOffset)
	if err != nil {
		return nil, err
	}
	return &UOL{Flag: flag, Path: path}, nil
}
