package horntail

// Directory entry kind markers (§4.8).
const (
	dirKindUnknown = 1
	dirKindAlias   = 2
	dirKindFolder  = 3
	dirKindImage   = 4
)

// readFolderEntries parses a folder listing at b's current position: a
// variable-length entry count followed by that many entries. parentOffset
// is the offset-obfuscation base inherited from the enclosing folder (it
// does not change across nested folders, only across images — §4.8).
func readFolderEntries(b *ByteStream, r *WZReader, parentOffset int) ([]*Entry, error) {
	count, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, count)
	for i := int32(0); i < count; i++ {
		entry, err := readDirEntry(b, r, parentOffset)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func readDirEntry(b *ByteStream, r *WZReader, parentOffset int) (*Entry, error) {
	kindByte, err := b.U8()
	if err != nil {
		return nil, err
	}

	var rawKind byte
	var name string

	switch kindByte {
	case dirKindUnknown:
		if _, err := b.ReadSlice(10); err != nil {
			return nil, err
		}
		return nil, nil
	case dirKindAlias:
		abs, err := b.I32()
		if err != nil {
			return nil, err
		}
		err = b.SeekBack(int(abs), func() error {
			var derr error
			rawKind, derr = b.U8()
			if derr != nil {
				return derr
			}
			name, derr = DecodeString(b, r.cipher)
			return derr
		})
		if err != nil {
			return nil, err
		}
	case dirKindFolder, dirKindImage:
		rawKind = kindByte
		name, err = DecodeString(b, r.cipher)
		if err != nil {
			return nil, err
		}
	default:
		return nil, wrapErr(KindUnexpectedData, "unexpected directory entry kind", nil)
	}

	if _, err := b.VarInt32(); err != nil { // size, unused by the walker itself
		return nil, err
	}
	if _, err := b.VarInt32(); err != nil { // checksum, discarded
		return nil, err
	}
	dataOffset, err := DecodeOffset(b, parentOffset, r.versionHash)
	if err != nil {
		return nil, err
	}

	switch rawKind {
	case dirKindFolder:
		return &Entry{reader: r, kind: EntryKindFolder, name: name, offset: dataOffset, parentOffset: parentOffset}, nil
	case dirKindImage:
		var kind EntryKind
		var tag string
		var bodyOffset int
		err := b.SeekBack(dataOffset, func() error {
			var derr error
			kind, tag, bodyOffset, derr = dispatchImageTag(b, r.cipher, dataOffset)
			return derr
		})
		if err != nil {
			return nil, err
		}
		return &Entry{reader: r, kind: kind, name: name, offset: bodyOffset, parentOffset: dataOffset, tag: tag}, nil
	default:
		return nil, wrapErr(KindUnexpectedData, "unresolved alias target kind", nil)
	}
}
