package horntail

// Image-type tag strings (§4.9).
const (
	tagProperty        = "Property"
	tagCanvas          = "Canvas"
	tagCanvasVideo     = "Canvas#Video"
	tagShape2DConvex2D = "Shape2D#Convex2D"
	tagShape2DVector2D = "Shape2D#Vector2D"
	tagUOL             = "UOL"
	tagSoundDX8        = "Sound_DX8"
	tagRawData         = "RawData"
	plainTextFallback  = "Property" // the 8 bytes following a 0x23 flag
	plainTextTag       = "\x00plaintext"
)

// dispatchImageTag reads the tag at an image node's start and resolves it
// to a concrete EntryKind (§4.9). b must be positioned exactly at the tag's
// leading flag byte; parentOffset is the back-reference base for a
// back-ref-flagged tag (the enclosing image's own start). It returns the
// resolved kind, an internal tag marker (only meaningful for the plain-text
// Property fallback), and bodyOffset: the position in b's stream where the
// resolved kind's own body begins, which callers should use as the new
// Entry.offset so a later decode doesn't re-read the tag.
func dispatchImageTag(b *ByteStream, cipher Cipher, parentOffset int) (kind EntryKind, tagMarker string, bodyOffset int, err error) {
	flag, err := b.U8()
	if err != nil {
		return 0, "", 0, err
	}

	switch flag {
	case imageFlagInline:
		tag, err := DecodeString(b, cipher)
		if err != nil {
			return 0, "", 0, err
		}
		kind, marker, err := resolveTag(tag)
		return kind, marker, b.Pos(), err
	case imageFlagBackRef:
		rel, err := b.I32()
		if err != nil {
			return 0, "", 0, err
		}
		target := parentOffset + int(rel)
		var tag string
		err = b.SeekBack(target, func() error {
			var derr error
			tag, derr = DecodeString(b, cipher)
			return derr
		})
		if err != nil {
			return 0, "", 0, err
		}
		kind, marker, err := resolveTag(tag)
		return kind, marker, b.Pos(), err
	case 0x23:
		eight, err := b.FixedUTF8(8)
		if err != nil {
			return 0, "", 0, err
		}
		if eight != plainTextFallback {
			return 0, "", 0, wrapErr(KindUnexpectedData, "0x23 flag not followed by \"Property\"", nil)
		}
		return EntryKindProperty, plainTextTag, b.Pos(), nil
	case 0x01:
		if _, err := b.Seek(-1, SeekCurrent); err != nil {
			return 0, "", 0, err
		}
		return EntryKindScript, "", b.Pos(), nil
	default:
		return 0, "", 0, wrapErr(KindUnexpectedData, "unexpected image tag flag byte", nil)
	}
}

func resolveTag(tag string) (EntryKind, string, error) {
	switch tag {
	case tagProperty:
		return EntryKindProperty, "", nil
	case tagCanvas:
		return EntryKindCanvas, "", nil
	case tagCanvasVideo:
		return EntryKindVideo, "", nil
	case tagShape2DConvex2D:
		return EntryKindConvex2D, "", nil
	case tagShape2DVector2D:
		return EntryKindVector2D, "", nil
	case tagUOL:
		return EntryKindUOL, "", nil
	case tagSoundDX8:
		return EntryKindSound, "", nil
	case tagRawData:
		return EntryKindRawData, "", nil
	default:
		return 0, "", wrapErr(KindUnexpectedData, "unknown image tag: "+tag, nil)
	}
}
