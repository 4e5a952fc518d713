package horntail

import (
	"golang.org/x/text/encoding/charmap"
)

// Flag byte pairs distinguishing an inline string from a back-referenced
// one; the pair in force depends on what kind of name is being read (§4.4).
const (
	nameFlagInline   = 0x00
	nameFlagBackRef  = 0x01
	imageFlagInline  = 0x73
	imageFlagBackRef = 0x1B
)

// ReadPropertyName reads a string in the context used for property/alias
// names: a leading flag byte of 0x00 means the string follows inline, 0x01
// means a relative i32 offset (added to parentOffset) to seek back to.
func ReadPropertyName(b *ByteStream, cipher Cipher, parentOffset int) (string, error) {
	return readFlaggedString(b, cipher, parentOffset, nameFlagInline, nameFlagBackRef)
}

// ReadImageTag reads a string in the context used for image-type tags: a
// leading flag byte of 0x73 means inline, 0x1B means back-referenced.
func ReadImageTag(b *ByteStream, cipher Cipher, parentOffset int) (string, error) {
	return readFlaggedString(b, cipher, parentOffset, imageFlagInline, imageFlagBackRef)
}

func readFlaggedString(b *ByteStream, cipher Cipher, parentOffset int, inlineFlag, backRefFlag byte) (string, error) {
	flag, err := b.U8()
	if err != nil {
		return "", err
	}
	switch flag {
	case inlineFlag:
		return DecodeString(b, cipher)
	case backRefFlag:
		rel, err := b.I32()
		if err != nil {
			return "", err
		}
		target := parentOffset + int(rel)
		var s string
		err = b.SeekBack(target, func() error {
			var derr error
			s, derr = DecodeString(b, cipher)
			return derr
		})
		return s, err
	default:
		return "", wrapErr(KindUnexpectedData, "unexpected string flag byte", nil)
	}
}

// DecodeString reads a length-prefixed, encrypted string at the cursor's
// current position (§4.4). A positive length n means 2n bytes of UTF-16LE;
// a negative length means |n| bytes of Windows-1252. Either variant is
// decrypted under a positional XOR mask before the cipher transform, then
// decoded to a Go string.
func DecodeString(b *ByteStream, cipher Cipher) (string, error) {
	magnitude, negative, err := b.VarInt32Signed()
	if err != nil {
		return "", err
	}
	n := int(magnitude)
	if n == 0 {
		return "", nil
	}
	if negative {
		return decodeNarrowString(b, cipher, n)
	}
	return decodeWideString(b, cipher, n)
}

func decodeNarrowString(b *ByteStream, cipher Cipher, n int) (string, error) {
	raw, err := b.CopyToVec(n)
	if err != nil {
		return "", err
	}
	for i := range raw {
		raw[i] ^= byte((i + 0xAA) & 0xFF)
	}
	cipher.XORTransform(raw)
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", wrapErr(KindInvalidCharacter, "windows-1252 decode", err)
	}
	return string(decoded), nil
}

func decodeWideString(b *ByteStream, cipher Cipher, n int) (string, error) {
	raw, err := b.CopyToVec(n * 2)
	if err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		mask := uint16((i + 0xAAAA) & 0xFFFF)
		word := uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
		word ^= mask
		raw[i*2] = byte(word)
		raw[i*2+1] = byte(word >> 8)
	}
	cipher.XORTransform(raw)
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
	}
	return decodeUTF16(units)
}
