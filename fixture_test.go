package horntail

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// encodeNarrowString is the exact inverse of decodeNarrowString under
// NullCipher: the XOR mask and the (no-op) cipher transform are both
// self-inverse, so running the same per-byte XOR over plaintext bytes
// produces the bytes DecodeString expects to find on the wire.
func encodeNarrowString(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	for i := range raw {
		raw[i] ^= byte((i + 0xAA) & 0xFF)
	}
	require.LessOrEqual(t, len(raw), 127, "fixture helper only covers the single-byte-length case")
	var buf bytes.Buffer
	buf.WriteByte(byte(int8(-int32(len(raw)))))
	buf.Write(raw)
	return buf.Bytes()
}

// encodeVarInt32 is VarInt32's inverse for values that fit the single-byte
// fast path.
func encodeVarInt32(n int32) []byte {
	if n >= -127 && n <= 127 {
		return []byte{byte(int8(n))}
	}
	buf := make([]byte, 5)
	buf[0] = 0x80
	binary.LittleEndian.PutUint32(buf[1:], uint32(n))
	return buf
}

// encodeOffsetField is DecodeOffset's algebraic inverse: given the field's
// own stream position, the enclosing block's parentOffset, and the version
// hash (all of which the decoder derives independently of the field's
// content), it solves for the 32-bit wire value that decodes to wantOffset.
func encodeOffsetField(pos, parentOffset int, versionHash uint32, wantOffset int) uint32 {
	x := (uint32(pos) - uint32(parentOffset)) ^ 0xFFFFFFFF
	x *= versionHash
	x -= 0x581C3F6D
	k := x & 0x1F
	rotated := bits.RotateLeft32(x, int(k))
	return rotated ^ (uint32(wantOffset) - uint32(parentOffset)<<1)
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

// buildVector2DFixture assembles a minimal but fully valid WZ container
// byte-for-byte: header, version field, a one-entry root directory listing
// a single Shape2D#Vector2D image named "point". It exercises the header
// parser, the offset obfuscation round trip, the string codec, the
// directory walker, and the image dispatcher together, the way a real
// fixture file would if one were checked into the repo.
func buildVector2DFixture(t *testing.T, version int, x, y int32) []byte {
	t.Helper()
	const headerSize = 20
	versionHash := VersionHash(version)

	var buf bytes.Buffer
	putU32(&buf, wzSignature)
	dataSizePos := buf.Len()
	putU64(&buf, 0) // patched below
	putU32(&buf, headerSize)
	for buf.Len() < headerSize {
		buf.WriteByte(0)
	}
	putU16(&buf, VersionHashEnc(version))
	dataStart := buf.Len()
	require.Equal(t, headerSize+2, dataStart)

	buf.Write(encodeVarInt32(1)) // one root entry
	buf.WriteByte(dirKindImage)
	buf.Write(encodeNarrowString(t, "point"))
	buf.Write(encodeVarInt32(0)) // size, unused
	buf.Write(encodeVarInt32(0)) // checksum, discarded
	offsetFieldPos := buf.Len()
	buf.Write(make([]byte, 4))
	imageStart := buf.Len()

	buf.WriteByte(imageFlagInline)
	buf.Write(encodeNarrowString(t, tagShape2DVector2D))
	buf.Write(encodeVarInt32(x))
	buf.Write(encodeVarInt32(y))

	out := buf.Bytes()
	enc := encodeOffsetField(offsetFieldPos, dataStart, versionHash, imageStart)
	binary.LittleEndian.PutUint32(out[offsetFieldPos:offsetFieldPos+4], enc)
	binary.LittleEndian.PutUint64(out[dataSizePos:dataSizePos+8], uint64(len(out)-headerSize))

	return out
}

func openFixture(t *testing.T, data []byte, version int) *WZReader {
	t.Helper()
	src := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	r, err := NewWZReader(src, NullCipher{}, version)
	require.NoError(t, err)
	return r
}
