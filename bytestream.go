package horntail

import (
	"encoding/binary"
	"io"
	"math"
)

// Whence mirrors io.Seeker's three origins, named locally so callers of
// ByteStream.Seek don't need to import io for the common case.
type Whence int

const (
	SeekStart   Whence = Whence(io.SeekStart)
	SeekCurrent Whence = Whence(io.SeekCurrent)
	SeekEnd     Whence = Whence(io.SeekEnd)
)

// ByteStream is a cursor over an in-memory byte region: a mapped archive
// file, or a decrypted window pulled out of one. Every typed decoder in this
// package reads through one of these rather than an io.Reader, because
// almost every record needs to seek backward (alias resolution, back-
// referenced strings, random-access image descent) as often as it reads
// forward.
type ByteStream struct {
	data []byte
	pos  int
}

// NewByteStream wraps data for cursor-based reading starting at offset 0.
func NewByteStream(data []byte) *ByteStream {
	return &ByteStream{data: data}
}

// Pos returns the current cursor position.
func (b *ByteStream) Pos() int { return b.pos }

// Len returns the total length of the underlying region.
func (b *ByteStream) Len() int { return len(b.data) }

// Remaining returns the number of unread bytes from the current position.
func (b *ByteStream) Remaining() int { return len(b.data) - b.pos }

// Bytes returns the entire backing slice. Callers must not mutate it.
func (b *ByteStream) Bytes() []byte { return b.data }

// Seek repositions the cursor. Seeking past the end of the region is
// tolerated; reads from the new position will fail with ErrIO.
func (b *ByteStream) Seek(offset int, whence Whence) (int, error) {
	var base int
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = b.pos
	case SeekEnd:
		base = len(b.data)
	default:
		return b.pos, wrapErr(KindInvalidArgument, "invalid whence", nil)
	}
	np := base + offset
	if np < 0 {
		return b.pos, wrapErr(KindInvalidArgument, "negative seek position", nil)
	}
	b.pos = np
	return b.pos, nil
}

// SeekBack saves the current position, seeks to pos, runs fn, then restores
// the saved position regardless of fn's outcome. This is the pervasive
// primitive behind back-referenced strings and alias resolution (§4.4, §4.8
// of the design notes): both read a record at another offset without
// disturbing the caller's place in the stream.
func (b *ByteStream) SeekBack(pos int, fn func() error) error {
	saved := b.pos
	b.pos = pos
	err := fn()
	b.pos = saved
	return err
}

func (b *ByteStream) need(n int) error {
	if n < 0 || b.pos+n > len(b.data) {
		return wrapErr(KindIO, "short read", io.ErrUnexpectedEOF)
	}
	return nil
}

// ReadSlice returns the next n bytes without copying them. The returned
// slice aliases the backing array; callers that need to retain it past
// further stream use should copy it themselves.
func (b *ByteStream) ReadSlice(n int) ([]byte, error) {
	if err := b.need(n); err != nil {
		return nil, err
	}
	s := b.data[b.pos : b.pos+n]
	b.pos += n
	return s, nil
}

// CopyToSlice fills dst with the next len(dst) bytes.
func (b *ByteStream) CopyToSlice(dst []byte) error {
	s, err := b.ReadSlice(len(dst))
	if err != nil {
		return err
	}
	copy(dst, s)
	return nil
}

// CopyToVec reads the next n bytes into a freshly allocated slice.
func (b *ByteStream) CopyToVec(n int) ([]byte, error) {
	s, err := b.ReadSlice(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s)
	return out, nil
}

// U8 reads an unsigned byte.
func (b *ByteStream) U8() (uint8, error) {
	s, err := b.ReadSlice(1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// I8 reads a signed byte.
func (b *ByteStream) I8() (int8, error) {
	v, err := b.U8()
	return int8(v), err
}

// U16 reads a little-endian uint16.
func (b *ByteStream) U16() (uint16, error) {
	s, err := b.ReadSlice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

// I16 reads a little-endian int16.
func (b *ByteStream) I16() (int16, error) {
	v, err := b.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (b *ByteStream) U32() (uint32, error) {
	s, err := b.ReadSlice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

// I32 reads a little-endian int32.
func (b *ByteStream) I32() (int32, error) {
	v, err := b.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (b *ByteStream) U64() (uint64, error) {
	s, err := b.ReadSlice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

// I64 reads a little-endian int64.
func (b *ByteStream) I64() (int64, error) {
	v, err := b.U64()
	return int64(v), err
}

// F32 reads an IEEE-754 single-precision float from its little-endian bit
// pattern.
func (b *ByteStream) F32() (float32, error) {
	v, err := b.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64 reads an IEEE-754 double-precision float from its little-endian bit
// pattern.
func (b *ByteStream) F64() (float64, error) {
	v, err := b.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// FixedUTF8 reads n bytes and returns them as a UTF-8 string verbatim (the
// caller is responsible for any further decoding).
func (b *ByteStream) FixedUTF8(n int) (string, error) {
	s, err := b.ReadSlice(n)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// FixedUTF16LE reads n uint16 code units (2n bytes) and decodes them as
// UTF-16LE, rejecting unpaired surrogates.
func (b *ByteStream) FixedUTF16LE(n int) (string, error) {
	s, err := b.ReadSlice(n * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = binary.LittleEndian.Uint16(s[i*2 : i*2+2])
	}
	return decodeUTF16(units)
}

// VarInt32 implements the variable-length signed 32-bit integer codec
// (§4.1): read a signed byte n; if n == -128, the value is the next 4
// little-endian bytes, otherwise it's n sign-extended.
func (b *ByteStream) VarInt32() (int32, error) {
	n, err := b.I8()
	if err != nil {
		return 0, err
	}
	if n == -128 {
		return b.I32()
	}
	return int32(n), nil
}

// VarInt64 is the 64-bit-widening analog of VarInt32.
func (b *ByteStream) VarInt64() (int64, error) {
	n, err := b.I8()
	if err != nil {
		return 0, err
	}
	if n == -128 {
		return b.I64()
	}
	return int64(n), nil
}

// VarFloat32 reads a float the same way VarInt32 reads an integer: n == -128
// widens to the next 4 bytes read as an IEEE-754 float; otherwise n itself
// is the float value.
func (b *ByteStream) VarFloat32() (float32, error) {
	n, err := b.I8()
	if err != nil {
		return 0, err
	}
	if n == -128 {
		return b.F32()
	}
	return float32(n), nil
}

// VarInt32Signed implements the "absolute" signed variant used to
// distinguish string-length encodings (§4.4): positive lengths use 127 as
// the escape-to-32-bit marker, and the sign bit of n itself flags
// negativity. It returns the decoded magnitude and whether n was negative.
func (b *ByteStream) VarInt32Signed() (magnitude int32, negative bool, err error) {
	n, err := b.I8()
	if err != nil {
		return 0, false, err
	}
	negative = n < 0
	if negative {
		if n == -128 {
			v, err := b.I32()
			return v, true, err
		}
		return int32(-n), true, nil
	}
	if n == 127 {
		v, err := b.I32()
		return v, false, err
	}
	return int32(n), false, nil
}

// decodeUTF16 decodes UTF-16LE code units into a string, rejecting unpaired
// surrogates rather than substituting the replacement character (the format
// treats a malformed surrogate pair as a broken string, not a lossy one).
func decodeUTF16(units []uint16) (string, error) {
	out := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		r := units[i]
		switch {
		case r < 0xD800 || r > 0xDFFF:
			out = append(out, rune(r))
		case r <= 0xDBFF:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return "", wrapErr(KindInvalidCharacter, "unpaired surrogate", nil)
			}
			lo := units[i+1]
			i++
			out = append(out, rune(0x10000+(int32(r)-0xD800)*0x400+(int32(lo)-0xDC00)))
		default:
			return "", wrapErr(KindInvalidCharacter, "unpaired surrogate", nil)
		}
	}
	return string(out), nil
}
