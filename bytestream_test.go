package horntail

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteStreamIntegerRoundTrips(t *testing.T) {
	buf := make([]byte, 2+2+4+4+8+8)
	binary.LittleEndian.PutUint16(buf[0:2], 0xFFFE)
	binary.LittleEndian.PutUint16(buf[2:4], 0x8001)
	binary.LittleEndian.PutUint32(buf[4:8], 0xDEADBEEF)
	binary.LittleEndian.PutUint32(buf[8:12], 0x7FFFFFFF)
	binary.LittleEndian.PutUint64(buf[12:20], 0xFFFFFFFFFFFFFFFE)
	binary.LittleEndian.PutUint64(buf[20:28], 0x7FFFFFFFFFFFFFFF)

	b := NewByteStream(buf)

	u16, err := b.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFE), u16)

	i16, err := b.I16()
	require.NoError(t, err)
	assert.Equal(t, int16(-32767), i16)

	u32, err := b.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i32, err := b.I32()
	require.NoError(t, err)
	assert.Equal(t, int32(0x7FFFFFFF), i32)

	u64, err := b.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFE), u64)

	i64, err := b.I64()
	require.NoError(t, err)
	assert.Equal(t, int64(0x7FFFFFFFFFFFFFFF), i64)

	assert.Equal(t, 28, b.Pos())
	assert.Zero(t, b.Remaining())
}

func TestByteStreamFloatRoundTrips(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], 0x3F800000) // 1.0f
	binary.LittleEndian.PutUint64(buf[4:12], 0x3FF0000000000000)

	b := NewByteStream(buf)
	f32, err := b.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f32)

	f64, err := b.F64()
	require.NoError(t, err)
	assert.Equal(t, float64(1.0), f64)
}

func TestByteStreamReadPastEndFails(t *testing.T) {
	b := NewByteStream([]byte{1, 2, 3})
	_, err := b.ReadSlice(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
}

func TestByteStreamSeekAndSeekBack(t *testing.T) {
	b := NewByteStream(make([]byte, 16))
	_, err := b.Seek(10, SeekStart)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Pos())

	_, err = b.Seek(-3, SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, 7, b.Pos())

	_, err = b.Seek(0, SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, 16, b.Pos())

	_, err = b.Seek(-1, SeekStart)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestByteStreamSeekBackRestoresOnError(t *testing.T) {
	b := NewByteStream(make([]byte, 16))
	_, err := b.Seek(5, SeekStart)
	require.NoError(t, err)

	err = b.SeekBack(0, func() error {
		assert.Equal(t, 0, b.Pos())
		return ErrBrokenFile
	})
	require.Error(t, err)
	assert.Equal(t, 5, b.Pos(), "position must be restored even when fn fails")
}

func TestVarInt32FastPathAndEscape(t *testing.T) {
	b := NewByteStream([]byte{42})
	v, err := b.VarInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	buf := make([]byte, 5)
	buf[0] = 0x80 // -128, escape marker
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(-70000)))
	b = NewByteStream(buf)
	v, err = b.VarInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-70000), v)
}

func TestVarInt64FastPathAndEscape(t *testing.T) {
	b := NewByteStream([]byte{byte(int8(-5))})
	v, err := b.VarInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)

	buf := make([]byte, 9)
	buf[0] = 0x80
	binary.LittleEndian.PutUint64(buf[1:], uint64(int64(5_000_000_000)))
	b = NewByteStream(buf)
	v, err = b.VarInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000), v)
}

func TestVarFloat32FastPathAndEscape(t *testing.T) {
	b := NewByteStream([]byte{10})
	v, err := b.VarFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(10), v)

	buf := make([]byte, 5)
	buf[0] = 0x80
	binary.LittleEndian.PutUint32(buf[1:], 0x40490FDB) // pi
	b = NewByteStream(buf)
	v, err = b.VarFloat32()
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, float64(v), 0.0001)
}

func TestVarInt32SignedVariants(t *testing.T) {
	// small positive
	b := NewByteStream([]byte{100})
	mag, neg, err := b.VarInt32Signed()
	require.NoError(t, err)
	assert.Equal(t, int32(100), mag)
	assert.False(t, neg)

	// small negative: magnitude encoded directly, sign bit of n flags it
	b = NewByteStream([]byte{byte(int8(-5))})
	mag, neg, err = b.VarInt32Signed()
	require.NoError(t, err)
	assert.Equal(t, int32(5), mag)
	assert.True(t, neg)

	// positive escape at 127
	buf := make([]byte, 5)
	buf[0] = 127
	binary.LittleEndian.PutUint32(buf[1:], 99999)
	b = NewByteStream(buf)
	mag, neg, err = b.VarInt32Signed()
	require.NoError(t, err)
	assert.Equal(t, int32(99999), mag)
	assert.False(t, neg)

	// negative escape at -128
	buf = make([]byte, 5)
	buf[0] = 0x80
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(-99999)))
	b = NewByteStream(buf)
	mag, neg, err = b.VarInt32Signed()
	require.NoError(t, err)
	assert.Equal(t, int32(-99999), mag)
	assert.True(t, neg)
}

func TestFixedUTF16LERoundTrip(t *testing.T) {
	s := "abc"
	buf := make([]byte, len(s)*2)
	for i, r := range s {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(r))
	}
	b := NewByteStream(buf)
	got, err := b.FixedUTF16LE(len(s))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestFixedUTF16LEUnpairedSurrogateFails(t *testing.T) {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, 0xD800) // high surrogate, no low surrogate follows
	b := NewByteStream(buf)
	_, err := b.FixedUTF16LE(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCharacter)
}

func TestFixedUTF16LESurrogatePairDecodes(t *testing.T) {
	// U+1F600 GRINNING FACE
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], 0xD83D)
	binary.LittleEndian.PutUint16(buf[2:4], 0xDE00)
	b := NewByteStream(buf)
	got, err := b.FixedUTF16LE(2)
	require.NoError(t, err)
	assert.Equal(t, "😀", got)
}
