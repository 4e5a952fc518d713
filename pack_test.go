package horntail

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldRunesWrappingIsDeterministic(t *testing.T) {
	assert.Equal(t, foldRunesWrapping("data.ms"), foldRunesWrapping("data.ms"))
	assert.NotEqual(t, foldRunesWrapping("data.ms"), foldRunesWrapping("data2.ms"))
}

func TestFoldRunesWrappingEmptyString(t *testing.T) {
	assert.Equal(t, int32(0), foldRunesWrapping(""))
}

func TestDeriveImageKeyDeterministic(t *testing.T) {
	salt := []byte{1, 2, 3, 4, 5}
	var entryKey [16]byte
	for i := range entryKey {
		entryKey[i] = byte(i * 7)
	}
	name := []byte("texture.img")

	a := deriveImageKey(salt, entryKey, name)
	b := deriveImageKey(salt, entryKey, name)
	assert.Equal(t, a, b)
}

func TestDeriveImageKeyVariesWithName(t *testing.T) {
	salt := []byte{9, 8, 7}
	var entryKey [16]byte
	a := deriveImageKey(salt, entryKey, []byte("one.img"))
	b := deriveImageKey(salt, entryKey, []byte("two.img"))
	assert.NotEqual(t, a, b)
}

// buildPackFixture assembles a minimal pack file with an empty filename
// (so the random-byte count and entry-table offset are both easy to hand
// compute), hashSaltLen=4, and salt bytes [01 00 02 00] — the table-of-
// contents hash scenario. The real checksum the reference algorithm
// (original_source's PackReader::load, mirrored in pack.go:134) computes
// for these inputs is hashSaltLen + version + entryCount + Σ u16LE(salt
// pairs) = 4 + 2 + 0 + 1 + 2 = 9; wantHash overrides that value so callers
// can also build the corrupted-checksum case.
func buildPackFixture(t *testing.T, wantHash int32) []byte {
	t.Helper()

	randBytes := make([]byte, 30)
	randBytes[0] = 6 // so hashSaltLen(4) XOR randBytes[0] == 2, giving saltByteLen=4

	const hashSaltLen = int32(4)
	saltBytes := []byte{0x01, 0x00, 0x02, 0x00}

	saltStr := string([]rune{
		rune(randBytes[0] ^ saltBytes[0]),
		rune(randBytes[1] ^ saltBytes[2]),
	})

	combined := []byte(saltStr)
	l := int(byte(len(combined)))
	var keyBuf [16]byte
	for i := 0; i < 16; i++ {
		keyBuf[i] = combined[i%l] + byte(i)
	}

	var headerPlain bytes.Buffer
	putU32(&headerPlain, uint32(wantHash))
	headerPlain.WriteByte(2) // version
	putU32(&headerPlain, 0) // entryCount

	headerCipher := append([]byte(nil), headerPlain.Bytes()...)
	algo, err := NewSnow2(keyBuf[:], snow2ZeroIV)
	require.NoError(t, err)
	require.NoError(t, algo.Crypt(headerCipher, true))

	var buf bytes.Buffer
	buf.Write(randBytes)
	putU32(&buf, uint32(hashSaltLen))
	buf.Write(saltBytes)
	buf.Write(headerCipher)
	return buf.Bytes()
}

func TestNewPackReaderAcceptsMatchingTOCHash(t *testing.T) {
	data := buildPackFixture(t, 9)
	src := OpenReaderAt(bytes.NewReader(data), int64(len(data)))

	r, err := NewPackReader(src, "")
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, r.Entries())
}

func TestNewPackReaderRejectsMismatchedTOCHash(t *testing.T) {
	data := buildPackFixture(t, 9+1)
	src := OpenReaderAt(bytes.NewReader(data), int64(len(data)))

	_, err := NewPackReader(src, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBrokenFile)
}

func TestSliceReaderReadsFromOffsetAndReportsEOF(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	sr := &sliceReader{data: data, pos: 3}

	buf := make([]byte, 4)
	n, err := sr.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{3, 4, 5, 6}, buf)

	buf2 := make([]byte, 4)
	n, err = sr.Read(buf2)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(7), buf2[0])

	n, err = sr.Read(buf2)
	assert.Equal(t, 0, n)
	assert.Error(t, err)
}
