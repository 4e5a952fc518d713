package horntail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHashDeterministic(t *testing.T) {
	assert.Equal(t, VersionHash(176), VersionHash(176))
	assert.NotEqual(t, VersionHash(176), VersionHash(177))
}

func TestVersionHashMatchesReferenceWorkedExample(t *testing.T) {
	assert.Equal(t, uint32(53047), VersionHash(176))
	assert.Equal(t, uint16(0x07), VersionHashEnc(176))
}

func TestVersionHashEncStableAcrossCalls(t *testing.T) {
	a := VersionHashEnc(176)
	b := VersionHashEnc(176)
	assert.Equal(t, a, b)
}

func TestCandidateVersionsIncludesOriginal(t *testing.T) {
	const version = 176
	enc := VersionHashEnc(version)
	candidates := CandidateVersions(enc, 1000)
	assert.Contains(t, candidates, version)
}

func TestDecodeOffsetRoundTrip(t *testing.T) {
	const parentOffset = 20
	const versionHash = 12345
	const fieldPos = 40
	const wantOffset = 512

	enc := encodeOffsetField(fieldPos, parentOffset, versionHash, wantOffset)

	buf := make([]byte, fieldPos+4)
	b := NewByteStream(buf)
	_, err := b.Seek(fieldPos, SeekStart)
	require.NoError(t, err)
	putU32FieldTest(buf, fieldPos, enc)

	_, err = b.Seek(fieldPos, SeekStart)
	require.NoError(t, err)
	got, err := DecodeOffset(b, parentOffset, versionHash)
	require.NoError(t, err)
	assert.Equal(t, wantOffset, got)
	assert.Equal(t, fieldPos+4, b.Pos())
}

func putU32FieldTest(buf []byte, pos int, v uint32) {
	buf[pos] = byte(v)
	buf[pos+1] = byte(v >> 8)
	buf[pos+2] = byte(v >> 16)
	buf[pos+3] = byte(v >> 24)
}
