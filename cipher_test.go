package horntail

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullCipherIsNoOp(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	want := append([]byte(nil), buf...)
	c := NullCipher{}
	c.XORTransform(buf)
	assert.Equal(t, want, buf)
}

func TestTableCipherDeterministicAcrossInstances(t *testing.T) {
	a, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	b, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)

	bufA := make([]byte, 40)
	bufB := make([]byte, 40)
	a.XORTransform(bufA)
	b.XORTransform(bufB)
	assert.Equal(t, bufA, bufB)
}

func TestTableCipherDifferentIVsDiverge(t *testing.T) {
	a, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	b, err := NewTableCipher(IVEurope)
	require.NoError(t, err)

	bufA := make([]byte, 16)
	bufB := make([]byte, 16)
	a.XORTransform(bufA)
	b.XORTransform(bufB)
	assert.NotEqual(t, bufA, bufB)
}

func TestTableCipherXORIsInvolution(t *testing.T) {
	c, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	plain := []byte("some plaintext payload of bytes")
	buf := append([]byte(nil), plain...)
	c.XORTransform(buf)
	assert.NotEqual(t, plain, buf)

	c2, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	c2.XORTransform(buf)
	assert.Equal(t, plain, buf)
}

func TestTableCipherXORTransformAtMatchesSequentialReads(t *testing.T) {
	whole, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	full := make([]byte, 64)
	whole.XORTransform(full)

	chunked, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	got := make([]byte, 64)
	chunked.XORTransformAt(got[48:64], 48)
	chunked.XORTransformAt(got[0:48], 0)
	assert.Equal(t, full, got)
}

func TestTableCipherCloneIsIndependent(t *testing.T) {
	c, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	c.XORTransform(make([]byte, 16)) // grow its table to one block

	clone := c.Clone().(*TableCipher)
	clone.XORTransform(make([]byte, 64)) // grow the clone well past the parent

	assert.Len(t, c.table, 16)
	assert.GreaterOrEqual(t, len(clone.table), 64)
	assert.Equal(t, c.table, clone.table[:len(c.table)], "clone's prefix must match what it was cloned from")
}

func TestTableCipherStreamReaderMatchesXORTransform(t *testing.T) {
	plain := bytes.Repeat([]byte{0x42}, 80)

	direct, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	want := append([]byte(nil), plain...)
	direct.XORTransform(want)

	streamed, err := NewTableCipher(IVGlobal)
	require.NoError(t, err)
	sr := streamed.StreamReader(bytes.NewReader(plain))
	got, err := io.ReadAll(sr)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
