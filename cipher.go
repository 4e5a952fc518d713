package horntail

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/connesc/cipherio"
)

// tableAESKey is the fixed 32-byte AES-256 key used to seed every
// TableCipher's keystream (§6). Each group of four bytes is a little-endian
// uint32; the trailing three bytes of each group are always zero, a quirk of
// how the original client packs small integers into the key material.
var tableAESKey = [32]byte{
	0x13, 0, 0, 0,
	0x08, 0, 0, 0,
	0x06, 0, 0, 0,
	0xB4, 0, 0, 0,
	0x1B, 0, 0, 0,
	0x0F, 0, 0, 0,
	0x33, 0, 0, 0,
	0x52, 0, 0, 0,
}

// Well-known IVs a caller can pass to NewTableCipher, matching the
// distribution constants named in §6.
var (
	IVGlobal = [4]byte{0x4D, 0x23, 0xC7, 0x2B}
	IVEurope = [4]byte{0xB9, 0x7D, 0x63, 0xE9}
)

// Cipher is the keystream abstraction every container reader carries. It
// XORs a caller's buffer in place against an internal byte stream advancing
// by len(buf) on every call, and can be cloned to branch a reader without
// disturbing the parent's keystream position.
type Cipher interface {
	XORTransform(buf []byte)
	Clone() Cipher
}

// NullCipher is the identity cipher: XORTransform is a no-op. It's used when
// a container was built without the table-cipher layer.
type NullCipher struct{}

func (NullCipher) XORTransform([]byte) {}
func (NullCipher) Clone() Cipher       { return NullCipher{} }

// TableCipher seeds a 16-byte keystream block from a 4-byte IV under
// AES-256-ECB and extends it lazily: each subsequent 16-byte block is the
// AES-256-ECB encryption of the previous block. Two independently
// constructed TableCiphers with the same IV produce byte-identical
// keystreams at any requested length (§8).
type TableCipher struct {
	block cipher.Block
	table []byte
}

// NewTableCipher constructs a TableCipher from a 4-byte IV. The IV is
// repeated four times to fill the first plaintext block, which is then
// encrypted once to seed the keystream.
func NewTableCipher(iv [4]byte) (*TableCipher, error) {
	block, err := aes.NewCipher(tableAESKey[:])
	if err != nil {
		return nil, wrapErr(KindInvalidCipher, "aes key schedule", err)
	}
	seed := make([]byte, aes.BlockSize)
	for i := 0; i < 4; i++ {
		copy(seed[i*4:i*4+4], iv[:])
	}
	first := make([]byte, aes.BlockSize)
	block.Encrypt(first, seed)
	return &TableCipher{block: block, table: first}, nil
}

// extend grows the materialized keystream until it is at least n bytes,
// rounding up to a whole number of 16-byte blocks.
func (t *TableCipher) extend(n int) {
	for len(t.table) < n {
		prev := t.table[len(t.table)-aes.BlockSize:]
		next := make([]byte, aes.BlockSize)
		t.block.Encrypt(next, prev)
		t.table = append(t.table, next...)
	}
}

// XORTransform XORs buf in place against the keystream starting at byte 0 of
// the table (the keystream is stateless/positionless from the caller's view:
// every call re-derives from the front of the table, extending it as
// needed). This matches the reference's non-advancing table lookup: the
// table is addressed by absolute position supplied by the caller via
// XORTransformAt, while XORTransform exists for the common case of a
// caller consuming the stream sequentially from its own cursor.
func (t *TableCipher) XORTransform(buf []byte) {
	t.extend(len(buf))
	for i := range buf {
		buf[i] ^= t.table[i]
	}
}

// XORTransformAt XORs buf in place against the keystream starting at byte
// offset pos, extending the table as needed. StreamReader's keystream
// adapter uses it to continue from the number of bytes already read;
// string decryption and chunked canvas payloads call XORTransform instead.
func (t *TableCipher) XORTransformAt(buf []byte, pos int) {
	t.extend(pos + len(buf))
	for i := range buf {
		buf[i] ^= t.table[pos+i]
	}
}

// Clone copies the materialized keystream prefix into a new TableCipher
// sharing the same AES key schedule. Clones never share the extension
// buffer, so one clone's growth never mutates another's.
func (t *TableCipher) Clone() Cipher {
	table := make([]byte, len(t.table))
	copy(table, t.table)
	return &TableCipher{block: t.block, table: table}
}

// StreamReader wraps r so that every byte read from it is XORed against this
// cipher's keystream on the fly, addressed by how many bytes have already
// been read from this reader. It lets a caller decrypt a region as a
// streaming io.Reader rather than materializing the whole region up
// front; no decoder in this package reads through it. It follows the same
// cipherio.NewBlockReader wrapping pattern the teacher uses for its own
// per-partition CBC decryption.
func (t *TableCipher) StreamReader(r io.Reader) io.Reader {
	return cipherio.NewStreamReader(r, &tableKeyStream{cipher: t})
}

// tableKeyStream adapts TableCipher to the stdlib cipher.Stream interface
// (XORKeyStream) expected by cipherio, tracking how many bytes have been
// consumed so repeated short reads stay positioned correctly in the
// keystream.
type tableKeyStream struct {
	cipher *TableCipher
	pos    int
}

func (s *tableKeyStream) XORKeyStream(dst, src []byte) {
	n := len(src)
	copy(dst, src)
	s.cipher.XORTransformAt(dst[:n], s.pos)
	s.pos += n
}
