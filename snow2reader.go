package horntail

import "io"

// snow2ZeroIV is the fixed all-zero IV every pack-file SNOW2 instance uses;
// all diversification comes from the derived key instead (§4.7).
var snow2ZeroIV = make([]byte, 16)

// Snow2Reader frames an io.Reader through a SNOW2 keystream, buffering
// reads in 4-byte-aligned chunks so a short Read never splits a keystream
// word across two underlying reads (§4.3, mirroring the teacher's own
// block-aligned decrypting reader).
type Snow2Reader struct {
	base io.Reader
	algo *Snow2
	buf  []byte
}

// NewSnow2Reader keys a fresh SNOW2 instance (zero IV) over base.
func NewSnow2Reader(base io.Reader, key [16]byte) (*Snow2Reader, error) {
	algo, err := NewSnow2(key[:], snow2ZeroIV)
	if err != nil {
		return nil, err
	}
	return &Snow2Reader{base: base, algo: algo}, nil
}

// NewSnow2ReaderWithBuffer builds a reader whose keystream generator has
// already been advanced past prior — the bytes a separate, throwaway
// Snow2Reader over the same key already consumed from the start of the
// stream — without re-reading them from base. It is the resume trick a
// Pack entry's bounded decrypt uses to continue a keystream across two
// separately-opened reads of the same underlying region (§4.7). len(prior)
// must be a multiple of 4.
func NewSnow2ReaderWithBuffer(base io.Reader, prior []byte, key [16]byte) (*Snow2Reader, error) {
	algo, err := NewSnow2(key[:], snow2ZeroIV)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(prior))
	copy(buf, prior)
	if err := algo.Crypt(buf, false); err != nil {
		return nil, err
	}
	return &Snow2Reader{base: base, algo: algo, buf: buf}, nil
}

func alignSize4(n int) int { return (n + 3) &^ 3 }

// Read implements io.Reader, serving any buffered leftover before pulling
// and decrypting a fresh 4-byte-aligned chunk from base. When base ends
// early, the whole words it did deliver are returned; a read that yields
// nothing at all reports base's error (io.EOF at the end of the stream).
func (r *Snow2Reader) Read(dst []byte) (int, error) {
	dstSize := len(dst)
	bufSize := len(r.buf)

	if dstSize <= bufSize {
		copy(dst, r.buf[:dstSize])
		r.buf = r.buf[dstSize:]
		return dstSize, nil
	}
	if bufSize > 0 {
		copy(dst, r.buf)
		dst = dst[bufSize:]
		r.buf = nil
	}

	aligned := alignSize4(len(dst))
	if aligned > len(dst) {
		chunk := make([]byte, aligned)
		got, err := io.ReadFull(r.base, chunk)
		if chunk = chunk[:got&^3]; len(chunk) == 0 && bufSize == 0 {
			return 0, err
		}
		if err := r.algo.Crypt(chunk, false); err != nil {
			return 0, err
		}
		n := copy(dst, chunk)
		r.buf = chunk[n:]
		dstSize = bufSize + n
	} else {
		got, err := io.ReadFull(r.base, dst)
		if got &^= 3; got == 0 && bufSize == 0 {
			return 0, err
		}
		if err := r.algo.Crypt(dst[:got], false); err != nil {
			return 0, err
		}
		dstSize = bufSize + got
	}
	return dstSize, nil
}
