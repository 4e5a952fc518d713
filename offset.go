package horntail

import "math/bits"

// VersionHash folds the ASCII bytes of the user-supplied integer client
// version's decimal representation into a 16-bit hash:
// h = fold(b -> (h<<5) + (b+1)) over each byte, truncating to 16 bits at
// every step.
func VersionHash(version int) uint32 {
	if version < 0 {
		version = -version
	}
	digits := []byte(itoa(version))
	var h uint16
	for _, d := range digits {
		h = (h << 5) + uint16(d) + 1
	}
	return uint32(h)
}

// VersionHashEnc XOR-folds the four bytes of VersionHash(version), starting
// from 0xFF, into the 16-bit field verified against a WZ container header.
func VersionHashEnc(version int) uint16 {
	h := VersionHash(version)
	enc := byte(0xFF)
	enc ^= byte(h)
	enc ^= byte(h >> 8)
	enc ^= byte(h >> 16)
	enc ^= byte(h >> 24)
	return uint16(enc)
}

// CandidateVersions returns every decimal version in [0, max) whose
// VersionHashEnc matches enc. It's a pure, side-effect-free export of the
// computation the out-of-scope "probe" CLI verb wraps (SPEC_FULL.md §3).
func CandidateVersions(enc uint16, max int) []int {
	var out []int
	for v := 0; v < max; v++ {
		if VersionHashEnc(v) == enc {
			out = append(out, v)
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// DecodeOffset recovers the real absolute byte offset hidden at the
// stream's current position (§4.5). It reads the obfuscated u32 field
// itself, so the cursor must be positioned exactly at that field; on
// return the cursor has advanced past it.
func DecodeOffset(b *ByteStream, parentOffset int, versionHash uint32) (int, error) {
	pos := uint32(b.Pos())
	enc, err := b.U32()
	if err != nil {
		return 0, err
	}
	x := (pos - uint32(parentOffset)) ^ 0xFFFFFFFF
	x = x * versionHash
	x = x - 0x581C3F6D
	k := x & 0x1F
	offset := bits.RotateLeft32(x, int(k)) ^ enc
	offset += uint32(parentOffset) << 1
	return int(offset), nil
}
