package horntail

import "encoding/binary"

// Snow2 implements the SNOW 2.0 stream cipher (Ekdahl & Johansson), keyed
// with either a 128-bit or 256-bit key plus a 128-bit IV. It is used both as
// a raw keystream generator over archive payloads and, wrapped by
// Snow2Reader, as a framing layer around pack-file streams (§4.3).
//
// The lookup tables driving the nonlinear FSM step (sbox) and the LFSR's
// GF(2^32) multiplication by alpha/alpha^-1 are generated once at package
// init from GF(2^8) field arithmetic rather than hand-transcribed as
// opaque byte tables — see DESIGN.md for why.
type Snow2 struct {
	s   [16]uint32
	r1  uint32
	r2  uint32
	cur int
}

const snow2Regs = 16

// NewSnow2 constructs a keyed, IV'd SNOW 2.0 instance ready to produce
// keystream words. key must be 16 or 32 bytes.
func NewSnow2(key, iv []byte) (*Snow2, error) {
	switch len(key) {
	case 16:
		return newSnow2_128(key, iv)
	case 32:
		return newSnow2_256(key, iv)
	default:
		return nil, wrapErr(KindInvalidArgument, "snow2 key must be 16 or 32 bytes", nil)
	}
}

// beWord reads 4 bytes big-endian, widening each byte AS A SIGNED i8
// first. A byte ≥ 0x80 therefore sign-extends to a word with its top 24
// bits set, not zero — this quirk is load-bearing for any key containing
// bytes ≥ 0x80 and must not be "simplified" to a plain unsigned widen.
func beWord(b []byte) uint32 {
	sx := func(v byte) uint32 { return uint32(int32(int8(v))) }
	return sx(b[0])<<24 | sx(b[1])<<16 | sx(b[2])<<8 | sx(b[3])
}

func newSnow2_128(key, iv []byte) (*Snow2, error) {
	if len(iv) != 16 {
		return nil, wrapErr(KindInvalidArgument, "snow2 iv must be 16 bytes", nil)
	}
	sn := &Snow2{}
	k0, k1, k2, k3 := beWord(key[0:4]), beWord(key[4:8]), beWord(key[8:12]), beWord(key[12:16])
	sn.s[15], sn.s[14], sn.s[13], sn.s[12] = k0, k1, k2, k3
	sn.s[11], sn.s[10], sn.s[9], sn.s[8] = ^k0, ^k1, ^k2, ^k3
	sn.s[7], sn.s[6], sn.s[5], sn.s[4] = k0, k1, k2, k3
	sn.s[3], sn.s[2], sn.s[1], sn.s[0] = ^k0, ^k1, ^k2, ^k3

	iv0, iv1, iv2, iv3 := beWord(iv[0:4]), beWord(iv[4:8]), beWord(iv[8:12]), beWord(iv[12:16])
	sn.s[15] ^= iv0
	sn.s[12] ^= iv1
	sn.s[10] ^= iv2
	sn.s[9] ^= iv3

	sn.initFSM(32)
	return sn, nil
}

func newSnow2_256(key, iv []byte) (*Snow2, error) {
	if len(iv) != 16 {
		return nil, wrapErr(KindInvalidArgument, "snow2 iv must be 16 bytes", nil)
	}
	sn := &Snow2{}
	k := make([]uint32, 8)
	for i := 0; i < 8; i++ {
		k[i] = beWord(key[i*4 : i*4+4])
	}
	// 256-bit schedule: state[15..12] and state[11..8] both come from
	// direct key words (no duplication between halves, unlike the
	// 128-bit schedule); state[7..4] copies state[15..12]; state[3..0]
	// complements state[11..8], not state[15..12].
	sn.s[15], sn.s[14], sn.s[13], sn.s[12] = k[0], k[1], k[2], k[3]
	sn.s[11], sn.s[10], sn.s[9], sn.s[8] = k[4], k[5], k[6], k[7]
	sn.s[7], sn.s[6], sn.s[5], sn.s[4] = sn.s[15], sn.s[14], sn.s[13], sn.s[12]
	sn.s[3], sn.s[2], sn.s[1], sn.s[0] = ^sn.s[11], ^sn.s[10], ^sn.s[9], ^sn.s[8]

	iv0, iv1, iv2, iv3 := beWord(iv[0:4]), beWord(iv[4:8]), beWord(iv[8:12]), beWord(iv[12:16])
	sn.s[15] ^= iv0
	sn.s[12] ^= iv1
	sn.s[10] ^= iv2
	sn.s[9] ^= iv3

	sn.initFSM(32)
	return sn, nil
}

func mod16(i int) int { return i & 15 }

// initFSM runs rounds of the key-schedule update (keystream output folded
// back into the LFSR rather than emitted) with r1=r2=0 initially.
func (sn *Snow2) initFSM(rounds int) {
	sn.r1, sn.r2, sn.cur = 0, 0, 0
	for i := 0; i < rounds; i++ {
		sn.keyScheduleStep()
	}
}

// keyScheduleStep is the key-schedule variant of the LFSR/FSM update: the
// same recurrence as Next, but the FSM's contribution is folded into the
// new LFSR cell instead of being used to form an output word.
func (sn *Snow2) keyScheduleStep() {
	cur := sn.cur
	s0 := sn.s[cur]
	s2 := sn.s[mod16(cur+2)]
	s11 := sn.s[mod16(cur+11)]
	s15 := sn.s[mod16(cur+15)]

	f := sn.r1 + s15
	f ^= sn.r2

	newS := alphaMul(s0) ^ s2 ^ alphaInvMul(s11) ^ f

	fsm := sn.r2 + sn.s[mod16(cur+5)]
	sn.r2 = sbox(sn.r1)
	sn.r1 = fsm

	sn.s[cur] = newS
	sn.cur = mod16(cur + 1)
}

// Next advances the cipher one step and returns the next 32-bit keystream
// word. The output reads the FSM registers and the just-mutated LFSR cell
// AFTER this step's update, not before it — that ordering is load-bearing:
// swapping it produces a different (wrong) keystream entirely.
func (sn *Snow2) Next() uint32 {
	cur := sn.cur
	s0 := sn.s[cur]
	s2 := sn.s[mod16(cur+2)]
	s11 := sn.s[mod16(cur+11)]

	sn.s[cur] = alphaMul(s0) ^ s2 ^ alphaInvMul(s11)

	fsm := sn.r2 + sn.s[mod16(cur+5)]
	sn.r2 = sbox(sn.r1)
	sn.r1 = fsm

	sn.cur = mod16(cur + 1)

	return (sn.r1 + sn.s[cur]) ^ sn.r2 ^ sn.s[sn.cur]
}

// Crypt encrypts or decrypts buf in place, treating it as a sequence of
// little-endian 32-bit words added to (encrypt) or subtracted from
// (decrypt) the keystream. len(buf) must be a multiple of 4.
func (sn *Snow2) Crypt(buf []byte, encrypt bool) error {
	if len(buf)%4 != 0 {
		return wrapErr(KindInvalidArgument, "snow2 buffer length must be a multiple of 4", nil)
	}
	for i := 0; i < len(buf); i += 4 {
		w := binary.LittleEndian.Uint32(buf[i : i+4])
		k := sn.Next()
		var out uint32
		if encrypt {
			out = w + k
		} else {
			out = w - k
		}
		binary.LittleEndian.PutUint32(buf[i:i+4], out)
	}
	return nil
}

// --- GF(2^8)/GF(2^32) table generation ---
//
// SNOW 2.0 operates over GF(2^32) represented as degree-4 polynomials with
// coefficients in GF(2^8), itself defined by the reduction polynomial
// x^8+x^7+x^5+x^3+1 (0x1A9). alpha is a root of
// x^4 + beta^23 x^3 + beta^245 x^2 + beta^48 x + beta^239 over that field,
// where beta is the field's generator element ("x", i.e. 0x02).

const snow2FieldPoly = 0xA9 // reduction byte for x^8+x^7+x^5+x^3+1, high bit implicit

func gfMul8(a, b byte) byte {
	var p byte
	for i := 0; i < 8; i++ {
		if b&1 != 0 {
			p ^= a
		}
		hi := a & 0x80
		a <<= 1
		if hi != 0 {
			a ^= snow2FieldPoly
		}
		b >>= 1
	}
	return p
}

func gfPow8(base byte, exp int) byte {
	result := byte(1)
	b := base
	for exp > 0 {
		if exp&1 != 0 {
			result = gfMul8(result, b)
		}
		b = gfMul8(b, b)
		exp >>= 1
	}
	return result
}

func mulTable(constant byte) (t [256]byte) {
	for i := 0; i < 256; i++ {
		t[i] = gfMul8(constant, byte(i))
	}
	return
}

var (
	mulAlpha  [256]uint32 // word contribution of the top byte when multiplying by alpha
	mulAlphaI [256]uint32 // word contribution of the low byte when multiplying by alpha^-1
	sboxTable [256]uint32 // AES-style T0 table; T1..T3 are byte-rotations of T0
)

func init() {
	beta := byte(0x02)
	b23 := gfPow8(beta, 23)
	b245 := gfPow8(beta, 245)
	b48 := gfPow8(beta, 48)
	b239 := gfPow8(beta, 239)
	t23, t245, t48, t239 := mulTable(b23), mulTable(b245), mulTable(b48), mulTable(b239)
	for a3 := 0; a3 < 256; a3++ {
		mulAlpha[a3] = uint32(t23[a3])<<24 | uint32(t245[a3])<<16 | uint32(t48[a3])<<8 | uint32(t239[a3])
	}

	// alpha^-1 = beta^16*alpha^3 + beta^39*alpha^2 + beta^6*alpha + beta^64
	b16 := gfPow8(beta, 16)
	b39 := gfPow8(beta, 39)
	b6 := gfPow8(beta, 6)
	b64 := gfPow8(beta, 64)
	t16, t39, t6, t64 := mulTable(b16), mulTable(b39), mulTable(b6), mulTable(b64)
	for a0 := 0; a0 < 256; a0++ {
		mulAlphaI[a0] = uint32(t16[a0])<<24 | uint32(t39[a0])<<16 | uint32(t6[a0])<<8 | uint32(t64[a0])
	}

	sb := aesSBox()
	for x := 0; x < 256; x++ {
		s := sb[x]
		m2 := aesGFMul(s, 2)
		m3 := aesGFMul(s, 3)
		sboxTable[x] = uint32(m2)<<24 | uint32(s)<<16 | uint32(s)<<8 | uint32(m3)
	}
}

// alphaMul multiplies a 32-bit field element by alpha. word's bytes are
// addressed low-to-high as (a0,a1,a2,a3) with a3 the most significant.
func alphaMul(word uint32) uint32 {
	a0 := byte(word)
	a1 := byte(word >> 8)
	a2 := byte(word >> 16)
	a3 := byte(word >> 24)
	return mulAlpha[a3] ^ (uint32(a0)<<8 | uint32(a1)<<16 | uint32(a2)<<24)
}

// alphaInvMul multiplies a 32-bit field element by alpha^-1.
func alphaInvMul(word uint32) uint32 {
	a1 := byte(word >> 8)
	a2 := byte(word >> 16)
	a3 := byte(word >> 24)
	return mulAlphaI[word&0xFF] ^ (uint32(a1) | uint32(a2)<<8 | uint32(a3)<<16)
}

// sbox is SNOW 2.0's FSM nonlinear function: the standard AES round
// transform (SubBytes, ShiftRows, MixColumns) applied to its 32-bit input,
// implemented with the classic four-T-table construction (S0..S3 in the
// design notes).
func sbox(w uint32) uint32 {
	b0 := byte(w)
	b1 := byte(w >> 8)
	b2 := byte(w >> 16)
	b3 := byte(w >> 24)
	return sboxTable[b0] ^ rotl32(sboxTable[b1], 8) ^ rotl32(sboxTable[b2], 16) ^ rotl32(sboxTable[b3], 24)
}

func rotl32(v uint32, n uint) uint32 {
	return (v << n) | (v >> (32 - n))
}

// aesGFMul multiplies by small constants (2 or 3) in AES's own GF(2^8)
// field (modulus 0x11B), used only to build the MixColumns half of sbox.
func aesGFMul(a byte, b int) byte {
	var p byte
	av := a << 1
	if a&0x80 != 0 {
		av ^= 0x1B
	}
	switch b {
	case 2:
		p = av
	case 3:
		p = av ^ a
	}
	return p
}

// aesSBox derives the standard Rijndael S-box: the multiplicative inverse
// in GF(2^8) (0 maps to 0) followed by the fixed affine transformation.
func aesSBox() (sb [256]byte) {
	inv := aesInverseTable()
	for i := 0; i < 256; i++ {
		x := inv[i]
		var y byte
		for b := 0; b < 8; b++ {
			bit := ((x >> uint(b)) ^ (x >> uint((b+4)%8)) ^ (x >> uint((b+5)%8)) ^
				(x >> uint((b+6)%8)) ^ (x >> uint((b+7)%8)) ^ (0x63 >> uint(b))) & 1
			y |= bit << uint(b)
		}
		sb[i] = y
	}
	return
}

func aesInverseTable() (inv [256]byte) {
	// Multiplicative inverse via brute-force search over AES's field
	// (0x11B); the table is tiny (256 entries) and computed once.
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			if aesMulFull(byte(a), byte(b)) == 1 {
				inv[a] = byte(b)
				break
			}
		}
	}
	return
}

func aesMulFull(a, b byte) byte {
	var p byte
	for i := 0; i < 8; i++ {
		if b&1 != 0 {
			p ^= a
		}
		hi := a & 0x80
		a <<= 1
		if hi != 0 {
			a ^= 0x1B
		}
		b >>= 1
	}
	return p
}
