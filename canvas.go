package horntail

import (
	"bytes"
	"io"

	"github.com/bodgit/plumbing"
	"github.com/klauspost/compress/zlib"
)

// CanvasFormat is the integer tag identifying a Canvas image's pixel
// layout (§4.10).
type CanvasFormat int32

const (
	CanvasBGRA4444    CanvasFormat = 1
	CanvasBGRA8888    CanvasFormat = 2
	CanvasGray        CanvasFormat = 3
	CanvasARGB1555    CanvasFormat = 257
	CanvasRGB565      CanvasFormat = 513
	CanvasRGB565Thumb CanvasFormat = 517
	CanvasDXT3        CanvasFormat = 1026
	CanvasDXT5        CanvasFormat = 2050
	CanvasAlpha8      CanvasFormat = 2304
	CanvasRGBA1010102 CanvasFormat = 2562
	CanvasDXT1        CanvasFormat = 4097
	CanvasBC7         CanvasFormat = 4098
	CanvasRGBAFloat   CanvasFormat = 4100
)

// pixelBytes returns the expected inflated byte count for a w×h image in
// this format (§4.10's format table). An unknown format reports
// ErrUnexpectedData via its second return.
func (f CanvasFormat) pixelBytes(w, h int32) (int64, error) {
	blocksOf := func(n int32) int64 { return int64((n + 3) / 4) }
	switch f {
	case CanvasBGRA4444, CanvasARGB1555, CanvasRGB565:
		return int64(w) * int64(h) * 2, nil
	case CanvasBGRA8888, CanvasRGBA1010102:
		return int64(w) * int64(h) * 4, nil
	case CanvasDXT3, CanvasDXT5, CanvasGray, CanvasBC7:
		return blocksOf(w) * blocksOf(h) * 16, nil
	case CanvasDXT1:
		return blocksOf(w) * blocksOf(h) * 8, nil
	case CanvasAlpha8:
		return int64(w) * int64(h), nil
	case CanvasRGBAFloat:
		return int64(w) * int64(h) * 16, nil
	case CanvasRGB565Thumb:
		return int64(w) * int64(h) / 128, nil
	default:
		return 0, wrapErr(KindUnexpectedData, "unknown canvas format", nil)
	}
}

// Canvas is a decoded bitmap image node: its inflated pixel data in
// whatever native layout Format names, left un-converted (§4.10).
type Canvas struct {
	Properties     []NamedProperty
	Size           Vector2D
	Format         CanvasFormat
	CompressedSize int32
	Pixels         []byte
}

// decodeCanvas reads a Canvas node: an optional builtin property body,
// the image's (w,h), its format tag, the compressed payload's size, then
// the payload itself, inflated into Format.pixelBytes(w,h) bytes.
func decodeCanvas(b *ByteStream, cipher Cipher, e *Entry) (*Canvas, error) {
	props, err := readBuiltinProperties(b, cipher, e)
	if err != nil {
		return nil, err
	}
	size, err := decodeVector2D(b)
	if err != nil {
		return nil, err
	}
	formatLo, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	formatHi, err := b.U8()
	if err != nil {
		return nil, err
	}
	format := CanvasFormat(formatLo + int32(formatHi))
	if _, err := b.ReadSlice(4); err != nil {
		return nil, err
	}
	compressedSizeRaw, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	compressedSize := compressedSizeRaw - 1
	if _, err := b.ReadSlice(1); err != nil {
		return nil, err
	}

	rawSize, err := format.pixelBytes(size.X, size.Y)
	if err != nil {
		return nil, err
	}

	payload, err := readCanvasPayload(b, cipher, compressedSize)
	if err != nil {
		return nil, err
	}

	pixels, err := inflateExact(payload, rawSize)
	if err != nil {
		return nil, err
	}

	return &Canvas{
		Properties:     props,
		Size:           size,
		Format:         format,
		CompressedSize: compressedSize,
		Pixels:         pixels,
	}, nil
}

// readCanvasPayload consumes compressedSize bytes and returns the
// zlib-compressed data in them: either a contiguous blob (standard deflate
// header leads) or a sequence of (i32 length, chunk) records whose chunks
// are keystream-XORed and reassembled into one buffer; the 4-byte length
// prefixes count toward compressedSize but are not returned (§4.10).
func readCanvasPayload(b *ByteStream, cipher Cipher, compressedSize int32) ([]byte, error) {
	header, err := b.ReadSlice(2)
	if err != nil {
		return nil, err
	}
	if _, err := b.Seek(-2, SeekCurrent); err != nil {
		return nil, err
	}
	if uint16(header[0])|uint16(header[1])<<8 == 0x9C78 {
		return b.CopyToVec(int(compressedSize))
	}

	var out bytes.Buffer
	remaining := int64(compressedSize)
	for remaining > 0 {
		chunkLen, err := b.I32()
		if err != nil {
			return nil, err
		}
		chunk, err := b.CopyToVec(int(chunkLen))
		if err != nil {
			return nil, err
		}
		cipher.XORTransform(chunk)
		out.Write(chunk)
		remaining -= int64(4 + chunkLen)
	}
	return out.Bytes(), nil
}

// inflateExact zlib-decompresses the first want bytes of payload into a
// want-sized buffer and fails with BrokenFile when fewer come out; output
// past want is not read. The read goes through a WriteCounter tee; the
// length check uses the count io.ReadFull reports.
func inflateExact(payload []byte, want int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, wrapErr(KindBrokenFile, "canvas payload is not valid zlib", err)
	}
	defer zr.Close()

	wc := new(plumbing.WriteCounter)
	counted := plumbing.TeeReadCloser(io.NopCloser(zr), wc)

	out := make([]byte, want)
	n, err := io.ReadFull(counted, out)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, wrapErr(KindBrokenFile, "canvas inflate failed", err)
	}
	if int64(n) < want {
		return nil, wrapErr(KindBrokenFile, "canvas inflate shorter than expected pixel size", nil)
	}
	return out, nil
}
