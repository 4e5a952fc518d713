package horntail

// videoMagic is the fixed MCV0 tag at the start of a Video node's body
// (§4.10).
const videoMagic uint32 = 0x3056434D

const (
	videoFlagAlphaMap      = 1
	videoFlagPerFrameDelay = 2
	videoFlagPerFrameStart = 4
)

// VideoFrame is one decoded frame's absolute data window and timing
// (§4.10). AlphaOffset/AlphaSize are zero when the video carries no alpha
// map.
type VideoFrame struct {
	DataOffset  int
	DataSize    int32
	AlphaOffset int
	AlphaSize   int32
	Delay       int64 // nanoseconds
	StartTime   int64 // nanoseconds
}

// Video is a decoded MCV0 video node: a fourCC-tagged frame sequence with
// per-frame absolute byte ranges already resolved against the node's base
// position (§4.10).
type Video struct {
	Properties     []NamedProperty
	FourCC         uint32
	Width          uint16
	Height         uint16
	Flags          byte
	FrameDelayUnit uint64
	DefaultDelay   uint32
	Frames         []VideoFrame
}

func decodeVideo(b *ByteStream, e *Entry) (*Video, error) {
	props, err := readBuiltinProperties(b, e.reader.cipher, e)
	if err != nil {
		return nil, err
	}
	if _, err := b.U8(); err != nil { // unused
		return nil, err
	}
	if _, err := b.VarInt32(); err != nil { // size, unused by the decoder itself
		return nil, err
	}

	headerStart := b.Pos()
	magic, err := b.U32()
	if err != nil {
		return nil, err
	}
	if magic != videoMagic {
		return nil, wrapErr(KindUnexpectedData, "video magic mismatch", nil)
	}
	if _, err := b.ReadSlice(2); err != nil {
		return nil, err
	}
	headerLen, err := b.U16()
	if err != nil {
		return nil, err
	}
	fourCCRaw, err := b.U32()
	if err != nil {
		return nil, err
	}
	fourCC := fourCCRaw ^ 0xA5A5A5A5
	width, err := b.U16()
	if err != nil {
		return nil, err
	}
	height, err := b.U16()
	if err != nil {
		return nil, err
	}
	frameCount, err := b.U32()
	if err != nil {
		return nil, err
	}
	flags, err := b.U8()
	if err != nil {
		return nil, err
	}
	if _, err := b.ReadSlice(3); err != nil {
		return nil, err
	}
	frameDelayUnit, err := b.U64()
	if err != nil {
		return nil, err
	}
	defaultDelay, err := b.U32()
	if err != nil {
		return nil, err
	}

	if _, err := b.Seek(headerStart+int(headerLen), SeekStart); err != nil {
		return nil, err
	}

	frames := make([]VideoFrame, frameCount)
	for i := range frames {
		off, err := b.I32()
		if err != nil {
			return nil, err
		}
		size, err := b.I32()
		if err != nil {
			return nil, err
		}
		frames[i].DataOffset = int(off)
		frames[i].DataSize = size
	}

	if flags&videoFlagAlphaMap != 0 {
		for i := range frames {
			off, err := b.I32()
			if err != nil {
				return nil, err
			}
			size, err := b.I32()
			if err != nil {
				return nil, err
			}
			frames[i].AlphaOffset = int(off)
			frames[i].AlphaSize = size
		}
	}

	for i := range frames {
		if flags&videoFlagPerFrameDelay != 0 {
			d, err := b.VarInt32()
			if err != nil {
				return nil, err
			}
			frames[i].Delay = int64(d) * int64(frameDelayUnit)
		} else {
			frames[i].Delay = int64(defaultDelay)
		}
	}

	if flags&videoFlagPerFrameStart != 0 {
		for i := range frames {
			t, err := b.U64()
			if err != nil {
				return nil, err
			}
			frames[i].StartTime = int64(t) * int64(frameDelayUnit)
		}
	} else {
		var cumulative int64
		for i := range frames {
			frames[i].StartTime = cumulative
			cumulative += frames[i].Delay
		}
	}

	base := b.Pos()
	for i := range frames {
		frames[i].DataOffset += base
		if flags&videoFlagAlphaMap != 0 {
			frames[i].AlphaOffset += base
		}
	}

	return &Video{
		Properties:     props,
		FourCC:         fourCC,
		Width:          width,
		Height:         height,
		Flags:          flags,
		FrameDelayUnit: frameDelayUnit,
		DefaultDelay:   defaultDelay,
		Frames:         frames,
	}, nil
}
