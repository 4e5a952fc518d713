package horntail

import (
	"time"

	"github.com/google/uuid"
)

// WaveFormatEx mirrors the Windows WAVEFORMATEX structure embedded in a
// PCM or MP3 Sound node (§4.10).
type WaveFormatEx struct {
	FormatTag      uint16
	Channels       uint16
	SamplesPerSec  uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	CbSize         uint16
}

const waveFormatExSize = 18

// MPEGLayer3WaveFormat extends WaveFormatEx with the MPEGLAYER3WAVEFORMAT
// tail used by MP3-tagged Sound nodes.
type MPEGLayer3WaveFormat struct {
	WFX            WaveFormatEx
	WID            uint16
	FdwFlags       uint32
	BlockSize      uint16
	FramesPerBlock uint16
	CodecDelay     uint16
}

const (
	mpegLayer3WaveFormatSize = waveFormatExSize + 12
	mpegLayer3Size           = mpegLayer3WaveFormatSize - waveFormatExSize
)

const (
	waveFormatPCM        = 0x0001
	waveFormatMPEGLayer3 = 0x0055
)

// WaveFormat is the tagged union of the two playback formats a Sound node
// can carry.
type WaveFormat struct {
	PCM *WaveFormatEx
	MP3 *MPEGLayer3WaveFormat
}

// AMMediaType mirrors the DirectShow AM_MEDIA_TYPE header a Sound node
// carries ahead of its optional playback format (§4.10).
type AMMediaType struct {
	MajorType           uuid.UUID
	SubType             uuid.UUID
	FixedSizeSamples    bool
	TemporalCompression bool
	FormatType          uuid.UUID
	PBFormat            *WaveFormat
}

// Sound is a decoded audio node: its media-type header and the raw,
// already-decrypted PCM/MP3 sample bytes (§4.10).
type Sound struct {
	Properties []NamedProperty
	Duration   time.Duration
	MediaType  AMMediaType
	Data       []byte
}

func decodeSound(b *ByteStream, e *Entry) (*Sound, error) {
	props, err := readOptionalProperties(b, e.reader.cipher, e)
	if err != nil {
		return nil, err
	}
	dataSize, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	durationMs, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	soundType, err := b.U8()
	if err != nil {
		return nil, err
	}

	majorType, err := readLEUUID(b)
	if err != nil {
		return nil, err
	}
	subType, err := readLEUUID(b)
	if err != nil {
		return nil, err
	}
	fixedRaw, err := b.U8()
	if err != nil {
		return nil, err
	}
	temporalRaw, err := b.U8()
	if err != nil {
		return nil, err
	}
	formatType, err := readLEUUID(b)
	if err != nil {
		return nil, err
	}

	var pbFormat *WaveFormat
	switch soundType {
	case 1:
		// no playback format follows
	case 2:
		pbFormat, err = parseWaveFormat(b)
		if err != nil {
			return nil, err
		}
	default:
		return nil, wrapErr(KindUnexpectedData, "unexpected sound type", nil)
	}

	data, err := b.CopyToVec(int(dataSize))
	if err != nil {
		return nil, err
	}

	return &Sound{
		Properties: props,
		Duration:   time.Duration(durationMs) * time.Millisecond,
		MediaType: AMMediaType{
			MajorType:           majorType,
			SubType:             subType,
			FixedSizeSamples:    fixedRaw != 0,
			TemporalCompression: temporalRaw != 0,
			FormatType:          formatType,
			PBFormat:            pbFormat,
		},
		Data: data,
	}, nil
}

// readLEUUID reads a 16-byte Windows-style (mixed-endian) GUID.
func readLEUUID(b *ByteStream) (uuid.UUID, error) {
	raw, err := b.ReadSlice(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var swapped [16]byte
	swapped[0], swapped[1], swapped[2], swapped[3] = raw[3], raw[2], raw[1], raw[0]
	swapped[4], swapped[5] = raw[5], raw[4]
	swapped[6], swapped[7] = raw[7], raw[6]
	copy(swapped[8:], raw[8:16])
	return uuid.FromBytes(swapped[:])
}

func parseWaveFormat(b *ByteStream) (*WaveFormat, error) {
	fmtLen, err := b.VarInt32()
	if err != nil {
		return nil, err
	}

	fmtTag, err := b.U16()
	if err != nil {
		return nil, err
	}
	channels, err := b.U16()
	if err != nil {
		return nil, err
	}
	samplesPerSec, err := b.U32()
	if err != nil {
		return nil, err
	}
	avgBytesPerSec, err := b.U32()
	if err != nil {
		return nil, err
	}
	blockAlign, err := b.U16()
	if err != nil {
		return nil, err
	}
	bitsPerSample, err := b.U16()
	if err != nil {
		return nil, err
	}
	cbSize, err := b.U16()
	if err != nil {
		return nil, err
	}

	wfx := WaveFormatEx{
		FormatTag:      fmtTag,
		Channels:       channels,
		SamplesPerSec:  samplesPerSec,
		AvgBytesPerSec: avgBytesPerSec,
		BlockAlign:     blockAlign,
		BitsPerSample:  bitsPerSample,
		CbSize:         cbSize,
	}

	switch fmtTag {
	case waveFormatPCM:
		if int(fmtLen) != waveFormatExSize {
			return nil, wrapErr(KindBrokenFile, "pcm format length mismatch", nil)
		}
		return &WaveFormat{PCM: &wfx}, nil
	case waveFormatMPEGLayer3:
		if int(cbSize) != mpegLayer3Size {
			return nil, wrapErr(KindBrokenFile, "mp3 format cbSize mismatch", nil)
		}
		if int(fmtLen) != mpegLayer3WaveFormatSize {
			return nil, wrapErr(KindBrokenFile, "mp3 format length mismatch", nil)
		}
		wid, err := b.U16()
		if err != nil {
			return nil, err
		}
		fdwFlags, err := b.U32()
		if err != nil {
			return nil, err
		}
		blockSize, err := b.U16()
		if err != nil {
			return nil, err
		}
		framesPerBlock, err := b.U16()
		if err != nil {
			return nil, err
		}
		codecDelay, err := b.U16()
		if err != nil {
			return nil, err
		}
		return &WaveFormat{MP3: &MPEGLayer3WaveFormat{
			WFX:            wfx,
			WID:            wid,
			FdwFlags:       fdwFlags,
			BlockSize:      blockSize,
			FramesPerBlock: framesPerBlock,
			CodecDelay:     codecDelay,
		}}, nil
	default:
		return nil, wrapErr(KindUnexpectedData, "unexpected wave format tag", nil)
	}
}
