package horntail

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLEUUID(buf *[]byte, id uuid.UUID) {
	raw := id[:]
	var wire [16]byte
	wire[0], wire[1], wire[2], wire[3] = raw[3], raw[2], raw[1], raw[0]
	wire[4], wire[5] = raw[5], raw[4]
	wire[6], wire[7] = raw[7], raw[6]
	copy(wire[8:], raw[8:16])
	*buf = append(*buf, wire[:]...)
}

func TestDecodeSoundPCMNoProperties(t *testing.T) {
	pcmData := []byte{10, 20, 30, 40}
	major := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	sub := uuid.MustParse("66666666-7777-8888-9999-aaaaaaaaaaaa")
	formatType := uuid.MustParse("bbbbbbbb-cccc-dddd-eeee-ffffffffffff")

	var buf []byte
	buf = append(buf, 0x00, 0x00) // readOptionalProperties: both bytes must be 1; absent here
	buf = append(buf, encodeVarInt32(int32(len(pcmData)))...)
	buf = append(buf, encodeVarInt32(1500)...) // duration ms
	buf = append(buf, 0x01)                    // soundType == 1: no playback format
	writeLEUUID(&buf, major)
	writeLEUUID(&buf, sub)
	buf = append(buf, 0x01, 0x00) // fixedSizeSamples=true, temporalCompression=false
	writeLEUUID(&buf, formatType)
	buf = append(buf, pcmData...)

	b := NewByteStream(buf)
	s, err := decodeSound(b, minimalEntry())
	require.NoError(t, err)

	assert.Nil(t, s.Properties)
	assert.Equal(t, pcmData, s.Data)
	assert.Equal(t, int64(1500)*1e6, int64(s.Duration))
	assert.Equal(t, major, s.MediaType.MajorType)
	assert.Equal(t, sub, s.MediaType.SubType)
	assert.Equal(t, formatType, s.MediaType.FormatType)
	assert.True(t, s.MediaType.FixedSizeSamples)
	assert.False(t, s.MediaType.TemporalCompression)
	assert.Nil(t, s.MediaType.PBFormat)
}

func TestDecodeSoundWithPCMWaveFormat(t *testing.T) {
	pcmData := []byte{1, 2}
	id := uuid.UUID{}

	var buf []byte
	buf = append(buf, 0x01, 0x01) // both presence bytes set; zero-length property list follows
	buf = append(buf, encodeVarInt32(0)...)
	buf = append(buf, encodeVarInt32(int32(len(pcmData)))...)
	buf = append(buf, encodeVarInt32(0)...) // duration
	buf = append(buf, 0x02)                 // soundType == 2: playback format follows
	writeLEUUID(&buf, id)
	writeLEUUID(&buf, id)
	buf = append(buf, 0x00, 0x00)
	writeLEUUID(&buf, id)

	buf = append(buf, encodeVarInt32(waveFormatExSize)...)
	putU16V(&buf, waveFormatPCM)
	putU16V(&buf, 2)     // channels
	putU32V(&buf, 44100) // samplesPerSec
	putU32V(&buf, 176400)
	putU16V(&buf, 4) // blockAlign
	putU16V(&buf, 16)
	putU16V(&buf, 0) // cbSize
	buf = append(buf, pcmData...)

	b := NewByteStream(buf)
	s, err := decodeSound(b, minimalEntry())
	require.NoError(t, err)
	require.Empty(t, s.Properties)
	require.NotNil(t, s.MediaType.PBFormat)
	require.NotNil(t, s.MediaType.PBFormat.PCM)
	assert.Equal(t, uint16(2), s.MediaType.PBFormat.PCM.Channels)
	assert.Equal(t, uint32(44100), s.MediaType.PBFormat.PCM.SamplesPerSec)
	assert.Nil(t, s.MediaType.PBFormat.MP3)
}

func TestDecodeSoundRejectsBadSoundType(t *testing.T) {
	var buf []byte
	buf = append(buf, 0x00, 0x00)
	buf = append(buf, encodeVarInt32(0)...)
	buf = append(buf, encodeVarInt32(0)...)
	buf = append(buf, 0x03) // neither 1 nor 2
	writeLEUUID(&buf, uuid.UUID{})
	writeLEUUID(&buf, uuid.UUID{})
	buf = append(buf, 0x00, 0x00)
	writeLEUUID(&buf, uuid.UUID{})

	b := NewByteStream(buf)
	_, err := decodeSound(b, minimalEntry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedData)
}
