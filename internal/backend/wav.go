package backend

import (
	"bytes"
	"encoding/binary"

	"github.com/speechpipe/speechpipe/internal/audio"
)

// encodeWAV serializes a normalized float frame as a minimal WAV container:
// 44-byte RIFF/WAVE header followed by little-endian 16-bit PCM samples
// scaled by 32767.
func encodeWAV(frame audio.Frame) []byte {
	var buf bytes.Buffer

	const bitsPerSample = 16
	sampleRate := frame.SampleRate
	channels := frame.Channels
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	dataSize := len(frame.Samples) * 2
	fileSize := 36 + dataSize

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range frame.Samples {
		pcm := int16(s * 32767.0)
		binary.Write(&buf, binary.LittleEndian, pcm)
	}

	return buf.Bytes()
}
