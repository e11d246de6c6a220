// Package audio provides WAV encoding/decoding and PCM energy helpers
// for 16-bit mono LINEAR16 audio.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Errors returned while parsing WAV data.
var (
	ErrNotWAV       = errors.New("not a RIFF/WAVE file")
	ErrUnsupported  = errors.New("unsupported WAV format: need 16-bit PCM")
	ErrTruncated    = errors.New("truncated WAV data")
	ErrNoDataChunk  = errors.New("no data chunk found")
	ErrEmptyPayload = errors.New("empty audio payload")
)

// WAV holds decoded PCM audio.
type WAV struct {
	SampleRate int
	Channels   int
	Data       []byte // raw little-endian PCM16 bytes
}

// Duration returns the audio duration derived from the payload size.
func (w *WAV) Duration() float64 {
	if w.SampleRate == 0 || w.Channels == 0 {
		return 0
	}
	samples := len(w.Data) / 2 / w.Channels
	return float64(samples) / float64(w.SampleRate)
}

// Samples converts the raw payload into int16 samples.
func (w *WAV) Samples() []int16 {
	out := make([]int16, len(w.Data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(w.Data[i*2:]))
	}
	return out
}

// Decode parses WAV bytes and returns the PCM payload.
// Only PCM16 is accepted; extra chunks (LIST, fact, ...) are skipped.
func Decode(b []byte) (*WAV, error) {
	if len(b) < 12 {
		return nil, ErrTruncated
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		sampleRate int
		channels   int
		bits       int
		fmtSeen    bool
	)

	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		if off+size > len(b) {
			return nil, ErrTruncated
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrTruncated
			}
			format := int(binary.LittleEndian.Uint16(b[off:]))
			channels = int(binary.LittleEndian.Uint16(b[off+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(b[off+4:]))
			bits = int(binary.LittleEndian.Uint16(b[off+14:]))
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("%w (format=%d bits=%d)", ErrUnsupported, format, bits)
			}
			fmtSeen = true
		case "data":
			if !fmtSeen {
				return nil, ErrNoDataChunk
			}
			if size == 0 {
				return nil, ErrEmptyPayload
			}
			data := make([]byte, size)
			copy(data, b[off:off+size])
			return &WAV{SampleRate: sampleRate, Channels: channels, Data: data}, nil
		}

		// Chunks are word aligned.
		if size%2 == 1 {
			size++
		}
		off += size
	}

	return nil, ErrNoDataChunk
}

// Encode wraps PCM16 bytes in a mono WAV container.
func Encode(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

// EncodeSamples wraps int16 samples in a mono WAV container.
func EncodeSamples(samples []int16, sampleRate int) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return Encode(pcm, sampleRate)
}

// RMS computes the root mean square energy of int16 samples,
// normalized to [0, 1].
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
