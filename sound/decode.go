package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/hajimehoshi/go-mp3"
)

// pcm is interleaved 16-bit audio.
type pcm struct {
	samples    []int16
	channels   int
	sampleRate int
}

func (p pcm) frames() int {
	return len(p.samples) / p.channels
}

// decodePCM detects RIFF/WAVE by its header and treats everything else as
// MPEG audio.
func decodePCM(data []byte) (pcm, error) {
	if len(data) == 0 {
		return pcm{}, fmt.Errorf("%w: empty buffer", ErrDecodeFailed)
	}
	if isWAV(data) {
		return decodeWAV(data)
	}
	return decodeMP3(data)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func decodeMP3(data []byte) (pcm, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return pcm{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return pcm{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if len(raw) < 4 {
		return pcm{}, fmt.Errorf("%w: no audio frames", ErrDecodeFailed)
	}

	// go-mp3 always yields 16-bit little-endian stereo
	return pcm{
		samples:    convertBytesToSamples(raw),
		channels:   2,
		sampleRate: decoder.SampleRate(),
	}, nil
}

func decodeWAV(data []byte) (pcm, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return pcm{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	defer streamer.Close()

	samples := streamToSamples(streamer)
	if len(samples) == 0 {
		if err := streamer.Err(); err != nil {
			return pcm{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
		}
		return pcm{}, fmt.Errorf("%w: no audio frames", ErrDecodeFailed)
	}

	return pcm{
		samples:    samples,
		channels:   2,
		sampleRate: int(format.SampleRate),
	}, nil
}

// streamToSamples drains a beep streamer into interleaved stereo int16.
func streamToSamples(s beep.Streamer) []int16 {
	var out []int16
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, floatToSample(frame[0]), floatToSample(frame[1]))
		}
		if !ok {
			return out
		}
	}
}

func floatToSample(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}

func convertBytesToSamples(audioBytes []byte) []int16 {
	samples := make([]int16, len(audioBytes)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(audioBytes[i*2 : i*2+2]))
	}
	return samples
}
