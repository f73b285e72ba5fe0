package player

import "encoding/binary"

// Stream adapts a ToneGenerator to the io.Reader the audio player
// pulls from: 16-bit little-endian interleaved stereo.
type Stream struct {
	gen   ToneGenerator
	left  []float32
	right []float32
}

// NewStream wraps gen for audio playback.
func NewStream(gen ToneGenerator) *Stream {
	return &Stream{gen: gen}
}

// Read renders the next block of samples into p.
func (s *Stream) Read(p []byte) (int, error) {
	samples := len(p) / 4 // 2 channels, 2 bytes per sample
	if samples == 0 {
		return 0, nil
	}
	if cap(s.left) < samples {
		s.left = make([]float32, samples)
		s.right = make([]float32, samples)
	}
	left := s.left[:samples]
	right := s.right[:samples]
	s.gen.Render(left, right)

	for i := 0; i < samples; i++ {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
