package player

import (
	"fmt"
	"io"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SynthGenerator renders events through a SoundFont synthesizer.
type SynthGenerator struct {
	mu    sync.Mutex
	synth *meltysynth.Synthesizer
}

var _ ToneGenerator = (*SynthGenerator)(nil)

// NewSynthGenerator parses a SoundFont and prepares a synthesizer
// rendering at SampleRate.
func NewSynthGenerator(soundFont io.ReadSeeker) (*SynthGenerator, error) {
	sf, err := meltysynth.NewSoundFont(soundFont)
	if err != nil {
		return nil, fmt.Errorf("failed to parse soundfont: %w", err)
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	return &SynthGenerator{synth: synth}, nil
}

// ProcessMessage forwards the event to the synthesizer.
func (g *SynthGenerator) ProcessMessage(status, data1, data2 byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	channel := int32(status & 0x0F)
	command := int32(status & 0xF0)
	g.synth.ProcessMidiMessage(channel, command, int32(data1), int32(data2))
}

// Render produces the next block of samples.
func (g *SynthGenerator) Render(left, right []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.synth.Render(left, right)
}
