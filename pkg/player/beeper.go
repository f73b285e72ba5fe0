package player

import (
	"sync"

	"github.com/zurustar/fue/pkg/smf"
)

const beeperAmp = 0.25

// Beeper is a single-voice pulse-wave generator, the software stand-in
// for a PWM buzzer: one frequency at a time, loudness expressed as the
// duty cycle of the pulse. Note-on picks the frequency with
// smf.NoteToFreq and maps velocity onto duty; note-off (or a note-on
// with zero velocity) silences only the sounding note.
type Beeper struct {
	mu     sync.Mutex
	note   byte
	freq   float64
	duty   float64 // fraction of the period spent high
	phase  float64
	active bool
}

var _ ToneGenerator = (*Beeper)(nil)

// NewBeeper returns a silent beeper.
func NewBeeper() *Beeper { return &Beeper{} }

// ProcessMessage reacts to note on/off and ignores everything else.
func (b *Beeper) ProcessMessage(status, data1, data2 byte) {
	command := status & 0xF0
	if command != smf.NoteOn && command != smf.NoteOff {
		return
	}

	velocity := data2
	if velocity > 127 {
		velocity = 127
	}
	if command == smf.NoteOff {
		velocity = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if velocity == 0 {
		// A release for some other note leaves the current tone alone.
		if b.active && b.note != data1 {
			return
		}
		b.active = false
		return
	}
	b.note = data1
	b.freq = smf.NoteToFreq(data1)
	// Duty as a buzzer PWM would be driven: velocity/127, cut to a
	// third to keep the pulse narrow.
	b.duty = float64(velocity) / 127 / 3
	b.active = true
}

// Render produces the pulse wave, or silence when no note sounds.
func (b *Beeper) Render(left, right []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active || b.freq <= 0 {
		for i := range left {
			left[i], right[i] = 0, 0
		}
		return
	}

	step := b.freq / SampleRate
	for i := range left {
		var s float32 = -beeperAmp
		if b.phase < b.duty {
			s = beeperAmp
		}
		left[i], right[i] = s, s
		b.phase += step
		if b.phase >= 1 {
			b.phase -= 1
		}
	}
}
