// Package player performs decoded SMF events in real time: it streams
// a byte source through the decoder in small fragments, schedules each
// event by its microsecond delta and renders audio through a tone
// generator, either a SoundFont synthesizer or a square-wave beeper in
// the manner of a piezo buzzer.
package player

// SampleRate is the audio sample rate used for rendering.
const SampleRate = 44100

// ToneGenerator turns channel events into audio. ProcessMessage is
// called from the scheduling goroutine and Render from the audio
// callback, so implementations synchronize internally.
type ToneGenerator interface {
	// ProcessMessage applies one channel event. status carries the
	// command in its high nibble and the channel in its low nibble.
	ProcessMessage(status, data1, data2 byte)

	// Render fills both channels with the next len(left) samples in
	// the range [-1, 1]. left and right are always the same length.
	Render(left, right []float32)
}
