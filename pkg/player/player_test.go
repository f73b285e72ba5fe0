package player

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"testing/quick"
)

// recordGenerator captures every message it is asked to perform.
type recordGenerator struct {
	mu       sync.Mutex
	messages [][3]byte
}

func (g *recordGenerator) ProcessMessage(status, data1, data2 byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, [3]byte{status, data1, data2})
}

func (g *recordGenerator) Render(left, right []float32) {
	for i := range left {
		left[i], right[i] = 0, 0
	}
}

func (g *recordGenerator) snapshot() [][3]byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][3]byte(nil), g.messages...)
}

// buildFile assembles a one-track SMF byte stream around body.
func buildFile(body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("MThd")
	buf.Write([]byte{0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x01, 0x00, 0x60})
	body = append(body, 0x00, 0xFF, 0x2F, 0x00)
	buf.WriteString("MTrk")
	n := len(body)
	buf.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(body)
	return buf.Bytes()
}

func TestPlayHeadless(t *testing.T) {
	data := buildFile([]byte{
		0x00, 0x90, 0x3C, 0x40,
		0x60, 0x80, 0x3C, 0x40,
		0x00, 0xC1, 0x05,
	})

	gen := &recordGenerator{}
	p, err := New(Config{Generator: gen, Channel: -1, NoWait: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Play(bytes.NewReader(data)); err != nil {
		t.Fatalf("Play: %v", err)
	}

	want := [][3]byte{
		{0x90, 0x3C, 0x40},
		{0x80, 0x3C, 0x40},
		{0xC1, 0x05, 0x00},
	}
	got := gen.snapshot()
	if len(got) != len(want) {
		t.Fatalf("performed %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPlayChannelFilter(t *testing.T) {
	data := buildFile([]byte{
		0x00, 0x90, 0x3C, 0x40, // channel 0
		0x00, 0x91, 0x3E, 0x40, // channel 1
		0x00, 0x80, 0x3C, 0x40, // channel 0
	})

	gen := &recordGenerator{}
	p, err := New(Config{Generator: gen, Channel: 1, NoWait: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Play(bytes.NewReader(data)); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := gen.snapshot()
	if len(got) != 1 || got[0] != [3]byte{0x91, 0x3E, 0x40} {
		t.Errorf("performed %v, want only the channel 1 event", got)
	}
}

func TestPlayTruncatedStream(t *testing.T) {
	data := buildFile(nil)
	data = data[:len(data)-2] // cut inside the end-of-track event

	gen := &recordGenerator{}
	p, err := New(Config{Generator: gen, Channel: -1, NoWait: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Play(bytes.NewReader(data)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("Play = %v, want ErrTruncated", err)
	}
}

func TestPlayMalformedStream(t *testing.T) {
	gen := &recordGenerator{}
	p, err := New(Config{Generator: gen, Channel: -1, NoWait: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = p.Play(bytes.NewReader([]byte("MThx..........")))
	if err == nil {
		t.Fatal("Play accepted a malformed stream")
	}
}

func TestNewRequiresGenerator(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New accepted an empty config")
	}
}

func TestBeeperNoteLifecycle(t *testing.T) {
	b := NewBeeper()
	left := make([]float32, 64)
	right := make([]float32, 64)

	b.Render(left, right)
	for i, v := range left {
		if v != 0 {
			t.Fatalf("sample %d = %v before any note", i, v)
		}
	}

	b.ProcessMessage(0x90, 69, 100)
	b.Render(left, right)
	nonZero := false
	for _, v := range left {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("beeper silent after note on")
	}

	// Releasing a different note must not cut the sounding one.
	b.ProcessMessage(0x80, 70, 0)
	b.Render(left, right)
	nonZero = false
	for _, v := range left {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("beeper silenced by an unrelated note off")
	}

	b.ProcessMessage(0x80, 69, 0)
	b.Render(left, right)
	for i, v := range left {
		if v != 0 {
			t.Fatalf("sample %d = %v after note off", i, v)
		}
	}
}

func TestBeeperSamplesBounded(t *testing.T) {
	property := func(note, velocity byte) bool {
		b := NewBeeper()
		b.ProcessMessage(0x90, note%128, velocity)
		left := make([]float32, 256)
		right := make([]float32, 256)
		b.Render(left, right)
		for i := range left {
			if left[i] < -1 || left[i] > 1 || left[i] != right[i] {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestStreamConversion(t *testing.T) {
	// A generator pinned at full scale must produce int16 extremes.
	gen := &constGenerator{value: 1}
	s := NewStream(gen)
	p := make([]byte, 16)
	n, err := s.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	for i := 0; i < 4; i++ {
		l := int16(uint16(p[i*4]) | uint16(p[i*4+1])<<8)
		r := int16(uint16(p[i*4+2]) | uint16(p[i*4+3])<<8)
		if l != 32767 || r != 32767 {
			t.Fatalf("sample %d = %d/%d, want 32767", i, l, r)
		}
	}

	// Out-of-range samples clamp instead of wrapping.
	gen.value = 2
	if _, err := s.Read(p); err != nil {
		t.Fatalf("Read: %v", err)
	}
	l := int16(uint16(p[0]) | uint16(p[1])<<8)
	if l != 32767 {
		t.Fatalf("clamped sample = %d, want 32767", l)
	}
}

type constGenerator struct{ value float32 }

func (g *constGenerator) ProcessMessage(status, data1, data2 byte) {}

func (g *constGenerator) Render(left, right []float32) {
	for i := range left {
		left[i], right[i] = g.value, g.value
	}
}
