package player

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/zurustar/fue/pkg/smf"
)

// DefaultChunkSize is how many bytes are fed to the decoder per read,
// sized like a small serial receive buffer; real playback therefore
// exercises the same fragment resumption the tests do.
const DefaultChunkSize = 32

const eventQueueLen = 64

// ErrTruncated is returned by Play when the source ends before every
// declared track has finished.
var ErrTruncated = errors.New("stream ended before the last track completed")

// Config parameterizes a Player.
type Config struct {
	// Generator receives the performed events. Required.
	Generator ToneGenerator

	// AudioContext drives audible output. Nil runs without audio
	// (headless): events are still decoded, scheduled and forwarded.
	AudioContext *audio.Context

	// Channel selects the single MIDI channel to perform, 0-15. A
	// negative value performs all channels.
	Channel int

	// ChunkSize is the fragment size fed to the decoder; 0 selects
	// DefaultChunkSize.
	ChunkSize int

	// NoWait drains the stream without sleeping the event deltas.
	NoWait bool

	// Meta optionally observes skipped meta payloads (see metatext).
	Meta smf.MetaSink

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Player streams one SMF source through the decoder and performs it.
// A Player is good for a single Play call.
type Player struct {
	cfg    Config
	logger *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// New validates cfg and returns a Player.
func New(cfg Config) (*Player, error) {
	if cfg.Generator == nil {
		return nil, errors.New("player: Generator is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}, nil
}

// Stop interrupts a Play call. Safe to call from any goroutine, any
// number of times.
func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// chanSink bridges the decoder's synchronous callbacks onto the
// scheduling goroutine. The bounded channel applies back-pressure: Feed
// blocks while the scheduler is sleeping out a delta.
type chanSink struct {
	events    chan<- smf.Event
	stop      <-chan struct{}
	completed bool
}

func (s *chanSink) OnEvent(ev smf.Event) {
	select {
	case s.events <- ev:
	case <-s.stop:
	}
}

func (s *chanSink) OnComplete() { s.completed = true }

// Play reads r to the end of the MIDI stream, performing events as
// they decode. It blocks until the stream completes, the source ends,
// a decode error occurs or Stop is called.
func (p *Player) Play(r io.Reader) error {
	events := make(chan smf.Event, eventQueueLen)
	sink := &chanSink{events: events, stop: p.stop}
	dec := smf.NewDecoder(sink)
	if p.cfg.Meta != nil {
		dec.SetMetaSink(p.cfg.Meta)
	}

	if p.cfg.AudioContext != nil {
		audioPlayer, err := p.cfg.AudioContext.NewPlayer(NewStream(p.cfg.Generator))
		if err != nil {
			return fmt.Errorf("failed to create audio player: %w", err)
		}
		audioPlayer.Play()
		defer audioPlayer.Close()
	}

	finished := make(chan struct{})
	go p.perform(events, finished)

	err := p.feed(dec, sink, r)
	close(events)
	<-finished

	if err == nil && sink.completed {
		p.logger.Info("playback complete")
	}
	return err
}

func (p *Player) feed(dec *smf.Decoder, sink *chanSink, r io.Reader) error {
	buf := make([]byte, p.cfg.ChunkSize)
	for {
		select {
		case <-p.stop:
			return nil
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			if ferr := dec.Feed(buf[:n]); ferr != nil {
				return fmt.Errorf("decode failed: %w", ferr)
			}
			if sink.completed {
				return nil
			}
		}
		if err == io.EOF {
			if !sink.completed {
				return ErrTruncated
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
	}
}

// perform sleeps out each event's delta, then hands it to the
// generator, honoring the channel filter.
func (p *Player) perform(events <-chan smf.Event, finished chan<- struct{}) {
	defer close(finished)
	for ev := range events {
		if !p.cfg.NoWait && ev.Delta > 0 {
			select {
			case <-p.stop:
				return
			case <-time.After(time.Duration(ev.Delta) * time.Microsecond):
			}
		}
		if p.cfg.Channel >= 0 && int(ev.Channel()) != p.cfg.Channel {
			continue
		}
		p.cfg.Generator.ProcessMessage(ev.Status, ev.Param1, ev.Param2)
	}
}
