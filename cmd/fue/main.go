package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/zurustar/fue/pkg/cli"
	"github.com/zurustar/fue/pkg/logger"
	"github.com/zurustar/fue/pkg/metatext"
	"github.com/zurustar/fue/pkg/player"
	"github.com/zurustar/fue/pkg/transport"
)

func main() {
	config, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if config.ShowHelp {
		cli.PrintHelp()
		return
	}
	if config.MIDIPath == "" {
		cli.PrintHelp()
		os.Exit(2)
	}

	if err := logger.InitLogger(config.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.GetLogger()

	if err := run(config, log); err != nil {
		log.Error("playback failed", "error", err)
		os.Exit(1)
	}
}

func run(config *cli.Config, log *slog.Logger) error {
	var source io.Reader
	if config.MIDIPath == "-" {
		source = os.Stdin
	} else {
		f, err := os.Open(config.MIDIPath)
		if err != nil {
			return err
		}
		defer f.Close()
		source = f
	}

	gen, err := buildGenerator(config, log)
	if err != nil {
		return err
	}

	var audioCtx *audio.Context
	if !config.Headless {
		audioCtx = audio.NewContext(player.SampleRate)
	}

	if config.Framed {
		source = framedReader(source, log)
	}

	meta := metatext.NewCollector(0)
	p, err := player.New(player.Config{
		Generator:    gen,
		AudioContext: audioCtx,
		Channel:      config.Channel,
		ChunkSize:    config.ChunkSize,
		NoWait:       config.Headless,
		Meta:         meta,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	if config.Timeout > 0 {
		timer := time.AfterFunc(config.Timeout, p.Stop)
		defer timer.Stop()
	}

	log.Info("playing", "file", config.MIDIPath, "channel", config.Channel)
	playErr := p.Play(source)

	if name, ok := meta.TrackName(); ok {
		log.Info("track name", "name", name)
	}
	return playErr
}

func buildGenerator(config *cli.Config, log *slog.Logger) (player.ToneGenerator, error) {
	switch {
	case config.Beeper:
		return player.NewBeeper(), nil
	case config.SoundFont != "":
		f, err := os.Open(config.SoundFont)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		gen, err := player.NewSynthGenerator(f)
		if err != nil {
			return nil, err
		}
		log.Info("soundfont loaded", "file", config.SoundFont)
		return gen, nil
	case config.Headless:
		// Nothing will be rendered; the beeper serves as a no-op target.
		return player.NewBeeper(), nil
	}
	return nil, errors.New("either --soundfont or --beeper is required")
}

// framedReader unwraps the serial frame format, forwarding each frame's
// payload as plain stream bytes.
func framedReader(src io.Reader, log *slog.Logger) io.Reader {
	pr, pw := io.Pipe()
	fd := &transport.FrameDecoder{
		OnFrame: func(seqid, channel byte, payload []byte) {
			log.Debug("frame received", "seqid", seqid, "channel", channel, "len", len(payload))
			pw.Write(payload)
		},
	}
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				fd.Feed(buf[:n])
			}
			if err == io.EOF {
				pw.Close()
				return
			}
			if err != nil {
				pw.CloseWithError(err)
				return
			}
		}
	}()
	return pr
}
