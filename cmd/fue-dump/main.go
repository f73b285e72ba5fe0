package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/zurustar/fue/pkg/metatext"
	"github.com/zurustar/fue/pkg/smf"
)

var chunkSize = flag.Int("chunk-size", 32, "fragment size fed to the decoder")

// dumpSink prints one line per decoded event, with a running clock
// accumulated from the microsecond deltas.
type dumpSink struct {
	w      io.Writer
	clock  uint64
	events int
}

func (s *dumpSink) OnEvent(ev smf.Event) {
	s.clock += uint64(ev.Delta)
	s.events++
	line := fmt.Sprintf("%12.6f  ch=%-2d  %-14s  %3d %3d",
		float64(s.clock)/1e6, ev.Channel(), commandName(ev.Command()), ev.Param1, ev.Param2)
	if cmd := ev.Command(); cmd == smf.NoteOn || cmd == smf.NoteOff {
		line += fmt.Sprintf("  (%.1f Hz)", smf.NoteToFreq(ev.Param1))
	}
	fmt.Fprintln(s.w, line)
}

func (s *dumpSink) OnComplete() {
	fmt.Fprintf(s.w, "complete: %d events, %.6fs\n", s.events, float64(s.clock)/1e6)
}

func commandName(command byte) string {
	switch command {
	case smf.NoteOff:
		return "note-off"
	case smf.NoteOn:
		return "note-on"
	case smf.PolyAftertouch:
		return "poly-aftertouch"
	case smf.ControlChange:
		return "control-change"
	case smf.ProgramChange:
		return "program-change"
	case smf.ChannelAftertouch:
		return "aftertouch"
	case smf.PitchBend:
		return "pitch-bend"
	}
	return fmt.Sprintf("0x%02X", command)
}

func main() {
	flag.Parse()
	if *chunkSize <= 0 {
		fmt.Fprintln(os.Stderr, "chunk-size must be positive")
		os.Exit(2)
	}

	source := io.Reader(os.Stdin)
	if flag.NArg() > 0 && flag.Arg(0) != "-" {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		source = f
	}

	sink := &dumpSink{w: os.Stdout}
	meta := metatext.NewCollector(0)
	dec := smf.NewDecoder(sink)
	dec.SetMetaSink(meta)

	buf := make([]byte, *chunkSize)
	for {
		n, err := source.Read(buf)
		if n > 0 {
			if ferr := dec.Feed(buf[:n]); ferr != nil {
				fmt.Fprintln(os.Stderr, ferr)
				os.Exit(1)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	for _, item := range meta.Items() {
		fmt.Printf("meta 0x%02X: %s\n", item.Type, item.Text)
	}
}
