// Package metatext collects the text-class meta events an SMF stream
// carries (track names, lyrics, markers) while the decoder skips them.
// Payloads that are not valid UTF-8 are decoded as Shift_JIS, the
// encoding legacy Japanese MIDI files almost universally use.
package metatext

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/fue/pkg/smf"
)

// DefaultLimit caps how many payload bytes of one meta event are kept.
// The decoder itself never buffers; this bound keeps the collector from
// ballooning on a hostile stream.
const DefaultLimit = 4096

// Item is one collected text event.
type Item struct {
	Type byte // smf.MetaText .. smf.MetaDeviceName
	Text string
}

// Collector implements smf.MetaSink, assembling the payload chunks of
// text-class meta events and decoding them once complete. Other meta
// types pass through untouched.
type Collector struct {
	limit   int
	curType byte
	pending []byte
	items   []Item
}

var _ smf.MetaSink = (*Collector)(nil)

// NewCollector returns a collector keeping at most limit bytes per
// event; limit <= 0 selects DefaultLimit.
func NewCollector(limit int) *Collector {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Collector{limit: limit}
}

// OnMetaChunk accumulates one fragment of a skipped meta payload.
// Chunks of a single event arrive back to back, so the previous event
// is complete whenever remaining reaches zero.
func (c *Collector) OnMetaChunk(metaType byte, chunk []byte, remaining uint32) {
	if metaType < smf.MetaText || metaType > smf.MetaDeviceName {
		return
	}
	c.curType = metaType
	if room := min(c.limit-len(c.pending), len(chunk)); room > 0 {
		c.pending = append(c.pending, chunk[:room]...)
	}
	if remaining == 0 {
		c.flush()
	}
}

func (c *Collector) flush() {
	text := decodeText(c.pending)
	c.items = append(c.items, Item{Type: c.curType, Text: text})
	c.pending = c.pending[:0]
}

// Items returns every text event collected so far, in stream order.
func (c *Collector) Items() []Item { return c.items }

// TrackName returns the first track-name event, if any was seen.
func (c *Collector) TrackName() (string, bool) {
	for _, it := range c.items {
		if it.Type == smf.MetaTrackName {
			return it.Text, true
		}
	}
	return "", false
}

// decodeText interprets b as UTF-8 when valid, otherwise as Shift_JIS.
// Undecodable bytes fall back to the raw string.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	r := transform.NewReader(bytes.NewReader(b), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
