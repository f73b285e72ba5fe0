// Package transport reassembles the serial framing that carries SMF
// fragments to the decoder: a little-endian 0xBEEF magic, a sequence
// id, a channel id and a payload length, followed by that many payload
// bytes. Like the decoder it is push-driven and indifferent to how the
// bytes are fragmented on the wire.
package transport

import (
	"encoding/binary"
	"fmt"
)

// Magic opens every frame header, transmitted little-endian.
const Magic uint16 = 0xBEEF

const (
	headerSize = 5 // magic(2) + seqid + channel + payload size
	maxPayload = 0xFF
)

// FrameDecoder reassembles frames from an arbitrarily fragmented byte
// stream. On a magic mismatch it slides the header window one byte and
// keeps looking, so it can lock onto a stream joined mid-frame.
type FrameDecoder struct {
	// OnFrame is invoked for every reassembled frame. The payload slice
	// is reused between frames and only valid during the call.
	OnFrame func(seqid, channel byte, payload []byte)

	header [headerSize]byte
	hoff   int
	body   [maxPayload]byte
	boff   int
	inBody bool
}

// Feed consumes one fragment of the wire stream. It never fails: bytes
// that do not line up with a frame header are discarded during
// resynchronization.
func (d *FrameDecoder) Feed(buf []byte) {
	for len(buf) > 0 {
		if d.inBody {
			buf = d.feedBody(buf)
		} else {
			buf = d.feedHeader(buf)
		}
	}
}

func (d *FrameDecoder) feedHeader(buf []byte) []byte {
	n := copy(d.header[d.hoff:], buf)
	d.hoff += n
	if d.hoff < headerSize {
		return buf[n:]
	}
	if binary.LittleEndian.Uint16(d.header[0:2]) != Magic {
		copy(d.header[0:], d.header[1:])
		d.hoff = headerSize - 1
		return buf[n:]
	}
	d.inBody = true
	d.boff = 0
	return buf[n:]
}

func (d *FrameDecoder) feedBody(buf []byte) []byte {
	size := int(d.header[4])
	n := copy(d.body[d.boff:size], buf)
	d.boff += n
	if d.boff < size {
		return buf[n:]
	}
	if d.OnFrame != nil {
		d.OnFrame(d.header[2], d.header[3], d.body[:size])
	}
	d.inBody = false
	d.hoff = 0
	return buf[n:]
}

// AppendFrame appends one encoded frame to dst and returns the
// extended slice. The payload must fit the one-byte length field.
func AppendFrame(dst []byte, seqid, channel byte, payload []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return dst, fmt.Errorf("payload of %d bytes exceeds frame limit %d", len(payload), maxPayload)
	}
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], Magic)
	hdr[2] = seqid
	hdr[3] = channel
	hdr[4] = byte(len(payload))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...), nil
}
