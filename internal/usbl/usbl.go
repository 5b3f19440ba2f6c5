// Package usbl reads position samples from a Water Linked style USBL
// transducer over TCP and averages them into a fix.
package usbl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"
)

// Sample is one decoded acoustic position reading: east/north offsets
// from the transducer in meters and a heading in degrees.
type Sample struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Fix is the arithmetic mean of one or more samples.
type Fix struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Samples int     `json:"samples"`
}

// ErrInsufficientSamples is returned when no valid sample was decoded
// before the acquisition deadline.
var ErrInsufficientSamples = errors.New("usbl: no valid samples before deadline")

const (
	marker = 0x45 // ASCII 'E'

	// A frame is two marker bytes one byte apart followed by a 5-byte
	// payload: int16 east, int16 north (both little-endian decimeters)
	// and a uint8 heading in degrees.
	frameLen = 8
)

// Decoder is an incremental frame scanner for the USBL byte stream.
// The wire format has no length prefix or checksum, so framing is
// marker-based and can misframe when payload bytes alias the marker
// value; the decoder resynchronises on the next marker pair. The zero
// value is ready to use.
type Decoder struct {
	buf []byte
}

// Feed appends p to the internal buffer and returns every complete
// sample that can be decoded from it. Incomplete trailing bytes are
// kept for the next call; bytes that cannot start a frame are dropped.
func (d *Decoder) Feed(p []byte) []Sample {
	d.buf = append(d.buf, p...)

	var samples []Sample
	i := 0
	for i+frameLen <= len(d.buf) {
		if d.buf[i] != marker || d.buf[i+2] != marker {
			i++
			continue
		}
		samples = append(samples, decodePayload(d.buf[i+3:i+frameLen]))
		i += frameLen
	}
	if i > 0 {
		d.buf = append(d.buf[:0], d.buf[i:]...)
	}
	return samples
}

func decodePayload(p []byte) Sample {
	east := int16(binary.LittleEndian.Uint16(p[0:2]))
	north := int16(binary.LittleEndian.Uint16(p[2:4]))
	heading := p[4]

	return Sample{
		X:       float64(east) / 10.0,
		Y:       float64(north) / 10.0,
		Heading: float64(heading),
	}
}

// Average returns the arithmetic mean of samples. It panics if samples
// is empty; callers guarantee at least one sample.
func Average(samples []Sample) Fix {
	var sx, sy, sh float64
	for _, s := range samples {
		sx += s.X
		sy += s.Y
		sh += s.Heading
	}
	n := float64(len(samples))
	return Fix{
		X:       sx / n,
		Y:       sy / n,
		Heading: sh / n,
		Samples: len(samples),
	}
}

// Reader connects to a USBL transducer and acquires averaged fixes.
type Reader struct {
	Host        string
	Port        int
	DialTimeout time.Duration
}

func (r *Reader) addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// AcquireFix reads the USBL stream until samples valid frames have been
// decoded or timeout elapses, whichever comes first, and returns the
// mean of everything decoded. The connection is closed on every exit
// path. Returns ErrInsufficientSamples when the deadline passes with
// nothing decoded.
func (r *Reader) AcquireFix(samples int, timeout time.Duration) (Fix, error) {
	if samples < 1 {
		samples = 1
	}

	conn, err := net.DialTimeout("tcp", r.addr(), r.DialTimeout)
	if err != nil {
		return Fix{}, fmt.Errorf("usbl: connect %s: %w", r.addr(), err)
	}
	defer conn.Close()
	log.Printf("usbl: connected to %s, reading %d samples", r.addr(), samples)

	deadline := time.Now().Add(timeout)
	dec := &Decoder{}
	collected := make([]Sample, 0, samples)
	buf := make([]byte, 1024)

	for len(collected) < samples {
		_ = conn.SetReadDeadline(deadline)

		n, rerr := conn.Read(buf)
		if n > 0 {
			for _, s := range dec.Feed(buf[:n]) {
				collected = append(collected, s)
				log.Printf("usbl: sample %d: x=%.2fm y=%.2fm heading=%.0f°",
					len(collected), s.X, s.Y, s.Heading)
				if len(collected) == samples {
					break
				}
			}
		}
		if rerr != nil {
			if errors.Is(rerr, os.ErrDeadlineExceeded) || errors.Is(rerr, io.EOF) {
				break
			}
			if len(collected) == 0 {
				return Fix{}, fmt.Errorf("usbl: read: %w", rerr)
			}
			break
		}
	}

	if len(collected) == 0 {
		return Fix{}, ErrInsufficientSamples
	}

	fix := Average(collected)
	log.Printf("usbl: averaged fix: x=%.2fm y=%.2fm heading=%.2f° (%d samples)",
		fix.X, fix.Y, fix.Heading, fix.Samples)
	return fix, nil
}

// Stream decodes samples continuously and hands each one to fn until
// ctx is cancelled or the connection fails.
func (r *Reader) Stream(ctx context.Context, fn func(Sample)) error {
	conn, err := net.DialTimeout("tcp", r.addr(), r.DialTimeout)
	if err != nil {
		return fmt.Errorf("usbl: connect %s: %w", r.addr(), err)
	}
	defer conn.Close()
	log.Printf("usbl: streaming samples from %s", r.addr())

	dec := &Decoder{}
	buf := make([]byte, 1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Short read deadline so cancellation is noticed promptly.
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))

		n, rerr := conn.Read(buf)
		if n > 0 {
			for _, s := range dec.Feed(buf[:n]) {
				fn(s)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, os.ErrDeadlineExceeded) {
				continue
			}
			return fmt.Errorf("usbl: read: %w", rerr)
		}
	}
}
