package ogg

import (
	"fmt"
	"io"
	"log/slog"
)

// Writer emits one logical bitstream, starting each packet on a fresh page.
type Writer struct {
	w      io.Writer
	serial uint32
	seq    uint32
}

// NewWriter returns a Writer for the stream with the given serial number.
func NewWriter(w io.Writer, serial uint32) *Writer {
	return &Writer{w: w, serial: serial}
}

// Sequence is the number of pages written so far.
func (w *Writer) Sequence() uint32 {
	return w.seq
}

// WritePacket writes packet on one or more pages. FlagBOS is applied to the
// first page and FlagEOS to the last; pages that do not complete the packet
// carry NoGranule and following pages are marked continued.
func (w *Writer) WritePacket(packet []byte, granule uint64, flags byte) error {
	lacing := Segments(len(packet))
	first := true
	for len(lacing) > 0 {
		n := min(len(lacing), maxLacing)
		page := lacing[:n]
		lacing = lacing[n:]

		size := 0
		for _, l := range page {
			size += int(l)
		}
		body := packet[:size]
		packet = packet[size:]

		var f byte
		if first {
			f |= flags & FlagBOS
		} else {
			f |= FlagContinued
		}
		g := NoGranule
		if len(lacing) == 0 {
			f |= flags & FlagEOS
			g = granule
		}
		if _, err := w.w.Write(buildPage(page, body, w.serial, w.seq, f, g)); err != nil {
			return fmt.Errorf("ogg: write page %d: %w", w.seq, err)
		}
		slog.Debug("ogg: page",
			slog.Uint64("serial", uint64(w.serial)),
			slog.Uint64("seq", uint64(w.seq)),
			slog.Int("flags", int(f)),
			slog.Int("bytes", size))
		w.seq++
		first = false
	}
	return nil
}
