// Package ogg frames packets into Ogg pages (RFC 3533) and maps native FLAC
// streams into Ogg.
package ogg

import (
	"encoding/binary"
	"fmt"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/media"
)

// Header type flags
const (
	FlagContinued = 0x01
	FlagBOS       = 0x02
	FlagEOS       = 0x04
)

const (
	capture   = "OggS"
	headerLen = 27
	crcOffset = 22
	maxLacing = 255
	// largest payload whose lacing fits one page
	MaxPagePayload = 255*255 - 1
)

// NoGranule marks a page on which no packet completes.
const NoGranule = ^uint64(0)

// Page is one parsed Ogg page.
type Page struct {
	Flags    byte
	Granule  uint64
	Serial   uint32
	Sequence uint32
	CRC      uint32
	Lacing   []byte
	Payload  []byte
}

// Segments returns the lacing values for a single packet of n bytes. A
// packet that is an exact multiple of 255 ends with a zero, so an empty
// packet is [0].
func Segments(n int) []byte {
	lacing := make([]byte, 0, n/maxLacing+1)
	for n >= maxLacing {
		lacing = append(lacing, maxLacing)
		n -= maxLacing
	}
	return append(lacing, byte(n))
}

// BuildPage frames payload as the single complete packet of one page.
func BuildPage(payload []byte, serial, seq uint32, flags byte, granule uint64) ([]byte, error) {
	if len(payload) > MaxPagePayload {
		return nil, fmt.Errorf("ogg: %d byte payload exceeds one page: %w", len(payload), media.ErrInvalidFrameData)
	}
	return buildPage(Segments(len(payload)), payload, serial, seq, flags, granule), nil
}

func buildPage(lacing, payload []byte, serial, seq uint32, flags byte, granule uint64) []byte {
	w := binio.NewWriter(headerLen + len(lacing) + len(payload))
	w.Tag(capture)
	w.U8(0) // version
	w.U8(flags)
	w.U64LE(granule)
	w.U32LE(serial)
	w.U32LE(seq)
	w.U32LE(0) // crc
	w.U8(uint8(len(lacing)))
	w.Raw(lacing)
	w.Raw(payload)
	w.PutU32LEAt(crcOffset, CRC32(w.Bytes()))
	return w.Bytes()
}

// ReadPage parses the page at the start of data and verifies its checksum.
// It returns the page and the number of bytes it occupies.
func ReadPage(data []byte) (*Page, int, error) {
	if len(data) < headerLen {
		return nil, 0, fmt.Errorf("ogg: %d bytes: %w", len(data), media.ErrTooSmall)
	}
	if string(data[:4]) != capture {
		return nil, 0, fmt.Errorf("ogg: capture pattern %q: %w", data[:4], media.ErrInvalidSignature)
	}
	if data[4] != 0 {
		return nil, 0, fmt.Errorf("ogg: stream structure version %d: %w", data[4], media.ErrUnsupportedFeature)
	}
	p := &Page{
		Flags:    data[5],
		Granule:  binary.LittleEndian.Uint64(data[6:14]),
		Serial:   binary.LittleEndian.Uint32(data[14:18]),
		Sequence: binary.LittleEndian.Uint32(data[18:22]),
		CRC:      binary.LittleEndian.Uint32(data[22:26]),
	}
	nseg := int(data[26])
	if len(data) < headerLen+nseg {
		return nil, 0, fmt.Errorf("ogg: segment table: %w", media.ErrUnexpectedEOF)
	}
	p.Lacing = data[headerLen : headerLen+nseg]
	size := 0
	for _, l := range p.Lacing {
		size += int(l)
	}
	end := headerLen + nseg + size
	if len(data) < end {
		return nil, 0, fmt.Errorf("ogg: page %d payload needs %d bytes: %w", p.Sequence, size, media.ErrUnexpectedEOF)
	}
	p.Payload = data[headerLen+nseg : end]

	// checksum over a copy with the crc field zeroed
	buf := make([]byte, end)
	copy(buf, data[:end])
	clear(buf[crcOffset : crcOffset+4])
	if sum := CRC32(buf); sum != p.CRC {
		return nil, 0, fmt.Errorf("ogg: page %d crc 0x%08X, computed 0x%08X: %w", p.Sequence, p.CRC, sum, media.ErrChecksum)
	}
	return p, end, nil
}

// Pages parses consecutive pages until data is exhausted.
func Pages(data []byte) ([]*Page, error) {
	var pages []*Page
	for off := 0; off < len(data); {
		p, n, err := ReadPage(data[off:])
		if err != nil {
			return nil, fmt.Errorf("ogg: offset %d: %w", off, err)
		}
		pages = append(pages, p)
		off += n
	}
	return pages, nil
}

// CanDecode sniffs the capture pattern.
func CanDecode(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == capture
}

// Packets reassembles packets across the pages of one logical stream.
// A packet still open after the last page is returned as is.
func Packets(pages []*Page) ([][]byte, error) {
	var packets [][]byte
	var cur []byte
	open := false
	for _, p := range pages {
		if p.Flags&FlagContinued != 0 && !open {
			return nil, fmt.Errorf("ogg: page %d continues a packet that was never started: %w", p.Sequence, media.ErrMalformedOpcode)
		}
		if p.Flags&FlagContinued == 0 && open {
			return nil, fmt.Errorf("ogg: page %d drops an unfinished packet: %w", p.Sequence, media.ErrMalformedOpcode)
		}
		off := 0
		for _, l := range p.Lacing {
			cur = append(cur, p.Payload[off:off+int(l)]...)
			off += int(l)
			open = l == maxLacing
			if !open {
				packets = append(packets, cur)
				cur = nil
			}
		}
	}
	if open {
		packets = append(packets, cur)
	}
	return packets, nil
}
