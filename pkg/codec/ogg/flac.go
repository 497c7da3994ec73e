package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/media"
)

const (
	flacMagic      = "fLaC"
	streamInfoLen  = 34
	mappingVersion = 1
	// 0x7F "FLAC" major minor count(2) "fLaC"
	mappingHeaderLen = 13
)

// flacFrame is one native FLAC frame and the samples it holds per channel.
type flacFrame struct {
	data      []byte
	blockSize int
}

// flacMetadata splits a native stream into its metadata blocks (header
// included) and the frame data that follows them.
func flacMetadata(data []byte) ([][]byte, []byte, error) {
	if len(data) < 4 || string(data[:4]) != flacMagic {
		return nil, nil, fmt.Errorf("ogg: flac magic: %w", media.ErrInvalidSignature)
	}
	r := binio.NewReader(data)
	_ = r.Skip(4)
	var blocks [][]byte
	for {
		start := r.Pos()
		hdr, err := r.U32BE()
		if err != nil {
			return nil, nil, fmt.Errorf("ogg: flac metadata block %d: %w", len(blocks), err)
		}
		last, kind, n := hdr&0x80000000 != 0, byte(hdr>>24)&0x7F, int(hdr&0xFFFFFF)
		if len(blocks) == 0 && (kind != 0 || n != streamInfoLen) {
			return nil, nil, fmt.Errorf("ogg: first flac metadata block type %d size %d: %w", kind, n, media.ErrMissingChunk)
		}
		if err := r.Skip(n); err != nil {
			return nil, nil, fmt.Errorf("ogg: flac metadata block %d: %w", len(blocks), err)
		}
		blocks = append(blocks, data[start:r.Pos()])
		slog.Debug("ogg: flac metadata", slog.Int("type", int(kind)), slog.Int("size", n))
		if last {
			break
		}
	}
	rest, _ := r.Bytes(r.Remaining())
	return blocks, rest, nil
}

// crc8 is the FLAC frame header checksum, polynomial 0x07.
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// utf8Len is the length of the UTF-8 style coded frame number starting
// with b, or 0 if b cannot start one.
func utf8Len(b byte) int {
	switch {
	case b&0x80 == 0:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	case b&0xFC == 0xF8:
		return 5
	case b&0xFE == 0xFC:
		return 6
	case b == 0xFE:
		return 7
	}
	return 0
}

// frameHeader validates a frame header at the start of b and returns its
// block size.
func frameHeader(b []byte) (int, bool) {
	if len(b) < 6 || b[0] != 0xFF || b[1]&0xFE != 0xF8 {
		return 0, false
	}
	bsCode, srCode := b[2]>>4, b[2]&0x0F
	if bsCode == 0 || srCode == 0x0F {
		return 0, false
	}
	if b[3]>>4 > 10 || (b[3]>>1)&0x07 == 3 || b[3]&0x01 != 0 {
		return 0, false
	}
	n := utf8Len(b[4])
	if n == 0 || len(b) < 4+n {
		return 0, false
	}
	for _, c := range b[5 : 4+n] {
		if c&0xC0 != 0x80 {
			return 0, false
		}
	}
	pos := 4 + n

	var size int
	switch {
	case bsCode == 1:
		size = 192
	case bsCode <= 5:
		size = 576 << (bsCode - 2)
	case bsCode == 6:
		if len(b) < pos+1 {
			return 0, false
		}
		size = int(b[pos]) + 1
		pos++
	case bsCode == 7:
		if len(b) < pos+2 {
			return 0, false
		}
		size = int(binary.BigEndian.Uint16(b[pos:])) + 1
		pos += 2
	default:
		size = 256 << (bsCode - 8)
	}
	switch srCode {
	case 12:
		pos++
	case 13, 14:
		pos += 2
	}
	if len(b) < pos+1 || crc8(b[:pos]) != b[pos] {
		return 0, false
	}
	return size, true
}

// flacFrames splits frame data at every valid frame header.
func flacFrames(data []byte) []flacFrame {
	var starts []int
	var sizes []int
	for i := 0; i+1 < len(data); i++ {
		if data[i] != 0xFF || data[i+1]&0xFE != 0xF8 {
			continue
		}
		if size, ok := frameHeader(data[i:]); ok {
			starts = append(starts, i)
			sizes = append(sizes, size)
		}
	}
	if len(starts) > 0 && starts[0] > 0 {
		slog.Warn("ogg: skipping bytes before first flac frame", slog.Int("bytes", starts[0]))
	}
	frames := make([]flacFrame, len(starts))
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		frames[i] = flacFrame{data: data[s:end], blockSize: sizes[i]}
	}
	return frames
}

// WrapFLAC maps a native FLAC stream into Ogg. The first page (BOS) carries
// the mapping header and STREAMINFO, each further metadata block gets its
// own page, then one page per frame with the running sample count as
// granule. The last page is always EOS.
func WrapFLAC(flac []byte, serial uint32) ([]byte, error) {
	blocks, audio, err := flacMetadata(flac)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, serial)

	head := binio.NewWriter(mappingHeaderLen + len(blocks[0]))
	head.U8(0x7F)
	head.Tag("FLAC")
	head.U8(mappingVersion)
	head.U8(0)
	head.U16BE(uint16(len(blocks) - 1))
	head.Tag(flacMagic)
	head.Raw(blocks[0])
	if err := w.WritePacket(head.Bytes(), 0, FlagBOS); err != nil {
		return nil, err
	}
	for _, b := range blocks[1:] {
		if err := w.WritePacket(b, 0, 0); err != nil {
			return nil, err
		}
	}

	frames := flacFrames(audio)
	var granule uint64
	for i, f := range frames {
		granule += uint64(f.blockSize)
		var flags byte
		if i == len(frames)-1 {
			flags = FlagEOS
		}
		if err := w.WritePacket(f.data, granule, flags); err != nil {
			return nil, err
		}
	}
	if len(frames) == 0 {
		if err := w.WritePacket(nil, 0, FlagEOS); err != nil {
			return nil, err
		}
	}
	slog.Debug("ogg: wrapped flac",
		slog.Int("metadata", len(blocks)),
		slog.Int("frames", len(frames)),
		slog.Uint64("samples", granule),
		slog.Uint64("pages", uint64(w.Sequence())))
	return buf.Bytes(), nil
}

// UnwrapFLAC reverses WrapFLAC for the first logical stream in data.
func UnwrapFLAC(data []byte) ([]byte, error) {
	pages, err := Pages(data)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("ogg: no pages: %w", media.ErrTooSmall)
	}
	serial := pages[0].Serial
	var stream []*Page
	for _, p := range pages {
		if p.Serial == serial {
			stream = append(stream, p)
		}
	}
	packets, err := Packets(stream)
	if err != nil {
		return nil, err
	}
	if len(packets) == 0 {
		return nil, fmt.Errorf("ogg: no packets: %w", media.ErrMissingChunk)
	}

	head := packets[0]
	if len(head) < mappingHeaderLen+4+streamInfoLen || head[0] != 0x7F || string(head[1:5]) != "FLAC" || string(head[9:13]) != flacMagic {
		return nil, fmt.Errorf("ogg: first packet is not a flac mapping header: %w", media.ErrInvalidSignature)
	}
	if head[5] != mappingVersion {
		return nil, fmt.Errorf("ogg: flac mapping version %d.%d: %w", head[5], head[6], media.ErrUnsupportedFeature)
	}

	out := binio.NewWriter(len(data))
	out.Raw(head[9:])
	for _, p := range packets[1:] {
		out.Raw(p)
	}
	return out.Bytes(), nil
}
