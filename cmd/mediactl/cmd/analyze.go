package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/media.go/pkg/codec/au"
	"github.com/jpfielding/media.go/pkg/codec/jpeg"
	"github.com/jpfielding/media.go/pkg/codec/ogg"
	"github.com/jpfielding/media.go/pkg/codec/pcm"
	"github.com/jpfielding/media.go/pkg/codec/qoi"
	"github.com/jpfielding/media.go/pkg/format"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze container structure",
		Long:  "Prints the header fields and chunk or page layout of a media file, and optionally dumps the decoded buffer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			dump, _ := cmd.Flags().GetString("dump")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			data, err := readInput(filePath)
			if err != nil {
				return err
			}
			return runAnalyze(ctx, cmd.OutOrStdout(), data, dump)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "media file path to analyze")
	pf.String("dump", "", "write decoded RGBA pixels or planar float32 samples here; a .zst suffix compresses with zstd")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, data []byte, dumpPath string) error {
	f := format.Detect(data)
	fmt.Fprintf(out, "Format: %s (%s)\n", f, f.Kind())
	fmt.Fprintf(out, "Size: %d bytes\n\n", len(data))

	var err error
	switch f {
	case format.QOI:
		err = analyzeQOI(out, data)
	case format.JPEG:
		err = analyzeJPEG(out, data)
	case format.WAV:
		err = analyzeChunks(out, data, false)
	case format.AIFF:
		err = analyzeChunks(out, data, true)
	case format.AU:
		err = analyzeAU(out, data)
	case format.OGG:
		err = analyzeOgg(out, data)
	default:
		return fmt.Errorf("unrecognized file signature")
	}
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if dumpPath == "" {
		return nil
	}

	r := format.Decode(data)
	if r.Err != nil {
		return r.Err
	}
	var raw []byte
	switch {
	case r.Image != nil:
		raw = r.Image.Data
	case r.Audio != nil:
		raw = sampleBytes(r.Audio)
	default:
		return fmt.Errorf("%s has no decoded buffer to dump", f)
	}
	if err := dumpBuffer(dumpPath, raw); err != nil {
		return err
	}
	slog.InfoContext(ctx, "dumped decoded buffer", slog.String("path", dumpPath), slog.Int("bytes", len(raw)))
	return nil
}

func analyzeQOI(out io.Writer, data []byte) error {
	h, err := qoi.DecodeConfig(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== QOI Header ===")
	fmt.Fprintf(out, "Width: %d\n", h.Width)
	fmt.Fprintf(out, "Height: %d\n", h.Height)
	fmt.Fprintf(out, "Channels: %d\n", h.Channels)
	fmt.Fprintf(out, "Colorspace: %d (0=sRGB, 1=linear)\n", h.Colorspace)
	return nil
}

func analyzeJPEG(out io.Writer, data []byte) error {
	cfg, err := jpeg.DecodeConfig(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== JPEG Frame ===")
	fmt.Fprintf(out, "Width: %d\n", cfg.Width)
	fmt.Fprintf(out, "Height: %d\n", cfg.Height)
	fmt.Fprintf(out, "Precision: %d\n", cfg.Precision)
	fmt.Fprintf(out, "Progressive: %t\n", cfg.Progressive)
	fmt.Fprintf(out, "RestartInterval: %d\n", cfg.Restart)
	fmt.Fprintf(out, "Components: %d\n", cfg.Components)
	for _, s := range cfg.Sampling {
		fmt.Fprintf(out, "  id=%d sampling=%dx%d\n", s.ID, s.H, s.V)
	}
	return nil
}

// analyzeChunks lists the RIFF (little-endian) or IFF (big-endian) records.
func analyzeChunks(out io.Writer, data []byte, bigEndian bool) error {
	c, err := format.Audio(format.Detect(data), format.Options{})
	if err != nil {
		return err
	}
	info, err := c.Probe(data)
	if err != nil {
		return err
	}
	chunks, err := chunkList(data, bigEndian)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "=== Chunks (%s) ===\n", data[8:12])
	for _, ch := range chunks {
		fmt.Fprintf(out, "%q offset=%d size=%d\n", ch.ID, ch.Offset, len(ch.Data))
	}
	fmt.Fprintln(out)
	printInfo(out, info)
	return nil
}

func chunkList(data []byte, bigEndian bool) ([]pcm.Chunk, error) {
	if bigEndian {
		return pcm.Chunks(data, 12, binary.BigEndian)
	}
	return pcm.Chunks(data, 12, binary.LittleEndian)
}

func analyzeAU(out io.Writer, data []byte) error {
	h, err := au.ReadHeader(data)
	if err != nil {
		return err
	}
	info, err := au.Probe(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== AU Header ===")
	fmt.Fprintf(out, "DataOffset: %d\n", h.DataOffset)
	if h.DataSize == ^uint32(0) {
		fmt.Fprintln(out, "DataSize: unknown")
	} else {
		fmt.Fprintf(out, "DataSize: %d\n", h.DataSize)
	}
	fmt.Fprintf(out, "Encoding: %d\n", h.Encoding)
	if h.DataOffset > 24 && int(h.DataOffset) <= len(data) {
		fmt.Fprintf(out, "Annotation: %q\n", strings.TrimRight(string(data[24:h.DataOffset]), "\x00"))
	}
	fmt.Fprintln(out)
	printInfo(out, info)
	return nil
}

func printInfo(out io.Writer, info pcm.Info) {
	fmt.Fprintln(out, "=== Stream ===")
	fmt.Fprintf(out, "Channels: %d\n", info.Channels)
	fmt.Fprintf(out, "SampleRate: %d\n", info.SampleRate)
	fmt.Fprintf(out, "BitsPerSample: %d\n", info.BitsPerSample)
	fmt.Fprintf(out, "Float: %t MuLaw: %t\n", info.Format.Float, info.Format.MuLaw)
	fmt.Fprintf(out, "Frames: %d\n", info.Frames)
	fmt.Fprintf(out, "Duration: %s\n", info.Duration)
}

func analyzeOgg(out io.Writer, data []byte) error {
	pages, err := ogg.Pages(data)
	if err != nil {
		return err
	}
	packets, err := ogg.Packets(pages)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "=== Ogg (%d pages, %d packets) ===\n", len(pages), len(packets))
	for i, p := range pages {
		granule := fmt.Sprint(p.Granule)
		if p.Granule == ogg.NoGranule {
			granule = "-"
		}
		fmt.Fprintf(out, "%4d serial=%08x seq=%d flags=%s granule=%s payload=%d\n",
			i, p.Serial, p.Sequence, flagString(p.Flags), granule, len(p.Payload))
	}
	if len(packets) > 0 && len(packets[0]) >= 5 && string(packets[0][1:5]) == "FLAC" {
		fmt.Fprintln(out, "Mapping: FLAC")
	}
	return nil
}

// dumpBuffer writes raw bytes to path, through a zstd encoder when the path
// ends in .zst.
func dumpBuffer(path string, raw []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		_, err = f.Write(raw)
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
