package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/codec/jpeg"
	"github.com/jpfielding/media.go/pkg/codec/ogg"
	"github.com/jpfielding/media.go/pkg/format"
	"github.com/jpfielding/media.go/pkg/media"
	"github.com/jpfielding/media.go/pkg/util"
	"github.com/spf13/cobra"
)

// FileInfo is the per-file report printed by info.
type FileInfo struct {
	Path     string        `json:"path"`
	Format   string        `json:"format"`
	Kind     string        `json:"kind"`
	Size     int           `json:"size"`
	MD5      string        `json:"md5"`
	Width    int           `json:"width,omitempty"`
	Height   int           `json:"height,omitempty"`
	Opaque   bool          `json:"opaque,omitempty"`
	Channels int           `json:"channels,omitempty"`
	Rate     int           `json:"sampleRate,omitempty"`
	Bits     int           `json:"bitsPerSample,omitempty"`
	Frames   int           `json:"frames,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Pages    int           `json:"pages,omitempty"`
	Granule  uint64        `json:"granule,omitempty"`
	Hash     string        `json:"decodedHash,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// NewInfoCmd detects, probes and hashes files
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>...",
		Short: "detect format, probe headers and hash decoded content",
		Long:  "Decodes every file concurrently and reports its format, dimensions or stream layout, and an xxhash of the decoded buffer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items := make([]format.Item, 0, len(args))
			for _, p := range args {
				b, err := readInput(p)
				if err != nil {
					return err
				}
				items = append(items, format.Item{Name: p, Data: b})
			}

			results := format.DecodeAll(ctx, items)
			infos := make([]FileInfo, len(results))
			for i, r := range results {
				infos[i] = describe(items[i].Data, r)
				slog.DebugContext(ctx, "info", slog.String("path", r.Name), slog.String("format", r.Format.String()))
			}

			out := cmd.OutOrStdout()
			switch f, _ := cmd.Flags().GetString("format"); f {
			case "text":
				for _, fi := range infos {
					fmt.Fprintln(out, fi.String())
				}
			default:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("format", "f", "json", "output format (text|json)")
	return cmd
}

func describe(data []byte, r format.Result) FileInfo {
	fi := FileInfo{
		Path:   r.Name,
		Format: r.Format.String(),
		Kind:   r.Format.Kind().String(),
		Size:   len(data),
		MD5:    util.Md5ThenHex(data),
	}
	switch {
	case r.Image != nil:
		fi.Width, fi.Height = r.Image.Width, r.Image.Height
		fi.Opaque = r.Image.Opaque()
		fi.Hash = util.ContentHashHex(r.Image.Data)
		if r.Format == format.JPEG {
			if cfg, err := jpeg.DecodeConfig(data); err == nil {
				fi.Channels = cfg.Components
				fi.Bits = cfg.Precision
			}
		}
	case r.Audio != nil:
		if c, err := format.Audio(r.Format, format.Options{}); err == nil {
			if info, err := c.Probe(data); err == nil {
				fi.Bits = info.BitsPerSample
			}
		}
		fi.Channels = r.Audio.Channels
		fi.Rate = r.Audio.SampleRate
		fi.Frames = r.Audio.Frames()
		fi.Duration = r.Audio.Duration()
		fi.Hash = util.ContentHashHex(sampleBytes(r.Audio))
	case r.Format == format.OGG:
		if pages, err := ogg.Pages(data); err == nil {
			fi.Pages = len(pages)
			for _, p := range pages {
				if p.Granule != ogg.NoGranule {
					fi.Granule = max(fi.Granule, p.Granule)
				}
			}
		} else {
			fi.Error = err.Error()
		}
		return fi
	}
	if r.Err != nil {
		fi.Error = r.Err.Error()
	}
	return fi
}

// sampleBytes flattens channels to planar little-endian float32.
func sampleBytes(a *media.AudioData) []byte {
	w := binio.NewWriter(a.Channels * a.Frames() * 4)
	for _, ch := range a.Samples {
		for _, v := range ch {
			w.F32LE(float32(v))
		}
	}
	return w.Bytes()
}

func (fi FileInfo) String() string {
	s := fmt.Sprintf("%s: %s (%s) %d bytes", fi.Path, fi.Format, fi.Kind, fi.Size)
	switch {
	case fi.Error != "":
		s += " error=" + fi.Error
	case fi.Width > 0:
		s += fmt.Sprintf(" %dx%d opaque=%t", fi.Width, fi.Height, fi.Opaque)
	case fi.Rate > 0:
		s += fmt.Sprintf(" %dch %dHz %d-bit %d frames %s", fi.Channels, fi.Rate, fi.Bits, fi.Frames, fi.Duration)
	case fi.Pages > 0:
		s += fmt.Sprintf(" %d pages granule=%d", fi.Pages, fi.Granule)
	}
	if fi.Hash != "" {
		s += " xxh64=" + fi.Hash
	}
	return s
}
