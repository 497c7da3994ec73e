package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jpfielding/media.go/pkg/format"
	"github.com/jpfielding/media.go/pkg/media"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ConvertOptions collects the convert flags.
type ConvertOptions struct {
	Format  string
	Width   int
	Height  int
	Encoder format.Options
}

// NewConvertCmd converts between image formats or between audio formats
func NewConvertCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "convert images (qoi, jpeg, png, bmp, tiff, webp in) or audio (wav, aiff, au)",
		Long:  "Decodes the input and re-encodes it in the format named by --format or the output extension. Images can be resized on the way through.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts ConvertOptions
			opts.Format, _ = cmd.Flags().GetString("format")
			opts.Width, _ = cmd.Flags().GetInt("width")
			opts.Height, _ = cmd.Flags().GetInt("height")
			opts.Encoder.Quality, _ = cmd.Flags().GetInt("quality")
			opts.Encoder.Linear, _ = cmd.Flags().GetBool("linear")
			opts.Encoder.BitsPerSample, _ = cmd.Flags().GetInt("bits")
			opts.Encoder.Float, _ = cmd.Flags().GetBool("float")
			opts.Encoder.MuLaw, _ = cmd.Flags().GetBool("mulaw")

			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			if opts.Format == "" {
				opts.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[1])), ".")
			}
			out, err := Convert(in, opts)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "converted",
				slog.String("in", args[0]),
				slog.String("out", args[1]),
				slog.String("format", opts.Format),
				slog.Int("bytes", len(out)))
			return writeOutput(cmd, args[1], out)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("format", "f", "", "output format (qoi|jpeg|png|bmp|tiff|wav|aiff|au); defaults to the output extension")
	pf.Int("width", 0, "resize width; 0 keeps the aspect ratio when height is set")
	pf.Int("height", 0, "resize height; 0 keeps the aspect ratio when width is set")
	pf.Int("quality", 0, "jpeg quality (1-100)")
	pf.Bool("linear", false, "mark qoi output as linear colorspace")
	pf.Int("bits", 0, "audio bits per sample (8|16|24|32, or 32|64 with --float)")
	pf.Bool("float", false, "write IEEE float audio")
	pf.Bool("mulaw", false, "write G.711 mu-law audio (wav, au)")
	return cmd
}

// Convert decodes in and encodes it as opts.Format.
func Convert(in []byte, opts ConvertOptions) ([]byte, error) {
	src := format.Detect(in)
	if src.Kind() == format.KindAudio {
		return convertAudio(in, src, opts)
	}

	img, err := decodeImage(in, src)
	if err != nil {
		return nil, err
	}
	if opts.Width > 0 || opts.Height > 0 {
		resized := imaging.Resize(img.ToNRGBA(), opts.Width, opts.Height, imaging.Lanczos)
		img = media.FromImage(resized)
	}

	var buf bytes.Buffer
	switch opts.Format {
	case "png":
		err = png.Encode(&buf, img.ToNRGBA())
	case "bmp":
		err = bmp.Encode(&buf, img.ToNRGBA())
	case "tif", "tiff":
		err = tiff.Encode(&buf, img.ToNRGBA(), &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		dst, perr := format.Parse(opts.Format)
		if perr != nil {
			return nil, perr
		}
		c, cerr := format.Image(dst, opts.Encoder)
		if cerr != nil {
			return nil, cerr
		}
		return c.Encode(img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", opts.Format, err)
	}
	return buf.Bytes(), nil
}

// decodeImage uses the native codecs, falling back to the image package
// registry (png, gif, bmp, tiff, webp).
func decodeImage(in []byte, f format.Format) (*media.ImageData, error) {
	if f.Kind() == format.KindImage {
		c, err := format.Image(f, format.Options{})
		if err != nil {
			return nil, err
		}
		return c.Decode(in)
	}
	img, name, err := image.Decode(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("unrecognized input: %w", err)
	}
	slog.Debug("decoded foreign image", slog.String("format", name), slog.Any("bounds", img.Bounds()))
	return media.FromImage(img), nil
}

func convertAudio(in []byte, src format.Format, opts ConvertOptions) ([]byte, error) {
	dst, err := format.Parse(opts.Format)
	if err != nil {
		return nil, err
	}
	if dst.Kind() != format.KindAudio {
		return nil, fmt.Errorf("cannot convert %s audio to %s: %w", src, dst, media.ErrUnsupportedFeature)
	}
	dec, err := format.Audio(src, format.Options{})
	if err != nil {
		return nil, err
	}
	a, err := dec.Decode(in)
	if err != nil {
		return nil, err
	}
	enc, err := format.Audio(dst, opts.Encoder)
	if err != nil {
		return nil, err
	}
	return enc.Encode(a)
}
