package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/codec/ogg"
	"github.com/jpfielding/media.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewOggCmd groups the Ogg FLAC mapping and page listing commands
func NewOggCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ogg",
		Short: "wrap, unwrap and list Ogg FLAC streams",
	}
	cmd.AddCommand(newOggWrapCmd(ctx), newOggUnwrapCmd(ctx), newOggPagesCmd(ctx))
	return cmd
}

func newOggWrapCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrap <in.flac> <out.ogg>",
		Short: "map a native FLAC stream into Ogg pages",
		Long:  "The stream serial defaults to a hash of the input so repeated runs produce identical files.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			serial := util.StreamSerial(in)
			if cmd.Flags().Changed("serial") {
				serial, _ = cmd.Flags().GetUint32("serial")
			}
			if random, _ := cmd.Flags().GetBool("random-serial"); random {
				serial = util.RandomSerial()
			}
			out, err := ogg.WrapFLAC(in, serial)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrapped flac",
				slog.String("in", args[0]),
				slog.Uint64("serial", uint64(serial)),
				slog.Int("bytes", len(out)))
			return writeOutput(cmd, args[1], out)
		},
	}
	pf := cmd.PersistentFlags()
	pf.Uint32("serial", 0, "stream serial number")
	pf.Bool("random-serial", false, "pick a random stream serial")
	return cmd
}

func newOggUnwrapCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "unwrap <in.ogg> <out.flac>",
		Short: "recover the native FLAC stream from Ogg FLAC",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			out, err := ogg.UnwrapFLAC(in)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "unwrapped flac", slog.String("in", args[0]), slog.Int("bytes", len(out)))
			return writeOutput(cmd, args[1], out)
		},
	}
}

func newOggPagesCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "pages <in.ogg>",
		Short: "list page headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			pages, err := ogg.Pages(in)
			if err != nil {
				return err
			}
			printPages(cmd, pages)
			slog.DebugContext(ctx, "listed pages", slog.Int("count", len(pages)))
			return nil
		},
	}
}

func printPages(cmd *cobra.Command, pages []*ogg.Page) {
	out := cmd.OutOrStdout()
	for i, p := range pages {
		granule := fmt.Sprint(p.Granule)
		if p.Granule == ogg.NoGranule {
			granule = "-"
		}
		fmt.Fprintf(out, "%4d serial=%08x seq=%d flags=%s granule=%s segments=%d payload=%d crc=%08x\n",
			i, p.Serial, p.Sequence, flagString(p.Flags), granule, len(p.Lacing), len(p.Payload), p.CRC)
	}
}

func flagString(f byte) string {
	s := ""
	for _, fl := range []struct {
		bit  byte
		name string
	}{{ogg.FlagContinued, "C"}, {ogg.FlagBOS, "B"}, {ogg.FlagEOS, "E"}} {
		if f&fl.bit != 0 {
			s += fl.name
		} else {
			s += "."
		}
	}
	return s
}
