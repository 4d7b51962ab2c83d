package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/insurgentsworkshop/segpack"
	"github.com/insurgentsworkshop/segpack/bundle"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/spf13/cobra"
)

func newBundleCmd(a *app) *cobra.Command {
	var (
		layoutName  string
		compression string
	)

	cmd := &cobra.Command{
		Use:   "bundle <file> <bundle>",
		Short: "Export a container as a compressed, checksummed bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ct, ok := format.ParseCompression(compression)
			if !ok {
				return fmt.Errorf("unknown compression %q", compression)
			}

			layout, err := a.layoutFor(args[0], layoutName)
			if err != nil {
				return err
			}

			c, err := segpack.ReadFile(args[0], layout)
			if err != nil {
				return err
			}

			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			stats, err := bundle.Encode(f, c, bundle.WithCompression(ct))
			if err != nil {
				return err
			}

			a.log.Info().
				Str("file", args[1]).
				Str("compression", ct.String()).
				Int("sections", stats.Sections).
				Str("raw", humanize.IBytes(uint64(stats.Raw))).
				Str("stored", humanize.IBytes(uint64(stats.Stored))).
				Str("size", humanize.IBytes(uint64(stats.Size))).
				Msg("bundled")

			return f.Close()
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "", "Layout name (default: pick by path rules)")
	cmd.Flags().StringVar(&compression, "compression", "zstd", "Payload codec (none, zstd, s2, lz4)")

	return cmd
}

func newUnbundleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unbundle <bundle> <file>",
		Short: "Rebuild a container from a bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := bundle.Decode(f, a.registry)
			if err != nil {
				return err
			}

			rec, err := segpack.WriteFile(args[1], c)
			if err != nil {
				return err
			}

			a.log.Info().
				Str("file", args[1]).
				Str("layout", c.Layout().Name()).
				Str("size", humanize.IBytes(uint64(rec.Size))).
				Msg("unbundled")

			return nil
		},
	}
}
