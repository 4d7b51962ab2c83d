package main

import (
	"github.com/dustin/go-humanize"
	"github.com/insurgentsworkshop/segpack"
	"github.com/insurgentsworkshop/segpack/flavor"
	"github.com/insurgentsworkshop/segpack/workdir"
	"github.com/spf13/cobra"
)

func newUnpackCmd(a *app) *cobra.Command {
	var layoutName string

	cmd := &cobra.Command{
		Use:   "unpack <file> [dir]",
		Short: "Unpack a container into a directory",
		Long: `Unpack writes every section of a container into its own file and
records a manifest.yaml next to them. The directory defaults to <file>.dir.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := args[0] + ".dir"
			if len(args) == 2 {
				dir = args[1]
			}

			return a.unpack(args[0], dir, layoutName)
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "", "Layout name (default: pick by path rules)")

	return cmd
}

func (a *app) unpack(src, dir, layoutName string) error {
	layout, err := a.layoutFor(src, layoutName)
	if err != nil {
		return err
	}

	c, err := segpack.ReadFile(src, layout)
	if err != nil {
		return err
	}
	a.checkCount(src, c)

	if _, err := workdir.Unpack(c, dir, flavor.Extension); err != nil {
		return err
	}

	a.log.Info().
		Str("file", src).
		Str("layout", layout.Name()).
		Int("sections", c.Len()).
		Str("dir", dir).
		Msg("unpacked")

	return nil
}

func newPackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pack <dir> <file>",
		Short: "Pack an unpacked directory back into a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.pack(args[0], args[1])
		},
	}
}

func (a *app) pack(dir, dst string) error {
	c, report, err := workdir.Pack(dir, a.registry)
	if err != nil {
		return err
	}
	a.checkCount(dst, c)

	for _, p := range report.Missing {
		a.log.Warn().Str("dir", dir).Str("section", p).Msg("section file missing, packed as empty")
	}

	for _, p := range report.Changed {
		a.log.Info().Str("dir", dir).Str("section", p).Msg("section changed")
	}

	rec, err := segpack.WriteFile(dst, c)
	if err != nil {
		return err
	}

	a.log.Info().
		Str("file", dst).
		Str("layout", c.Layout().Name()).
		Int("sections", c.Len()).
		Str("size", humanize.IBytes(uint64(rec.Size))).
		Msg("packed")

	return nil
}
