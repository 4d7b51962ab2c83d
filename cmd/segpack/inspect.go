package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/insurgentsworkshop/segpack"
	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/flavor"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var layoutName string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the directory of a container",
		Long: `Inspect decodes a container and lists every slot with its offset,
length, kind and the extension unpack would give it. Nested containers are
listed inline; their slots are numbered parent/child.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			layout, err := a.layoutFor(args[0], layoutName)
			if err != nil {
				return err
			}

			c, err := segpack.ReadFile(args[0], layout)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s: %s, %d sections\n", args[0], layout, c.Len())

			table := tablewriter.NewWriter(a.out)
			table.SetHeader([]string{"Slot", "Offset", "Length", "Kind", "Ext"})
			table.SetAutoFormatHeaders(false)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			appendRows(table, c, "", 0)
			table.Render()

			return nil
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "", "Layout name (default: pick by path rules)")

	return cmd
}

// appendRows adds one row per slot of c. base is the absolute offset of c in
// the outermost file.
func appendRows(table *tablewriter.Table, c *container.Container, prefix string, base int64) {
	for i := range c.Sections {
		s := &c.Sections[i]
		slot := prefix + strconv.Itoa(i)

		kind := format.KindRaw
		ext := flavor.Extension(c.Layout().Name(), i, s.Payload)
		switch {
		case s.Nested != nil:
			kind = format.KindNested
			ext = ""
		case s.Empty() && c.Layout().Sentinel():
			kind = format.KindAbsent
			ext = ""
		}

		offset := "-"
		if kind != format.KindAbsent {
			offset = fmt.Sprintf("0x%X", base+s.Offset)
		}

		table.Append([]string{slot, offset, humanize.IBytes(uint64(s.Length)), kind.String(), ext})

		if s.Nested != nil {
			appendRows(table, s.Nested, slot+"/", base+s.Offset)
		}
	}
}
