package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/insurgentsworkshop/segpack/icondir"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newIconsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "icons <tim2>",
		Short: "List the icon directory of a TIM2 texture",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			dir, err := icondir.ReadTim2(f)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s: %d sections, %d groups, %d icons\n",
				args[0], len(dir.Sections), dir.GroupCount(), dir.IconCount())

			table := tablewriter.NewWriter(a.out)
			table.SetHeader([]string{"Section", "Group", "Icon", "X", "Y", "W", "H", "Clut", "Add"})
			table.SetAutoFormatHeaders(false)
			for i, s := range dir.Sections {
				for j, g := range s.Groups {
					for k, icon := range g.Icons {
						table.Append([]string{
							strconv.Itoa(i), strconv.Itoa(j), strconv.Itoa(k),
							strconv.Itoa(int(icon.X)), strconv.Itoa(int(icon.Y)),
							strconv.Itoa(int(icon.Width)), strconv.Itoa(int(icon.Height)),
							strconv.Itoa(int(icon.ClutGroup)), strconv.Itoa(int(icon.AdditiveClut)),
						})
					}
				}
			}
			table.Render()

			return nil
		},
	}
}
