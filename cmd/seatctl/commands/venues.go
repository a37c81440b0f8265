package commands

import (
	"fmt"

	"seatfinder-backend/services/seatfinder"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(venuesCmd)
}

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Lists the venue portals covered by a search.",
	Run: func(cmd *cobra.Command, args []string) {
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Code", "Name", "Base URL"})
		for _, v := range seatfinder.DefaultVenues() {
			t.AppendRow(table.Row{v.Code, v.Name, v.BaseUrl})
		}
		fmt.Println(t.Render())
	},
}
