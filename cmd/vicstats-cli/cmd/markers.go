package cmd

import (
	"fmt"
	"os"
	"vicstats-backend/services/covidstats"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(markersCmd)
}

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Fetches only the last-updated markers of every section.",
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		sel := covidstats.Selection{
			"stats": covidstats.Selection{
				"weekly": covidstats.Selection{
					"updated": covidstats.Selection{},
					"week":    covidstats.Selection{},
				},
				"vaccine": covidstats.Selection{
					"updated": covidstats.Selection{},
				},
				"vaccineTotals": covidstats.Selection{
					"updated": covidstats.Selection{},
				},
				"doses": covidstats.Selection{
					"updated": covidstats.Selection{},
				},
			},
		}

		res, err := service.Query(cmd.Context(), sel)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		renderResponse(res)
	},
}
