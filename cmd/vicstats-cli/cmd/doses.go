package cmd

import (
	"fmt"
	"os"
	"vicstats-backend/services/covidstats"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dosesCmd)
}

var dosesCmd = &cobra.Command{
	Use:   "doses",
	Short: "Fetches the doses CSV feed and prints the computed day-over-day delta.",
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		sel := covidstats.Selection{
			"stats": covidstats.Selection{
				"doses": covidstats.Selection{
					"updated":   covidstats.Selection{},
					"todayRate": covidstats.Selection{},
					"delta":     covidstats.Selection{},
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
