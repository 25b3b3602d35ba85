package cmd

import (
	"fmt"
	"os"
	"sort"
	"vicstats-backend/services/covidstats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetches every known statistic and marker in one query.",
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := service.Query(cmd.Context(), covidstats.FullSelection())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		renderResponse(res)
	},
}

func renderResponse(res covidstats.Response) {
	t := newTable()
	t.AppendHeader(table.Row{"Section", "Field", "Value"})

	var sections []string
	for section := range res.Stats {
		sections = append(sections, string(section))
	}
	sort.Strings(sections)

	for _, section := range sections {
		fields := res.Stats[covidstats.Section(section)]
		var names []string
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			t.AppendRow(table.Row{section, name, fields[name]})
		}
	}

	t.Render()
}
