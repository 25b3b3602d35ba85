package cmd

import (
	"fmt"
	"os"
	"vicstats-backend/lib/configutil"
	"vicstats-backend/lib/restyutil"
	"vicstats-backend/services/covidstats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var captureDir string

var service covidstats.Service

type config struct {
	Upstream covidstats.UpstreamConfig `json:"upstream"`
}

var rootCmd = &cobra.Command{
	Use:   "vicstats-cli",
	Short: "vicstats-cli pulls live upstream payloads for development, without running the server.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configutil.ReadRecursively[config]("config.json5")
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		var capture restyutil.CaptureOutput
		if captureDir != "" {
			out, err := restyutil.NewFilesystemOutput(captureDir)
			if err != nil {
				return fmt.Errorf("capture dir: %w", err)
			}
			capture = out
		}

		service = covidstats.NewServiceFromConfig(cfg.Upstream, capture)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&captureDir, "capture", "",
		"Directory to dump raw upstream request/response payloads into.",
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
