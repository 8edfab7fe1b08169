package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagSource  string
	flagState   string
	flagRefresh bool
)

var rootCmd = &cobra.Command{
	Use:   "catex",
	Short: "TUI article catalog browser",
	Long:  "catex pulls articles from configurable sources into a filterable, searchable catalog with shareable filter state.",
	RunE:  runTUI,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagSource, "source", "", "start on a specific source id")
	rootCmd.Flags().StringVar(&flagState, "state", "", "initial filter state as a query string (e.g. \"q=go&sort=popular\")")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "drop cached payloads so the first load hits the network")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("catex %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
