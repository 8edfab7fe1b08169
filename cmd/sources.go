package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"catex/internal/cache"
	"catex/internal/config"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		start := cfg.DefaultSourceID()
		if db, err := cache.Open(config.CachePath()); err == nil {
			if last, ok := db.GetMeta(cache.KeyLastSource); ok {
				if _, valid := cfg.SourceByID(last); valid {
					start = last
				}
			}
			db.Close()
		}

		for _, s := range cfg.Sources {
			state := " "
			switch {
			case s.ID == start:
				state = ">"
			case s.Enabled:
				state = "*"
			}
			fmt.Printf("%s %-12s %-8s %s\n", state, s.ID, s.Type, s.URL)
		}
		fmt.Println("\n> starts here  * enabled")
		return nil
	},
}
