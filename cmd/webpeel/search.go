package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"webpeel/internal/config"
	"webpeel/internal/pipeline"
)

func newSearchCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		count   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the web through the fallback engine chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			peeler := pipeline.New(cfg)
			defer peeler.Close()

			results := peeler.SearchWeb(cmd.Context(), args[0], count)

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "no results")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s\n  %s\n", r.Title, r.URL)
				if r.Snippet != "" {
					fmt.Printf("  %s\n", r.Snippet)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	return cmd
}
