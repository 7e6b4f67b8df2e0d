package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/gtmcraft/internal/pipeline"
)

var (
	refreshDaysBack int
	refreshLimit    int
	refreshDryRun   bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Collect trigger candidates and triage them for every ICP",
	RunE: func(cmd *cobra.Command, args []string) error {
		crafter, db, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		p := pipeline.New(cfg, db, crafter)
		var result *pipeline.Result
		if refreshDryRun {
			result = p.DryRun(clientID, refreshLimit)
		} else {
			result = p.Run(cmd.Context(), clientID, refreshDaysBack, refreshLimit)
		}

		fmt.Printf("\nRefresh for %s:\n", result.ClientID)
		for _, s := range result.Steps {
			if s.Err != nil {
				fmt.Printf("  %s: FAILED (%v)\n", s.Name, s.Err)
				continue
			}
			fmt.Printf("  %s: %s\n", s.Name, s.Summary)
		}
		if result.Failed() {
			return fmt.Errorf("refresh finished with errors")
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().IntVar(&refreshDaysBack, "days-back", 0, "Override lookback window (days)")
	refreshCmd.Flags().IntVar(&refreshLimit, "limit", 20, "Maximum triggers to triage per ICP")
	refreshCmd.Flags().BoolVar(&refreshDryRun, "dry-run", false, "Show what would be done")
	rootCmd.AddCommand(refreshCmd)
}
