package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/gtmcraft/internal/collect"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/fetch"
)

var (
	triggerDaysBack int
	triggerLimit    int
	triggerICP      string
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Collect and browse trigger candidates from feeds",
}

var triggersCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect trigger candidates from the configured feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Collecting trigger candidates from feeds...")
		result, err := collect.NewCollector(cfg.Triggers, db, triggerDaysBack).Collect(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New candidates: %d\n", result.NewCandidates)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nCandidates by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

var triggersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent trigger candidates, or the best fits for an ICP",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if triggerICP != "" {
			return listRanked(db, triggerICP)
		}

		items, err := db.GetRecentTriggerCandidates(triggerLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No trigger candidates. Collect some with: gtmcraft triggers collect")
			return nil
		}
		for _, tc := range items {
			fmt.Printf("  [%d] %s%s\n", tc.ID, tc.Title, sourceSuffix(tc.Source))
		}
		fmt.Println("\nUse one with: gtmcraft ideas generate --trigger-id <id>")
		return nil
	},
}

func listRanked(db *database.DB, icpID string) error {
	items, err := db.GetRankedTriggers(icpID, triggerLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No relevant triggers yet. Rate some with: gtmcraft triggers triage --icp " + icpID)
		return nil
	}
	for _, rt := range items {
		fmt.Printf("  [%d] (%d/5) %s%s\n", rt.ID, rt.Triage.FitScore, rt.Title, sourceSuffix(rt.Source))
		if rt.Triage.Angle != nil {
			fmt.Printf("        Angle: %s\n", *rt.Triage.Angle)
		}
	}
	fmt.Println("\nUse one with: gtmcraft ideas generate --trigger-id <id> --icp " + icpID)
	return nil
}

func sourceSuffix(source *string) string {
	if source == nil {
		return ""
	}
	return " - " + *source
}

var triggersTriageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Rate pending trigger candidates against an ICP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if triggerICP == "" {
			return fmt.Errorf("--icp is required")
		}
		crafter, _, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		fmt.Println("Triaging trigger candidates...")
		result, err := crafter.TriageTriggers(cmd.Context(), clientID, triggerICP, triggerLimit)
		if err != nil {
			return explain(err)
		}

		fmt.Println("\nTriage complete:")
		fmt.Printf("  Processed: %d\n", result.Processed)
		fmt.Printf("  Relevant: %d\n", result.Relevant)
		fmt.Printf("  Skipped: %d\n", result.Skipped)
		if result.Errors > 0 {
			fmt.Printf("  Errors: %d\n", result.Errors)
		}
		return nil
	},
}

var triggersFetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Print the readable text of a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := fetch.NewFetcher(0).FetchURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(doc.Text)
		return nil
	},
}

func init() {
	triggersCollectCmd.Flags().IntVar(&triggerDaysBack, "days-back", 0, "Override lookback window (days)")
	triggersListCmd.Flags().IntVar(&triggerLimit, "limit", 20, "Number of candidates to list")
	triggersListCmd.Flags().StringVar(&triggerICP, "icp", "", "Show triaged triggers for this ICP, best fit first")
	triggersTriageCmd.Flags().StringVar(&triggerICP, "icp", "", "ICP to rate triggers against")
	triggersTriageCmd.Flags().IntVar(&triggerLimit, "limit", 20, "Maximum candidates to triage")

	triggersCmd.AddCommand(triggersCollectCmd)
	triggersCmd.AddCommand(triggersListCmd)
	triggersCmd.AddCommand(triggersTriageCmd)
	triggersCmd.AddCommand(triggersFetchCmd)
	rootCmd.AddCommand(triggersCmd)
}
