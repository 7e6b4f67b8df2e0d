package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/ideas"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Generate, review and score content ideas",
}

var (
	ideaCount  int
	saveAll    bool
	ideaICP    string
	ideaFields ideas.Idea
)

var ideasGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate ideas from a trigger",
	RunE: func(cmd *cobra.Command, args []string) error {
		crafter, db, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		form := craft.DefaultForm(prompt.KindIdeas)
		if err := applyCraftFlags(cmd.Context(), db, &form); err != nil {
			return err
		}
		if ideaCount > 0 {
			form.IdeaCount = ideaCount
		}

		parsed, err := crafter.GenerateIdeas(cmd.Context(), clientID, form)
		if err != nil {
			return explain(err)
		}

		for i, idea := range parsed {
			printIdea(i+1, idea.Idea)
		}

		var icpID *string
		if form.ICPID != "" {
			icpID = &form.ICPID
		}
		if saveAll {
			for _, idea := range parsed {
				if _, err := crafter.SaveIdea(clientID, idea, icpID); err != nil {
					return err
				}
			}
			fmt.Printf("Saved %d ideas\n", len(parsed))
			return nil
		}
		return reviewIdeas(crafter, parsed, icpID)
	},
}

// reviewIdeas lets the user pick ideas to keep until they choose Done.
func reviewIdeas(crafter *craft.Crafter, parsed []ideas.ParsedIdea, icpID *string) error {
	const done = "Done"
	remaining := append([]ideas.ParsedIdea(nil), parsed...)

	for len(remaining) > 0 {
		items := []string{done}
		for _, idea := range remaining {
			items = append(items, idea.Title)
		}

		sel := promptui.Select{Label: "Save an idea", Items: items, Size: 10}
		i, _, err := sel.Run()
		if err != nil || i == 0 {
			return nil
		}

		idea := remaining[i-1]
		if _, err := crafter.SaveIdea(clientID, idea, icpID); err != nil {
			return err
		}
		fmt.Printf("Saved: %s\n", idea.Title)
		remaining = append(remaining[:i-1], remaining[i:]...)
	}
	return nil
}

var ideasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved ideas",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		list, err := db.GetIdeasForClient(clientID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No saved ideas. Generate some with: gtmcraft ideas generate --trigger \"...\"")
			return nil
		}
		for _, idea := range list {
			score := "unscored"
			if idea.Score != nil {
				score = fmt.Sprintf("%d %s", idea.Score.Value, idea.Score.Label)
			}
			fmt.Printf("  [%s] %s (%s, %s)\n", idea.ID, idea.Title, idea.Source, score)
		}
		return nil
	},
}

var ideasAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add an idea by hand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crafter, _, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		idea := ideaFields
		idea.Title = args[0]
		var icpID *string
		if ideaICP != "" {
			icpID = &ideaICP
		}
		rec, err := crafter.AddManualIdea(clientID, idea, icpID)
		if err != nil {
			return err
		}
		fmt.Printf("Added idea [%s]: %s\n", rec.ID, rec.Title)
		return nil
	},
}

var ideasScoreCmd = &cobra.Command{
	Use:   "score [id] [0-3|clear]",
	Short: "Rate an idea from 0 (poor) to 3 (excellent)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		crafter, _, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		var value *int
		if !strings.EqualFold(args[1], "clear") {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid score: %s", args[1])
			}
			value = &v
		}
		score, err := crafter.ScoreIdea(args[0], value)
		if err != nil {
			return err
		}
		if score == nil {
			fmt.Printf("Cleared score of %s\n", args[0])
		} else {
			fmt.Printf("Scored %s: %s\n", args[0], score.Label)
		}
		return nil
	},
}

var ideasDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crafter, db, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		idea, err := db.GetIdea(args[0])
		if err != nil {
			return err
		}
		if idea == nil {
			return fmt.Errorf("idea %s not found", args[0])
		}
		if !confirm("Delete " + idea.Title) {
			return nil
		}
		return crafter.DeleteIdea(args[0])
	},
}

func printIdea(n int, idea ideas.Idea) {
	fmt.Printf("\n%d. %s\n", n, idea.Title)
	fmt.Printf("   Narrative: %s\n", idea.Narrative)
	fmt.Printf("   Product tie-in: %s\n", idea.ProductTieIn)
	fmt.Printf("   CTA: %s\n", idea.CTA)
}

func init() {
	addCraftFlags(ideasGenerateCmd)
	ideasGenerateCmd.Flags().IntVar(&ideaCount, "count", 0, "Number of ideas (default 5, max 10)")
	ideasGenerateCmd.Flags().BoolVar(&saveAll, "save-all", false, "Save every idea without review")

	ideasAddCmd.Flags().StringVar(&ideaFields.Narrative, "narrative", "", "Narrative")
	ideasAddCmd.Flags().StringVar(&ideaFields.ProductTieIn, "tie-in", "", "Product tie-in")
	ideasAddCmd.Flags().StringVar(&ideaFields.CTA, "cta", "", "Call to action")
	ideasAddCmd.Flags().StringVar(&ideaICP, "icp", "", "ICP the idea targets")

	ideasCmd.AddCommand(ideasGenerateCmd)
	ideasCmd.AddCommand(ideasListCmd)
	ideasCmd.AddCommand(ideasAddCmd)
	ideasCmd.AddCommand(ideasScoreCmd)
	ideasCmd.AddCommand(ideasDeleteCmd)
	rootCmd.AddCommand(ideasCmd)
}
