package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/drafts"
	"github.com/TobiSchelling/gtmcraft/internal/fetch"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

// Flags shared by craft and ideas generate.
var (
	triggerText  string
	triggerFile  string
	triggerURL   string
	triggerID    int64
	formICP      string
	formAuthor   string
	formStory    string
	formGoal     string
	formContext  string
	formAnchors  []string
	formItems    []string
	resumeDraft  bool
	emailCount   int
	storySection string
	customFormat string
	targetLength string
	contentTitle string
	previewOnly  bool
	discardDraft bool
)

func addCraftFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&triggerText, "trigger", "t", "", "Trigger text")
	f.StringVar(&triggerFile, "trigger-file", "", "Read the trigger from a document (.txt, .md, .html, ...)")
	f.StringVar(&triggerURL, "trigger-url", "", "Read the trigger from a web page")
	f.Int64Var(&triggerID, "trigger-id", 0, "Use a collected trigger candidate")
	f.StringVar(&formICP, "icp", "", "ICP story script id")
	f.StringArrayVar(&formAnchors, "anchor", nil, "Narrative anchors as type:id,id (belief, pain, struggle, transformation)")
	f.StringVar(&formContext, "context", "", "Additional context")
	f.BoolVar(&resumeDraft, "resume", false, "Start from the saved draft of this form")
}

var craftCmd = &cobra.Command{
	Use:   "craft [kind]",
	Short: "Craft a LinkedIn post, email sequence, story section, article or custom piece",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := craftKind(args)
		if err != nil {
			return err
		}

		crafter, db, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		saver := drafts.NewAutoSaver(db, craft.DraftKey(kind, clientID), cfg.Drafts.AutosaveDelay)
		defer saver.Close()
		if discardDraft {
			return saver.Discard()
		}

		form := craft.DefaultForm(kind)
		if err := applyCraftFlags(cmd.Context(), db, &form); err != nil {
			return err
		}
		if err := saver.Update(form); err != nil {
			return err
		}
		if err := saver.Flush(); err != nil {
			zap.S().Warnf("Saving draft failed: %v", err)
		}

		if previewOnly {
			text, err := crafter.Preview(clientID, form)
			if err != nil {
				return err
			}
			fmt.Println(text)
			fmt.Fprintf(os.Stderr, "\n~%d tokens\n", llm.EstimateTokens(text))
			return nil
		}

		content, err := crafter.Craft(cmd.Context(), clientID, form)
		if content == nil {
			fmt.Fprintln(os.Stderr, "Your input is kept as a draft; rerun with --resume to retry.")
			return explain(err)
		}
		fmt.Printf("# %s\n\n%s\n", content.Title, content.Output)
		return err
	},
}

// craftKind parses the kind argument or asks for one.
func craftKind(args []string) (prompt.ContentKind, error) {
	if len(args) == 1 {
		return prompt.ParseKind(args[0])
	}
	kinds := []prompt.ContentKind{
		prompt.KindLinkedIn, prompt.KindEmail, prompt.KindStorySection, prompt.KindArticle, prompt.KindCustom,
	}
	sel := promptui.Select{Label: "What do you want to craft", Items: kinds}
	i, _, err := sel.Run()
	if err != nil {
		return "", err
	}
	return kinds[i], nil
}

// applyCraftFlags fills form from the command line, on top of the saved
// draft when --resume is set.
func applyCraftFlags(ctx context.Context, db *database.DB, form *craft.Form) error {
	if resumeDraft {
		ok, err := drafts.Restore(db, craft.DraftKey(form.Kind, clientID), form)
		switch {
		case err != nil:
			zap.S().Warnf("Ignoring saved draft: %v", err)
		case ok:
			fmt.Fprintln(os.Stderr, "Resumed saved draft")
		}
	}

	trigger, err := resolveTrigger(ctx, db)
	if err != nil {
		return err
	}
	if trigger != "" {
		form.Trigger = trigger
	}

	setString(&form.ICPID, formICP)
	setString(&form.AuthorID, formAuthor)
	setString(&form.StoryID, formStory)
	setString(&form.AdditionalContext, formContext)
	setString(&form.CustomFormat, customFormat)
	setString(&form.TargetLength, targetLength)
	setString(&form.Title, contentTitle)
	if formGoal != "" {
		form.Goal = prompt.ContentGoal(formGoal)
	}
	if storySection != "" {
		form.StorySection = prompt.StorySection(storySection)
	}
	if emailCount > 0 {
		form.EmailCount = emailCount
	}

	if len(formAnchors) > 0 {
		anchors, err := parseAnchors(formAnchors)
		if err != nil {
			return err
		}
		form.Anchors = anchors
	}
	if len(formItems) > 0 {
		items, err := parseItems(formItems)
		if err != nil {
			return err
		}
		form.BusinessItems = items
	}
	return nil
}

func resolveTrigger(ctx context.Context, db *database.DB) (string, error) {
	switch {
	case triggerText != "":
		return triggerText, nil
	case triggerFile != "":
		doc, err := fetch.ExtractFile(triggerFile)
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	case triggerURL != "":
		doc, err := fetch.NewFetcher(0).FetchURL(ctx, triggerURL)
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	case triggerID != 0:
		tc, err := db.GetTriggerCandidate(triggerID)
		if err != nil {
			return "", err
		}
		if tc == nil {
			return "", fmt.Errorf("trigger %d not found", triggerID)
		}
		text := tc.Title
		if tc.Summary != nil && *tc.Summary != "" {
			text += "\n\n" + *tc.Summary
		}
		return text, nil
	}
	return "", nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseAnchors reads "belief:id1,id2" selections.
func parseAnchors(values []string) ([]database.NarrativeSelection, error) {
	var out []database.NarrativeSelection
	for _, v := range values {
		typ, ids, ok := strings.Cut(v, ":")
		if !ok || ids == "" {
			return nil, fmt.Errorf("invalid anchor %q, want type:id[,id]", v)
		}
		t := database.NarrativeType(strings.TrimSpace(typ))
		if t.Label() == string(t) {
			return nil, fmt.Errorf("unknown narrative type %q", typ)
		}
		out = append(out, database.NarrativeSelection{Type: t, ItemIDs: strings.Split(ids, ",")})
	}
	return out, nil
}

// parseItems reads "feature:id" business context references.
func parseItems(values []string) ([]prompt.BusinessContextItem, error) {
	var out []prompt.BusinessContextItem
	for _, v := range values {
		typ, id, ok := strings.Cut(v, ":")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid business item %q, want type:id", v)
		}
		out = append(out, prompt.BusinessContextItem{Type: prompt.BusinessItemType(typ), ID: id})
	}
	return out, nil
}

// --- drafts command ---

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect saved form drafts",
}

var draftsListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List saved drafts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		list, err := db.ListDrafts(prefix)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No drafts.")
			return nil
		}
		for _, d := range list {
			fmt.Printf("  %s (saved %s)\n", d.Key, d.SavedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Print a draft's saved state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		snap, err := drafts.Load(db, args[0])
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no draft %s", args[0])
		}
		fmt.Println(string(snap.State))
		return nil
	},
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Delete a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.DeleteDraft(args[0])
	},
}

// --- extract command ---

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Import a customer success story from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := fetch.ExtractFile(args[0])
		if err != nil {
			return err
		}

		crafter, _, closeDB, err := newCrafter()
		if err != nil {
			return err
		}
		defer closeDB()

		story, err := crafter.ExtractStory(cmd.Context(), clientID, doc.Text)
		if err != nil {
			return explain(err)
		}
		fmt.Printf("Imported story [%s]: %s\n", story.ID, story.Title)
		return printYAML(story)
	},
}

// --- contents command ---

var contentsLimit int

var contentsCmd = &cobra.Command{
	Use:   "contents [id]",
	Short: "List crafted contents or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			c, err := db.GetContent(args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("content %s not found", args[0])
			}
			fmt.Printf("# %s\n\n%s\n", c.Title, c.Output)
			return nil
		}

		list, err := db.GetContentsForClient(clientID, contentsLimit)
		if err != nil {
			return err
		}
		for _, c := range list {
			created := ""
			if c.CreatedAt != nil {
				created = *c.CreatedAt
			}
			fmt.Printf("  [%s] %-14s %s  %s\n", c.ID, c.Kind, created, c.Title)
		}
		return nil
	},
}

func init() {
	addCraftFlags(craftCmd)
	f := craftCmd.Flags()
	f.StringVar(&formAuthor, "author", "", "Author voice id")
	f.StringVar(&formStory, "story", "", "Customer success story id")
	f.StringVar(&formGoal, "goal", "", "Content goal (book_call, reply, demo, resource, event, awareness)")
	f.StringArrayVar(&formItems, "item", nil, "Business context items as type:id (feature, use_case, differentiator, narrative)")
	f.IntVar(&emailCount, "emails", 0, "Number of emails in a sequence (1-7)")
	f.StringVar(&storySection, "section", "", "Story section (challenge, approach, results, summary)")
	f.StringVar(&customFormat, "format", "", "Format description for custom content")
	f.StringVar(&targetLength, "length", "", "Target length")
	f.StringVar(&contentTitle, "title", "", "Title")
	f.BoolVar(&previewOnly, "preview", false, "Print the prompt without generating")
	f.BoolVar(&discardDraft, "discard-draft", false, "Delete the saved draft of this form and exit")

	contentsCmd.Flags().IntVar(&contentsLimit, "limit", 20, "Number of contents to list")

	draftsCmd.AddCommand(draftsListCmd)
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsDeleteCmd)

	rootCmd.AddCommand(craftCmd)
	rootCmd.AddCommand(draftsCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(contentsCmd)
}
