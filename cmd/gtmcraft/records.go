package main

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

var assumeYes bool

// --- context command ---

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the product context of a client",
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the product context as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pc, err := db.GetProductContext(clientID)
		if err != nil {
			return err
		}
		if pc == nil {
			fmt.Println("No product context. Import one with: gtmcraft context import <file.yaml>")
			return nil
		}
		return printYAML(pc)
	},
}

var contextImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Replace the product context with a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pc database.ProductContext
		if err := readYAML(args[0], &pc); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pc.ClientID = clientID
		if err := db.SaveProductContext(&pc); err != nil {
			return err
		}
		fmt.Printf("Saved product context for %s: %d features, %d use cases, %d differentiators\n",
			pc.ClientID, len(pc.Features), len(pc.UseCases), len(pc.Differentiators))
		return nil
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the product context",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(fmt.Sprintf("Delete the product context of %s", clientID)) {
			return nil
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.DeleteProductContext(clientID)
	},
}

func init() {
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextImportCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	rootCmd.AddCommand(contextCmd)

	rootCmd.AddCommand(recordCommands[database.ICPStoryScript]{
		use:   "icp",
		short: "Manage ICP story scripts",
		list:  (*database.DB).GetICPsForClient,
		get:   (*database.DB).GetICP,
		save: func(db *database.DB, rec *database.ICPStoryScript) error {
			rec.ClientID = clientID
			return db.SaveICP(rec)
		},
		delete: (*database.DB).DeleteICP,
		describe: func(rec *database.ICPStoryScript) (string, string, string) {
			return rec.ID, rec.ClientID, fmt.Sprintf("%s (%d beliefs, %d pains)", rec.Name, len(rec.CoreBeliefs), len(rec.InternalPains))
		},
	}.command())

	rootCmd.AddCommand(recordCommands[database.Author]{
		use:   "author",
		short: "Manage author voice profiles",
		list:  (*database.DB).GetAuthorsForClient,
		get:   (*database.DB).GetAuthor,
		save: func(db *database.DB, rec *database.Author) error {
			rec.ClientID = clientID
			return db.SaveAuthor(rec)
		},
		delete: (*database.DB).DeleteAuthor,
		describe: func(rec *database.Author) (string, string, string) {
			return rec.ID, rec.ClientID, fmt.Sprintf("%s, %s", rec.Name, rec.Role)
		},
	}.command())

	rootCmd.AddCommand(recordCommands[database.CustomerSuccessStory]{
		use:   "story",
		short: "Manage customer success stories",
		list:  (*database.DB).GetStoriesForClient,
		get:   (*database.DB).GetStory,
		save: func(db *database.DB, rec *database.CustomerSuccessStory) error {
			rec.ClientID = clientID
			return db.SaveStory(rec)
		},
		delete: (*database.DB).DeleteStory,
		describe: func(rec *database.CustomerSuccessStory) (string, string, string) {
			return rec.ID, rec.ClientID, fmt.Sprintf("%s (%d quotes)", rec.Title, len(rec.Quotes))
		},
	}.command())

	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

// recordCommands builds list/show/import/delete subcommands for one record
// type.
type recordCommands[T any] struct {
	use      string
	short    string
	list     func(db *database.DB, clientID string) ([]T, error)
	get      func(db *database.DB, id string) (*T, error)
	save     func(db *database.DB, rec *T) error
	delete   func(db *database.DB, id string) error
	describe func(rec *T) (id, owner, summary string)
}

func (rc recordCommands[T]) command() *cobra.Command {
	root := &cobra.Command{Use: rc.use, Short: rc.short}

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List records of the client",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := rc.list(db, clientID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Printf("No records. Add one with: gtmcraft %s import <file.yaml>\n", rc.use)
				return nil
			}
			for i := range items {
				id, _, summary := rc.describe(&items[i])
				fmt.Printf("  [%s] %s\n", id, summary)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Print a record as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rec, err := rc.find(db, args[0])
			if err != nil {
				return err
			}
			return printYAML(rec)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Create or replace a record from YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec T
			if err := readYAML(args[0], &rec); err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := rc.save(db, &rec); err != nil {
				return err
			}
			id, _, summary := rc.describe(&rec)
			fmt.Printf("Saved [%s] %s\n", id, summary)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rec, err := rc.find(db, args[0])
			if err != nil {
				return err
			}
			_, _, summary := rc.describe(rec)
			if !confirm("Delete " + summary) {
				return nil
			}
			if err := rc.delete(db, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted [%s] %s\n", args[0], summary)
			return nil
		},
	})

	return root
}

func (rc recordCommands[T]) find(db *database.DB, id string) (*T, error) {
	rec, err := rc.get(db, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%s %s not found", rc.use, id)
	}
	if _, owner, _ := rc.describe(rec); owner != database.ClientOrDefault(clientID) {
		return nil, fmt.Errorf("%s %s belongs to client %s", rc.use, id, owner)
	}
	return rec, nil
}

func readYAML(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// confirm asks a yes/no question unless --yes was given.
func confirm(label string) bool {
	if assumeYes {
		return true
	}
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}
