package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/gtmcraft/internal/compose"
)

var (
	exportOut   string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved ideas and crafted content as a markdown workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		wb, err := compose.NewComposer(db).ComposeWorkbook(clientID, exportLimit)
		if err != nil {
			return err
		}
		if exportOut == "" {
			fmt.Print(wb.Markdown)
			return nil
		}
		if err := os.WriteFile(exportOut, []byte(wb.Markdown), 0o644); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		fmt.Printf("Wrote %d ideas and %d contents to %s\n", wb.Ideas, wb.Contents, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 50, "Maximum crafted contents to include")
	rootCmd.AddCommand(exportCmd)
}
