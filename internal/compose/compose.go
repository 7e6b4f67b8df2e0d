// Package compose assembles a client's saved ideas and crafted content into
// a single markdown workbook for sharing outside the tool.
package compose

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

const emptyWorkbook = "No ideas or content saved for this client yet."

// Composer builds workbooks from the database.
type Composer struct {
	db *database.DB
}

// NewComposer creates a workbook composer.
func NewComposer(db *database.DB) *Composer {
	return &Composer{db: db}
}

// Workbook is a rendered export of one client workspace.
type Workbook struct {
	ClientID string `json:"clientId"`
	Ideas    int    `json:"ideas"`
	Contents int    `json:"contents"`
	Markdown string `json:"markdown"`
}

// ComposeWorkbook renders the client's ideas, best scored first, followed
// by up to contentLimit crafted contents, newest first.
func (c *Composer) ComposeWorkbook(clientID string, contentLimit int) (*Workbook, error) {
	clientID = database.ClientOrDefault(clientID)

	ideas, err := c.db.GetIdeasForClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("loading ideas: %w", err)
	}
	contents, err := c.db.GetContentsForClient(clientID, contentLimit)
	if err != nil {
		return nil, fmt.Errorf("loading contents: %w", err)
	}

	wb := &Workbook{ClientID: clientID, Ideas: len(ideas), Contents: len(contents)}
	header := fmt.Sprintf("# Content workbook: %s", clientID)
	if len(ideas) == 0 && len(contents) == 0 {
		wb.Markdown = header + "\n\n" + emptyWorkbook + "\n"
		return wb, nil
	}

	sections := []string{header}
	if len(ideas) > 0 {
		sections = append(sections, ideaSection(ideas))
	}
	for _, gc := range contents {
		sections = append(sections, contentSection(gc))
	}
	wb.Markdown = strings.Join(sections, "\n\n---\n\n") + "\n"

	zap.S().Infof("Workbook composed for %s: %d ideas, %d contents", clientID, wb.Ideas, wb.Contents)
	return wb, nil
}

func ideaSection(ideas []database.GeneratedIdea) string {
	sorted := make([]database.GeneratedIdea, len(ideas))
	copy(sorted, ideas)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scoreValue(sorted[i].Score) > scoreValue(sorted[j].Score)
	})

	var b strings.Builder
	b.WriteString("## Ideas\n")
	for _, idea := range sorted {
		b.WriteString("\n### " + idea.Title)
		if idea.Score != nil {
			fmt.Fprintf(&b, " (%s)", idea.Score.Label)
		}
		b.WriteString("\n")
		if idea.Narrative != "" {
			b.WriteString("\n" + idea.Narrative + "\n")
		}
		if idea.ProductTieIn != "" {
			b.WriteString("\n- **Product tie-in:** " + idea.ProductTieIn + "\n")
		}
		if idea.CTA != "" {
			b.WriteString("- **CTA:** " + idea.CTA + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// scoreValue orders unscored ideas after every scored one.
func scoreValue(s *database.IdeaScore) int {
	if s == nil {
		return -1
	}
	return s.Value
}

func contentSection(gc database.GeneratedContent) string {
	section := fmt.Sprintf("## %s\n\n*%s", gc.Title, kindLabel(gc.Kind))
	if gc.CreatedAt != nil {
		section += ", " + *gc.CreatedAt
	}
	section += "*\n\n" + strings.TrimSpace(gc.Output)
	return section
}

func kindLabel(kind string) string {
	if kind == "" {
		return "Content"
	}
	words := strings.Split(kind, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
