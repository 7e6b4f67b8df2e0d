package compose

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestComposeWorkbook(t *testing.T) {
	db := openTestDB(t)
	good, _ := database.NewIdeaScore(2)
	ideas := []*database.GeneratedIdea{
		{ClientID: "acme", Title: "Unrated idea", Narrative: "Later"},
		{ClientID: "acme", Title: "The Ramp Trap", Narrative: "Slow ramps cost pipeline", ProductTieIn: "Call coaching", CTA: "Book a demo", Score: &good},
	}
	for _, idea := range ideas {
		if err := db.InsertIdea(idea); err != nil {
			t.Fatalf("InsertIdea: %v", err)
		}
	}
	if err := db.InsertContent(&database.GeneratedContent{ClientID: "acme", Kind: "linkedin_post", Title: "Ramp post", Output: "Ramp faster.\n"}); err != nil {
		t.Fatalf("InsertContent: %v", err)
	}
	if err := db.InsertContent(&database.GeneratedContent{ClientID: "globex", Kind: "email", Title: "Other client", Output: "nope"}); err != nil {
		t.Fatalf("InsertContent: %v", err)
	}

	wb, err := NewComposer(db).ComposeWorkbook("acme", 10)
	if err != nil {
		t.Fatalf("ComposeWorkbook: %v", err)
	}
	if wb.Ideas != 2 || wb.Contents != 1 {
		t.Errorf("expected 2 ideas and 1 content, got %d/%d", wb.Ideas, wb.Contents)
	}

	md := wb.Markdown
	for _, want := range []string{
		"# Content workbook: acme",
		"### The Ramp Trap (Good)",
		"- **Product tie-in:** Call coaching",
		"- **CTA:** Book a demo",
		"## Ramp post",
		"*Linkedin Post",
		"Ramp faster.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("workbook missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Other client") {
		t.Error("workbook leaked another client's content")
	}
	if strings.Index(md, "The Ramp Trap") > strings.Index(md, "Unrated idea") {
		t.Error("scored idea should come before unscored one")
	}
}

func TestComposeEmptyWorkbook(t *testing.T) {
	db := openTestDB(t)
	wb, err := NewComposer(db).ComposeWorkbook("", 10)
	if err != nil {
		t.Fatalf("ComposeWorkbook: %v", err)
	}
	if wb.ClientID != database.DefaultClientID {
		t.Errorf("expected default client, got %q", wb.ClientID)
	}
	if !strings.Contains(wb.Markdown, emptyWorkbook) {
		t.Errorf("expected empty notice, got %q", wb.Markdown)
	}
}

func TestKindLabel(t *testing.T) {
	tests := map[string]string{
		"email":         "Email",
		"story_section": "Story Section",
		"":              "Content",
	}
	for in, want := range tests {
		if got := kindLabel(in); got != want {
			t.Errorf("kindLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
