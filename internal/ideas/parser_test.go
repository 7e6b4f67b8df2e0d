package ideas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

func TestParseIdeaContentKeywords(t *testing.T) {
	got := ParseIdeaContent("Title: X marks the spot\nNarrative: Y is the tension\nProduct Tie-in: Z fits here\nCTA: W now")
	want := Idea{
		Title:        "X marks the spot",
		Narrative:    "Y is the tension",
		ProductTieIn: "Z fits here",
		CTA:          "W now",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseIdeaContent mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdeaContentMarkdownHeaders(t *testing.T) {
	raw := `1. **Title:** The Ramp Trap
**Narrative**: New reps drown in slide decks.
They need real calls.
- **Call to Action:** Book a teardown session
### Product Tie-in
The call library puts top calls one search away.`

	got := ParseIdeaContent(raw)
	want := Idea{
		Title:        "The Ramp Trap",
		Narrative:    "New reps drown in slide decks. They need real calls.",
		ProductTieIn: "The call library puts top calls one search away.",
		CTA:          "Book a teardown session",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseIdeaContent mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdeaContentAlternativeKeywords(t *testing.T) {
	got := ParseIdeaContent("Headline: Ship it\nThe Tension: fear of mistakes\nTie in: autosave\nAction: try it")
	if got.Title != "Ship it" || got.Narrative != "fear of mistakes" || got.ProductTieIn != "autosave" || got.CTA != "try it" {
		t.Errorf("unexpected classification: %+v", got)
	}
}

func TestParseIdeaContentProseColonIsContent(t *testing.T) {
	got := ParseIdeaContent("Title: Remote onboarding\nNarrative: Most teams fail.\nNote: they copy office playbooks.")
	if got.Narrative != "Most teams fail. Note: they copy office playbooks." {
		t.Errorf("Narrative = %q", got.Narrative)
	}
}

func TestParseIdeaContentFallbackFirstLine(t *testing.T) {
	got := ParseIdeaContent("Short\nWhy remote onboarding fails\nBecause nobody writes anything down.\nAnd meetings eat the day.")
	if got.Title != "Why remote onboarding fails" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Narrative != "Because nobody writes anything down. And meetings eat the day." {
		t.Errorf("Narrative = %q", got.Narrative)
	}
	if got.ProductTieIn != DefaultProductTieIn || got.CTA != DefaultCTA {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestParseIdeaContentAllDefaults(t *testing.T) {
	got := ParseIdeaContent("ok\nyes")
	want := Idea{
		Title:        DefaultTitle,
		Narrative:    DefaultNarrative,
		ProductTieIn: DefaultProductTieIn,
		CTA:          DefaultCTA,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseIdeaContent mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdeaContentNeverEmpty(t *testing.T) {
	inputs := []string{
		"x",
		"Title:",
		"Narrative:\nCTA:",
		"**",
		"### \n---\n",
		"Title: only a title",
		"CTA: click",
		strings.Repeat("word ", 200),
		"::::",
		"\t\n  \n",
	}
	for _, in := range inputs {
		got := ParseIdeaContent(in)
		if got.Title == "" || got.Narrative == "" || got.ProductTieIn == "" || got.CTA == "" {
			t.Errorf("ParseIdeaContent(%q) has an empty field: %+v", in, got)
		}
	}
}

func TestSplitIdeasCount(t *testing.T) {
	for n := 1; n <= 6; n++ {
		var b strings.Builder
		b.WriteString("Here are some ideas for you:\n\n")
		for i := 1; i <= n; i++ {
			fmt.Fprintf(&b, "Title: Idea number %d\nNarrative: body %d\nProduct Tie-in: p\nCTA: c\n\n", i, i)
		}
		if got := len(ParseIdeas(b.String())); got != n {
			t.Errorf("n=%d: got %d ideas", n, got)
		}
	}
}

func TestSplitIdeasMarkers(t *testing.T) {
	raw := `Intro text that should be dropped.
1. Title: First
Narrative: a
2) **Title:** Second
Narrative: b
- TITLE - Third
Narrative: c
### Title: Fourth
Narrative: d`

	chunks := SplitIdeas(raw)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if strings.Contains(c, "Intro text") {
			t.Error("preamble was not dropped")
		}
	}

	ideas := ParseIdeas(raw)
	titles := []string{ideas[0].Title, ideas[1].Title, ideas[2].Title, ideas[3].Title}
	if diff := cmp.Diff([]string{"First", "Second", "Third", "Fourth"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitIdeasIgnoresTitleLikeWords(t *testing.T) {
	raw := "Title: One\nNarrative: Titles matter.\nTitled works are common.\nTitle: Two"
	if got := len(SplitIdeas(raw)); got != 2 {
		t.Errorf("got %d chunks, want 2", got)
	}
}

func TestSplitIdeasNoHeader(t *testing.T) {
	chunks := SplitIdeas("  just some text\nwithout headers  ")
	if len(chunks) != 1 || chunks[0] != "just some text\nwithout headers" {
		t.Errorf("chunks = %q", chunks)
	}
	if SplitIdeas(" \n\t") != nil {
		t.Error("expected nil for blank input")
	}
}

func TestParseIdeasAssignsIDs(t *testing.T) {
	ideas := ParseIdeas("Title: A\nTitle: B")
	if len(ideas) != 2 {
		t.Fatalf("got %d ideas", len(ideas))
	}
	if ideas[0].ID == "" || ideas[0].ID == ideas[1].ID {
		t.Errorf("ids not unique: %q %q", ideas[0].ID, ideas[1].ID)
	}
	if ideas[0].Score != nil {
		t.Error("score should start nil")
	}
	if ideas[0].Raw != "Title: A" {
		t.Errorf("Raw = %q", ideas[0].Raw)
	}
}

func TestCustomRules(t *testing.T) {
	p := NewParser([]SectionRule{
		{Field: FieldTitle, Keywords: []string{"title"}},
		{Field: FieldNarrative, Keywords: []string{"angle"}},
	})
	got := p.ParseIdeaContent("Title: T\nAngle: the angle\nCTA: ignored header")
	if got.Narrative != "the angle CTA: ignored header" {
		t.Errorf("Narrative = %q", got.Narrative)
	}
	if got.CTA != DefaultCTA {
		t.Errorf("CTA = %q", got.CTA)
	}
}

func TestRecord(t *testing.T) {
	icp := "icp-1"
	idea := ParseIdeas("Title: A\nNarrative: B\nProduct: C\nCTA: D")[0]
	rec := idea.Record("", &icp)
	if rec.ClientID != "default" || rec.Source != "generated" || rec.Title != "A" || *rec.ICPID != icp {
		t.Errorf("unexpected record: %+v", rec)
	}
}

type mockProvider struct {
	response string
	prompt   string
}

func (m *mockProvider) Generate(_ context.Context, p string, _ llm.Options) (string, error) {
	m.prompt = p
	return m.response, nil
}
func (m *mockProvider) IsConfigured() bool { return true }
func (m *mockProvider) Name() string       { return "mock" }

func TestGenerator(t *testing.T) {
	p := &mockProvider{response: "Title: One\nNarrative: n\n\nTitle: Two\nCTA: c"}
	g := NewGenerator(llm.NewClient(p), llm.Options{})

	res, err := g.Generate(context.Background(), prompt.Request{Trigger: "Hiring freezes", IdeaCount: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Ideas) != 2 {
		t.Fatalf("got %d ideas", len(res.Ideas))
	}
	if !strings.Contains(p.prompt, "Hiring freezes") {
		t.Error("trigger not sent to provider")
	}
	if res.Prompt != p.prompt {
		t.Error("result prompt differs from sent prompt")
	}
}

func TestGeneratorValidation(t *testing.T) {
	p := &mockProvider{response: "Title: x"}
	_, err := NewGenerator(llm.NewClient(p), llm.Options{}).Generate(context.Background(), prompt.Request{})
	var verr *prompt.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if p.prompt != "" {
		t.Error("provider called despite validation error")
	}
}
