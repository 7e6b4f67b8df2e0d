package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/google/go-cmp/cmp"
)

func testICP() *database.ICPStoryScript {
	return &database.ICPStoryScript{
		ID:   "icp-1",
		Name: "Sales leaders at scale-ups",
		CoreBeliefs: []database.NarrativeItem{
			{ID: "b1", Content: "Speed beats perfection"},
		},
		InternalPains: []database.NarrativeItem{
			{ID: "p1", Content: "Quota pressure every quarter"},
		},
		ExternalStruggles: []database.NarrativeItem{
			{ID: "s1", Content: "Reps take six months to ramp"},
		},
		DesiredTransformations: []database.NarrativeItem{
			{ID: "t1", Content: "New reps closing in their first month"},
		},
	}
}

func testProduct() *database.ProductContext {
	return &database.ProductContext{
		CategoryPOV:    "Enablement should live inside the workflow",
		CompanyMission: "Make every rep productive on day one",
		UniqueInsight:  "Reps learn from real calls, not slide decks",
		Features: []database.ProductFeature{
			{ID: "f1", Name: "Call Library", Benefits: []string{"Learn from top performers", "Searchable by objection"}},
		},
		UseCases: []database.ProductUseCase{
			{ID: "u1", UseCase: "Onboarding", TargetUser: "Sales managers", Description: "Ramp new hires faster"},
		},
		Differentiators: []database.ProductDifferentiator{
			{ID: "d1", Name: "Live coaching", Description: "Feedback during calls", CompetitorComparison: "Others only review afterwards"},
		},
	}
}

func testAuthor() *database.Author {
	return &database.Author{
		Name:         "Dana Reyes",
		Role:         "VP Sales",
		Organization: "Acme",
		Backstory:    "Built three sales teams from scratch",
		Tones:        []database.AuthorTone{{ID: "t1", Tone: "Direct", Description: "No fluff"}},
		Experiences:  []database.AuthorExperience{{ID: "e1", Title: "First hire", Description: "Hired the first rep in a garage"}},
	}
}

func testStory() *database.CustomerSuccessStory {
	return &database.CustomerSuccessStory{
		Title:         "Globex cuts ramp time in half",
		BeforeSummary: "Ramp took six months",
		AfterSummary:  "Ramp takes three months",
		Quotes:        []database.StoryQuote{{Quote: "We finally have a playbook", Author: "Sam", Title: "CRO"}},
		Features:      []string{"Call Library"},
	}
}

// fullRequest fills every input so that every section of kind is emitted.
func fullRequest(kind ContentKind) Request {
	return Request{
		Kind:    kind,
		Trigger: "Teams struggle to onboard new reps fast enough",
		ICP:     testICP(),
		Anchors: []database.NarrativeSelection{
			{Type: database.NarrativeBelief, ItemIDs: []string{"b1"}},
			{Type: database.NarrativePain, ItemIDs: []string{"p1"}},
		},
		Author:  testAuthor(),
		Story:   testStory(),
		Product: testProduct(),
		BusinessItems: []BusinessContextItem{
			{Type: ItemFeature, ID: "f1"},
			{Type: ItemNarrative, ID: NarrativeUniqueInsight},
		},
		Goal:              GoalBookCall,
		AdditionalContext: "Q3 launch of the coaching add-on",
		StorySection:      StoryResults,
		CustomFormat:      "A one-page sales battlecard",
		DocumentText:      "Globex used the product to halve ramp time.",
	}
}

func TestRenderReplacesEveryToken(t *testing.T) {
	got := Render("Hello {{NAME}}, meet {{ OTHER }} and {{UNKNOWN}}.", map[string]string{
		"NAME":  "Ada",
		"OTHER": "Bob",
	})
	want := "Hello Ada, meet Bob and ."
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
	if HasTokens(got) {
		t.Errorf("output still has tokens: %q", got)
	}
}

func TestRenderDoesNotRecurse(t *testing.T) {
	got := Render("{{A}}", map[string]string{"A": "{{B}}", "B": "x"})
	if got != "{{B}}" {
		t.Errorf("Render = %q, want the value inserted verbatim", got)
	}
}

func TestRenderDropsStrayBraces(t *testing.T) {
	tmpl := "Hello {{{{NAME}}}} end"
	vars := map[string]string{"NAME": "x"}
	if missing := MissingVariables(tmpl, vars); len(missing) != 0 {
		t.Fatalf("unexpected missing variables %v", missing)
	}
	got := Render(tmpl, vars)
	if got != "Hello x end" {
		t.Errorf("Render = %q, want %q", got, "Hello x end")
	}
	if HasTokens(got) {
		t.Errorf("output still has tokens: %q", got)
	}
	if got := Render("{{A}}", map[string]string{"A": "{{B}}"}); got != "{{B}}" {
		t.Errorf("values must stay verbatim, got %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{A}} {{B}} {{A}} {{ C }}")
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Errorf("Placeholders mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingVariables(t *testing.T) {
	got := MissingVariables("{{A}} {{B}}", map[string]string{"A": ""})
	if diff := cmp.Diff([]string{"B"}, got); diff != "" {
		t.Errorf("MissingVariables mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateVariablesComplete(t *testing.T) {
	varsFor := map[ContentKind]func(Request) map[string]string{
		KindIdeas:        ideasVars,
		KindLinkedIn:     linkedInVars,
		KindStorySection: storySectionVars,
		KindStoryExtract: storyExtractVars,
	}

	for kind, tmpl := range Templates() {
		vars, ok := varsFor[kind]
		if !ok {
			t.Fatalf("no variable builder for %s", kind)
		}
		// An empty request still has to supply an entry for every placeholder.
		for _, req := range []Request{{Kind: kind}, fullRequest(kind)} {
			if missing := MissingVariables(tmpl, vars(req)); len(missing) > 0 {
				t.Errorf("%s: missing variables %v", kind, missing)
			}
		}
	}
}

func TestBuildLeavesNoTokens(t *testing.T) {
	for _, kind := range Kinds {
		got, err := Build(fullRequest(kind))
		if err != nil {
			t.Fatalf("Build(%s): %v", kind, err)
		}
		if HasTokens(got) {
			t.Errorf("%s: prompt contains unreplaced tokens", kind)
		}
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	for _, kind := range Kinds {
		req := fullRequest(kind)
		first, err := Build(req)
		if err != nil {
			t.Fatalf("Build(%s): %v", kind, err)
		}
		second, _ := Build(req)
		if first != second {
			t.Errorf("%s: two builds of the same request differ", kind)
		}
	}
}

func TestSectionOrder(t *testing.T) {
	for _, kind := range Kinds {
		got, err := Build(fullRequest(kind))
		if err != nil {
			t.Fatalf("Build(%s): %v", kind, err)
		}

		last := 0
		for _, sec := range SectionOrder(kind) {
			if sec == SecFraming {
				continue
			}
			heading := "## " + Heading(sec)
			idx := strings.Index(got, heading)
			if idx < 0 {
				t.Errorf("%s: section %s missing", kind, sec)
				continue
			}
			if idx < last {
				t.Errorf("%s: section %s out of order", kind, sec)
			}
			last = idx
		}

		if !strings.HasPrefix(got, "You are") {
			t.Errorf("%s: prompt does not start with framing", kind)
		}
	}
}

func TestSectionOrderReturnsCopy(t *testing.T) {
	order := SectionOrder(KindEmail)
	order[0] = SecOutput
	if SectionOrder(KindEmail)[0] != SecFraming {
		t.Error("SectionOrder exposed internal slice")
	}
}

func TestEmailPromptOrdering(t *testing.T) {
	req := Request{
		Kind:    KindEmail,
		Trigger: "Teams struggle to onboard new reps fast enough",
		ICP: &database.ICPStoryScript{
			Name:        "Sales leaders",
			CoreBeliefs: []database.NarrativeItem{{ID: "b1", Content: "Speed beats perfection"}},
		},
		Goal: GoalBookCall,
	}

	got, err := Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	lower := strings.ToLower(got)

	belief := strings.Index(lower, "speed beats perfection")
	goal := strings.Index(lower, "book a call")
	limit := strings.Index(lower, "keep each email below 125 words")

	if belief < 0 || goal < 0 || limit < 0 {
		t.Fatalf("missing content: belief=%d goal=%d limit=%d\n%s", belief, goal, limit, got)
	}
	if !(belief < goal && goal < limit) {
		t.Errorf("wrong order: belief=%d goal=%d limit=%d", belief, goal, limit)
	}
	if !strings.Contains(got, "Teams struggle to onboard new reps fast enough") {
		t.Error("trigger text missing")
	}
}

func TestEmailOptionalSectionsSkipped(t *testing.T) {
	got, err := Build(Request{Kind: KindEmail, Trigger: "x", ICP: testICP()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, sec := range []Section{SecAuthor, SecStory, SecGoal, SecAdditional, SecAnchors} {
		if strings.Contains(got, "## "+Heading(sec)) {
			t.Errorf("empty section %s was emitted", sec)
		}
	}
	if strings.Contains(got, "\n\n\n") {
		t.Error("prompt contains blank runs left by empty sections")
	}
}

func TestEmailCount(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "sequence of 3 emails"},
		{5, "sequence of 5 emails"},
		{40, "sequence of 7 emails"},
		{-2, "sequence of 1 emails"},
	}
	for _, tt := range tests {
		req := fullRequest(KindEmail)
		req.EmailCount = tt.count
		got, _ := Build(req)
		if !strings.Contains(got, tt.want) {
			t.Errorf("EmailCount=%d: want %q in prompt", tt.count, tt.want)
		}
	}
}

func TestIdeasPromptLayout(t *testing.T) {
	req := Request{Kind: KindIdeas, Trigger: "Remote onboarding is broken", IdeaCount: 4}
	got, err := Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"Generate 4 distinct", "Title:", "Narrative:", "Product Tie-in:", "CTA:", "Remote onboarding is broken"} {
		if !strings.Contains(got, want) {
			t.Errorf("ideas prompt missing %q", want)
		}
	}
	if strings.Contains(got, "## "+Heading(SecProduct)) {
		t.Error("product section emitted without a product context")
	}
}

func TestNarrativeAnchorsResolveSelection(t *testing.T) {
	got := narrativeAnchors(testICP(), []database.NarrativeSelection{
		{Type: database.NarrativeStruggle, ItemIDs: []string{"s1", "missing"}},
	})
	if !strings.Contains(got, "Reps take six months to ramp") {
		t.Errorf("selected struggle missing: %q", got)
	}
	if strings.Contains(got, "Speed beats perfection") {
		t.Errorf("unselected belief included: %q", got)
	}
}

func TestBusinessContextResolution(t *testing.T) {
	p := testProduct()
	got := businessContext(p, []BusinessContextItem{
		{Type: ItemFeature, ID: "f1"},
		{Type: ItemDifferentiator, ID: "live coaching"},
		{Type: ItemUseCase, ID: "gone"},
		{Type: ItemNarrative, ID: NarrativeCompanyMission},
	})
	for _, want := range []string{
		"Feature Call Library: Learn from top performers; Searchable by objection",
		"Differentiator Live coaching: Feedback during calls",
		"Our mission: Make every rep productive on day one",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("business context missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Onboarding") {
		t.Error("unknown use case id resolved to something")
	}
	if businessContext(p, []BusinessContextItem{{Type: ItemFeature, ID: "nope"}}) != "" {
		t.Error("expected empty context when nothing resolves")
	}
}

func TestGoalPhrase(t *testing.T) {
	tests := map[ContentGoal]string{
		GoalBookCall:  "book a call",
		GoalReply:     "get a reply",
		GoalDemo:      "request a demo",
		GoalResource:  "download the resource",
		GoalEvent:     "register for the event",
		GoalAwareness: "build awareness",

		"join_webinar": "join webinar",
		"":             "",
	}
	for goal, want := range tests {
		if got := goal.Phrase(); got != want {
			t.Errorf("%q.Phrase() = %q, want %q", goal, got, want)
		}
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"ideas without trigger", Request{Kind: KindIdeas, Trigger: "  "}, "trigger"},
		{"email without icp", Request{Kind: KindEmail, Trigger: "x"}, "icp"},
		{"linkedin without icp", Request{Kind: KindLinkedIn, Trigger: "x"}, "icp"},
		{"article without trigger", Request{Kind: KindArticle, ICP: testICP()}, "trigger"},
		{"custom without format", Request{Kind: KindCustom, Trigger: "x"}, "customFormat"},
		{"story section without story", Request{Kind: KindStorySection, StorySection: StoryResults}, "story"},
		{"story section bad section", Request{Kind: KindStorySection, Story: testStory(), StorySection: "epilogue"}, "storySection"},
		{"extract without text", Request{Kind: KindStoryExtract}, "document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := Build(Request{Kind: "poem", Trigger: "x"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	got, err := ParseKind(" Story-Section ")
	if err != nil || got != KindStorySection {
		t.Errorf("ParseKind = %q, %v", got, err)
	}
	if _, err := ParseKind("tweet"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestStyleOf(t *testing.T) {
	for kind := range Templates() {
		if StyleOf(kind) != StyleTemplate {
			t.Errorf("%s should be template style", kind)
		}
	}
	for _, kind := range []ContentKind{KindEmail, KindArticle, KindCustom} {
		if StyleOf(kind) != StyleConcat {
			t.Errorf("%s should be concat style", kind)
		}
	}
}

func TestStoryExtractTruncates(t *testing.T) {
	req := Request{Kind: KindStoryExtract, DocumentText: strings.Repeat("a", maxDocumentChars+50)}
	got, err := Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(got, "[document truncated]") {
		t.Error("long document was not truncated")
	}
	if !strings.Contains(got, `"beforeSummary"`) {
		t.Error("JSON layout missing")
	}
}
