package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestProductContextReplaceOnSave(t *testing.T) {
	db := openTestDB(t)
	pc := &ProductContext{
		ClientID:      "acme",
		CategoryPOV:   "Onboarding is a revenue problem",
		UniqueInsight: "Ramp time is the hidden quota killer",
		Features: []ProductFeature{
			{Name: "Guided playbooks", Benefits: []string{"Faster ramp", "Consistent pitch"}},
		},
		Links: []CompanyLink{{Type: "website", URL: "https://acme.test"}},
	}
	if err := db.SaveProductContext(pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ID == "" {
		t.Fatal("expected generated id")
	}
	if pc.Features[0].ID == "" {
		t.Error("expected feature id to be assigned")
	}
	firstID := pc.ID

	replacement := &ProductContext{ClientID: "acme", CompanyMission: "Make every rep productive in week one"}
	if err := db.SaveProductContext(replacement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replacement.ID != firstID {
		t.Errorf("expected id %q to be kept, got %q", firstID, replacement.ID)
	}

	got, err := db.GetProductContext("acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected product context")
	}
	if got.CategoryPOV != "" {
		t.Errorf("expected full replace to clear category POV, got %q", got.CategoryPOV)
	}
	if len(got.Features) != 0 {
		t.Errorf("expected no features after replace, got %d", len(got.Features))
	}
	if got.CompanyMission != "Make every rep productive in week one" {
		t.Errorf("unexpected mission %q", got.CompanyMission)
	}
}

func TestProductContextMissing(t *testing.T) {
	db := openTestDB(t)
	pc, err := db.GetProductContext("nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc != nil {
		t.Error("expected nil for missing client")
	}
}

func TestICPLifecycle(t *testing.T) {
	db := openTestDB(t)
	icp := &ICPStoryScript{
		ClientID:    "acme",
		Name:        "Sales leaders",
		CoreBeliefs: []NarrativeItem{{Content: "Speed beats perfection"}},
		InternalPains: []NarrativeItem{
			{ID: "p1", Content: "Reps take six months to ramp"},
		},
	}
	if err := db.SaveICP(icp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if icp.CoreBeliefs[0].ID == "" {
		t.Error("expected belief id to be assigned")
	}

	got, err := db.GetICP(icp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(icp, got, cmpopts.IgnoreFields(ICPStoryScript{}, "CreatedAt")); diff != "" {
		t.Errorf("ICP mismatch (-want +got):\n%s", diff)
	}

	all, _ := db.GetICPsForClient("acme")
	if len(all) != 1 {
		t.Errorf("expected 1 ICP, got %d", len(all))
	}
	other, _ := db.GetICPsForClient("globex")
	if len(other) != 0 {
		t.Errorf("expected ICPs to be scoped by client, got %d", len(other))
	}

	if err := db.DeleteICP(icp.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gone, _ := db.GetICP(icp.ID)
	if gone != nil {
		t.Error("expected ICP to be deleted")
	}
}

func TestSaveRejectsForeignID(t *testing.T) {
	db := openTestDB(t)
	icp := &ICPStoryScript{ClientID: "acme", Name: "Sales leaders"}
	if err := db.SaveICP(icp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hijack := &ICPStoryScript{ID: icp.ID, ClientID: "evil", Name: "hijacked"}
	if err := db.SaveICP(hijack); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}

	got, _ := db.GetICP(icp.ID)
	if got == nil || got.ClientID != "acme" || got.Name != "Sales leaders" {
		t.Errorf("foreign save changed the record: %+v", got)
	}

	icp.Name = "Revenue leaders"
	if err := db.SaveICP(icp); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if got, _ := db.GetICP(icp.ID); got.Name != "Revenue leaders" {
		t.Errorf("expected owner update to apply, got %q", got.Name)
	}

	author := &Author{ClientID: "acme", Name: "Dana"}
	if err := db.SaveAuthor(author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.SaveAuthor(&Author{ID: author.ID, ClientID: "evil", Name: "x"}); !errors.Is(err, ErrNotOwned) {
		t.Errorf("expected ErrNotOwned for author, got %v", err)
	}
}

func TestICPDuplicateItemIDs(t *testing.T) {
	db := openTestDB(t)
	icp := &ICPStoryScript{
		Name:          "Dup",
		CoreBeliefs:   []NarrativeItem{{ID: "x", Content: "a"}},
		InternalPains: []NarrativeItem{{ID: "x", Content: "b"}},
	}
	err := db.SaveICP(icp)
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolveSelection(t *testing.T) {
	icp := &ICPStoryScript{
		ExternalStruggles: []NarrativeItem{
			{ID: "s1", Content: "Tool sprawl"},
			{ID: "s2", Content: "Shrinking budgets"},
			{ID: "s3", Content: "Buyer committees"},
		},
	}
	got := icp.Resolve(NarrativeSelection{Type: NarrativeStruggle, ItemIDs: []string{"s3", "s1", "missing"}})
	want := []string{"Tool sprawl", "Buyer committees"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthorAndStory(t *testing.T) {
	db := openTestDB(t)
	a := &Author{
		Name:  "Dana",
		Role:  "VP Sales",
		Tones: []AuthorTone{{Tone: "Direct", Description: "No fluff"}},
	}
	if err := db.SaveAuthor(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ClientID != DefaultClientID {
		t.Errorf("expected default client, got %q", a.ClientID)
	}
	gotA, _ := db.GetAuthor(a.ID)
	if gotA == nil || gotA.Tones[0].ID == "" {
		t.Fatal("expected author with tone id")
	}

	s := &CustomerSuccessStory{
		BeforeSummary: "Ramp took 6 months",
		AfterSummary:  "Ramp takes 6 weeks",
		Quotes:        []StoryQuote{{Quote: "Game changer", Author: "Lee", Title: "CRO"}},
	}
	if err := db.SaveStory(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stories, _ := db.GetStoriesForClient("")
	if len(stories) != 1 {
		t.Fatalf("expected 1 story, got %d", len(stories))
	}
	if stories[0].Title != "Untitled story" {
		t.Errorf("expected default title, got %q", stories[0].Title)
	}
}

func TestIdeaLifecycle(t *testing.T) {
	db := openTestDB(t)
	idea := &GeneratedIdea{
		ClientID:     "acme",
		Title:        "Ramp is the new quota",
		Narrative:    "Every week of ramp costs pipeline",
		ProductTieIn: "Guided playbooks",
		CTA:          "Book a call",
		Source:       SourceGenerated,
		ICPID:        ptr("icp-1"),
	}
	if err := db.InsertIdea(idea); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	score, err := NewIdeaScore(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.UpdateIdeaScore(idea.ID, &score); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := db.GetIdea(idea.ID)
	if got == nil {
		t.Fatal("expected idea")
	}
	if got.Score == nil || got.Score.Label != "Excellent" {
		t.Errorf("expected Excellent score, got %+v", got.Score)
	}
	if got.Source != SourceGenerated {
		t.Errorf("expected generated source, got %q", got.Source)
	}
	if got.ICPID == nil || *got.ICPID != "icp-1" {
		t.Error("expected icp id to round-trip")
	}

	got.Title = "Edited"
	if err := db.UpdateIdea(got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.UpdateIdeaScore(idea.ID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = db.GetIdea(idea.ID)
	if got.Title != "Edited" || got.Score != nil {
		t.Errorf("expected edited title and cleared score, got %+v", got)
	}

	if err := db.UpdateIdeaScore("missing", &score); err == nil {
		t.Error("expected error scoring a missing idea")
	}

	if err := db.DeleteIdea(idea.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ideas, _ := db.GetIdeasForClient("acme")
	if len(ideas) != 0 {
		t.Errorf("expected 0 ideas, got %d", len(ideas))
	}
}

func TestNewIdeaScoreRange(t *testing.T) {
	if _, err := NewIdeaScore(4); err == nil {
		t.Error("expected error for score 4")
	}
	if _, err := NewIdeaScore(-1); err == nil {
		t.Error("expected error for score -1")
	}
	s, _ := NewIdeaScore(0)
	if s.Label != "Poor" {
		t.Errorf("expected Poor, got %q", s.Label)
	}
}

func TestContents(t *testing.T) {
	db := openTestDB(t)
	c := &GeneratedContent{ClientID: "acme", Kind: "email", Title: "Ramp", Prompt: "p", Output: "Subject: hi"}
	if err := db.InsertContent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := db.GetContent(c.ID)
	if got == nil || got.Prompt != "p" {
		t.Fatalf("expected stored content with prompt, got %+v", got)
	}
	list, _ := db.GetContentsForClient("acme", 0)
	if len(list) != 1 {
		t.Errorf("expected 1 content, got %d", len(list))
	}
	if list[0].Prompt != "" {
		t.Error("expected listing without prompt")
	}
}

func TestDraftRoundTrip(t *testing.T) {
	db := openTestDB(t)
	at := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	if err := db.SaveDraft("craft_email_acme", []byte(`{"trigger":"x"}`), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.SaveDraft("craft_linkedin_acme", []byte(`{}`), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := db.LoadDraft("craft_email_acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || string(d.State) != `{"trigger":"x"}` || !d.SavedAt.Equal(at) {
		t.Errorf("unexpected draft %+v", d)
	}

	list, _ := db.ListDrafts("craft_")
	if len(list) != 2 {
		t.Errorf("expected 2 drafts, got %d", len(list))
	}

	db.DeleteDraft("craft_email_acme")
	d, _ = db.LoadDraft("craft_email_acme")
	if d != nil {
		t.Error("expected draft to be deleted")
	}
}

func TestTriggerCandidates(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertTriggerCandidate("https://a.com/1", "Hiring freeze hits SDR teams", ptr("summary"), ptr("SaaStr"), ptr("2026-10-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}
	dup, err := db.InsertTriggerCandidate("https://a.com/1", "Again", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup != 0 {
		t.Error("expected 0 for duplicate URL")
	}

	c, _ := db.GetTriggerCandidate(id)
	if c == nil || c.Title != "Hiring freeze hits SDR teams" {
		t.Errorf("unexpected candidate %+v", c)
	}
	recent, _ := db.GetRecentTriggerCandidates(5)
	if len(recent) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(recent))
	}
}

func TestTriggerTriage(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.InsertTriggerCandidate("https://a.com/1", "Hiring freeze", nil, nil, ptr("2026-10-15"))
	b, _ := db.InsertTriggerCandidate("https://a.com/2", "Funding round", nil, nil, ptr("2026-10-14"))
	c, _ := db.InsertTriggerCandidate("https://a.com/3", "New CRO playbook", nil, nil, ptr("2026-10-13"))

	pending, err := db.GetUntriagedTriggers("icp-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 untriaged, got %d", len(pending))
	}

	db.InsertTriggerTriage(&TriggerTriage{TriggerID: a, ICPID: "icp-1", Verdict: "relevant", Angle: ptr("ramp pressure"), FitScore: 3})
	db.InsertTriggerTriage(&TriggerTriage{TriggerID: b, ICPID: "icp-1", Verdict: "skip"})
	if err := db.InsertTriggerTriage(&TriggerTriage{TriggerID: c, ICPID: "icp-1", Verdict: "relevant", FitScore: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, _ = db.GetUntriagedTriggers("icp-1", 10)
	if len(pending) != 0 {
		t.Errorf("expected no untriaged triggers, got %d", len(pending))
	}
	other, _ := db.GetUntriagedTriggers("icp-2", 10)
	if len(other) != 3 {
		t.Errorf("triage must be per ICP, got %d untriaged for icp-2", len(other))
	}

	ranked, err := db.GetRankedTriggers("icp-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 || ranked[0].ID != c || ranked[1].Triage.FitScore != 3 {
		t.Errorf("unexpected ranking %+v", ranked)
	}

	db.InsertTriggerTriage(&TriggerTriage{TriggerID: a, ICPID: "icp-1", Verdict: "skip"})
	got, _ := db.GetTriggerTriage(a, "icp-1")
	if got == nil || got.Verdict != "skip" {
		t.Errorf("expected re-triage to replace verdict, got %+v", got)
	}
	if missing, _ := db.GetTriggerTriage(a, "icp-9"); missing != nil {
		t.Error("expected nil for missing triage")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.SaveProductContext(&ProductContext{ClientID: "acme"})
	db.InsertIdea(&GeneratedIdea{Title: "a", Narrative: "b", ProductTieIn: "c", CTA: "d"})

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Clients != 1 || stats.Ideas != 1 || stats.Scored != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
