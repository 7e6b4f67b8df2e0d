package prompt

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// sectionBodies renders the body of every shared section a request can
// fill. Kind specific sections (framing, output, guidance) are added by the
// builders themselves.
func sectionBodies(req Request) map[Section]string {
	return map[Section]string{
		SecProduct:    productContext(req.Product),
		SecICP:        icpContext(req.ICP),
		SecAnchors:    narrativeAnchors(req.ICP, req.Anchors),
		SecAuthor:     authorVoice(req.Author),
		SecBusiness:   businessContext(req.Product, req.BusinessItems),
		SecStory:      storyProof(req.Story),
		SecGoal:       goalBody(req.Goal),
		SecAdditional: strings.TrimSpace(req.AdditionalContext),
		SecTrigger:    strings.TrimSpace(req.Trigger),
	}
}

func icpContext(icp *database.ICPStoryScript) string {
	if icp == nil {
		return ""
	}
	b := &Builder{}
	b.Optional("Profile", icp.Name)
	for _, t := range database.NarrativeTypes {
		var contents []string
		for _, item := range icp.Items(t) {
			contents = append(contents, item.Content)
		}
		if list := bulletList(contents); list != "" {
			b.Text(t.Label() + ":\n" + list)
		}
	}
	return b.String()
}

// narrativeAnchors lists the selected ICP items the content must address,
// grouped by narrative type.
func narrativeAnchors(icp *database.ICPStoryScript, selections []database.NarrativeSelection) string {
	if icp == nil || len(selections) == 0 {
		return ""
	}
	b := &Builder{}
	for _, t := range database.NarrativeTypes {
		var picked []string
		for _, sel := range selections {
			if sel.Type == t {
				picked = append(picked, icp.Resolve(sel)...)
			}
		}
		if list := bulletList(picked); list != "" {
			b.Text("Address this " + strings.ToLower(t.Label()) + ":\n" + list)
		}
	}
	return b.String()
}

func authorVoice(a *database.Author) string {
	if a == nil {
		return ""
	}
	b := &Builder{}
	who := a.Name
	if role := joinNonEmpty(" at ", a.Role, a.Organization); role != "" {
		who = joinNonEmpty(", ", who, role)
	}
	b.Optional("Write as", who)
	b.Optional("Backstory", a.Backstory)

	var tones []string
	for _, t := range a.Tones {
		tones = append(tones, joinNonEmpty(": ", t.Tone, t.Description))
	}
	if list := bulletList(tones); list != "" {
		b.Text("Tone of voice:\n" + list)
	}

	var exps []string
	for _, e := range a.Experiences {
		exps = append(exps, joinNonEmpty(": ", e.Title, e.Description))
	}
	if list := bulletList(exps); list != "" {
		b.Text("Experiences to draw on:\n" + list)
	}
	return b.String()
}

func storyProof(s *database.CustomerSuccessStory) string {
	if s == nil {
		return ""
	}
	b := &Builder{}
	b.Optional("Customer story", s.Title)
	b.Optional("Before", s.BeforeSummary)
	b.Optional("After", s.AfterSummary)
	if q := quoteList(s.Quotes); q != "" {
		b.Text("Quotes:\n" + q)
	}
	b.Optional("Features involved", strings.Join(s.Features, ", "))
	return b.String()
}

// storyFacts is storyProof without the quotes, which story sections render
// separately.
func storyFacts(s *database.CustomerSuccessStory) string {
	if s == nil {
		return ""
	}
	b := &Builder{}
	b.Optional("Title", s.Title)
	b.Optional("Before", s.BeforeSummary)
	b.Optional("After", s.AfterSummary)
	b.Optional("Features involved", strings.Join(s.Features, ", "))
	return b.String()
}

func quoteList(quotes []database.StoryQuote) string {
	var lines []string
	for _, q := range quotes {
		text := strings.TrimSpace(q.Quote)
		if text == "" {
			continue
		}
		line := fmt.Sprintf("%q", text)
		if by := joinNonEmpty(", ", q.Author, q.Title); by != "" {
			line += " (" + by + ")"
		}
		lines = append(lines, line)
	}
	return bulletList(lines)
}

func productContext(p *database.ProductContext) string {
	if p == nil {
		return ""
	}
	b := &Builder{}
	b.Optional("Category point of view", p.CategoryPOV)
	b.Optional("Company mission", p.CompanyMission)
	b.Optional("Unique insight", p.UniqueInsight)

	var features []string
	for _, f := range p.Features {
		features = append(features, featureLine(f))
	}
	if list := bulletList(features); list != "" {
		b.Text("Features:\n" + list)
	}

	var useCases []string
	for _, u := range p.UseCases {
		useCases = append(useCases, useCaseLine(u))
	}
	if list := bulletList(useCases); list != "" {
		b.Text("Use cases:\n" + list)
	}

	var diffs []string
	for _, d := range p.Differentiators {
		diffs = append(diffs, differentiatorLine(d))
	}
	if list := bulletList(diffs); list != "" {
		b.Text("Differentiators:\n" + list)
	}
	return b.String()
}

func featureLine(f database.ProductFeature) string {
	return joinNonEmpty(": ", f.Name, strings.Join(nonBlank(f.Benefits), "; "))
}

func useCaseLine(u database.ProductUseCase) string {
	head := u.UseCase
	if u.TargetUser != "" {
		head = joinNonEmpty(" ", head, "(for "+u.TargetUser+")")
	}
	return joinNonEmpty(": ", head, u.Description)
}

func differentiatorLine(d database.ProductDifferentiator) string {
	line := joinNonEmpty(": ", d.Name, d.Description)
	if c := strings.TrimSpace(d.CompetitorComparison); c != "" {
		line = joinNonEmpty(" ", line, "Compared to alternatives: "+c)
	}
	return line
}

// businessContext resolves the selected items against the product context.
// Items that no longer exist are skipped.
func businessContext(p *database.ProductContext, items []BusinessContextItem) string {
	if p == nil || len(items) == 0 {
		return ""
	}
	var lines []string
	for _, item := range items {
		if line := resolveItem(p, item); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Weave these points in naturally, without turning the piece into a pitch:\n" + bulletList(lines)
}

func resolveItem(p *database.ProductContext, item BusinessContextItem) string {
	match := func(id, name string) bool {
		return item.ID != "" && (item.ID == id || strings.EqualFold(item.ID, name))
	}
	switch item.Type {
	case ItemFeature:
		for _, f := range p.Features {
			if match(f.ID, f.Name) {
				return "Feature " + featureLine(f)
			}
		}
	case ItemUseCase:
		for _, u := range p.UseCases {
			if match(u.ID, u.UseCase) {
				return "Use case " + useCaseLine(u)
			}
		}
	case ItemDifferentiator:
		for _, d := range p.Differentiators {
			if match(d.ID, d.Name) {
				return "Differentiator " + differentiatorLine(d)
			}
		}
	case ItemNarrative:
		switch item.ID {
		case NarrativeCategoryPOV:
			return labeled("Our category point of view", p.CategoryPOV)
		case NarrativeCompanyMission:
			return labeled("Our mission", p.CompanyMission)
		case NarrativeUniqueInsight:
			return labeled("Our unique insight", p.UniqueInsight)
		}
	}
	return ""
}

func goalBody(goal ContentGoal) string {
	phrase := goal.Phrase()
	if phrase == "" {
		return ""
	}
	return "Primary goal: " + phrase + ". Build toward that single action and make it the closing ask."
}

func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
