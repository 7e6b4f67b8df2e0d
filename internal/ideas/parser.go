// Package ideas turns free-form LLM answers into content idea records.
//
// Parsing is a lenient keyword heuristic. It can misclassify section
// boundaries on unusual output, but it never fails and never returns an
// empty field.
package ideas

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// Field names one part of an idea.
type Field string

const (
	FieldTitle        Field = "title"
	FieldNarrative    Field = "narrative"
	FieldProductTieIn Field = "productTieIn"
	FieldCTA          Field = "cta"
)

// Fallback values for fields the response did not provide.
const (
	DefaultTitle        = "Generated Idea"
	DefaultNarrative    = "Narrative content to be developed"
	DefaultProductTieIn = "Product connection to be defined"
	DefaultCTA          = "Call to action to be determined"
)

// SectionRule maps header keywords to a field. Keywords are matched as whole
// words against the header label only.
type SectionRule struct {
	Field    Field
	Keywords []string
}

// DefaultRules is evaluated in order; the first matching rule wins.
var DefaultRules = []SectionRule{
	{Field: FieldTitle, Keywords: []string{"title", "headline"}},
	{Field: FieldCTA, Keywords: []string{"cta", "call to action", "action"}},
	{Field: FieldProductTieIn, Keywords: []string{"product tie-in", "tie-in", "tie in", "product"}},
	{Field: FieldNarrative, Keywords: []string{"narrative", "story", "tension", "belief"}},
}

// maxLabelLen bounds how long a header label may be. Longer text before a
// colon is treated as prose.
const maxLabelLen = 40

// Idea is the set of fields extracted from one idea chunk.
type Idea struct {
	Title        string `json:"title"`
	Narrative    string `json:"narrative"`
	ProductTieIn string `json:"productTieIn"`
	CTA          string `json:"cta"`
}

// ParsedIdea is an idea waiting for the user to save it.
type ParsedIdea struct {
	ID    string              `json:"id"`
	Raw   string              `json:"raw"`
	Score *database.IdeaScore `json:"score"`
	Idea
}

// Record converts a parsed idea into a generated idea for persistence.
func (p ParsedIdea) Record(clientID string, icpID *string) *database.GeneratedIdea {
	return &database.GeneratedIdea{
		ClientID:     database.ClientOrDefault(clientID),
		Title:        p.Title,
		Narrative:    p.Narrative,
		ProductTieIn: p.ProductTieIn,
		CTA:          p.CTA,
		Score:        p.Score,
		Source:       database.SourceGenerated,
		ICPID:        icpID,
	}
}

// Parser applies a rule table to LLM output.
type Parser struct {
	rules []SectionRule
}

// NewParser creates a parser. A nil table selects DefaultRules.
func NewParser(rules []SectionRule) *Parser {
	if rules == nil {
		rules = DefaultRules
	}
	return &Parser{rules: rules}
}

var defaultParser = NewParser(nil)

// ParseIdeas splits raw into ideas with the default rules.
func ParseIdeas(raw string) []ParsedIdea { return defaultParser.ParseIdeas(raw) }

// SplitIdeas splits raw into per idea chunks with the default rules.
func SplitIdeas(raw string) []string { return defaultParser.SplitIdeas(raw) }

// ParseIdeaContent extracts one idea with the default rules.
func ParseIdeaContent(raw string) Idea { return defaultParser.ParseIdeaContent(raw) }

// ParseIdeas splits raw into ideas and assigns each a temporary id and no
// score. Blank input yields no ideas.
func (p *Parser) ParseIdeas(raw string) []ParsedIdea {
	var out []ParsedIdea
	for _, chunk := range p.SplitIdeas(raw) {
		out = append(out, ParsedIdea{
			ID:   uuid.NewString(),
			Raw:  chunk,
			Idea: p.ParseIdeaContent(chunk),
		})
	}
	return out
}

// SplitIdeas starts a new chunk at every title header line. Text before the
// first header is dropped; without any header the whole text is one chunk.
func (p *Parser) SplitIdeas(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var chunks []string
	var current []string
	found := false
	for _, line := range strings.Split(raw, "\n") {
		if p.isTitleHeader(line) {
			if found {
				chunks = appendChunk(chunks, current)
			}
			found = true
			current = nil
		}
		current = append(current, line)
	}

	if !found {
		return []string{strings.TrimSpace(raw)}
	}
	return appendChunk(chunks, current)
}

func appendChunk(chunks, lines []string) []string {
	if chunk := strings.TrimSpace(strings.Join(lines, "\n")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (p *Parser) isTitleHeader(line string) bool {
	label, _, ok := headerLabel(line)
	if !ok {
		return false
	}
	field, ok := p.classify(label)
	return ok && field == FieldTitle
}

// ParseIdeaContent extracts the fields of one idea chunk. Lines following a
// header accumulate into that header's field, joined with spaces.
func (p *Parser) ParseIdeaContent(raw string) Idea {
	fields := make(map[Field]string)
	var loose []string
	var current Field
	var buf []string
	headers := 0

	flush := func() {
		if current == "" || len(buf) == 0 {
			return
		}
		text := strings.Join(buf, " ")
		if prev := fields[current]; prev != "" {
			text = prev + " " + text
		}
		fields[current] = text
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if label, rest, ok := headerLabel(line); ok {
			if field, ok := p.classify(label); ok {
				flush()
				headers++
				current = field
				buf = nil
				if rest != "" {
					buf = append(buf, rest)
				}
				continue
			}
		}

		if current == "" {
			loose = append(loose, line)
			continue
		}
		buf = append(buf, line)
	}
	flush()

	if headers == 0 {
		applyLooseFallback(fields, loose)
	}

	return Idea{
		Title:        orDefault(fields[FieldTitle], DefaultTitle),
		Narrative:    orDefault(fields[FieldNarrative], DefaultNarrative),
		ProductTieIn: orDefault(fields[FieldProductTieIn], DefaultProductTieIn),
		CTA:          orDefault(fields[FieldCTA], DefaultCTA),
	}
}

// applyLooseFallback uses the first meaningful line as the title and the
// remaining lines as the narrative.
func applyLooseFallback(fields map[Field]string, lines []string) {
	for i, line := range lines {
		title := cleanTitle(line)
		if len([]rune(title)) <= 10 {
			continue
		}
		fields[FieldTitle] = title
		fields[FieldNarrative] = strings.Join(lines[i+1:], " ")
		return
	}
}

func (p *Parser) classify(label string) (Field, bool) {
	norm := " " + normalizeLabel(label) + " "
	for _, rule := range p.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(norm, " "+kw+" ") {
				return rule.Field, true
			}
		}
	}
	return "", false
}

// headerLabel finds the label of a candidate header line and the content
// that follows it on the same line. Recognized shapes are "Label: content",
// "**Label**: content", a short markdown heading or bold line, and lines
// starting with the word "title".
func headerLabel(line string) (label, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	marked := strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "**")
	s := stripMarkers(trimmed)
	if s == "" {
		return "", "", false
	}

	if i := strings.Index(s, ":"); i > 0 {
		label = strings.Trim(s[:i], "*_ ")
		if label != "" && len(label) <= maxLabelLen {
			return label, strings.TrimLeft(s[i+1:], "*_ "), true
		}
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "title") {
		after := []rune(s[len("title"):])
		if len(after) == 0 || !unicode.IsLetter(after[0]) {
			return "title", strings.TrimLeft(string(after), "*_-–:. "), true
		}
	}

	if marked {
		label = strings.Trim(s, "*_ ")
		if label != "" && len(label) <= maxLabelLen {
			return label, "", true
		}
	}
	return "", "", false
}

// stripMarkers removes leading list bullets, numbering, heading hashes and
// bold markers.
func stripMarkers(s string) string {
	for {
		before := s
		s = strings.TrimLeft(s, " \t#*-•>")
		if n := len(s) - len(strings.TrimLeft(s, "0123456789")); n > 0 && n < len(s) && (s[n] == '.' || s[n] == ')') {
			s = s[n+1:]
		}
		if s == before {
			return s
		}
	}
}

func normalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func cleanTitle(line string) string {
	return strings.Trim(stripMarkers(line), "*_\" ")
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
