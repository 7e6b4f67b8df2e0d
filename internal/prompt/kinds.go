package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// ContentKind selects which prompt builder runs.
type ContentKind string

const (
	KindIdeas        ContentKind = "ideas"
	KindLinkedIn     ContentKind = "linkedin"
	KindEmail        ContentKind = "email"
	KindStorySection ContentKind = "story_section"
	KindArticle      ContentKind = "article"
	KindCustom       ContentKind = "custom"
	KindStoryExtract ContentKind = "story_extract"
)

// Kinds lists every content kind.
var Kinds = []ContentKind{
	KindIdeas, KindLinkedIn, KindEmail, KindStorySection, KindArticle, KindCustom, KindStoryExtract,
}

var ErrUnknownKind = errors.New("unknown content kind")

// ParseKind converts user input such as "LinkedIn" or "story-section".
func ParseKind(s string) (ContentKind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range Kinds {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// Style is the construction strategy of a kind.
type Style string

const (
	StyleTemplate Style = "template"
	StyleConcat   Style = "concat"
)

// StyleOf returns the construction style a kind is built with.
func StyleOf(kind ContentKind) Style {
	switch kind {
	case KindEmail, KindArticle, KindCustom:
		return StyleConcat
	}
	return StyleTemplate
}

// Section identifies one block of a prompt.
type Section string

const (
	SecFraming    Section = "framing"
	SecProduct    Section = "product_context"
	SecICP        Section = "icp_context"
	SecAnchors    Section = "narrative_anchors"
	SecAuthor     Section = "author_voice"
	SecBusiness   Section = "business_context"
	SecStory      Section = "success_story"
	SecStoryFacts Section = "story_facts"
	SecQuotes     Section = "quotes"
	SecGoal       Section = "content_goal"
	SecAdditional Section = "additional_context"
	SecTrigger    Section = "trigger"
	SecStyle      Section = "style_guidelines"
	SecGuidance   Section = "section_guidance"
	SecDocument   Section = "source_document"
	SecOutput     Section = "output_format"
)

// Placeholder is the template key a section is rendered into.
func (s Section) Placeholder() string {
	return strings.ToUpper(string(s))
}

var headings = map[Section]string{
	SecProduct:    "PRODUCT CONTEXT",
	SecICP:        "TARGET AUDIENCE",
	SecAnchors:    "NARRATIVE ANCHORS",
	SecAuthor:     "AUTHOR VOICE",
	SecBusiness:   "BUSINESS CONTEXT",
	SecStory:      "SUCCESS STORY PROOF",
	SecStoryFacts: "CUSTOMER STORY",
	SecQuotes:     "CUSTOMER QUOTES",
	SecGoal:       "CONTENT GOAL",
	SecAdditional: "ADDITIONAL CONTEXT",
	SecTrigger:    "TRIGGER",
	SecStyle:      "STYLE GUIDELINES",
	SecGuidance:   "SECTION GUIDANCE",
	SecDocument:   "SOURCE DOCUMENT",
	SecOutput:     "OUTPUT FORMAT",
}

// Heading returns the markdown heading text of a section. Framing has none.
func Heading(s Section) string {
	return headings[s]
}

// LLM output quality depends on instruction order, so every kind has one
// fixed sequence.
var sectionOrder = map[ContentKind][]Section{
	KindEmail: {
		SecFraming, SecICP, SecAnchors, SecAuthor, SecStory, SecGoal,
		SecAdditional, SecTrigger, SecStyle, SecOutput,
	},
	KindLinkedIn: {
		SecFraming, SecAuthor, SecICP, SecAnchors, SecBusiness, SecTrigger, SecStyle, SecOutput,
	},
	KindIdeas: {
		SecFraming, SecProduct, SecICP, SecAnchors, SecTrigger, SecOutput,
	},
	KindStorySection: {
		SecFraming, SecStoryFacts, SecQuotes, SecProduct, SecICP, SecAuthor,
		SecAdditional, SecGuidance, SecOutput,
	},
	KindArticle: {
		SecFraming, SecICP, SecAnchors, SecAuthor, SecBusiness, SecStory,
		SecAdditional, SecTrigger, SecStyle, SecOutput,
	},
	KindCustom: {
		SecFraming, SecICP, SecAnchors, SecAuthor, SecBusiness, SecAdditional, SecTrigger, SecOutput,
	},
	KindStoryExtract: {
		SecFraming, SecDocument, SecOutput,
	},
}

// SectionOrder returns the fixed section sequence of a kind.
func SectionOrder(kind ContentKind) []Section {
	order := sectionOrder[kind]
	out := make([]Section, len(order))
	copy(out, order)
	return out
}

// ContentGoal is what a piece of content asks the reader to do.
type ContentGoal string

const (
	GoalBookCall  ContentGoal = "book_call"
	GoalReply     ContentGoal = "reply"
	GoalDemo      ContentGoal = "demo"
	GoalResource  ContentGoal = "resource"
	GoalEvent     ContentGoal = "event"
	GoalAwareness ContentGoal = "awareness"
)

var goalPhrases = map[ContentGoal]string{
	GoalBookCall:  "book a call",
	GoalReply:     "get a reply",
	GoalDemo:      "request a demo",
	GoalResource:  "download the resource",
	GoalEvent:     "register for the event",
	GoalAwareness: "build awareness",
}

// Phrase returns the natural-language action of a goal. Unknown goals are
// used verbatim, with underscores turned into spaces.
func (g ContentGoal) Phrase() string {
	if p, ok := goalPhrases[g]; ok {
		return p
	}
	return strings.ReplaceAll(strings.TrimSpace(string(g)), "_", " ")
}

// StorySection is the part of a success story being written.
type StorySection string

const (
	StoryChallenge StorySection = "challenge"
	StoryApproach  StorySection = "approach"
	StoryResults   StorySection = "results"
	StorySummary   StorySection = "summary"
)

var storyGuidance = map[StorySection]string{
	StoryChallenge: "Describe the situation before the customer changed anything: the pressure they were under, what they tried, and why it was not enough. Stay in their world; do not mention the product yet.",
	StoryApproach:  "Explain how the customer approached the problem and where the product fit in. Focus on decisions and the first moments of change, not on a feature tour.",
	StoryResults:   "Show the outcome in concrete terms: metrics, time saved, what the team can do now. Let quotes carry the emotion.",
	StorySummary:   "Write a short executive summary covering the before state, the change, and the measurable result in one flowing paragraph.",
}

// BusinessItemType is the kind of ProductContext element an item points at.
type BusinessItemType string

const (
	ItemFeature        BusinessItemType = "feature"
	ItemUseCase        BusinessItemType = "use_case"
	ItemDifferentiator BusinessItemType = "differentiator"
	ItemNarrative      BusinessItemType = "narrative"
)

// Narrative statement ids used with ItemNarrative.
const (
	NarrativeCategoryPOV    = "categoryPOV"
	NarrativeCompanyMission = "companyMission"
	NarrativeUniqueInsight  = "uniqueInsight"
)

// BusinessContextItem points at a ProductContext element to weave into the
// content.
type BusinessContextItem struct {
	Type BusinessItemType `json:"type"`
	ID   string           `json:"id"`
}

// Request carries every input a builder may use. Which fields matter
// depends on Kind.
type Request struct {
	Kind              ContentKind
	Trigger           string
	ICP               *database.ICPStoryScript
	Anchors           []database.NarrativeSelection
	Author            *database.Author
	Story             *database.CustomerSuccessStory
	Product           *database.ProductContext
	BusinessItems     []BusinessContextItem
	Goal              ContentGoal
	AdditionalContext string
	EmailCount        int
	IdeaCount         int
	StorySection      StorySection
	CustomFormat      string
	TargetLength      string
	Title             string
	DocumentText      string
}

// ValidationError reports a missing required input. Generation must not be
// attempted when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the inputs a kind cannot do without.
func Validate(req Request) error {
	needTrigger := func() error {
		if strings.TrimSpace(req.Trigger) == "" {
			return &ValidationError{Field: "trigger", Message: "trigger text is required"}
		}
		return nil
	}
	needICP := func() error {
		if req.ICP == nil {
			return &ValidationError{Field: "icp", Message: "select a target ICP"}
		}
		return nil
	}

	switch req.Kind {
	case KindIdeas:
		return needTrigger()
	case KindEmail, KindLinkedIn, KindArticle:
		if err := needICP(); err != nil {
			return err
		}
		return needTrigger()
	case KindCustom:
		if strings.TrimSpace(req.CustomFormat) == "" {
			return &ValidationError{Field: "customFormat", Message: "describe the format to write"}
		}
		return needTrigger()
	case KindStorySection:
		if req.Story == nil {
			return &ValidationError{Field: "story", Message: "select a customer success story"}
		}
		if _, ok := storyGuidance[req.StorySection]; !ok {
			return &ValidationError{Field: "storySection", Message: fmt.Sprintf("unknown story section %q", req.StorySection)}
		}
		return nil
	case KindStoryExtract:
		if strings.TrimSpace(req.DocumentText) == "" {
			return &ValidationError{Field: "document", Message: "document text is empty"}
		}
		return nil
	}
	return fmt.Errorf("%q: %w", req.Kind, ErrUnknownKind)
}

// Build validates req and assembles the prompt for its kind.
func Build(req Request) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}

	switch req.Kind {
	case KindEmail:
		return buildEmail(req), nil
	case KindLinkedIn:
		return buildLinkedIn(req), nil
	case KindIdeas:
		return buildIdeas(req), nil
	case KindStorySection:
		return buildStorySection(req), nil
	case KindArticle:
		return buildArticle(req), nil
	case KindCustom:
		return buildCustom(req), nil
	case KindStoryExtract:
		return buildStoryExtract(req), nil
	}
	return "", fmt.Errorf("%q: %w", req.Kind, ErrUnknownKind)
}

// concat emits the sections of kind in their fixed order. framing and output
// are kind specific; the rest comes from the shared section bodies.
func concat(kind ContentKind, framing, output string, bodies map[Section]string) string {
	b := &Builder{}
	for _, sec := range sectionOrder[kind] {
		switch sec {
		case SecFraming:
			b.Text(framing)
		case SecOutput:
			b.Section(Heading(SecOutput), output)
		default:
			b.Section(Heading(sec), bodies[sec])
		}
	}
	return b.String()
}

// templateVars turns section bodies into placeholder values. Every section
// of the kind gets an entry, empty ones included.
func templateVars(kind ContentKind, bodies map[Section]string, extra map[string]string) map[string]string {
	vars := make(map[string]string, len(bodies)+len(extra))
	for _, sec := range sectionOrder[kind] {
		if sec == SecFraming || sec == SecOutput {
			continue
		}
		vars[sec.Placeholder()] = section(Heading(sec), bodies[sec])
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}
