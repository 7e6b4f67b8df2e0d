package database

import (
	"fmt"
	"time"
)

// DefaultClientID scopes records created without an explicit workspace.
const DefaultClientID = "default"

// ClientOrDefault maps an empty client id to DefaultClientID.
func ClientOrDefault(clientID string) string {
	if clientID == "" {
		return DefaultClientID
	}
	return clientID
}

// MediaRef is an image, video or document attached to a product element.
type MediaRef struct {
	Type string `json:"type" yaml:"type"`
	URL  string `json:"url" yaml:"url"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// ProductFeature is a named capability and the benefits it delivers.
type ProductFeature struct {
	ID       string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string     `json:"name" yaml:"name"`
	Benefits []string   `json:"benefits" yaml:"benefits"`
	Media    []MediaRef `json:"media,omitempty" yaml:"media,omitempty"`
}

// ProductUseCase describes who uses the product and for what.
type ProductUseCase struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	UseCase     string     `json:"useCase" yaml:"use_case"`
	TargetUser  string     `json:"targetUser" yaml:"target_user"`
	Description string     `json:"description" yaml:"description"`
	Media       []MediaRef `json:"media,omitempty" yaml:"media,omitempty"`
}

// ProductDifferentiator is how the product stands apart from competitors.
type ProductDifferentiator struct {
	ID                   string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name                 string     `json:"name" yaml:"name"`
	Description          string     `json:"description" yaml:"description"`
	CompetitorComparison string     `json:"competitorComparison" yaml:"competitor_comparison"`
	Media                []MediaRef `json:"media,omitempty" yaml:"media,omitempty"`
}

// CompanyLink is a tagged company URL (website, blog, linkedin, ...).
type CompanyLink struct {
	Type string `json:"type" yaml:"type"`
	URL  string `json:"url" yaml:"url"`
}

// ProductContext holds the company-level marketing facts for one client.
// It is always saved as a whole.
type ProductContext struct {
	ID              string                  `json:"id" yaml:"id,omitempty"`
	ClientID        string                  `json:"clientId" yaml:"client_id,omitempty"`
	CategoryPOV     string                  `json:"categoryPOV" yaml:"category_pov"`
	CompanyMission  string                  `json:"companyMission" yaml:"company_mission"`
	UniqueInsight   string                  `json:"uniqueInsight" yaml:"unique_insight"`
	Features        []ProductFeature        `json:"features" yaml:"features"`
	UseCases        []ProductUseCase        `json:"useCases" yaml:"use_cases"`
	Differentiators []ProductDifferentiator `json:"differentiators" yaml:"differentiators"`
	Links           []CompanyLink           `json:"links" yaml:"links"`
	UpdatedAt       *string                 `json:"updatedAt,omitempty" yaml:"-"`
}

// NarrativeType is one of the four narrative anchor categories.
type NarrativeType string

const (
	NarrativeBelief         NarrativeType = "belief"
	NarrativePain           NarrativeType = "pain"
	NarrativeStruggle       NarrativeType = "struggle"
	NarrativeTransformation NarrativeType = "transformation"
)

// NarrativeTypes lists the anchor categories in presentation order.
var NarrativeTypes = []NarrativeType{
	NarrativeBelief, NarrativePain, NarrativeStruggle, NarrativeTransformation,
}

// Label returns the heading used for the category in prompts.
func (t NarrativeType) Label() string {
	switch t {
	case NarrativeBelief:
		return "Core Beliefs"
	case NarrativePain:
		return "Internal Pains"
	case NarrativeStruggle:
		return "External Struggles"
	case NarrativeTransformation:
		return "Desired Transformations"
	}
	return string(t)
}

// NarrativeItem is a single ICP narrative statement.
type NarrativeItem struct {
	ID      string `json:"id" yaml:"id,omitempty"`
	Content string `json:"content" yaml:"content"`
}

// ICPStoryScript is an ideal customer profile narrative record.
type ICPStoryScript struct {
	ID                     string          `json:"id" yaml:"id,omitempty"`
	ClientID               string          `json:"clientId" yaml:"client_id,omitempty"`
	Name                   string          `json:"name" yaml:"name"`
	CoreBeliefs            []NarrativeItem `json:"coreBeliefs" yaml:"core_beliefs"`
	InternalPains          []NarrativeItem `json:"internalPains" yaml:"internal_pains"`
	ExternalStruggles      []NarrativeItem `json:"externalStruggles" yaml:"external_struggles"`
	DesiredTransformations []NarrativeItem `json:"desiredTransformations" yaml:"desired_transformations"`
	CreatedAt              *string         `json:"createdAt,omitempty" yaml:"-"`
}

// Items returns the list for a narrative type.
func (s *ICPStoryScript) Items(t NarrativeType) []NarrativeItem {
	switch t {
	case NarrativeBelief:
		return s.CoreBeliefs
	case NarrativePain:
		return s.InternalPains
	case NarrativeStruggle:
		return s.ExternalStruggles
	case NarrativeTransformation:
		return s.DesiredTransformations
	}
	return nil
}

// Validate checks that item ids are unique within the script.
func (s *ICPStoryScript) Validate() error {
	seen := make(map[string]NarrativeType)
	for _, t := range NarrativeTypes {
		for _, item := range s.Items(t) {
			if item.ID == "" {
				continue
			}
			if prev, dup := seen[item.ID]; dup {
				return fmt.Errorf("duplicate narrative item id %q (%s and %s)", item.ID, prev, t)
			}
			seen[item.ID] = t
		}
	}
	return nil
}

// NarrativeSelection picks items of one narrative type from a script.
type NarrativeSelection struct {
	Type    NarrativeType `json:"type"`
	ItemIDs []string      `json:"itemIds"`
}

// Resolve returns the contents of the selected items in script order.
// Unknown ids are ignored.
func (s *ICPStoryScript) Resolve(sel NarrativeSelection) []string {
	want := make(map[string]bool, len(sel.ItemIDs))
	for _, id := range sel.ItemIDs {
		want[id] = true
	}
	var out []string
	for _, item := range s.Items(sel.Type) {
		if want[item.ID] {
			out = append(out, item.Content)
		}
	}
	return out
}

// AuthorTone is a labelled tone of voice.
type AuthorTone struct {
	ID          string `json:"id" yaml:"id,omitempty"`
	Tone        string `json:"tone" yaml:"tone"`
	Description string `json:"description" yaml:"description"`
}

// AuthorExperience is a lived experience the author can draw on.
type AuthorExperience struct {
	ID          string `json:"id" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Author is a voice profile used to flavor prompts.
type Author struct {
	ID           string             `json:"id" yaml:"id,omitempty"`
	ClientID     string             `json:"clientId" yaml:"client_id,omitempty"`
	Name         string             `json:"name" yaml:"name"`
	Role         string             `json:"role" yaml:"role"`
	Organization string             `json:"organization" yaml:"organization"`
	Backstory    string             `json:"backstory" yaml:"backstory"`
	Tones        []AuthorTone       `json:"tones" yaml:"tones"`
	Experiences  []AuthorExperience `json:"experiences" yaml:"experiences"`
	CreatedAt    *string            `json:"createdAt,omitempty" yaml:"-"`
}

// StoryQuote is a customer quote attached to a success story.
type StoryQuote struct {
	Quote  string `json:"quote" yaml:"quote"`
	Author string `json:"author" yaml:"author"`
	Title  string `json:"title" yaml:"title"`
}

// CustomerSuccessStory captures a before/after customer outcome.
type CustomerSuccessStory struct {
	ID            string       `json:"id" yaml:"id,omitempty"`
	ClientID      string       `json:"clientId" yaml:"client_id,omitempty"`
	Title         string       `json:"title" yaml:"title"`
	BeforeSummary string       `json:"beforeSummary" yaml:"before_summary"`
	AfterSummary  string       `json:"afterSummary" yaml:"after_summary"`
	Quotes        []StoryQuote `json:"quotes" yaml:"quotes"`
	Features      []string     `json:"features" yaml:"features"`
	CreatedAt     *string      `json:"createdAt,omitempty" yaml:"-"`
}

// IdeaSource tells manual ideas apart from parsed LLM output.
type IdeaSource string

const (
	SourceManual    IdeaSource = "manual"
	SourceGenerated IdeaSource = "generated"
)

// IdeaScore is the 0-3 rating a user gives an idea.
type IdeaScore struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

var scoreLabels = [...]string{"Poor", "Fair", "Good", "Excellent"}

// NewIdeaScore validates a rating and attaches its label.
func NewIdeaScore(value int) (IdeaScore, error) {
	if value < 0 || value >= len(scoreLabels) {
		return IdeaScore{}, fmt.Errorf("score must be between 0 and %d, got %d", len(scoreLabels)-1, value)
	}
	return IdeaScore{Value: value, Label: scoreLabels[value]}, nil
}

// GeneratedIdea is a saved content idea.
type GeneratedIdea struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"clientId"`
	Title        string     `json:"title"`
	Narrative    string     `json:"narrative"`
	ProductTieIn string     `json:"productTieIn"`
	CTA          string     `json:"cta"`
	Score        *IdeaScore `json:"score,omitempty"`
	Source       IdeaSource `json:"source"`
	ICPID        *string    `json:"icpId,omitempty"`
	CreatedAt    *string    `json:"createdAt,omitempty"`
}

// GeneratedContent is a crafted piece of content kept for history.
type GeneratedContent struct {
	ID        string  `json:"id"`
	ClientID  string  `json:"clientId"`
	Kind      string  `json:"kind"`
	Title     string  `json:"title"`
	Prompt    string  `json:"prompt,omitempty"`
	Output    string  `json:"output"`
	CreatedAt *string `json:"createdAt,omitempty"`
}

// TriggerCandidate is a feed entry offered as trigger input.
type TriggerCandidate struct {
	ID            int64   `json:"id"`
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Summary       *string `json:"summary,omitempty"`
	Source        *string `json:"source,omitempty"`
	PublishedDate *string `json:"publishedDate,omitempty"`
	CollectedAt   *string `json:"collectedAt,omitempty"`
}

// TriggerTriage is the LLM's verdict on how well a trigger candidate fits an
// ICP. FitScore is 0 for skipped triggers and 1-5 otherwise.
type TriggerTriage struct {
	TriggerID int64   `json:"triggerId"`
	ICPID     string  `json:"icpId"`
	Verdict   string  `json:"verdict"`
	Angle     *string `json:"angle,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	FitScore  int     `json:"fitScore"`
	TriagedAt *string `json:"triagedAt,omitempty"`
}

// RankedTrigger is a trigger candidate with its triage for one ICP.
type RankedTrigger struct {
	TriggerCandidate
	Triage TriggerTriage `json:"triage"`
}

// Draft is a saved snapshot of in-progress form state.
type Draft struct {
	Key     string    `json:"key"`
	State   []byte    `json:"state"`
	SavedAt time.Time `json:"savedAt"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	Clients  int
	ICPs     int
	Authors  int
	Stories  int
	Ideas    int
	Scored   int
	Contents int
	Drafts   int
	Triggers int
}
