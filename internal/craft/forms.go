package craft

import (
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/drafts"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

// DraftFeature is the draft key feature used by crafting forms.
const DraftFeature = "craft"

// Form is the in-progress input of a crafting or idea generation screen.
// Records are referenced by id and resolved when the form is submitted.
type Form struct {
	Kind              prompt.ContentKind            `json:"kind"`
	Trigger           string                        `json:"trigger"`
	ICPID             string                        `json:"icpId"`
	Anchors           []database.NarrativeSelection `json:"anchors"`
	AuthorID          string                        `json:"authorId"`
	StoryID           string                        `json:"storyId"`
	BusinessItems     []prompt.BusinessContextItem  `json:"businessItems"`
	Goal              prompt.ContentGoal            `json:"goal"`
	AdditionalContext string                        `json:"additionalContext"`
	EmailCount        int                           `json:"emailCount"`
	IdeaCount         int                           `json:"ideaCount"`
	StorySection      prompt.StorySection           `json:"storySection"`
	CustomFormat      string                        `json:"customFormat"`
	TargetLength      string                        `json:"targetLength"`
	Title             string                        `json:"title"`
}

// DefaultForm returns the initial state of the form for kind.
func DefaultForm(kind prompt.ContentKind) Form {
	f := Form{Kind: kind}
	switch kind {
	case prompt.KindEmail:
		f.Goal = prompt.GoalBookCall
		f.EmailCount = 3
	case prompt.KindIdeas:
		f.IdeaCount = 5
	case prompt.KindLinkedIn:
		f.TargetLength = "150-250 words"
	case prompt.KindArticle:
		f.TargetLength = "900-1200 words"
	case prompt.KindStorySection:
		f.StorySection = prompt.StoryChallenge
	}
	return f
}

// DraftKey returns the draft key of a form kind for a client.
func DraftKey(kind prompt.ContentKind, clientID string) string {
	return drafts.Key(DraftFeature, string(kind), clientID)
}
