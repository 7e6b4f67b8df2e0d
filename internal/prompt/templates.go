package prompt

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	defaultIdeaCount      = 5
	maxIdeaCount          = 10
	defaultLinkedInLength = "150-250 words"
	maxDocumentChars      = 12000
)

const ideasTemplate = `You are a B2B content strategist who turns market signals into content ideas using Product-Led Storytelling and the 3Rs formula: Resonance, Relevance, Results.

Generate {{IDEA_COUNT}} distinct content ideas inspired by the trigger below. Each idea must connect a tension the audience feels to a concrete part of the product.

{{PRODUCT_CONTEXT}}

{{ICP_CONTEXT}}

{{NARRATIVE_ANCHORS}}

{{TRIGGER}}

## OUTPUT FORMAT
Return exactly {{IDEA_COUNT}} ideas. Use this layout for every idea and nothing else:

Title: <a specific, curiosity-driven headline>
Narrative: <two or three sentences on the tension or belief the piece explores>
Product Tie-in: <how the product naturally fits the story>
CTA: <the single action the reader should take>`

const linkedInTemplate = `You are a ghostwriter crafting a LinkedIn post using Product-Led Storytelling and the 3Rs formula: Resonance, Relevance, Results.

The post must sound like a real person sharing a hard-won observation, not like a company announcement.

{{AUTHOR_VOICE}}

{{ICP_CONTEXT}}

{{NARRATIVE_ANCHORS}}

{{BUSINESS_CONTEXT}}

{{TRIGGER}}

{{STYLE_GUIDELINES}}

## OUTPUT FORMAT
Return only the post text, ready to paste. Length: {{TARGET_LENGTH}}. No hashtags in the body; add at most three at the very end.`

const linkedInStyle = `- The first line is a hook that stands alone and makes people click "see more"
- Short lines with white space between them
- One story, one lesson
- Mention the product at most once, as part of the story
- Close with a question or a clear next step`

const storySectionTemplate = `You are writing the {{STORY_SECTION}} section of a customer success story using Product-Led Storytelling and the 3Rs formula: Resonance, Relevance, Results.

Stay faithful to the facts below. Do not invent metrics, names or quotes.

{{STORY_FACTS}}

{{QUOTES}}

{{PRODUCT_CONTEXT}}

{{ICP_CONTEXT}}

{{AUTHOR_VOICE}}

{{ADDITIONAL_CONTEXT}}

{{SECTION_GUIDANCE}}

## OUTPUT FORMAT
Return only the {{STORY_SECTION}} section as Markdown prose, starting with a level-two heading. Quote customers verbatim when you use them.`

const storyExtractTemplate = `You are analyzing a document that describes a customer's experience with a product. Extract the facts needed for a customer success story.

Only use information stated in the document. Leave a field empty when the document does not cover it.

{{SOURCE_DOCUMENT}}

## OUTPUT FORMAT
Respond with ONLY this JSON:
{
    "title": "Short descriptive title, e.g. company name and outcome",
    "beforeSummary": "The situation and problems before the change",
    "afterSummary": "The outcome after the change, with metrics where stated",
    "quotes": [{"quote": "verbatim quote", "author": "person", "title": "their role"}],
    "features": ["product feature mentioned"]
}`

// Templates returns the fixed templates of the template-style kinds.
func Templates() map[ContentKind]string {
	return map[ContentKind]string{
		KindIdeas:        ideasTemplate,
		KindLinkedIn:     linkedInTemplate,
		KindStorySection: storySectionTemplate,
		KindStoryExtract: storyExtractTemplate,
	}
}

func buildIdeas(req Request) string {
	return tidy(Render(ideasTemplate, ideasVars(req)))
}

func ideasVars(req Request) map[string]string {
	count := clamp(req.IdeaCount, 1, maxIdeaCount, defaultIdeaCount)
	return templateVars(KindIdeas, sectionBodies(req), map[string]string{
		"IDEA_COUNT": strconv.Itoa(count),
	})
}

func buildLinkedIn(req Request) string {
	return tidy(Render(linkedInTemplate, linkedInVars(req)))
}

func linkedInVars(req Request) map[string]string {
	bodies := sectionBodies(req)
	bodies[SecStyle] = linkedInStyle
	return templateVars(KindLinkedIn, bodies, map[string]string{
		"TARGET_LENGTH": orDefault(req.TargetLength, defaultLinkedInLength),
	})
}

func buildStorySection(req Request) string {
	return tidy(Render(storySectionTemplate, storySectionVars(req)))
}

func storySectionVars(req Request) map[string]string {
	bodies := sectionBodies(req)
	bodies[SecStoryFacts] = storyFacts(req.Story)
	if req.Story != nil {
		bodies[SecQuotes] = quoteList(req.Story.Quotes)
	}
	bodies[SecGuidance] = storyGuidance[req.StorySection]
	return templateVars(KindStorySection, bodies, map[string]string{
		"STORY_SECTION": string(req.StorySection),
	})
}

func buildStoryExtract(req Request) string {
	return tidy(Render(storyExtractTemplate, storyExtractVars(req)))
}

func storyExtractVars(req Request) map[string]string {
	return templateVars(KindStoryExtract, map[Section]string{
		SecDocument: truncate(strings.TrimSpace(req.DocumentText), maxDocumentChars),
	}, nil)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "\n[document truncated]"
}
