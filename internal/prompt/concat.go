package prompt

import (
	"fmt"
	"strings"
)

const (
	defaultEmailCount    = 3
	maxEmailCount        = 7
	defaultArticleLength = "900-1200 words"
)

const emailFraming = `You are an expert B2B copywriter writing a cold outbound email sequence using Product-Led Storytelling and the 3Rs formula: Resonance, Relevance, Results.

Each email must feel written for one specific person. Lead with their world, earn attention with a sharp observation, and let the product appear only as the natural answer to a problem they already feel.`

const emailStyle = `- Write in plain, conversational language; no buzzwords, no exclamation marks
- One idea per email; every email must stand on its own
- Open with the reader's situation, never with the sender or the company
- Use short paragraphs of one to three sentences
- Subject lines are lower case, under six words, and never clickbait
- Later emails add a new angle instead of repeating "just following up"`

const articleFraming = `You are a senior B2B content strategist writing a thought-leadership article using Product-Led Storytelling and the 3Rs formula: Resonance, Relevance, Results.

The article must teach something the reader can use even if they never buy. The product earns its place through a concrete example, not through claims.`

const articleStyle = `- Open with a scene, tension, or contrarian observation, not a definition
- Use subheadings every few paragraphs so the piece can be skimmed
- Prefer specific numbers, names and moments over abstractions
- Keep the product to one or two grounded mentions
- End with a takeaway the reader can act on this week`

const customFraming = `You are a versatile B2B content writer using Product-Led Storytelling and the 3Rs formula: Resonance, Relevance, Results.

Write the requested format for the audience described below. Follow the format instructions exactly; they override any general convention.`

func buildEmail(req Request) string {
	count := clamp(req.EmailCount, 1, maxEmailCount, defaultEmailCount)

	output := fmt.Sprintf(`Write a sequence of %d emails. For each email use exactly this layout:

Email 1
Subject: <subject line>
Body:
<email body>

Separate emails with a line containing only "---".
Keep each email below 125 words.`, count)

	bodies := sectionBodies(req)
	bodies[SecStyle] = emailStyle
	return concat(KindEmail, emailFraming, output, bodies)
}

func buildArticle(req Request) string {
	framing := articleFraming
	if title := strings.TrimSpace(req.Title); title != "" {
		framing += "\n\nWorking title: " + title
	}

	output := fmt.Sprintf(`Return the article in Markdown.
- First line: the title as a level-one heading
- Length: %s
- Finish with a short "Key takeaways" list of three points`, orDefault(req.TargetLength, defaultArticleLength))

	bodies := sectionBodies(req)
	bodies[SecStyle] = articleStyle
	return concat(KindArticle, framing, output, bodies)
}

func buildCustom(req Request) string {
	output := (&Builder{}).
		Text(req.CustomFormat).
		Optional("Target length", req.TargetLength).
		Text("Return only the finished content, with no commentary before or after it.").
		String()

	return concat(KindCustom, customFraming, output, sectionBodies(req))
}
