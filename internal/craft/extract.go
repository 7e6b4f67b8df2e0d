package craft

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

const importedStoryTitle = "Imported story"

// ExtractStory asks the LLM to pull a customer success story out of
// document text and stores it. Fields the model leaves out stay empty; an
// answer that is not JSON is kept as the before summary so nothing is lost.
func (c *Crafter) ExtractStory(ctx context.Context, clientID, documentText string) (*database.CustomerSuccessStory, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	text, err := prompt.Build(prompt.Request{Kind: prompt.KindStoryExtract, DocumentText: documentText})
	if err != nil {
		return nil, c.fail("Missing input", err)
	}

	output, err := c.client.Generate(ctx, text, c.options(prompt.KindStoryExtract))
	if err != nil {
		return nil, c.fail("Extraction failed", err)
	}

	story := storyFromResponse(output)
	story.ClientID = database.ClientOrDefault(clientID)
	if err := c.db.SaveStory(story); err != nil {
		return nil, c.fail("Save failed", &PersistenceError{Op: "saving story", Err: err})
	}

	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Story imported",
		Message: fmt.Sprintf("%q with %d quotes", story.Title, len(story.Quotes)),
	})
	return story, nil
}

func storyFromResponse(output string) *database.CustomerSuccessStory {
	data := llm.ParseJSONResponse(output)
	if data == nil {
		return &database.CustomerSuccessStory{Title: importedStoryTitle, BeforeSummary: output}
	}

	story := &database.CustomerSuccessStory{
		Title:         llm.String(data, "title"),
		BeforeSummary: llm.String(data, "beforeSummary"),
		AfterSummary:  llm.String(data, "afterSummary"),
		Features:      llm.Strings(data, "features"),
	}
	if story.Title == "" {
		story.Title = importedStoryTitle
	}
	for _, q := range llm.Objects(data, "quotes") {
		quote := database.StoryQuote{
			Quote:  llm.String(q, "quote"),
			Author: llm.String(q, "author"),
			Title:  llm.String(q, "title"),
		}
		if quote.Quote != "" {
			story.Quotes = append(story.Quotes, quote)
		}
	}
	return story
}
