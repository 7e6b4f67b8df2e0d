package craft

import (
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

// resolve loads the records a form references. References to records that
// do not exist in the client's workspace are validation errors.
func (c *Crafter) resolve(clientID string, f Form) (prompt.Request, error) {
	req := prompt.Request{
		Kind:              f.Kind,
		Trigger:           f.Trigger,
		Anchors:           f.Anchors,
		BusinessItems:     f.BusinessItems,
		Goal:              f.Goal,
		AdditionalContext: f.AdditionalContext,
		EmailCount:        f.EmailCount,
		IdeaCount:         f.IdeaCount,
		StorySection:      f.StorySection,
		CustomFormat:      f.CustomFormat,
		TargetLength:      f.TargetLength,
		Title:             f.Title,
	}

	if f.ICPID != "" {
		icp, err := c.db.GetICP(f.ICPID)
		if err != nil {
			return req, &PersistenceError{Op: "loading ICP", Err: err}
		}
		if icp == nil || icp.ClientID != clientID {
			return req, &prompt.ValidationError{Field: "icp", Message: "selected ICP no longer exists"}
		}
		req.ICP = icp
	}

	if f.AuthorID != "" {
		author, err := c.db.GetAuthor(f.AuthorID)
		if err != nil {
			return req, &PersistenceError{Op: "loading author", Err: err}
		}
		if author == nil || author.ClientID != clientID {
			return req, &prompt.ValidationError{Field: "author", Message: "selected author no longer exists"}
		}
		req.Author = author
	}

	if f.StoryID != "" {
		story, err := c.db.GetStory(f.StoryID)
		if err != nil {
			return req, &PersistenceError{Op: "loading story", Err: err}
		}
		if story == nil || story.ClientID != clientID {
			return req, &prompt.ValidationError{Field: "story", Message: "selected story no longer exists"}
		}
		req.Story = story
	}

	product, err := c.db.GetProductContext(clientID)
	if err != nil {
		return req, &PersistenceError{Op: "loading product context", Err: err}
	}
	req.Product = product
	return req, nil
}

// Preview resolves form and returns the prompt that Craft would send.
func (c *Crafter) Preview(clientID string, form Form) (string, error) {
	req, err := c.resolve(database.ClientOrDefault(clientID), form)
	if err != nil {
		return "", err
	}
	return prompt.Build(req)
}
