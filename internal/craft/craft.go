// Package craft orchestrates content generation: it resolves form input
// against stored records, builds the prompt, calls the LLM, persists the
// result and tells the user how it went.
package craft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/config"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/ideas"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

// ErrBusy is returned when a generation is requested while another one is
// still running.
var ErrBusy = errors.New("a generation is already in progress")

// PersistenceError wraps a failed database operation. Drafts are kept when
// one occurs so the user can retry without re-entering data.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Crafter runs generations for one workspace at a time.
type Crafter struct {
	db       *database.DB
	client   *llm.Client
	cfg      *config.Config
	notifier Notifier
	busy     atomic.Bool
}

// New creates a Crafter. A nil notifier logs notifications.
func New(db *database.DB, client *llm.Client, cfg *config.Config, notifier Notifier) *Crafter {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Crafter{db: db, client: client, cfg: cfg, notifier: notifier}
}

// Busy reports whether a generation is running.
func (c *Crafter) Busy() bool {
	return c.busy.Load()
}

func (c *Crafter) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *Crafter) release() {
	c.busy.Store(false)
}

func (c *Crafter) options(kind prompt.ContentKind) llm.Options {
	return llm.OptionsFrom(c.cfg.OptionsFor(string(kind)))
}

// Craft generates one piece of content of form.Kind and stores it. On a
// persistence failure the generated content is still returned alongside the
// error.
func (c *Crafter) Craft(ctx context.Context, clientID string, form Form) (*database.GeneratedContent, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()
	clientID = database.ClientOrDefault(clientID)

	switch form.Kind {
	case prompt.KindIdeas, prompt.KindStoryExtract:
		err := &prompt.ValidationError{Field: "kind", Message: fmt.Sprintf("%s cannot be crafted directly", form.Kind)}
		return nil, c.fail("Cannot craft", err)
	}

	req, err := c.resolve(clientID, form)
	if err != nil {
		return nil, c.fail("Missing input", err)
	}
	text, err := prompt.Build(req)
	if err != nil {
		return nil, c.fail("Missing input", err)
	}

	output, err := c.client.Generate(ctx, text, c.options(form.Kind))
	if err != nil {
		return nil, c.fail("Generation failed", err)
	}

	content := &database.GeneratedContent{
		ClientID: clientID,
		Kind:     string(form.Kind),
		Title:    contentTitle(form.Title, output),
		Prompt:   text,
		Output:   output,
	}
	if err := c.db.InsertContent(content); err != nil {
		return content, c.fail("Save failed", &PersistenceError{Op: "saving content", Err: err})
	}

	if err := c.db.DeleteDraft(DraftKey(form.Kind, clientID)); err != nil {
		zap.S().Warnf("Clearing draft for %s failed: %v", form.Kind, err)
	}
	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Content ready",
		Message: fmt.Sprintf("%s %q saved", form.Kind, content.Title),
	})
	return content, nil
}

// GenerateIdeas runs the idea generator. The returned ideas are not stored
// until SaveIdea is called for them.
func (c *Crafter) GenerateIdeas(ctx context.Context, clientID string, form Form) ([]ideas.ParsedIdea, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()
	clientID = database.ClientOrDefault(clientID)

	form.Kind = prompt.KindIdeas
	req, err := c.resolve(clientID, form)
	if err != nil {
		return nil, c.fail("Missing input", err)
	}

	res, err := ideas.NewGenerator(c.client, c.options(prompt.KindIdeas)).Generate(ctx, req)
	if err != nil {
		title := "Generation failed"
		var verr *prompt.ValidationError
		if errors.As(err, &verr) {
			title = "Missing input"
		}
		return nil, c.fail(title, err)
	}

	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Ideas ready",
		Message: fmt.Sprintf("%d ideas generated", len(res.Ideas)),
	})
	return res.Ideas, nil
}

// SaveIdea stores a parsed idea. Saving clears the idea form draft.
func (c *Crafter) SaveIdea(clientID string, idea ideas.ParsedIdea, icpID *string) (*database.GeneratedIdea, error) {
	clientID = database.ClientOrDefault(clientID)
	rec := idea.Record(clientID, icpID)
	if err := c.db.InsertIdea(rec); err != nil {
		return nil, c.fail("Save failed", &PersistenceError{Op: "saving idea", Err: err})
	}
	if err := c.db.DeleteDraft(DraftKey(prompt.KindIdeas, clientID)); err != nil {
		zap.S().Warnf("Clearing idea draft failed: %v", err)
	}
	c.notifier.Notify(Notification{Level: LevelSuccess, Title: "Idea saved", Message: rec.Title})
	return rec, nil
}

// AddManualIdea stores an idea typed in by the user.
func (c *Crafter) AddManualIdea(clientID string, idea ideas.Idea, icpID *string) (*database.GeneratedIdea, error) {
	if strings.TrimSpace(idea.Title) == "" {
		return nil, c.fail("Missing input", &prompt.ValidationError{Field: "title", Message: "an idea needs a title"})
	}
	rec := &database.GeneratedIdea{
		ClientID:     database.ClientOrDefault(clientID),
		Title:        strings.TrimSpace(idea.Title),
		Narrative:    strings.TrimSpace(idea.Narrative),
		ProductTieIn: strings.TrimSpace(idea.ProductTieIn),
		CTA:          strings.TrimSpace(idea.CTA),
		Source:       database.SourceManual,
		ICPID:        icpID,
	}
	if err := c.db.InsertIdea(rec); err != nil {
		return nil, c.fail("Save failed", &PersistenceError{Op: "saving idea", Err: err})
	}
	c.notifier.Notify(Notification{Level: LevelSuccess, Title: "Idea added", Message: rec.Title})
	return rec, nil
}

// ScoreIdea rates a stored idea. A nil value clears the score.
func (c *Crafter) ScoreIdea(id string, value *int) (*database.IdeaScore, error) {
	var score *database.IdeaScore
	if value != nil {
		s, err := database.NewIdeaScore(*value)
		if err != nil {
			return nil, c.fail("Invalid score", &prompt.ValidationError{Field: "score", Message: err.Error()})
		}
		score = &s
	}
	if err := c.db.UpdateIdeaScore(id, score); err != nil {
		return nil, c.fail("Save failed", &PersistenceError{Op: "scoring idea", Err: err})
	}
	return score, nil
}

// DeleteIdea removes a stored idea.
func (c *Crafter) DeleteIdea(id string) error {
	if err := c.db.DeleteIdea(id); err != nil {
		return c.fail("Delete failed", &PersistenceError{Op: "deleting idea", Err: err})
	}
	c.notifier.Notify(Notification{Level: LevelInfo, Title: "Idea deleted", Message: id})
	return nil
}

// fail notifies the user about err and returns it unchanged.
func (c *Crafter) fail(title string, err error) error {
	level := LevelError
	var verr *prompt.ValidationError
	if errors.As(err, &verr) {
		level = LevelWarning
	}
	c.notifier.Notify(Notification{Level: level, Title: title, Message: err.Error()})
	return err
}

// contentTitle prefers the user's title, then the first line of output.
func contentTitle(title, output string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	for _, line := range strings.Split(output, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "#*\" ")
		line = strings.TrimPrefix(line, "Subject: ")
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > 80 {
			line = strings.TrimSpace(string(r[:80])) + "..."
		}
		return line
	}
	return "Untitled"
}
