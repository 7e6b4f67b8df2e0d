package craft

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
	"github.com/TobiSchelling/gtmcraft/internal/triage"
)

// TriageTriggers rates pending trigger candidates against one of the
// client's ICPs. It holds the generation slot for the whole run.
func (c *Crafter) TriageTriggers(ctx context.Context, clientID, icpID string, limit int) (*triage.Result, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()
	clientID = database.ClientOrDefault(clientID)

	icp, err := c.db.GetICP(icpID)
	if err != nil {
		return nil, c.fail("Triage failed", &PersistenceError{Op: "loading ICP", Err: err})
	}
	if icp == nil || icp.ClientID != clientID {
		return nil, c.fail("Missing input", &prompt.ValidationError{Field: "icp", Message: "select an ICP to triage triggers for"})
	}

	opts := llm.OptionsFrom(c.cfg.OptionsFor("triage"))
	res, err := triage.NewTriager(c.db, c.client, opts).TriageTriggers(ctx, icp, limit)
	if err != nil {
		return res, c.fail("Triage failed", err)
	}

	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Triggers triaged",
		Message: fmt.Sprintf("%d relevant, %d skipped for %s", res.Relevant, res.Skipped, icp.Name),
	})
	return res, nil
}
