// Package pipeline runs the trigger refresh: collect new candidates from
// the configured feeds, then rate them against each ICP of a client.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/collect"
	"github.com/TobiSchelling/gtmcraft/internal/config"
	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Err     error  `json:"-"`
}

// Result holds the results of a full refresh.
type Result struct {
	ClientID string       `json:"clientId"`
	Steps    []StepResult `json:"steps"`
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates collection and triage.
type Pipeline struct {
	cfg     *config.Config
	db      *database.DB
	crafter *craft.Crafter
}

// New creates a pipeline. Triage runs through crafter so it shares the
// single generation slot with interactive crafting.
func New(cfg *config.Config, db *database.DB, crafter *craft.Crafter) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, crafter: crafter}
}

// Run collects trigger candidates and triages up to limit of them for
// every ICP of clientID. A failed collection stops the run.
func (p *Pipeline) Run(ctx context.Context, clientID string, daysBack, limit int) *Result {
	r := &Result{ClientID: database.ClientOrDefault(clientID)}

	step := p.runCollect(ctx, daysBack)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	icps, err := p.db.GetICPsForClient(r.ClientID)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Triage", Err: err})
		return r
	}
	if len(icps) == 0 {
		r.Steps = append(r.Steps, StepResult{Name: "Triage", Summary: "No ICPs defined; nothing to triage"})
		return r
	}

	for i, icp := range icps {
		zap.S().Infof("Step 2/2: Triaging for %s (%d/%d)...", icp.Name, i+1, len(icps))
		res, err := p.crafter.TriageTriggers(ctx, r.ClientID, icp.ID, limit)
		name := "Triage: " + icp.Name
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: name, Err: err})
			continue
		}
		r.Steps = append(r.Steps, StepResult{
			Name:    name,
			Summary: fmt.Sprintf("Triaged %d triggers: %d relevant, %d skipped", res.Processed, res.Relevant, res.Skipped),
		})
	}
	return r
}

// DryRun shows what a refresh would do without calling feeds or the LLM.
func (p *Pipeline) DryRun(clientID string, limit int) *Result {
	r := &Result{ClientID: database.ClientOrDefault(clientID)}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] Would read %d feeds", len(p.cfg.Triggers.Feeds)),
	})

	icps, err := p.db.GetICPsForClient(r.ClientID)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Triage", Err: err})
		return r
	}
	for _, icp := range icps {
		pending, err := p.db.GetUntriagedTriggers(icp.ID, limit)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Triage: " + icp.Name, Err: err})
			continue
		}
		r.Steps = append(r.Steps, StepResult{
			Name:    "Triage: " + icp.Name,
			Summary: fmt.Sprintf("[dry-run] %d triggers need triage", len(pending)),
		})
	}
	return r
}

func (p *Pipeline) runCollect(ctx context.Context, daysBack int) StepResult {
	zap.S().Info("Step 1/2: Collecting trigger candidates...")
	result, err := collect.NewCollector(p.cfg.Triggers, p.db, daysBack).Collect(ctx)
	if err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	return StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d new candidates (%d total, %d duplicates)", result.NewCandidates, result.TotalFound, result.Duplicates),
	}
}
