// Package triage rates collected trigger candidates against an ICP story
// script so users start ideas from the news that matters to their buyers.
package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
)

const triagePrompt = `You are screening market news for a B2B marketing team. Decide whether this item is a good trigger for content aimed at the audience below.

RELEVANT means: the item touches one of the audience's beliefs, pains or struggles, or signals a change they would have to react to.

SKIP means: funding announcements with no market signal, celebrity opinions, product launches unrelated to the audience, or anything the audience would not care about.

TARGET AUDIENCE: %s
%s

Item Title: %s
Source: %s
Summary:
%s

Respond with ONLY this JSON:
{
    "verdict": "relevant" or "skip",
    "angle": "One sentence on how content could connect this item to the audience",
    "relevance_reason": "One sentence explaining your verdict",
    "fit_score": 1-5
}

fit_score: 5 = speaks directly to a core pain, 1 = loosely related. Skip items get 0.`

const maxSummaryChars = 2000

// Result counts the outcome of a triage run.
type Result struct {
	Processed int `json:"processed"`
	Relevant  int `json:"relevant"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Triager asks the LLM how well trigger candidates fit an ICP.
type Triager struct {
	db     *database.DB
	client *llm.Client
	opts   llm.Options
}

// NewTriager creates a triager.
func NewTriager(db *database.DB, client *llm.Client, opts llm.Options) *Triager {
	return &Triager{db: db, client: client, opts: opts}
}

// TriageTriggers rates up to limit candidates not yet triaged for icp. An
// unconfigured provider aborts the run; other failures are counted and
// skipped.
func (t *Triager) TriageTriggers(ctx context.Context, icp *database.ICPStoryScript, limit int) (*Result, error) {
	triggers, err := t.db.GetUntriagedTriggers(icp.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading untriaged triggers: %w", err)
	}
	r := &Result{}
	if len(triggers) == 0 {
		zap.S().Info("No trigger candidates pending triage")
		return r, nil
	}

	audience := audienceText(icp)
	for _, tc := range triggers {
		tr, err := t.triageTrigger(ctx, tc, icp, audience)
		if err != nil {
			var genErr *llm.GenerationError
			if errors.As(err, &genErr) && genErr.Reason == llm.ReasonNotConfigured {
				return r, err
			}
			zap.S().Warnf("Error triaging trigger %d: %v", tc.ID, err)
			r.Errors++
			continue
		}

		if err := t.db.InsertTriggerTriage(tr); err != nil {
			return r, fmt.Errorf("storing triage of trigger %d: %w", tc.ID, err)
		}
		r.Processed++
		if tr.Verdict == "relevant" {
			r.Relevant++
		} else {
			r.Skipped++
		}
		zap.S().Infof("Triaged [%s]: %s", tr.Verdict, tc.Title)
	}

	zap.S().Infof("Triage complete: %d processed (%d relevant, %d skipped), %d errors",
		r.Processed, r.Relevant, r.Skipped, r.Errors)
	return r, nil
}

func (t *Triager) triageTrigger(ctx context.Context, tc database.TriggerCandidate, icp *database.ICPStoryScript, audience string) (*database.TriggerTriage, error) {
	summary := tc.Title
	if tc.Summary != nil && *tc.Summary != "" {
		summary = *tc.Summary
	}
	if r := []rune(summary); len(r) > maxSummaryChars {
		summary = string(r[:maxSummaryChars]) + "..."
	}
	source := "Unknown"
	if tc.Source != nil {
		source = *tc.Source
	}

	text := fmt.Sprintf(triagePrompt, icp.Name, audience, tc.Title, source, summary)
	response, err := t.client.Generate(ctx, text, t.opts)
	if err != nil {
		return nil, err
	}

	tr := parseTriage(response)
	tr.TriggerID = tc.ID
	tr.ICPID = icp.ID
	return tr, nil
}

// parseTriage reads the verdict JSON. An unparseable answer keeps the
// trigger as a low-scored relevant item so it is not silently lost.
func parseTriage(response string) *database.TriggerTriage {
	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		reason := "LLM response could not be parsed"
		return &database.TriggerTriage{Verdict: "relevant", Reason: &reason, FitScore: 2}
	}

	verdict := strings.ToLower(llm.String(parsed, "verdict"))
	if verdict != "relevant" && verdict != "skip" {
		verdict = "relevant"
	}

	score := getInt(parsed, "fit_score", 2)
	switch {
	case verdict == "skip":
		score = 0
	case score < 1:
		score = 1
	case score > 5:
		score = 5
	}

	return &database.TriggerTriage{
		Verdict:  verdict,
		Angle:    optional(llm.String(parsed, "angle")),
		Reason:   optional(llm.String(parsed, "relevance_reason")),
		FitScore: score,
	}
}

// audienceText lists the ICP's narrative items by category.
func audienceText(icp *database.ICPStoryScript) string {
	var lines []string
	for _, nt := range database.NarrativeTypes {
		items := icp.Items(nt)
		if len(items) == 0 {
			continue
		}
		lines = append(lines, nt.Label()+":")
		for _, item := range items {
			lines = append(lines, "- "+item.Content)
		}
	}
	if len(lines) == 0 {
		return "No narrative defined"
	}
	return strings.Join(lines, "\n")
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func getInt(m map[string]any, key string, fallback int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return fallback
}
