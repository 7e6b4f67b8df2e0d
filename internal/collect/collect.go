// Package collect gathers trigger candidates from RSS and Atom feeds so
// users can start an idea from something that happened in their market.
package collect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/config"
	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// Result counts the outcome of a collection run.
type Result struct {
	TotalFound    int
	NewCandidates int
	Duplicates    int
	Sources       map[string]int
}

// Collector stores feed entries as trigger candidates.
type Collector struct {
	db       *database.DB
	parser   *FeedParser
	daysBack int
}

// NewCollector creates a collector for the configured feeds. A daysBack of
// zero uses the configured window.
func NewCollector(cfg config.Triggers, db *database.DB, daysBack int) *Collector {
	if daysBack <= 0 {
		daysBack = cfg.DaysBack
	}
	if daysBack <= 0 {
		daysBack = 7
	}

	feeds := make([]FeedConfig, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
	}
	return &Collector{db: db, parser: NewFeedParser(feeds), daysBack: daysBack}
}

// Collect reads all feeds and stores entries not seen before.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}
	if len(c.parser.feeds) == 0 {
		zap.S().Info("No trigger feeds configured")
		return r, nil
	}

	entries := c.parser.ParseAll(ctx, c.daysBack)
	r.TotalFound = len(entries)

	for _, e := range entries {
		id, err := c.db.InsertTriggerCandidate(e.URL, e.Title, optional(e.Summary), optional(e.Source), optional(e.PublishedDate))
		if err != nil {
			return r, fmt.Errorf("storing trigger %s: %w", e.URL, err)
		}
		if id > 0 {
			r.NewCandidates++
			r.Sources[e.Source]++
		} else {
			r.Duplicates++
		}
	}

	zap.S().Infof("Trigger collection complete: %d found, %d new, %d duplicates", r.TotalFound, r.NewCandidates, r.Duplicates)
	return r, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
