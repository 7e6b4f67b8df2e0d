package collect

import (
	"context"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const (
	maxPerFeed    = 20
	maxSummaryLen = 500
)

// FeedEntry is one feed item offered as trigger material.
type FeedEntry struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
	Summary       string
	Source        string
}

// FeedConfig names a feed to read.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser reads RSS and Atom feeds.
type FeedParser struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
}

// NewFeedParser creates a parser over feeds.
func NewFeedParser(feeds []FeedConfig) *FeedParser {
	return &FeedParser{feeds: feeds, parser: gofeed.NewParser()}
}

// ParseAll reads every feed and returns the entries published within the
// last daysBack days. A feed that cannot be read is logged and skipped.
func (fp *FeedParser) ParseAll(ctx context.Context, daysBack int) []FeedEntry {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var all []FeedEntry

	for _, fc := range fp.feeds {
		name := fc.Name
		if name == "" {
			name = sourceName(fc.URL)
		}

		entries, err := fp.parseFeed(ctx, fc.URL, name, cutoff)
		if err != nil {
			zap.S().Warnf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}
		all = append(all, entries...)
		zap.S().Infof("Parsed %d entries from %s (within %d days)", len(entries), name, daysBack)
	}
	return all
}

func (fp *FeedParser) parseFeed(ctx context.Context, feedURL, source string, cutoff time.Time) ([]FeedEntry, error) {
	feed, err := fp.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []FeedEntry
	for _, item := range feed.Items {
		if len(entries) >= maxPerFeed {
			break
		}
		entry := entryFromItem(item, source)
		if entry == nil || !withinWindow(entry.PublishedDate, cutoff) {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func entryFromItem(item *gofeed.Item, source string) *FeedEntry {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return nil
	}

	var published string
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.Format("2006-01-02")
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.Format("2006-01-02")
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return &FeedEntry{
		URL:           link,
		Title:         title,
		PublishedDate: published,
		Summary:       truncate(stripHTML(summary), maxSummaryLen),
		Source:        source,
	}
}

// withinWindow keeps undated entries.
func withinWindow(published string, cutoff time.Time) bool {
	if published == "" {
		return true
	}
	pub, err := time.Parse("2006-01-02", published)
	if err != nil {
		return true
	}
	return !pub.Before(cutoff.Truncate(24 * time.Hour))
}

func stripHTML(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}

// sourceName derives a display name from a feed URL host.
func sourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
