// Package feed collects space-weather news from RSS and Atom feeds.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/mmcdole/gofeed"
)

const (
	summaryRunes = 200
	ellipsis     = "..."
)

// Fetcher returns the raw payload at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// NewsSource merges items from several feeds into one newest-first list.
type NewsSource struct {
	fetcher Fetcher
	feeds   []string
	limit   int
	logger  *slog.Logger
}

// NewNewsSource creates a news source over feeds, keeping at most
// domain.NewsLimit items.
func NewNewsSource(f Fetcher, feeds []string, logger *slog.Logger) *NewsSource {
	return &NewsSource{fetcher: f, feeds: feeds, limit: domain.NewsLimit, logger: logger}
}

func (s *NewsSource) Name() string { return "Space Weather News" }

func (s *NewsSource) Default() domain.Contribution { return domain.NewsContribution(nil) }

// Collect reads every feed in turn. A failing feed is skipped; the source
// only fails when no feed could be read.
func (s *NewsSource) Collect(ctx context.Context) (domain.Contribution, error) {
	if len(s.feeds) == 0 {
		return s.Default(), errors.New("no news feeds configured")
	}

	parser := gofeed.NewParser()
	var (
		items []dated
		errs  []error
	)
	for _, u := range s.feeds {
		got, err := s.collectFeed(ctx, parser, u)
		if err != nil {
			s.logger.Warn("news feed skipped", "feed", u, "error", err)
			errs = append(errs, err)
			continue
		}
		items = append(items, got...)
	}
	if len(errs) == len(s.feeds) {
		return s.Default(), errors.Join(errs...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	if len(items) > s.limit {
		items = items[:s.limit]
	}
	out := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.item)
	}
	return domain.NewsContribution(out), nil
}

// dated pairs an item with its parsed publication time for sorting.
type dated struct {
	item domain.NewsItem
	at   time.Time
}

func (s *NewsSource) collectFeed(ctx context.Context, parser *gofeed.Parser, feedURL string) ([]dated, error) {
	raw, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}
	parsed, err := parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, &domain.ShapeError{Feed: "news", Err: err}
	}

	source := strings.TrimSpace(parsed.Title)
	if source == "" {
		source = hostOf(feedURL)
	}

	out := make([]dated, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		at := publishedAt(it)
		date := ""
		if !at.IsZero() {
			date = at.Format(time.RFC3339)
		}
		out = append(out, dated{
			item: domain.NewsItem{
				Title:   strings.TrimSpace(it.Title),
				Link:    strings.TrimSpace(it.Link),
				Date:    date,
				Source:  source,
				Summary: summarize(it.Description),
			},
			at: at,
		})
	}
	return out, nil
}

func publishedAt(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}

// summarize reduces an HTML description to plain text of at most
// summaryRunes runes, ellipsis included.
func summarize(description string) string {
	text := description
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(description)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= summaryRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:summaryRunes-len(ellipsis)])) + ellipsis
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
