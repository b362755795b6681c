package parser

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/timeparse"
)

// DefaultNewsDomain prefixes root-relative article links.
const DefaultNewsDomain = "https://n.news.naver.com"

// ExtractOptions tunes a single extraction pass.
type ExtractOptions struct {
	Domain string
	Marker string
	Now    time.Time
	Logger *slog.Logger
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Domain == "" {
		o.Domain = DefaultNewsDomain
	}
	if o.Marker == "" {
		o.Marker = domain.ExclusiveMarker
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Extract yields the exclusive items of a results page in document order.
// The sequence parses lazily and can be ranged over once; later ranges yield
// nothing. A page without item nodes yields an empty sequence.
func Extract(html string, rules domain.SelectorSet, opts ExtractOptions) iter.Seq[domain.NewsItem] {
	opts = opts.withDefaults()
	var consumed atomic.Bool

	return func(yield func(domain.NewsItem) bool) {
		if consumed.Swap(true) {
			return
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			logDebug(opts.Logger, "parse document", "error", err)
			return
		}

		nodes := doc.Find(rules.Item)
		if nodes.Length() == 0 {
			if opts.Logger != nil {
				opts.Logger.Warn("no item nodes found, selectors may be stale", "selector", rules.Item)
			}
			return
		}
		logDebug(opts.Logger, "item nodes found", "count", nodes.Length())

		seen := make(map[string]struct{})
		nodes.EachWithBreak(func(i int, node *goquery.Selection) bool {
			item, err := readItem(node, rules, opts)
			if err != nil {
				logDebug(opts.Logger, "skip item", "index", i, "reason", err)
				return true
			}

			if _, dup := seen[item.URL]; dup {
				logDebug(opts.Logger, "skip repeated url", "url", item.URL)
				return true
			}
			if !strings.Contains(item.Title, opts.Marker) {
				logDebug(opts.Logger, "skip unmarked title", "title", item.Title)
				return true
			}
			// Links still relative after normalization cannot be opened from the digest.
			if item.Title == "" || item.Publisher == "" || !isAbsolute(item.URL) {
				logDebug(opts.Logger, "skip incomplete item", "index", i)
				return true
			}

			seen[item.URL] = struct{}{}
			return yield(item)
		})
	}
}

func readItem(node *goquery.Selection, rules domain.SelectorSet, opts ExtractOptions) (item domain.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reading item: %v", r)
		}
	}()

	main := node.Find(rules.MainContent).First()
	if main.Length() == 0 {
		return domain.NewsItem{}, fmt.Errorf("no main content")
	}

	href, _ := main.Find(rules.URL).First().Attr("href")
	thumbnail, _ := main.Find(rules.Thumbnail).First().Attr("src")
	relative := strings.TrimSpace(node.Find(rules.PublishedTime).First().Text())

	return domain.NewsItem{
		Title:       strings.TrimSpace(main.Find(rules.Title).First().Text()),
		URL:         normalizeURL(strings.TrimSpace(href), opts.Domain),
		Publisher:   strings.TrimSpace(node.Find(rules.Publisher).First().Text()),
		Thumbnail:   strings.TrimSpace(thumbnail),
		Summary:     strings.TrimSpace(main.Find(rules.Summary).First().Text()),
		PublishedAt: timeparse.ToAbsolute(relative, opts.Now),
	}, nil
}

// normalizeURL keeps absolute links, roots "/path" links at base and leaves
// anything else untouched.
func normalizeURL(link, base string) string {
	switch {
	case isAbsolute(link):
		return link
	case strings.HasPrefix(link, "/"):
		return strings.TrimSuffix(base, "/") + link
	default:
		return link
	}
}

func isAbsolute(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
