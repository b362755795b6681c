package ports

import (
	"context"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/scanner"
)

// NewsSource scrapes the results page matching the current time window.
type NewsSource interface {
	Fetch(ctx context.Context, now time.Time, selectors domain.SelectorSet) (scanner.Result, error)
}

// PageFetcher downloads a raw page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// DocumentStore persists small JSON documents by key.
// Get reports found=false for an absent key.
type DocumentStore interface {
	GetDocument(ctx context.Context, key string, v any) (found bool, err error)
	PutDocument(ctx context.Context, key string, v any) error
}

// NewsRepository stores delivered items for deduplication.
type NewsRepository interface {
	ExistingTitles(ctx context.Context, titles []string) ([]string, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
	SaveBatch(ctx context.Context, items []domain.NewsItem) error
}

// TextModel completes a single-turn prompt.
type TextModel interface {
	Complete(ctx context.Context, req CompletionRequest) ([]domain.ContentBlock, error)
}

// CompletionRequest is a single user prompt with sampling settings.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Ranker scores items by newsworthiness, highest first.
type Ranker interface {
	Rank(ctx context.Context, items []domain.NewsItem) ([]domain.RankedNews, error)
}

// Summarizer rewrites an item's summary.
type Summarizer interface {
	Summarize(ctx context.Context, item domain.NewsItem) (domain.NewsItem, error)
}

// Notifier delivers the final ranked digest to the audience channel.
type Notifier interface {
	Publish(ctx context.Context, ranked []domain.RankedNews, at time.Time) error
}

// AdminAlerter reports operational events to an operator channel.
type AdminAlerter interface {
	ScrapingFailed(ctx context.Context) error
	RecoveryStarted(ctx context.Context, failureCount int) error
	RecoverySucceeded(ctx context.Context) error
	DiscoveryResult(ctx context.Context, changes []string, discoveryErr error) error
	RankingReport(ctx context.Context, ranked []domain.RankedNews) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
