package scanner

import (
	"context"
	"time"

	"ExclusiveScanner/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	Window    domain.Window
	URL       string
	Selectors domain.SelectorSet
	Now       time.Time
}

// Result holds the items extracted from one results page.
type Result struct {
	Items []domain.NewsItem
}

// Scanner fetches one results page and extracts items with the given selectors.
// An empty Items slice is a valid result, not an error.
type Scanner interface {
	Scan(ctx context.Context, req Request) (Result, error)
}

// Func adapts a plain function to Scanner.
type Func func(ctx context.Context, req Request) (Result, error)

// Scan implements Scanner.
func (f Func) Scan(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
