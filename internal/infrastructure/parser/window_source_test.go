package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/scanner"
	"ExclusiveScanner/internal/window"
)

func TestWindowSourceFetch(t *testing.T) {
	t.Parallel()

	kst := time.FixedZone("KST", 9*60*60)
	urls := map[domain.Window]string{
		domain.WindowMorning: "https://search.example/?pd=12",
		domain.WindowWeekend: "https://search.example/?pd=9",
		domain.WindowWeekday: "https://search.example/?pd=7",
	}

	var got scanner.Request
	sc := scanner.Func(func(ctx context.Context, req scanner.Request) (scanner.Result, error) {
		got = req
		return scanner.Result{Items: []domain.NewsItem{{Title: "[단독] x"}}}, nil
	})

	src := NewWindowSource(sc, urls, window.NewCalendar(), kst, nil)

	// 21:10 UTC Monday is 06:10 Tuesday in Seoul.
	now := time.Date(2025, time.October, 13, 21, 10, 0, 0, time.UTC)
	res, err := src.Fetch(context.Background(), now, testRules)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	if got.Window != domain.WindowMorning || got.URL != urls[domain.WindowMorning] {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Now.Location() != kst {
		t.Fatalf("request time not localised: %v", got.Now)
	}
	if got.Selectors != testRules {
		t.Fatalf("selectors not forwarded")
	}
}

func TestWindowSourceMissingURL(t *testing.T) {
	t.Parallel()

	src := NewWindowSource(scanner.Func(func(ctx context.Context, req scanner.Request) (scanner.Result, error) {
		return scanner.Result{}, errors.New("must not be called")
	}), map[domain.Window]string{}, window.Calendar{}, time.UTC, nil)

	if _, err := src.Fetch(context.Background(), testNow, testRules); err == nil {
		t.Fatalf("expected error for missing window url")
	}
}
