package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
	"ExclusiveScanner/internal/scanner"
	"ExclusiveScanner/internal/window"
)

// WindowSource implements NewsSource by choosing the query URL from the time window.
type WindowSource struct {
	scanner  scanner.Scanner
	urls     map[domain.Window]string
	calendar window.Calendar
	location *time.Location
	logger   *slog.Logger
}

var _ ports.NewsSource = (*WindowSource)(nil)

// NewWindowSource wires a scanner with one query URL per window.
func NewWindowSource(sc scanner.Scanner, urls map[domain.Window]string, cal window.Calendar, loc *time.Location, log *slog.Logger) *WindowSource {
	if loc == nil {
		loc = time.UTC
	}
	return &WindowSource{
		scanner:  sc,
		urls:     urls,
		calendar: cal,
		location: loc,
		logger:   log,
	}
}

// Request resolves the scan request for now without performing I/O.
func (s *WindowSource) Request(now time.Time, selectors domain.SelectorSet) (scanner.Request, error) {
	local := now.In(s.location)
	w := window.Select(local, s.calendar)

	target, ok := s.urls[w]
	if !ok || target == "" {
		return scanner.Request{}, fmt.Errorf("no query url configured for window %s", w)
	}

	return scanner.Request{
		Window:    w,
		URL:       target,
		Selectors: selectors,
		Now:       local,
	}, nil
}

// Fetch scrapes the page for the window active at now.
func (s *WindowSource) Fetch(ctx context.Context, now time.Time, selectors domain.SelectorSet) (scanner.Result, error) {
	if s.scanner == nil {
		return scanner.Result{}, fmt.Errorf("scanner is not configured")
	}

	req, err := s.Request(now, selectors)
	if err != nil {
		return scanner.Result{}, err
	}

	if s.logger != nil {
		s.logger.Info("window selected", "window", req.Window, "day", window.Describe(req.Now, s.calendar))
	}

	res, err := s.scanner.Scan(ctx, req)
	if err != nil {
		return scanner.Result{}, fmt.Errorf("scan %s window: %w", req.Window, err)
	}

	return res, nil
}
