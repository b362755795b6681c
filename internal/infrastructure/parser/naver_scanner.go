package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"ExclusiveScanner/internal/scanner"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NaverScanner fetches a news search results page and extracts exclusive items.
type NaverScanner struct {
	client    *http.Client
	userAgent string
	domain    string
	marker    string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*NaverScanner)(nil)

// Options customises a NaverScanner; zero values fall back to defaults.
type Options struct {
	UserAgent string
	Domain    string
	Marker    string
}

// NewNaverScanner wires an HTTP client; a nil client gets a 20 second timeout.
func NewNaverScanner(client *http.Client, opts Options, logger *slog.Logger) *NaverScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = browserUserAgent
	}
	return &NaverScanner{
		client:    client,
		userAgent: opts.UserAgent,
		domain:    opts.Domain,
		marker:    opts.Marker,
		logger:    logger,
	}
}

// Scan downloads req.URL and extracts items with req.Selectors.
func (s *NaverScanner) Scan(ctx context.Context, req scanner.Request) (scanner.Result, error) {
	s.debug("scan", "window", req.Window, "url", req.URL)

	html, err := s.Fetch(ctx, req.URL)
	if err != nil {
		return scanner.Result{}, err
	}

	items := slices.Collect(Extract(html, req.Selectors, ExtractOptions{
		Domain: s.domain,
		Marker: s.marker,
		Now:    req.Now,
		Logger: s.logger,
	}))

	s.debug("scan done", "window", req.Window, "items", len(items), "bytes", len(html))
	return scanner.Result{Items: items}, nil
}

// Fetch returns the raw body of pageURL.
func (s *NaverScanner) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search page returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	return string(body), nil
}

func (s *NaverScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
