package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
	"ExclusiveScanner/internal/recovery"
)

// SelectorLoader returns the active selector set, seeding it on first use.
type SelectorLoader interface {
	Load(ctx context.Context) (domain.SelectorSet, error)
}

// Recoverer handles the outcome of a scrape for the failure counter.
type Recoverer interface {
	HandleEmpty(ctx context.Context, current domain.SelectorSet, retry recovery.RetryFunc) (recovery.Outcome, error)
	HandleSuccess(ctx context.Context) error
}

// Deduplicator filters out delivered titles and records new deliveries.
type Deduplicator interface {
	FilterNew(ctx context.Context, items []domain.NewsItem) ([]domain.NewsItem, error)
	Save(ctx context.Context, items []domain.NewsItem) error
}

// DefaultRunTimeout bounds one invocation once it is detached from its caller.
const DefaultRunTimeout = 5 * time.Minute

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.NewsSource
	Selectors  SelectorLoader
	Recovery   Recoverer
	Dedup      Deduplicator
	Blacklist  Blacklist
	Ranker     ports.Ranker
	Summarizer ports.Summarizer
	Notifier   ports.Notifier
	Alerts     ports.AdminAlerter
	MinScore   int
	MaxSend    int
	Location   *time.Location
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// RunOptions switch off side effects for manual runs.
type RunOptions struct {
	NoSave    bool
	SkipDedup bool
}

// Result summarises one invocation.
type Result struct {
	Count   int
	Message string
}

// Pipeline implements the scrape, recover, dedup, rank and notify workflow.
type Pipeline struct {
	mu sync.Mutex

	source     ports.NewsSource
	selectors  SelectorLoader
	recovery   Recoverer
	dedup      Deduplicator
	blacklist  Blacklist
	ranker     ports.Ranker
	summarizer ports.Summarizer
	notifier   ports.Notifier
	alerts     ports.AdminAlerter
	minScore   int
	maxSend    int
	location   *time.Location
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	runTimeout := deps.RunTimeout
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	return &Pipeline{
		source:     deps.Source,
		selectors:  deps.Selectors,
		recovery:   deps.Recovery,
		dedup:      deps.Dedup,
		blacklist:  deps.Blacklist,
		ranker:     deps.Ranker,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		alerts:     deps.Alerts,
		minScore:   deps.MinScore,
		maxSend:    deps.MaxSend,
		location:   loc,
		runTimeout: runTimeout,
		logger:     deps.Logger,
	}
}

func done(message string) Result {
	return Result{Message: message}
}

// Run executes one invocation. Concurrent calls are serialized.
// Cancellation of ctx is ignored once the run starts, so a published digest
// is always recorded; the run is bounded by its own timeout instead.
func (p *Pipeline) Run(ctx context.Context, now time.Time, opts RunOptions) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.runTimeout)
	defer cancel()

	if p.source == nil || p.selectors == nil {
		return Result{}, fmt.Errorf("pipeline is not configured")
	}
	now = now.In(p.location)

	selectors, err := p.selectors.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	items, err := p.scrape(ctx, now, selectors)
	if err != nil {
		return Result{}, err
	}
	p.info("scraped", "items", len(items))

	if len(items) == 0 {
		items, err = p.recover(ctx, now, selectors)
		if err != nil {
			return Result{}, err
		}
		if len(items) == 0 {
			return done("크롤링된 뉴스 없음"), nil
		}
	} else if p.recovery != nil {
		if err := p.recovery.HandleSuccess(ctx); err != nil {
			return Result{}, err
		}
	}

	if !opts.SkipDedup && p.dedup != nil {
		before := len(items)
		items, err = p.dedup.FilterNew(ctx, items)
		if err != nil {
			return Result{}, err
		}
		p.info("dedup", "new", len(items), "duplicates", before-len(items))
		if len(items) == 0 {
			return done("신규 뉴스 없음"), nil
		}
	}

	items = p.blacklist.Apply(items)
	if len(items) == 0 {
		return done("필터링 후 뉴스 없음"), nil
	}

	ranked, err := p.rank(ctx, items)
	if err != nil {
		return Result{}, err
	}
	if p.alerts != nil {
		if err := p.alerts.RankingReport(ctx, ranked); err != nil {
			p.warn("ranking report failed", "error", err)
		}
	}

	selected := Cut(ranked, p.minScore, p.maxSend)
	p.info("cutoff applied", "min_score", p.minScore, "max_send", p.maxSend, "selected", len(selected))
	if len(selected) == 0 {
		return done("커트라인 이상 뉴스 없음"), nil
	}

	selected = p.summarize(ctx, selected)

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, selected, now); err != nil {
			return Result{}, fmt.Errorf("publish digest: %w", err)
		}
	} else {
		p.warn("notifier not configured, digest not sent", "items", len(selected))
	}

	if !opts.NoSave && p.dedup != nil {
		delivered := make([]domain.NewsItem, len(selected))
		for i, r := range selected {
			delivered[i] = r.News
		}
		if err := p.dedup.Save(ctx, delivered); err != nil {
			return Result{}, err
		}
	}

	return Result{Count: len(selected), Message: fmt.Sprintf("%d개 뉴스 처리 완료", len(selected))}, nil
}

func (p *Pipeline) scrape(ctx context.Context, now time.Time, selectors domain.SelectorSet) ([]domain.NewsItem, error) {
	res, err := p.source.Fetch(ctx, now, selectors)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}
	return res.Items, nil
}

func (p *Pipeline) recover(ctx context.Context, now time.Time, selectors domain.SelectorSet) ([]domain.NewsItem, error) {
	if p.recovery == nil {
		return nil, nil
	}

	outcome, err := p.recovery.HandleEmpty(ctx, selectors, func(ctx context.Context, next domain.SelectorSet) ([]domain.NewsItem, error) {
		return p.scrape(ctx, now, next)
	})
	if err != nil {
		return nil, err
	}

	p.info("empty scrape handled", "state", outcome.State, "failure_count", outcome.FailureCount, "cause", outcome.Cause)
	if outcome.State == recovery.Recovered {
		return outcome.Items, nil
	}

	if p.alerts != nil {
		if err := p.alerts.ScrapingFailed(ctx); err != nil {
			p.warn("scraping failure alert failed", "error", err)
		}
	}
	return nil, nil
}

func (p *Pipeline) rank(ctx context.Context, items []domain.NewsItem) ([]domain.RankedNews, error) {
	if p.ranker == nil {
		ranked := make([]domain.RankedNews, len(items))
		for i, item := range items {
			ranked[i] = domain.RankedNews{News: item, Score: p.minScore}
		}
		return ranked, nil
	}

	ranked, err := p.ranker.Rank(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return ranked, nil
}

func (p *Pipeline) summarize(ctx context.Context, ranked []domain.RankedNews) []domain.RankedNews {
	if p.summarizer == nil {
		return ranked
	}

	out := make([]domain.RankedNews, len(ranked))
	for i, r := range ranked {
		item, err := p.summarizer.Summarize(ctx, r.News)
		if err != nil {
			p.warn("summary kept as is", "title", r.News.Title, "error", err)
		}
		r.News = item
		out[i] = r
	}
	return out
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
