package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ExclusiveScanner/internal/config"
	"ExclusiveScanner/internal/dedup"
	"ExclusiveScanner/internal/discovery"
	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/infrastructure/llm"
	"ExclusiveScanner/internal/infrastructure/ml"
	"ExclusiveScanner/internal/infrastructure/parser"
	"ExclusiveScanner/internal/infrastructure/scheduler"
	"ExclusiveScanner/internal/infrastructure/storage"
	"ExclusiveScanner/internal/infrastructure/telegram"
	"ExclusiveScanner/internal/logging"
	"ExclusiveScanner/internal/ports"
	"ExclusiveScanner/internal/recovery"
	"ExclusiveScanner/internal/server"
	"ExclusiveScanner/internal/state"
	"ExclusiveScanner/internal/usecase"
	"ExclusiveScanner/internal/window"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *storage.DB
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	selectors *state.SelectorStore
	fetcher   ports.PageFetcher
	agent     *discovery.Agent
	alerts    ports.AdminAlerter
}

// New opens storage and builds every adapter from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	loc := cfg.Scheduler.Location()

	db, err := storage.Open(ctx, cfg.Database.Path, cfg.Database.BusyTimeoutMS)
	if err != nil {
		return nil, err
	}

	docs := storage.NewDocumentStore(db)
	selectors := state.NewSelectorStore(docs, domain.DefaultSelectors())
	counter := state.NewFailureCounter(docs)

	scanOpts := parser.Options{
		UserAgent: cfg.Source.UserAgent,
		Domain:    cfg.Source.Domain,
		Marker:    cfg.Source.Marker,
	}
	naver := parser.NewNaverScanner(
		&http.Client{Timeout: seconds(cfg.Source.TimeoutSeconds, 20)},
		scanOpts,
		baseLogger.With("component", "scanner.naver"),
	)
	discoveryFetcher := parser.NewNaverScanner(
		&http.Client{Timeout: seconds(cfg.Recovery.TimeoutSeconds, 30)},
		scanOpts,
		baseLogger.With("component", "scanner.discovery"),
	)

	source := parser.NewWindowSource(naver, map[domain.Window]string{
		domain.WindowMorning: cfg.Source.URLs.Morning,
		domain.WindowWeekend: cfg.Source.URLs.Weekend,
		domain.WindowWeekday: cfg.Source.URLs.Weekday,
	}, window.NewCalendar(cfg.Scheduler.Holidays...), loc, baseLogger.With("component", "source"))

	var model ports.TextModel
	if cfg.Anthropic.APIKey != "" {
		model = llm.NewAnthropicClient(cfg.Anthropic)
	} else {
		baseLogger.Warn("anthropic api key is not set; ranking falls back to default scores and discovery is disabled")
	}

	var agent *discovery.Agent
	var discoverer recovery.Discoverer
	if model != nil {
		agent = discovery.NewAgent(model, discovery.Options{
			Model:     cfg.Anthropic.DiscoveryModel,
			Anchor:    cfg.Recovery.Anchor,
			SliceSize: cfg.Recovery.SliceSize,
		}, baseLogger.With("component", "discovery"))
		discoverer = agent
	}

	rankClient := ml.NewClient(model, cfg.Anthropic.RankingModel, cfg.Anthropic.SummaryModel, baseLogger.With("component", "ranker"))
	var summarizer ports.Summarizer
	if model != nil {
		summarizer = rankClient
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(
			cfg.Notifications.APIBase,
			cfg.Notifications.Telegram.BotToken,
			cfg.Notifications.Telegram.ChatID,
			baseLogger.With("component", "telegram"),
		)
	}

	var alerts ports.AdminAlerter
	if cfg.Notifications.Admin.Enabled() {
		alerts = telegram.NewAdminAlerter(
			cfg.Notifications.APIBase,
			cfg.Notifications.Admin.BotToken,
			cfg.Notifications.Admin.ChatID,
			loc,
			baseLogger.With("component", "admin"),
		)
	}

	discoveryURL := cfg.Recovery.DiscoveryURL
	if discoveryURL == "" {
		discoveryURL = cfg.Source.URLs.Weekday
	}

	controller := recovery.NewController(recovery.Deps{
		Counter:      counter,
		Selectors:    selectors,
		Fetcher:      discoveryFetcher,
		Discoverer:   discoverer,
		Alerts:       alerts,
		DiscoveryURL: discoveryURL,
		Logger:       baseLogger.With("component", "recovery"),
	})

	cache := dedup.New(storage.NewNewsRepository(db), dedup.Options{
		TTL:         cfg.Dedup.TTL(),
		LookupBatch: cfg.Dedup.LookupBatch,
		WriteBatch:  cfg.Dedup.WriteBatch,
	}, baseLogger.With("component", "dedup"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Selectors: selectors,
		Recovery:  controller,
		Dedup:     cache,
		Blacklist: usecase.Blacklist{
			Publishers: cfg.Filter.BannedPublishers,
			Keywords:   cfg.Filter.BannedKeywords,
		},
		Ranker:     rankClient,
		Summarizer: summarizer,
		Notifier:   notifier,
		Alerts:     alerts,
		MinScore:   cfg.Ranking.MinScore,
		MaxSend:    cfg.Ranking.MaxSend,
		Location:   loc,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.RunOnStart),
		pipeline,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		pipeline:  pipeline,
		scheduler: sched,
		selectors: selectors,
		fetcher:   discoveryFetcher,
		agent:     agent,
		alerts:    alerts,
	}, nil
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context, opts usecase.RunOptions) (usecase.Result, error) {
	res, err := a.pipeline.Run(ctx, time.Now(), opts)
	if err != nil {
		return res, err
	}
	a.logger.Info("run finished", "count", res.Count, "message", res.Message)
	return res, nil
}

// Serve runs the interval scheduler and the HTTP trigger until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	httpServer := server.New(a.cfg.Server.Addr, server.NewHandler(a.pipeline, a.logger.With("component", "server")))

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr, "interval", a.cfg.Scheduler.Interval)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("http server: %w", err)
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-serverErr:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}

	return runErr
}

// SelectorReport is the outcome of a manual discovery run.
type SelectorReport struct {
	Current    domain.SelectorSet
	Discovered domain.SelectorSet
	Changes    []string
	Saved      bool
}

// FindSelectors fetches the discovery page, asks the model for a selector set
// and optionally persists it.
func (a *Application) FindSelectors(ctx context.Context, save bool) (SelectorReport, error) {
	if a.agent == nil {
		return SelectorReport{}, fmt.Errorf("%w: anthropic api key is not set", domain.ErrDiscoveryUnavailable)
	}

	current, err := a.selectors.Load(ctx)
	if err != nil {
		return SelectorReport{}, err
	}

	pageURL := a.cfg.Recovery.DiscoveryURL
	if pageURL == "" {
		pageURL = a.cfg.Source.URLs.Weekday
	}
	html, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return SelectorReport{}, fmt.Errorf("%w: fetch discovery page: %w", domain.ErrDiscoveryUnavailable, err)
	}

	found, err := a.agent.Discover(ctx, html, current)
	if err != nil {
		return SelectorReport{}, err
	}

	report := SelectorReport{Current: current, Discovered: found, Changes: current.Diff(found)}
	if !save {
		return report, nil
	}

	if err := a.selectors.Save(ctx, found); err != nil {
		return report, err
	}
	report.Saved = true

	if a.alerts != nil {
		if err := a.alerts.DiscoveryResult(ctx, report.Changes, nil); err != nil {
			a.logger.Warn("discovery alert failed", "error", err)
		}
	}
	return report, nil
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
