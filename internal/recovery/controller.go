// Package recovery decides what to do after a scrape came back empty:
// absorb it as transient, or rediscover the selectors and retry once.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
	"ExclusiveScanner/internal/state"
)

// Threshold is the number of consecutive empty scrapes that triggers discovery.
const Threshold = 2

// State is the result of handling one empty scrape.
type State int

const (
	// TransientEmpty means the strike was recorded and nothing else happened.
	TransientEmpty State = iota
	// Recovered means new selectors were found and the retry produced items.
	Recovered
	// RecoveryFailed means the single recovery attempt of this episode is spent.
	RecoveryFailed
)

func (s State) String() string {
	switch s {
	case TransientEmpty:
		return "transient-empty"
	case Recovered:
		return "recovered"
	case RecoveryFailed:
		return "recovery-failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome describes how an empty scrape was handled.
type Outcome struct {
	State        State
	FailureCount int
	// Items are the retried items when State is Recovered.
	Items []domain.NewsItem
	// Selectors is the discovered set, if discovery succeeded.
	Selectors domain.SelectorSet
	// Cause explains a TransientEmpty or RecoveryFailed outcome.
	Cause error
}

// Discoverer proposes a selector set from a raw results page.
type Discoverer interface {
	Discover(ctx context.Context, rawHTML string, current domain.SelectorSet) (domain.SelectorSet, error)
}

// RetryFunc scrapes again with the given selectors.
type RetryFunc func(ctx context.Context, selectors domain.SelectorSet) ([]domain.NewsItem, error)

// Deps bundles collaborators. Alerts may be nil.
type Deps struct {
	Counter      *state.FailureCounter
	Selectors    *state.SelectorStore
	Fetcher      ports.PageFetcher
	Discoverer   Discoverer
	Alerts       ports.AdminAlerter
	DiscoveryURL string
	Logger       *slog.Logger
}

// Controller runs the two-strike recovery state machine.
type Controller struct {
	counter      *state.FailureCounter
	selectors    *state.SelectorStore
	fetcher      ports.PageFetcher
	discoverer   Discoverer
	alerts       ports.AdminAlerter
	discoveryURL string
	logger       *slog.Logger
}

// NewController wires the controller.
func NewController(deps Deps) *Controller {
	return &Controller{
		counter:      deps.Counter,
		selectors:    deps.Selectors,
		fetcher:      deps.Fetcher,
		discoverer:   deps.Discoverer,
		alerts:       deps.Alerts,
		discoveryURL: deps.DiscoveryURL,
		logger:       deps.Logger,
	}
}

// HandleSuccess clears the strike count after a scrape that found items.
func (c *Controller) HandleSuccess(ctx context.Context) error {
	return c.counter.Reset(ctx)
}

// HandleEmpty records a strike and, once the threshold is reached, makes
// exactly one discovery and retry attempt. The count is 0 after any attempt.
// The returned error is reserved for state store failures.
func (c *Controller) HandleEmpty(ctx context.Context, current domain.SelectorSet, retry RetryFunc) (Outcome, error) {
	count, err := c.counter.Load(ctx)
	if err != nil {
		return Outcome{}, err
	}
	count++
	if err := c.counter.Store(ctx, count); err != nil {
		return Outcome{}, err
	}

	if count < Threshold {
		c.info("empty scrape below threshold", "failure_count", count, "threshold", Threshold)
		return Outcome{State: TransientEmpty, FailureCount: count, Cause: domain.ErrTransientEmpty}, nil
	}

	c.warn("entering recovery", "failure_count", count, "error", domain.ErrMarkupBroken)
	c.alert(ctx, "recovery started", func(a ports.AdminAlerter) error {
		return a.RecoveryStarted(ctx, count)
	})

	outcome := c.recover(ctx, current, retry)
	outcome.FailureCount = count

	if err := c.counter.Reset(ctx); err != nil {
		return outcome, err
	}

	if outcome.State == Recovered {
		c.info("recovery succeeded", "items", len(outcome.Items))
		c.alert(ctx, "recovery succeeded", func(a ports.AdminAlerter) error {
			return a.RecoverySucceeded(ctx)
		})
	} else {
		c.warn("recovery failed", "error", outcome.Cause)
	}

	return outcome, nil
}

func (c *Controller) recover(ctx context.Context, current domain.SelectorSet, retry RetryFunc) Outcome {
	discovered, err := c.discover(ctx, current)
	if err != nil {
		c.alert(ctx, "discovery result", func(a ports.AdminAlerter) error {
			return a.DiscoveryResult(ctx, nil, err)
		})
		return Outcome{State: RecoveryFailed, Cause: err}
	}

	changes := current.Diff(discovered)
	c.info("selectors discovered", "changes", len(changes))
	c.alert(ctx, "discovery result", func(a ports.AdminAlerter) error {
		return a.DiscoveryResult(ctx, changes, nil)
	})

	if err := c.selectors.Save(ctx, discovered); err != nil {
		return Outcome{State: RecoveryFailed, Selectors: discovered, Cause: fmt.Errorf("persist selectors: %w", err)}
	}

	items, err := retry(ctx, discovered)
	if err != nil {
		return Outcome{State: RecoveryFailed, Selectors: discovered, Cause: fmt.Errorf("retry scrape: %w", err)}
	}
	if len(items) == 0 {
		return Outcome{
			State:     RecoveryFailed,
			Selectors: discovered,
			Cause:     fmt.Errorf("%w: discovered selectors matched nothing", domain.ErrMarkupBroken),
		}
	}

	return Outcome{State: Recovered, Selectors: discovered, Items: items}
}

func (c *Controller) discover(ctx context.Context, current domain.SelectorSet) (domain.SelectorSet, error) {
	if c.fetcher == nil || c.discoverer == nil {
		return domain.SelectorSet{}, fmt.Errorf("%w: discovery is not configured", domain.ErrDiscoveryUnavailable)
	}

	raw, err := c.fetcher.Fetch(ctx, c.discoveryURL)
	if err != nil {
		return domain.SelectorSet{}, fmt.Errorf("%w: fetch discovery page: %w", domain.ErrDiscoveryUnavailable, err)
	}

	discovered, err := c.discoverer.Discover(ctx, raw, current)
	if err != nil {
		if !errors.Is(err, domain.ErrDiscoveryUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrDiscoveryUnavailable, err)
		}
		return domain.SelectorSet{}, err
	}
	return discovered, nil
}

// alert sends an admin notification; failures are only logged.
func (c *Controller) alert(ctx context.Context, what string, send func(ports.AdminAlerter) error) {
	if c.alerts == nil {
		return
	}
	if err := send(c.alerts); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "admin alert failed", "alert", what, "error", err)
	}
}

func (c *Controller) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
