package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientEmpty marks a scrape with zero items below the strike threshold.
	ErrTransientEmpty = errors.New("no items scraped")
	// ErrMarkupBroken marks a scrape that reached the strike threshold.
	ErrMarkupBroken = errors.New("markup appears broken")
	// ErrDiscoveryUnavailable covers every way selector discovery can fail.
	ErrDiscoveryUnavailable = errors.New("selector discovery unavailable")
	// ErrAnchorNotFound means the raw page lacks the discovery anchor.
	ErrAnchorNotFound = fmt.Errorf("%w: anchor not found", ErrDiscoveryUnavailable)
	// ErrMalformedResponse means the model reply held no usable selector object.
	ErrMalformedResponse = fmt.Errorf("%w: malformed model response", ErrDiscoveryUnavailable)
	// ErrDedupStore wraps any failure while querying or writing dedup records.
	ErrDedupStore = errors.New("dedup store")
	// ErrNotification wraps delivery failures of the news channel.
	ErrNotification = errors.New("notification")
)
