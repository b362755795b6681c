package domain

import "time"

// ExclusiveMarker tags titles that belong to the scanned "exclusive" category.
const ExclusiveMarker = "[단독]"

// NewsItem is a single story extracted from one results page.
type NewsItem struct {
	Title       string
	URL         string
	Publisher   string
	Thumbnail   string
	Summary     string
	PublishedAt time.Time
	CreatedAt   *time.Time
	ExpiresAt   *time.Time
}

// RankedNews attaches the model score and its reasoning to an item.
type RankedNews struct {
	News   NewsItem
	Score  int
	Reason string
}

// Window names one of the fixed search ranges used by the source query.
type Window string

const (
	WindowMorning Window = "MORNING"
	WindowWeekend Window = "WEEKEND"
	WindowWeekday Window = "WEEKDAY"
)

// ContentBlock is one element of a text model response.
type ContentBlock interface {
	blockType() string
}

// TextBlock carries generated text.
type TextBlock struct {
	Text string
}

// OtherBlock stands for any non-text block (tool use, thinking, ...).
type OtherBlock struct {
	Type string
}

func (TextBlock) blockType() string    { return "text" }
func (b OtherBlock) blockType() string { return b.Type }

// FirstText returns the text of the first TextBlock, if any.
func FirstText(blocks []ContentBlock) (string, bool) {
	for _, block := range blocks {
		if text, ok := block.(TextBlock); ok {
			return text.Text, true
		}
	}
	return "", false
}
