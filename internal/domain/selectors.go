package domain

import (
	"fmt"
	"strings"
)

// SelectorSet maps the nine structural roles of a results page to CSS selectors.
// It is replaced wholesale, never patched per field.
type SelectorSet struct {
	Container     string `json:"newsContainer" yaml:"newsContainer"`
	Item          string `json:"newsItem" yaml:"newsItem"`
	MainContent   string `json:"mainContent" yaml:"mainContent"`
	Title         string `json:"title" yaml:"title"`
	URL           string `json:"url" yaml:"url"`
	Publisher     string `json:"publisher" yaml:"publisher"`
	Thumbnail     string `json:"thumbnail" yaml:"thumbnail"`
	Summary       string `json:"summary" yaml:"summary"`
	PublishedTime string `json:"publishedTime" yaml:"publishedTime"`
}

// DefaultSelectors is the compiled-in set seeded on first run.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		Container:     ".fds-news-item-list-tab",
		Item:          ".vs1RfKE1eTzMZ5RqnhIv",
		MainContent:   ".RnP2vJw672aZIyWK1kIZ",
		Title:         ".sds-comps-text-type-headline1",
		URL:           "a.VVZqvAlvnADQu8BVMc2n",
		Publisher:     ".sds-comps-profile-info-title .sds-comps-text-weight-sm",
		Thumbnail:     `a[data-heatmap-target=".img"] img`,
		Summary:       ".sds-comps-text-type-body1",
		PublishedTime: ".sds-comps-profile-info-subtext .U1zN1wdZWj0pyvj9oyR0",
	}
}

// Roles returns role name / selector pairs in a stable order.
func (s SelectorSet) Roles() [][2]string {
	return [][2]string{
		{"newsContainer", s.Container},
		{"newsItem", s.Item},
		{"mainContent", s.MainContent},
		{"title", s.Title},
		{"url", s.URL},
		{"publisher", s.Publisher},
		{"thumbnail", s.Thumbnail},
		{"summary", s.Summary},
		{"publishedTime", s.PublishedTime},
	}
}

// Validate reports the first role left empty.
func (s SelectorSet) Validate() error {
	for _, role := range s.Roles() {
		if strings.TrimSpace(role[1]) == "" {
			return fmt.Errorf("selector role %q is empty", role[0])
		}
	}
	return nil
}

// Diff lists roles whose selector differs from other as "role: old → new".
func (s SelectorSet) Diff(other SelectorSet) []string {
	current := s.Roles()
	next := other.Roles()

	var changes []string
	for i := range current {
		if current[i][1] != next[i][1] {
			changes = append(changes, fmt.Sprintf("%s: %s → %s", current[i][0], current[i][1], next[i][1]))
		}
	}
	return changes
}
