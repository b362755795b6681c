package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

type fakeModel struct {
	blocks []domain.ContentBlock
	err    error
	got    ports.CompletionRequest
	calls  int
}

func (f *fakeModel) Complete(_ context.Context, req ports.CompletionRequest) ([]domain.ContentBlock, error) {
	f.calls++
	f.got = req
	return f.blocks, f.err
}

const page = `<html><body><div class="header">검색</div><div class="group_news"><ul class="list"><li class="bx">[단독] 기사</li></ul></div></body></html>`

const proposed = `{"newsContainer":".list","newsItem":".bx","mainContent":".news_contents","title":".news_tit","url":"a.news_tit","publisher":".info.press","thumbnail":"img.thumb","summary":".dsc_txt","publishedTime":".info span"}`

func TestDiscoverParsesJSONSurroundedByProse(t *testing.T) {
	t.Parallel()

	model := &fakeModel{blocks: []domain.ContentBlock{
		domain.OtherBlock{Type: "thinking"},
		domain.TextBlock{Text: "Here are the selectors:\n```json\n" + proposed + "\n```\nLet me know."},
	}}
	agent := NewAgent(model, Options{Model: "m"}, nil)

	got, err := agent.Discover(context.Background(), page, domain.DefaultSelectors())
	require.NoError(t, err)
	assert.Equal(t, ".bx", got.Item)
	assert.Equal(t, "a.news_tit", got.URL)
	assert.Equal(t, ".info span", got.PublishedTime)

	assert.Equal(t, "m", model.got.Model)
	assert.Equal(t, float64(0), model.got.Temperature)
	assert.Equal(t, 1000, model.got.MaxTokens)
	assert.Contains(t, model.got.Prompt, `"newsItem": ".vs1RfKE1eTzMZ5RqnhIv"`, "current selectors are embedded")
	assert.Contains(t, model.got.Prompt, `<div class="group_news">`)
	assert.NotContains(t, model.got.Prompt, `<div class="header">`, "only the fragment after the anchor is sent")
}

func TestDiscoverAnchorMissing(t *testing.T) {
	t.Parallel()

	model := &fakeModel{}
	_, err := NewAgent(model, Options{}, nil).Discover(context.Background(), "<html></html>", domain.DefaultSelectors())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAnchorNotFound)
	assert.ErrorIs(t, err, domain.ErrDiscoveryUnavailable)
	assert.Zero(t, model.calls, "model is not called without an anchor")
}

func TestDiscoverFailures(t *testing.T) {
	t.Parallel()

	incomplete := strings.Replace(proposed, `"summary":".dsc_txt",`, "", 1)

	tests := []struct {
		name   string
		model  *fakeModel
		target error
	}{
		{"model error", &fakeModel{err: errors.New("503")}, domain.ErrDiscoveryUnavailable},
		{"no text block", &fakeModel{blocks: []domain.ContentBlock{domain.OtherBlock{Type: "tool_use"}}}, domain.ErrDiscoveryUnavailable},
		{"no json", &fakeModel{blocks: []domain.ContentBlock{domain.TextBlock{Text: "sorry"}}}, domain.ErrMalformedResponse},
		{"invalid json", &fakeModel{blocks: []domain.ContentBlock{domain.TextBlock{Text: "{newsItem: .bx}"}}}, domain.ErrMalformedResponse},
		{"missing role", &fakeModel{blocks: []domain.ContentBlock{domain.TextBlock{Text: incomplete}}}, domain.ErrMalformedResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewAgent(tc.model, Options{}, nil).Discover(context.Background(), page, domain.DefaultSelectors())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestSliceKeepsUTF8Boundary(t *testing.T) {
	t.Parallel()

	anchor := "<a>"
	html := "xx" + anchor + "단독뉴스"

	// anchor (3 bytes) + one Hangul rune (3 bytes) + 1 byte into the next rune
	got, ok := Slice(html, anchor, 7)
	require.True(t, ok)
	assert.Equal(t, "<a>단", got)
	assert.True(t, utf8.ValidString(got))

	all, ok := Slice(html, anchor, 1000)
	require.True(t, ok)
	assert.Equal(t, anchor+"단독뉴스", all)

	_, ok = Slice(html, "<b>", 10)
	assert.False(t, ok)
}
