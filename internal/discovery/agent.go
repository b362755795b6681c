// Package discovery asks a text model for a fresh selector set when the
// results page markup has changed.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

const (
	DefaultAnchor    = `<div class="group_news">`
	DefaultSliceSize = 9999

	maxTokens = 1000
)

// Options configures the agent; zero values use the defaults.
type Options struct {
	Model     string
	Anchor    string
	SliceSize int
}

// Agent proposes a SelectorSet from a fragment of the raw page.
type Agent struct {
	model  ports.TextModel
	opts   Options
	logger *slog.Logger
}

// NewAgent wires an agent over a text model.
func NewAgent(model ports.TextModel, opts Options, logger *slog.Logger) *Agent {
	if opts.Anchor == "" {
		opts.Anchor = DefaultAnchor
	}
	if opts.SliceSize <= 0 {
		opts.SliceSize = DefaultSliceSize
	}
	return &Agent{model: model, opts: opts, logger: logger}
}

// Discover returns the proposed selector set. The result is not checked
// against the page; the caller's retry scrape is the only validation.
func (a *Agent) Discover(ctx context.Context, rawHTML string, current domain.SelectorSet) (domain.SelectorSet, error) {
	fragment, ok := Slice(rawHTML, a.opts.Anchor, a.opts.SliceSize)
	if !ok {
		return domain.SelectorSet{}, fmt.Errorf("%w: %q", domain.ErrAnchorNotFound, a.opts.Anchor)
	}
	a.debug("anchor found", "page_bytes", len(rawHTML), "slice_bytes", len(fragment))

	prompt, err := buildPrompt(current, fragment)
	if err != nil {
		return domain.SelectorSet{}, err
	}

	blocks, err := a.model.Complete(ctx, ports.CompletionRequest{
		Model:       a.opts.Model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return domain.SelectorSet{}, fmt.Errorf("%w: %w", domain.ErrDiscoveryUnavailable, err)
	}

	text, ok := domain.FirstText(blocks)
	if !ok {
		return domain.SelectorSet{}, fmt.Errorf("%w: response has no text block", domain.ErrDiscoveryUnavailable)
	}
	a.debug("model response received", "bytes", len(text))

	return parseSelectors(text)
}

// Slice returns up to size bytes of html starting at the first occurrence of
// anchor, shortened so it never ends inside a multi-byte character.
func Slice(html, anchor string, size int) (string, bool) {
	start := strings.Index(html, anchor)
	if start < 0 {
		return "", false
	}

	end := min(start+size, len(html))
	for end > start && end < len(html) && !utf8.RuneStart(html[end]) {
		end--
	}
	return html[start:end], true
}

func parseSelectors(text string) (domain.SelectorSet, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return domain.SelectorSet{}, fmt.Errorf("%w: no JSON object in response", domain.ErrMalformedResponse)
	}

	var set domain.SelectorSet
	if err := json.Unmarshal([]byte(text[start:end+1]), &set); err != nil {
		return domain.SelectorSet{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if err := set.Validate(); err != nil {
		return domain.SelectorSet{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return set, nil
}

func buildPrompt(current domain.SelectorSet, fragment string) (string, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal current selectors: %w", err)
	}

	var b strings.Builder
	b.WriteString("다음은 네이버 뉴스 검색 결과 HTML의 일부입니다. 이 HTML에서 뉴스 아이템을 파싱하기 위한 CSS 셀렉터를 찾아주세요.\n\n")
	b.WriteString("현재 사용 중인 셀렉터:\n")
	b.Write(currentJSON)
	b.WriteString("\n\n요구사항:\n")
	for i, role := range promptRoles {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, role[0], role[1])
	}
	b.WriteString("\n중요:\n")
	b.WriteString("- [단독] 태그가 포함된 뉴스 아이템을 정확히 선택할 수 있어야 합니다\n")
	b.WriteString("- 셀렉터는 CSS 셀렉터 문법을 따라야 합니다\n")
	b.WriteString("- 동적으로 변경되지 않는 클래스명을 우선 선택하세요\n\n")
	b.WriteString("HTML:\n")
	b.WriteString(fragment)
	b.WriteString("\n\n다음 JSON 형식으로만 응답해주세요 (다른 설명 없이):\n")
	b.WriteString(responseTemplate)

	return b.String(), nil
}

var promptRoles = [][2]string{
	{"newsContainer", "전체 뉴스 목록을 감싸는 컨테이너 (class 셀렉터)"},
	{"newsItem", "개별 뉴스 아이템 (class 셀렉터)"},
	{"mainContent", "뉴스 아이템 내 메인 콘텐츠 영역 (class 셀렉터)"},
	{"title", "뉴스 제목 (class 또는 요소 셀렉터)"},
	{"url", "뉴스 링크 (a 태그 셀렉터)"},
	{"publisher", "언론사 이름 (class 또는 요소 셀렉터)"},
	{"thumbnail", "썸네일 이미지 (img 태그 셀렉터)"},
	{"summary", "뉴스 요약 (class 또는 요소 셀렉터)"},
	{"publishedTime", "발행 시간 (class 또는 요소 셀렉터)"},
}

const responseTemplate = `{
  "newsContainer": ".class-name",
  "newsItem": ".class-name",
  "mainContent": ".class-name",
  "title": ".class-name",
  "url": "a.class-name",
  "publisher": ".class-name .nested-class",
  "thumbnail": "a[data-attr] img",
  "summary": ".class-name",
  "publishedTime": ".class-name .nested-class"
}`

func (a *Agent) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
