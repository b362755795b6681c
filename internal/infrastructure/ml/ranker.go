package ml

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

const (
	// FallbackScore is assigned to every item when ranking fails.
	FallbackScore  = 5
	FallbackReason = "API 오류로 인한 기본 점수"

	rankTokens    = 2000
	summaryTokens = 200
	temperature   = 0.3
)

// Client ranks and summarizes items through a text model.
type Client struct {
	model        ports.TextModel
	rankModel    string
	summaryModel string
	logger       *slog.Logger
}

var _ ports.Ranker = (*Client)(nil)
var _ ports.Summarizer = (*Client)(nil)

// NewClient wires the client over a text model.
func NewClient(model ports.TextModel, rankModel, summaryModel string, logger *slog.Logger) *Client {
	return &Client{
		model:        model,
		rankModel:    rankModel,
		summaryModel: summaryModel,
		logger:       logger,
	}
}

type ranking struct {
	Index  int    `json:"index"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Rank scores items, highest first. When the model call or its reply fails,
// every item gets FallbackScore in input order and no error is returned.
func (c *Client) Rank(ctx context.Context, items []domain.NewsItem) ([]domain.RankedNews, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ranked, err := c.rank(ctx, items)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("ranking failed, using fallback score", "error", err, "score", FallbackScore)
		}
		return fallback(items), nil
	}

	if c.logger != nil {
		for i, r := range ranked {
			c.logger.Debug("ranked", "position", i+1, "score", r.Score, "title", r.News.Title, "reason", r.Reason)
		}
	}
	return ranked, nil
}

func (c *Client) rank(ctx context.Context, items []domain.NewsItem) ([]domain.RankedNews, error) {
	if c.model == nil {
		return nil, fmt.Errorf("text model is not configured")
	}

	blocks, err := c.model.Complete(ctx, ports.CompletionRequest{
		Model:       c.rankModel,
		Prompt:      rankPrompt(items),
		MaxTokens:   rankTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	text, _ := domain.FirstText(blocks)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in ranking response")
	}

	var rankings []ranking
	if err := json.Unmarshal([]byte(text[start:end+1]), &rankings); err != nil {
		return nil, fmt.Errorf("decode ranking response: %w", err)
	}

	ranked := make([]domain.RankedNews, 0, len(rankings))
	used := make(map[int]bool, len(rankings))
	for _, r := range rankings {
		if r.Index < 0 || r.Index >= len(items) || used[r.Index] {
			continue
		}
		used[r.Index] = true
		ranked = append(ranked, domain.RankedNews{News: items[r.Index], Score: r.Score, Reason: r.Reason})
	}

	slices.SortStableFunc(ranked, func(a, b domain.RankedNews) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked, nil
}

func fallback(items []domain.NewsItem) []domain.RankedNews {
	ranked := make([]domain.RankedNews, len(items))
	for i, item := range items {
		ranked[i] = domain.RankedNews{News: item, Score: FallbackScore, Reason: FallbackReason}
	}
	return ranked
}

// Summarize rewrites the summary in one or two sentences. Items without a
// summary are returned as is; on error the original item is returned too.
func (c *Client) Summarize(ctx context.Context, item domain.NewsItem) (domain.NewsItem, error) {
	if strings.TrimSpace(item.Summary) == "" {
		return item, nil
	}
	if c.model == nil {
		return item, fmt.Errorf("text model is not configured")
	}

	blocks, err := c.model.Complete(ctx, ports.CompletionRequest{
		Model:       c.summaryModel,
		Prompt:      summaryPrompt(item),
		MaxTokens:   summaryTokens,
		Temperature: temperature,
	})
	if err != nil {
		return item, fmt.Errorf("summarize %q: %w", item.Title, err)
	}

	text, ok := domain.FirstText(blocks)
	if !ok || strings.TrimSpace(text) == "" {
		return item, nil
	}

	item.Summary = strings.TrimSpace(text)
	return item, nil
}

func rankPrompt(items []domain.NewsItem) string {
	var list strings.Builder
	for i, item := range items {
		if i > 0 {
			list.WriteString("\n\n")
		}
		summary := item.Summary
		if summary == "" {
			summary = "없음"
		}
		fmt.Fprintf(&list, "[%d] 제목: %s\n언론사: %s\n요약: %s", i, item.Title, item.Publisher, summary)
	}
	return fmt.Sprintf(rankTemplate, list.String())
}

func summaryPrompt(item domain.NewsItem) string {
	return fmt.Sprintf(summaryTemplate, item.Title, item.Summary)
}

const rankTemplate = `다음은 '단독' 보도 뉴스 목록입니다. 각 뉴스의 중요도를 평가하여 순위를 매겨주세요.

평가 기준:
- 높은 중요도 (8-10점): 대통령 관련 보도, 수사/조사, 유명인/정치인/고위층의 인사이동/의혹/논란 보도, 내부 고발, 투자 빅딜, 파급력이 큰 경제/기업/외교 뉴스, 흥미로운 사회적 이슈, 독자의 관심을 끌 만한 내용
- 중간 중요도 (4-7점): 일반적인 사건사고, 국가 정책 발표, 소비자 뉴스, 대기업이나 재벌 관련한 일반 뉴스
- 낮은 중요도 (1-3점): [중요!] 뉴스 제목에 통계 표현 (예시 30%%, 절반가량, 3분의1)이 포함된 보도, 지방/지자체 뉴스, 지나치게 전문적이거나 지엽적인 내용, 연예계 일반 소식

뉴스 목록:
%s

다음 JSON 형식으로만 응답해주세요 (다른 설명 없이):
[
  {"index": 0, "score": 9, "reason": "수사 관련 중요 이슈"},
  {"index": 1, "score": 7, "reason": "사회적 관심사"},
  ...
]`

const summaryTemplate = `다음 뉴스의 핵심을 1-2문장으로 요약해주세요.

제목: %s

기존 요약:
%s

요구사항:
- 한글로 80자 이내
- 기사의 핵심 내용만 간결하게 작성
- 완성된 문장 형태로 작성
- 종결 어미: '했음', '있음', '됨', '밝힘' 등 명사형 종결어미 사용
- 불필요한 수식어 제거

핵심 요약만 응답해주세요:`
