package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

const (
	maxMessageLength = 4096
	safeMargin       = 200
)

// AdminAlerter reports operational events to the operator chat.
type AdminAlerter struct {
	bot      bot
	location *time.Location
	now      func() time.Time
	pause    time.Duration
	logger   *slog.Logger
}

var _ ports.AdminAlerter = (*AdminAlerter)(nil)

// NewAdminAlerter registers the operator bot. Timestamps are rendered in loc.
func NewAdminAlerter(apiBase, botToken, chatID string, loc *time.Location, logger *slog.Logger) *AdminAlerter {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminAlerter{
		bot:      newBot(apiBase, botToken, chatID),
		location: loc,
		now:      time.Now,
		pause:    time.Second,
		logger:   logger,
	}
}

func (a *AdminAlerter) timestamp() string {
	return stamp(a.now().In(a.location))
}

func (a *AdminAlerter) send(ctx context.Context, text string) error {
	err := a.bot.call(ctx, "sendMessage", map[string]any{
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("admin alert: %w", err)
	}
	if a.logger != nil {
		a.logger.Debug("admin alert sent", "bytes", len(text))
	}
	return nil
}

// ScrapingFailed reports a run that ended without items.
func (a *AdminAlerter) ScrapingFailed(ctx context.Context) error {
	return a.send(ctx, fmt.Sprintf(`🚨 <b>크롤링 실패 경고</b>

크롤링 결과가 0개입니다.
가능한 원인:
- 네이버 HTML 구조 변경
- 셀렉터 업데이트 필요
- 최근 [단독] 뉴스 없음

시간: %s`, a.timestamp()))
}

// RecoveryStarted reports that the strike threshold was reached.
func (a *AdminAlerter) RecoveryStarted(ctx context.Context, failureCount int) error {
	return a.send(ctx, fmt.Sprintf(`🔧 <b>자동 복구 모드 시작</b>

크롤링이 %d회 연속 실패하여
자동 셀렉터 탐지를 시작합니다.

시간: %s`, failureCount, a.timestamp()))
}

// RecoverySucceeded reports that the retry with new selectors found items.
func (a *AdminAlerter) RecoverySucceeded(ctx context.Context) error {
	return a.send(ctx, fmt.Sprintf(`✅ <b>자동 복구 성공</b>

새로운 셀렉터로 크롤링에 성공했습니다.
시스템이 정상적으로 복구되었습니다.

시간: %s`, a.timestamp()))
}

// DiscoveryResult reports the discovered selector diff, or why discovery failed.
func (a *AdminAlerter) DiscoveryResult(ctx context.Context, changes []string, discoveryErr error) error {
	if discoveryErr != nil {
		return a.send(ctx, fmt.Sprintf(`❌ <b>셀렉터 자동 탐지 실패</b>

셀렉터 탐지 중 오류가 발생했습니다.

오류: %s

find-selectors 모드로 셀렉터를 수동 확인해주세요.

시간: %s`, escapeHTML(discoveryErr.Error()), a.timestamp()))
	}

	summary := "변경 사항 없음"
	if len(changes) > 0 {
		summary = strings.Join(changes, "\n")
	}
	return a.send(ctx, fmt.Sprintf(`🔍 <b>셀렉터 자동 탐지 완료</b>

✅ 새로운 셀렉터를 탐지했습니다.

<b>변경 사항:</b>
%s

새 셀렉터가 저장되었으며 다음 크롤링부터 사용합니다.

시간: %s`, escapeHTML(summary), a.timestamp()))
}

// RankingReport sends every ranked item with its score, split into as many
// messages as needed to stay under the Telegram length limit.
func (a *AdminAlerter) RankingReport(ctx context.Context, ranked []domain.RankedNews) error {
	for i, message := range rankingMessages(ranked, a.timestamp()) {
		if i > 0 && a.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.pause):
			}
		}
		if err := a.send(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

func rankingMessages(ranked []domain.RankedNews, timestamp string) []string {
	footer := "\n\n시간: " + timestamp
	if len(ranked) == 0 {
		return []string{"📊 <b>AI 랭킹 보고</b>\n\n랭킹할 뉴스가 없습니다." + footer}
	}

	entries := make([]string, len(ranked))
	for i, r := range ranked {
		entries[i] = fmt.Sprintf("%d. <b>%s</b>\n   점수: %d/10\n   언론사: %s\n   이유: %s\n   🔗 <a href=\"%s\">기사 링크</a>",
			i+1, escapeHTML(r.News.Title), r.Score, escapeHTML(r.News.Publisher), escapeHTML(r.Reason), escapeHTML(r.News.URL))
	}

	total := len(ranked)
	limit := maxMessageLength - safeMargin
	header := func(from, to int) string {
		return fmt.Sprintf("📊 <b>AI 랭킹 보고</b> (%d~%d/%d)\n\n", from, to, total)
	}

	var messages []string
	var body strings.Builder
	start := 0
	for i, entry := range entries {
		sep := ""
		if body.Len() > 0 {
			sep = "\n\n"
		}
		length := len(header(start+1, i+1)) + body.Len() + len(sep) + len(entry) + len(footer)
		if length > limit && body.Len() > 0 {
			messages = append(messages, header(start+1, i)+body.String()+footer)
			body.Reset()
			start = i
			sep = ""
		}
		body.WriteString(sep)
		body.WriteString(entry)
	}

	if start == 0 {
		messages = append(messages, fmt.Sprintf("📊 <b>AI 랭킹 보고</b>\n\n총 %d개 뉴스 분석 완료\n\n", total)+body.String()+footer)
	} else {
		messages = append(messages, header(start+1, total)+body.String()+footer)
	}
	return messages
}
