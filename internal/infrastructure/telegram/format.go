package telegram

import (
	"fmt"
	"strings"
	"time"

	"ExclusiveScanner/internal/domain"
)

const summaryRunes = 72

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// FormatDigest renders ranked items as the channel message. now should
// already be in the audience's timezone.
func FormatDigest(ranked []domain.RankedNews, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚡ 이 시각 단독 알림 (%d시 %d분)\n\n", now.Hour(), now.Minute())

	for i, r := range ranked {
		link := strings.ReplaceAll(r.News.URL, "&", "&amp;")
		fmt.Fprintf(&b, "<a href=\"%s\">%d. <b>%s</b> (%s)</a>\n",
			link, i+1, escapeHTML(r.News.Title), escapeHTML(r.News.Publisher))

		if summary := truncate(r.News.Summary, summaryRunes); summary != "" {
			fmt.Fprintf(&b, "✍️  %s\n\n", summary)
		}
		if i < len(ranked)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// LeadImage is the thumbnail of the top item, if any.
func LeadImage(ranked []domain.RankedNews) string {
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].News.Thumbnail
}

func truncate(summary string, limit int) string {
	runes := []rune(summary)
	if len(runes) <= limit {
		return escapeHTML(summary)
	}
	return escapeHTML(string(runes[:limit])) + "..."
}

func stamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}
