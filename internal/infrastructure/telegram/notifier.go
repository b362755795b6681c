package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ExclusiveScanner/internal/domain"
	"ExclusiveScanner/internal/ports"
)

// DefaultAPIBase is the public Bot API host.
const DefaultAPIBase = "https://api.telegram.org"

// bot posts JSON calls to one bot token / chat pair.
type bot struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

func newBot(apiBase, botToken, chatID string) bot {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return bot{
		apiBase:  strings.TrimRight(apiBase, "/"),
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (b bot) call(ctx context.Context, method string, payload map[string]any) error {
	if b.botToken == "" || b.chatID == "" || b.client == nil {
		return fmt.Errorf("telegram bot misconfigured")
	}
	payload["chat_id"] = b.chatID

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", b.apiBase, b.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var decoded apiResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode != http.StatusOK || !decoded.OK {
		if decoded.Description != "" {
			return fmt.Errorf("telegram %s error: %s: %s", method, resp.Status, decoded.Description)
		}
		return fmt.Errorf("telegram %s error: %s", method, resp.Status)
	}

	return nil
}

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	bot    bot
	logger *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(apiBase, botToken, chatID string, logger *slog.Logger) *Notifier {
	return &Notifier{bot: newBot(apiBase, botToken, chatID), logger: logger}
}

// Send posts an HTML message. With an image the message becomes the photo
// caption; if the photo is rejected the plain message is sent instead.
func (n *Notifier) Send(ctx context.Context, message string, imageURL string) error {
	if imageURL != "" {
		err := n.bot.call(ctx, "sendPhoto", map[string]any{
			"photo":      imageURL,
			"caption":    message,
			"parse_mode": "HTML",
		})
		if err == nil {
			return nil
		}
		if n.logger != nil {
			n.logger.Warn("photo rejected, sending text only", "error", err)
		}
	}

	if err := n.bot.call(ctx, "sendMessage", map[string]any{
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotification, err)
	}
	return nil
}

// Publish formats the ranked digest and sends it with the top item's
// thumbnail as the lead image.
func (n *Notifier) Publish(ctx context.Context, ranked []domain.RankedNews, at time.Time) error {
	if len(ranked) == 0 {
		return nil
	}
	if err := n.Send(ctx, FormatDigest(ranked, at), LeadImage(ranked)); err != nil {
		return err
	}
	if n.logger != nil {
		n.logger.Info("digest sent", "items", len(ranked))
	}
	return nil
}
