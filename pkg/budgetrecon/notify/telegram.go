package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTelegramURL is the Bot API base URL.
const DefaultTelegramURL = "https://api.telegram.org"

// ErrNotConfigured is returned by a notifier missing its credentials.
var ErrNotConfigured = errors.New("notifier not configured")

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	Token  string
	ChatID string
	// BaseURL defaults to DefaultTelegramURL.
	BaseURL string
	Client  *http.Client
}

func (t *Telegram) Name() string { return "telegram" }

type sendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notify sends text; the subject is not used by Telegram.
func (t *Telegram) Notify(ctx context.Context, subject, text string) error {
	if t.Token == "" || t.ChatID == "" {
		return fmt.Errorf("telegram: %w", ErrNotConfigured)
	}
	body, err := json.Marshal(sendMessage{ChatID: t.ChatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return err
	}

	base := t.BaseURL
	if base == "" {
		base = DefaultTelegramURL
	}
	url := strings.TrimSuffix(base, "/") + "/bot" + t.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
