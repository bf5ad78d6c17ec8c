// Package notify delivers insight alerts to a Slack or Discord incoming
// webhook. Delivery is best-effort and single-attempt; the caller decides
// what a failure means.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const senderName = "aluminum-intel"

// Sender posts plain-text messages to one configured webhook URL. An empty
// URL disables sending entirely.
type Sender struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

func NewSender(webhookURL string, logger *slog.Logger) *Sender {
	return &Sender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// Channel names the payload dialect chosen for the configured URL.
func (s *Sender) Channel() string {
	if strings.Contains(s.webhookURL, "discord") {
		return "discord"
	}
	return "slack"
}

// Send posts one message. It is a no-op when disabled.
func (s *Sender) Send(ctx context.Context, text string) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(s.payload(text))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	s.logger.Debug("alert delivered", "channel", s.Channel())
	return nil
}

// payload shapes the message for the webhook dialect: Discord wants
// "content", Slack-compatible hooks want "text".
func (s *Sender) payload(text string) map[string]string {
	if s.Channel() == "discord" {
		return map[string]string{
			"content":  text,
			"username": senderName,
		}
	}
	return map[string]string{
		"text":     text,
		"username": senderName,
	}
}
