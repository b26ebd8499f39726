package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of a mail server.
type LogSender struct {
	From   string
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(s.From) == "" {
		return nil
	}
	s.Logger.Info("notification",
		zap.String("from", s.From),
		zap.Strings("to", msg.Recipients),
		zap.String("subject", msg.Subject),
		zap.String("ticket_id", msg.TicketID))
	return nil
}

// WebhookSender POSTs the message as JSON.
type WebhookSender struct {
	URL    string
	Client *http.Client
}

// NewWebhookSender returns nil when url is empty.
func NewWebhookSender(url string) *WebhookSender {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	return &WebhookSender{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status: %d", resp.StatusCode)
	}
	return nil
}

// Senders builds the configured transports.
func Senders(emailFrom, webhookURL string, logger *zap.Logger) Fanout {
	senders := Fanout{LogSender{From: emailFrom, Logger: logger}}
	if webhook := NewWebhookSender(webhookURL); webhook != nil {
		senders = append(senders, webhook)
	}
	return senders
}
