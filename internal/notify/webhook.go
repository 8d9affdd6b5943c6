package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook posts reports as a small JSON payload, the shape most chat
// webhooks (Feishu, DingTalk, Slack-compatible bridges) accept.
type Webhook struct {
	name   string
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier. name is used in logs only.
func NewWebhook(name, url string) *Webhook {
	return &Webhook{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *Webhook) Name() string { return w.name }

type webhookPayload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (w *Webhook) Send(ctx context.Context, subject, markdownBody string) error {
	body, err := json.Marshal(webhookPayload{Title: subject, Text: markdownBody})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
